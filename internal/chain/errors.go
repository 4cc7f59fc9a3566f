/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package chain

import (
	"errors"
	"fmt"

	"crypverify-go/internal/models"
)

var (
	ErrEmptyHash           = errors.New("transaction hash is empty")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrMalformedPayload    = errors.New("malformed provider payload")
)

// LookupError reports that an upstream chain provider was unavailable,
// returned no transaction, or returned a payload that could not be decoded.
type LookupError struct {
	Chain models.ChainSymbol
	Hash  string
	Err   error
}

func (e *LookupError) Error() string {
	if e.Chain == "" {
		return fmt.Sprintf("lookup %q failed: %v", e.Hash, e.Err)
	}
	return fmt.Sprintf("%s lookup %q failed: %v", e.Chain, e.Hash, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func lookupErr(chain models.ChainSymbol, hash string, err error) error {
	return &LookupError{Chain: chain, Hash: hash, Err: err}
}
