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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crypverify-go/internal/metrics"
	"crypverify-go/internal/models"

	"go.uber.org/zap"
)

// Strategy performs the chain-specific lookup of a single transaction
type Strategy interface {
	Chain() models.ChainSymbol
	Lookup(ctx context.Context, hash string) (*models.TransactionRecord, error)
}

// Resolver routes a hash to the matching chain strategy. Routing is by
// prefix only: malformed non-0x input reaches the Bitcoin provider and fails there.
type Resolver struct {
	ethereum Strategy
	bitcoin  Strategy
}

func NewResolver(ethereum, bitcoin Strategy) *Resolver {
	return &Resolver{ethereum: ethereum, bitcoin: bitcoin}
}

// Resolve looks up hash on its detected chain. Every failure is a *LookupError.
func (r *Resolver) Resolve(ctx context.Context, hash string) (*models.TransactionRecord, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, lookupErr("", hash, ErrEmptyHash)
	}

	symbol := models.DetectChain(hash)
	strategy, err := r.strategyFor(symbol)
	if err != nil {
		return nil, lookupErr(symbol, hash, err)
	}

	start := time.Now()
	record, err := strategy.Lookup(ctx, hash)
	metrics.ChainLookupLatency.WithLabelValues(symbol.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		var le *LookupError
		if !errors.As(err, &le) {
			err = lookupErr(symbol, hash, err)
		}
		metrics.ChainLookupsTotal.WithLabelValues(symbol.String(), outcomeOf(err)).Inc()
		zap.L().Warn("Transaction lookup failed",
			zap.String("chain", symbol.String()),
			zap.String("hash", hash),
			zap.Error(err))
		return nil, err
	}

	metrics.ChainLookupsTotal.WithLabelValues(symbol.String(), "ok").Inc()
	zap.L().Info("Transaction resolved",
		zap.String("chain", symbol.String()),
		zap.String("hash", hash),
		zap.String("amount", record.NativeAmount.String()))
	return record, nil
}

func (r *Resolver) strategyFor(symbol models.ChainSymbol) (Strategy, error) {
	var s Strategy
	switch symbol {
	case models.ChainETH:
		s = r.ethereum
	case models.ChainBTC:
		s = r.bitcoin
	default:
		return nil, fmt.Errorf("unsupported chain %q", symbol)
	}
	if s == nil {
		return nil, fmt.Errorf("no lookup strategy configured for %s", symbol)
	}
	return s, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
