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

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ChainSymbol identifies a supported ledger
type ChainSymbol string

const (
	ChainETH ChainSymbol = "ETH"
	ChainBTC ChainSymbol = "BTC"
)

// SupportedChains lists every chain the resolver can route to
var SupportedChains = []ChainSymbol{ChainETH, ChainBTC}

// DetectChain routes a hash by its lexical form: a 0x prefix means Ethereum,
// anything else is treated as Bitcoin.
func DetectChain(hash string) ChainSymbol {
	if strings.HasPrefix(hash, "0x") {
		return ChainETH
	}
	return ChainBTC
}

// ParseChainSymbol accepts "ETH"/"BTC" in any case
func ParseChainSymbol(s string) (ChainSymbol, error) {
	switch ChainSymbol(strings.ToUpper(strings.TrimSpace(s))) {
	case ChainETH:
		return ChainETH, nil
	case ChainBTC:
		return ChainBTC, nil
	}
	return "", fmt.Errorf("unsupported chain symbol: %q", s)
}

func (c ChainSymbol) String() string {
	return string(c)
}

// TransactionRecord is the normalized result of an on-chain lookup
type TransactionRecord struct {
	Hash          string          `json:"hash"`
	Chain         ChainSymbol     `json:"chain"`
	NativeAmount  decimal.Decimal `json:"native_amount"`
	SourceAddress string          `json:"source_address"`
	ObservedAt    time.Time       `json:"observed_at"`
}

// PriceQuote is a USD spot price for one unit of a chain's native asset.
// Fallback is set when the quote is the static product constant rather
// than a live provider value.
type PriceQuote struct {
	Chain     ChainSymbol     `json:"chain"`
	PriceUSD  decimal.Decimal `json:"price_usd"`
	FetchedAt time.Time       `json:"fetched_at"`
	Fallback  bool            `json:"fallback,omitempty"`
}

// Receipt pairs a transaction with the quote used to value it
type Receipt struct {
	Transaction TransactionRecord `json:"transaction"`
	Quote       PriceQuote        `json:"quote"`
	USDValue    decimal.Decimal   `json:"usd_value"`
	GeneratedAt time.Time         `json:"generated_at"`
}
