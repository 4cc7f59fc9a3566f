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

package receipt

import (
	"errors"
	"strings"
	"time"

	"crypverify-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ManualSource is recorded as the source address of operator-issued receipts
const ManualSource = "Admin Manual Settlement"

var ErrInvalidAmount = errors.New("amount must be positive")

// Assembler combines a transaction record with a price quote
type Assembler struct {
	nowFunc func() time.Time
}

func NewAssembler() *Assembler {
	return NewAssemblerWithClock(time.Now)
}

func NewAssemblerWithClock(now func() time.Time) *Assembler {
	return &Assembler{nowFunc: now}
}

// Assemble values tx at quote. Only GeneratedAt depends on the clock.
func (a *Assembler) Assemble(tx models.TransactionRecord, quote models.PriceQuote) models.Receipt {
	return models.Receipt{
		Transaction: tx,
		Quote:       quote,
		USDValue:    tx.NativeAmount.Mul(quote.PriceUSD),
		GeneratedAt: a.nowFunc(),
	}
}

// Manual builds an operator-issued receipt without an on-chain lookup.
// An empty hash is replaced by a synthetic 0x placeholder.
func (a *Assembler) Manual(
	chain models.ChainSymbol,
	amount decimal.Decimal,
	hash string,
	quote models.PriceQuote,
) (models.Receipt, error) {
	if !amount.IsPositive() {
		return models.Receipt{}, ErrInvalidAmount
	}
	hash = strings.TrimSpace(hash)
	if hash == "" {
		hash = PlaceholderHash()
	}

	tx := models.TransactionRecord{
		Hash:          hash,
		Chain:         chain,
		NativeAmount:  amount,
		SourceAddress: ManualSource,
		ObservedAt:    a.nowFunc(),
	}
	return a.Assemble(tx, quote), nil
}

// PlaceholderHash returns "0x" followed by 40 random hex digits
func PlaceholderHash() string {
	a := uuid.New()
	b := uuid.New()
	digits := strings.ReplaceAll(a.String()+b.String(), "-", "")
	return "0x" + digits[:40]
}
