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

package api

import (
	"context"
	"fmt"
	"time"

	"crypverify-go/internal/metrics"
	"crypverify-go/internal/models"
	"crypverify-go/internal/throttle"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateLimitedError is a deliberate drop while the caller's cooldown is active
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%v (retry after %s)", throttle.ErrRateLimited, e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return throttle.ErrRateLimited
}

// Verify resolves hash and values it in USD. At most one verification per
// client is in flight; the client's cooldown starts when this call returns.
func (s *VerificationService) Verify(ctx context.Context, clientKey, hash string) (*models.Receipt, error) {
	gate, ok := s.cooldowns.Acquire(clientKey)
	if !ok {
		metrics.ThrottledTotal.Inc()
		metrics.VerificationsTotal.WithLabelValues("throttled").Inc()
		zap.L().Debug("Verification dropped by cooldown", zap.String("client", clientKey))
		return nil, &RateLimitedError{RetryAfter: gate.RetryAfter()}
	}
	defer gate.Release()

	tx, err := s.resolver.Resolve(ctx, hash)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("lookup_failed").Inc()
		return nil, err
	}

	quote := s.prices.Quote(ctx, tx.Chain)
	r := s.assembler.Assemble(*tx, quote)

	metrics.VerificationsTotal.WithLabelValues("ok").Inc()
	zap.L().Info("Receipt generated",
		zap.String("chain", tx.Chain.String()),
		zap.String("hash", tx.Hash),
		zap.String("usd_value", r.USDValue.StringFixed(2)),
		zap.Bool("fallback_price", quote.Fallback))
	return &r, nil
}

// ManualReceipt issues an operator receipt for amount without an on-chain lookup
func (s *VerificationService) ManualReceipt(ctx context.Context, chain models.ChainSymbol, amount decimal.Decimal, hash string) (*models.Receipt, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	quote := s.prices.Quote(ctx, chain)
	r, err := s.assembler.Manual(chain, amount, hash, quote)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	zap.L().Info("Manual receipt issued",
		zap.String("chain", chain.String()),
		zap.String("hash", r.Transaction.Hash),
		zap.String("amount", amount.String()))
	return &r, nil
}

// Quote returns the current USD quote for chain
func (s *VerificationService) Quote(ctx context.Context, chain models.ChainSymbol) models.PriceQuote {
	return s.prices.Quote(ctx, chain)
}
