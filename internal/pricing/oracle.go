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

package pricing

import (
	"context"
	"sync"
	"time"

	"crypverify-go/internal/metrics"
	"crypverify-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheTTL = 60 * time.Second

// Oracle answers USD spot prices from a per-chain cache, refreshing through
// the provider once an entry is older than the TTL. Provider failures are
// answered with a static fallback that is never cached.
type Oracle struct {
	provider  Provider
	ttl       time.Duration
	fallbacks map[models.ChainSymbol]decimal.Decimal

	mu      sync.Mutex
	cache   map[models.ChainSymbol]models.PriceQuote
	flights singleflight.Group
	nowFunc func() time.Time
}

func NewOracle(provider Provider, ttl time.Duration, fallbacks map[models.ChainSymbol]decimal.Decimal) *Oracle {
	return NewOracleWithClock(provider, ttl, fallbacks, time.Now)
}

func NewOracleWithClock(
	provider Provider,
	ttl time.Duration,
	fallbacks map[models.ChainSymbol]decimal.Decimal,
	now func() time.Time,
) *Oracle {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	fb := make(map[models.ChainSymbol]decimal.Decimal, len(fallbacks))
	for k, v := range fallbacks {
		fb[k] = v
	}
	return &Oracle{
		provider:  provider,
		ttl:       ttl,
		fallbacks: fb,
		cache:     make(map[models.ChainSymbol]models.PriceQuote),
		nowFunc:   now,
	}
}

// GetPrice returns the USD price for chain. It never fails.
func (o *Oracle) GetPrice(ctx context.Context, chain models.ChainSymbol) decimal.Decimal {
	return o.Quote(ctx, chain).PriceUSD
}

// Quote returns the quote GetPrice would use, including whether it is a fallback
func (o *Oracle) Quote(ctx context.Context, chain models.ChainSymbol) models.PriceQuote {
	if q, ok := o.cached(chain); ok {
		metrics.PriceCacheHits.WithLabelValues(chain.String()).Inc()
		return q
	}
	metrics.PriceCacheMisses.WithLabelValues(chain.String()).Inc()

	// The shared lookup outlives any single caller; the provider's HTTP
	// timeout bounds it.
	lookupCtx := context.WithoutCancel(ctx)
	ch := o.flights.DoChan(chain.String(), func() (interface{}, error) {
		if q, ok := o.cached(chain); ok {
			return q, nil
		}
		return o.refresh(lookupCtx, chain), nil
	})

	select {
	case res := <-ch:
		return res.Val.(models.PriceQuote)
	case <-ctx.Done():
		zap.L().Debug("Caller gave up waiting for price lookup",
			zap.String("chain", chain.String()),
			zap.Error(ctx.Err()))
		return o.Fallback(chain)
	}
}

// Fallback returns the static quote for chain
func (o *Oracle) Fallback(chain models.ChainSymbol) models.PriceQuote {
	return models.PriceQuote{
		Chain:     chain,
		PriceUSD:  o.fallbacks[chain],
		FetchedAt: o.nowFunc(),
		Fallback:  true,
	}
}

func (o *Oracle) cached(chain models.ChainSymbol) (models.PriceQuote, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	q, ok := o.cache[chain]
	if !ok {
		return models.PriceQuote{}, false
	}
	if o.nowFunc().Sub(q.FetchedAt) >= o.ttl {
		return models.PriceQuote{}, false
	}
	return q, true
}

func (o *Oracle) refresh(ctx context.Context, chain models.ChainSymbol) models.PriceQuote {
	price, err := o.provider.FetchUSD(ctx, chain)
	if err != nil {
		metrics.PriceFallbacks.WithLabelValues(chain.String()).Inc()
		fb := o.Fallback(chain)
		zap.L().Warn("Price lookup failed, using fallback",
			zap.String("chain", chain.String()),
			zap.String("fallback", fb.PriceUSD.String()),
			zap.Error(err))
		return fb
	}

	q := models.PriceQuote{
		Chain:     chain,
		PriceUSD:  price,
		FetchedAt: o.nowFunc(),
	}

	o.mu.Lock()
	o.cache[chain] = q
	o.mu.Unlock()

	zap.L().Debug("Price refreshed",
		zap.String("chain", chain.String()),
		zap.String("price", price.String()))
	return q
}
