package pricing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"crypverify-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls atomic.Int32
	price decimal.Decimal
	err   error
	mu    sync.Mutex
	gate  chan struct{}
}

func (p *fakeProvider) FetchUSD(ctx context.Context, _ models.ChainSymbol) (decimal.Decimal, error) {
	p.calls.Add(1)
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.price, p.err
}

func (p *fakeProvider) set(price decimal.Decimal, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.price = price
	p.err = err
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func defaultFallbacks() map[models.ChainSymbol]decimal.Decimal {
	return map[models.ChainSymbol]decimal.Decimal{
		models.ChainETH: decimal.NewFromInt(2750),
		models.ChainBTC: decimal.NewFromInt(96000),
	}
}

func TestOracle_CacheHitWithinTTL(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	p := &fakeProvider{price: decimal.NewFromInt(2800)}
	o := NewOracleWithClock(p, time.Minute, defaultFallbacks(), clk.Now)

	first := o.GetPrice(context.Background(), models.ChainETH)
	clk.now = clk.now.Add(59 * time.Second)
	second := o.GetPrice(context.Background(), models.ChainETH)

	assert.True(t, first.Equal(decimal.NewFromInt(2800)))
	assert.True(t, second.Equal(first))
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestOracle_RefreshAfterTTL(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	p := &fakeProvider{price: decimal.NewFromInt(2800)}
	o := NewOracleWithClock(p, time.Minute, defaultFallbacks(), clk.Now)

	o.GetPrice(context.Background(), models.ChainETH)
	clk.now = clk.now.Add(60 * time.Second)
	p.set(decimal.NewFromInt(2900), nil)

	got := o.GetPrice(context.Background(), models.ChainETH)
	assert.True(t, got.Equal(decimal.NewFromInt(2900)))
	assert.Equal(t, int32(2), p.calls.Load())

	o.GetPrice(context.Background(), models.ChainETH)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestOracle_FallbackOnFailure(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	p := &fakeProvider{err: errors.New("provider down")}
	o := NewOracleWithClock(p, time.Minute, defaultFallbacks(), clk.Now)

	eth := o.Quote(context.Background(), models.ChainETH)
	btc := o.Quote(context.Background(), models.ChainBTC)

	assert.True(t, eth.Fallback)
	assert.True(t, eth.PriceUSD.Equal(decimal.NewFromInt(2750)))
	assert.True(t, btc.Fallback)
	assert.True(t, btc.PriceUSD.Equal(decimal.NewFromInt(96000)))
}

func TestOracle_FallbackIsNotCached(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	p := &fakeProvider{err: errors.New("provider down")}
	o := NewOracleWithClock(p, time.Minute, defaultFallbacks(), clk.Now)

	o.GetPrice(context.Background(), models.ChainBTC)
	p.set(decimal.NewFromInt(97000), nil)

	got := o.Quote(context.Background(), models.ChainBTC)
	assert.False(t, got.Fallback)
	assert.True(t, got.PriceUSD.Equal(decimal.NewFromInt(97000)))
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestOracle_FailureLeavesStaleEntryUntouched(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clk := &clock{now: start}
	p := &fakeProvider{price: decimal.NewFromInt(2800)}
	o := NewOracleWithClock(p, time.Minute, defaultFallbacks(), clk.Now)

	o.GetPrice(context.Background(), models.ChainETH)
	clk.now = start.Add(2 * time.Minute)
	p.set(decimal.Zero, errors.New("timeout"))

	got := o.Quote(context.Background(), models.ChainETH)
	assert.True(t, got.Fallback)

	o.mu.Lock()
	entry, ok := o.cache[models.ChainETH]
	o.mu.Unlock()
	require.True(t, ok)
	assert.True(t, entry.PriceUSD.Equal(decimal.NewFromInt(2800)))
	assert.Equal(t, start, entry.FetchedAt)
}

func TestOracle_ChainsCachedIndependently(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	p := &fakeProvider{price: decimal.NewFromInt(100)}
	o := NewOracleWithClock(p, time.Minute, defaultFallbacks(), clk.Now)

	o.GetPrice(context.Background(), models.ChainETH)
	o.GetPrice(context.Background(), models.ChainBTC)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestOracle_ConcurrentMissesCoalesce(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	p := &fakeProvider{price: decimal.NewFromInt(2800), gate: make(chan struct{})}
	o := NewOracleWithClock(p, time.Minute, defaultFallbacks(), clk.Now)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]decimal.Decimal, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = o.GetPrice(context.Background(), models.ChainETH)
		}(i)
	}

	require.Eventually(t, func() bool { return p.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(p.gate)
	wg.Wait()

	for _, r := range results {
		assert.True(t, r.Equal(decimal.NewFromInt(2800)))
	}
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestOracle_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	p := &fakeProvider{price: decimal.NewFromInt(2800), gate: make(chan struct{})}
	o := NewOracleWithClock(p, time.Minute, defaultFallbacks(), clk.Now)

	ctxA, cancelA := context.WithCancel(context.Background())
	quoteA := make(chan models.PriceQuote, 1)
	go func() { quoteA <- o.Quote(ctxA, models.ChainETH) }()
	require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, time.Millisecond)

	quoteB := make(chan models.PriceQuote, 1)
	go func() { quoteB <- o.Quote(context.Background(), models.ChainETH) }()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	a := <-quoteA
	assert.True(t, a.Fallback, "the cancelled caller stops waiting")

	close(p.gate)
	b := <-quoteB
	assert.False(t, b.Fallback)
	assert.True(t, b.PriceUSD.Equal(decimal.NewFromInt(2800)))
	assert.Equal(t, int32(1), p.calls.Load())

	cached := o.Quote(context.Background(), models.ChainETH)
	assert.False(t, cached.Fallback)
	assert.Equal(t, int32(1), p.calls.Load())
}
