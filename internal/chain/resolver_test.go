package chain

import (
	"context"
	"errors"
	"testing"

	"crypverify-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	chain models.ChainSymbol
	calls []string
	err   error
}

func (s *stubStrategy) Chain() models.ChainSymbol { return s.chain }

func (s *stubStrategy) Lookup(_ context.Context, hash string) (*models.TransactionRecord, error) {
	s.calls = append(s.calls, hash)
	if s.err != nil {
		return nil, s.err
	}
	return &models.TransactionRecord{Hash: hash, Chain: s.chain, NativeAmount: decimal.NewFromInt(1)}, nil
}

func TestResolver_RoutesByPrefix(t *testing.T) {
	eth := &stubStrategy{chain: models.ChainETH}
	btc := &stubStrategy{chain: models.ChainBTC}
	r := NewResolver(eth, btc)

	ethHashes := []string{"0xabc", "0x", "0xZZZ-not-hex"}
	btcHashes := []string{"f4184fc596403b9d638783cf57adfe4c75c605f6356fbc91338530e9831e9e16", "0Xabc", "hello", "x0abc"}

	for _, h := range ethHashes {
		rec, err := r.Resolve(context.Background(), h)
		require.NoError(t, err, h)
		assert.Equal(t, models.ChainETH, rec.Chain, h)
	}
	for _, h := range btcHashes {
		rec, err := r.Resolve(context.Background(), h)
		require.NoError(t, err, h)
		assert.Equal(t, models.ChainBTC, rec.Chain, h)
	}
	assert.Equal(t, ethHashes, eth.calls)
	assert.Equal(t, btcHashes, btc.calls)
}

func TestResolver_TrimsWhitespace(t *testing.T) {
	eth := &stubStrategy{chain: models.ChainETH}
	r := NewResolver(eth, &stubStrategy{chain: models.ChainBTC})

	_, err := r.Resolve(context.Background(), "  0xabc\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xabc"}, eth.calls)
}

func TestResolver_EmptyHash(t *testing.T) {
	eth := &stubStrategy{chain: models.ChainETH}
	btc := &stubStrategy{chain: models.ChainBTC}
	r := NewResolver(eth, btc)

	_, err := r.Resolve(context.Background(), "   ")
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, ErrEmptyHash)
	assert.Empty(t, eth.calls)
	assert.Empty(t, btc.calls)
}

func TestResolver_WrapsPlainErrors(t *testing.T) {
	btc := &stubStrategy{chain: models.ChainBTC, err: errors.New("boom")}
	r := NewResolver(&stubStrategy{chain: models.ChainETH}, btc)

	_, err := r.Resolve(context.Background(), "deadbeef")
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, models.ChainBTC, le.Chain)
	assert.Equal(t, "deadbeef", le.Hash)
}

func TestResolver_MissingStrategy(t *testing.T) {
	r := NewResolver(nil, &stubStrategy{chain: models.ChainBTC})

	_, err := r.Resolve(context.Background(), "0xabc")
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), "no lookup strategy")
}
