package common

import (
	"os"
	"path/filepath"
	"testing"

	"crypverify-go/internal/config"
	"crypverify-go/internal/models"
	"crypverify-go/internal/receipt"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChainsFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "chains.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadChainConfig_MissingFile(t *testing.T) {
	entries, err := LoadChainConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadChainConfig_AppliesOverrides(t *testing.T) {
	p := writeChainsFile(t, `
chains:
  - symbol: eth
    name: Ether
    coin_id: ethereum
    decimals: 6
    fallback_usd: "3000.50"
  - symbol: BTC
    coin_id: bitcoin-cash
`)
	entries, err := LoadChainConfig(p)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	cfg, err := config.Load()
	require.NoError(t, err)
	meta := ApplyChainConfig(cfg, entries)

	assert.Equal(t, "3000.5", cfg.Pricing.Fallbacks[models.ChainETH].String())
	assert.Equal(t, "96000", cfg.Pricing.Fallbacks[models.ChainBTC].String())
	assert.Equal(t, "bitcoin-cash", cfg.Pricing.CoinIds[models.ChainBTC])
	assert.Equal(t, "Ether", meta[models.ChainETH].Name)
	require.NotNil(t, meta[models.ChainETH].Decimals)
	assert.Equal(t, int32(6), *meta[models.ChainETH].Decimals)
	assert.Nil(t, meta[models.ChainBTC].Decimals, "decimals left unset")
}

func TestLoadChainConfig_ZeroDecimals(t *testing.T) {
	p := writeChainsFile(t, "chains:\n  - symbol: BTC\n    decimals: 0\n")
	entries, err := LoadChainConfig(p)
	require.NoError(t, err)

	cfg, err := config.Load()
	require.NoError(t, err)
	meta := ApplyChainConfig(cfg, entries)

	d := receipt.NewFormatter(meta).Format(models.Receipt{Transaction: models.TransactionRecord{
		Chain:        models.ChainBTC,
		NativeAmount: decimal.RequireFromString("1.987654"),
	}})
	assert.Equal(t, "2", d.Amount)
}

func TestLoadChainConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown symbol": "chains:\n  - symbol: DOGE\n",
		"bad fallback":   "chains:\n  - symbol: ETH\n    fallback_usd: lots\n",
		"bad yaml":       "chains: [\n",
		"neg decimals":   "chains:\n  - symbol: BTC\n    decimals: -1\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadChainConfig(writeChainsFile(t, content))
			assert.Error(t, err)
		})
	}
}
