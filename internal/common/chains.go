package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"crypverify-go/internal/models"
	"crypverify-go/internal/receipt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// ChainEntry overrides display and pricing settings for one chain
type ChainEntry struct {
	Symbol      string `yaml:"symbol"`
	Name        string `yaml:"name"`
	CoinId      string `yaml:"coin_id"`
	Decimals    *int32 `yaml:"decimals"`
	FallbackUsd string `yaml:"fallback_usd"`
}

type ChainsConfig struct {
	Chains []ChainEntry `yaml:"chains"`
}

// LoadChainConfig reads chainsFile. A missing file yields no entries.
func LoadChainConfig(chainsFile string) ([]ChainEntry, error) {
	if chainsFile == "" {
		return nil, nil
	}
	chainsPath := chainsFile
	if !filepath.IsAbs(chainsFile) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		chainsPath = filepath.Join(wd, chainsFile)
	}

	data, err := os.ReadFile(chainsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", chainsFile, err)
	}

	var config ChainsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", chainsFile, err)
	}

	for i, entry := range config.Chains {
		if _, err := models.ParseChainSymbol(entry.Symbol); err != nil {
			return nil, fmt.Errorf("chain at index %d: %w", i, err)
		}
		if entry.Decimals != nil && *entry.Decimals < 0 {
			return nil, fmt.Errorf("chain at index %d has negative decimals", i)
		}
		if entry.FallbackUsd != "" {
			if _, err := decimal.NewFromString(entry.FallbackUsd); err != nil {
				return nil, fmt.Errorf("chain at index %d has invalid fallback_usd %q: %w", i, entry.FallbackUsd, err)
			}
		}
	}

	return config.Chains, nil
}

// ApplyChainConfig merges entries into cfg's pricing settings and returns
// the display overrides for receipt formatting
func ApplyChainConfig(cfg *models.Config, entries []ChainEntry) map[models.ChainSymbol]receipt.ChainOverride {
	meta := make(map[models.ChainSymbol]receipt.ChainOverride, len(entries))
	for _, entry := range entries {
		symbol, err := models.ParseChainSymbol(entry.Symbol)
		if err != nil {
			continue
		}
		if entry.CoinId != "" {
			cfg.Pricing.CoinIds[symbol] = entry.CoinId
		}
		if entry.FallbackUsd != "" {
			cfg.Pricing.Fallbacks[symbol] = decimal.RequireFromString(entry.FallbackUsd)
		}
		meta[symbol] = receipt.ChainOverride{Name: entry.Name, Decimals: entry.Decimals}
	}
	return meta
}
