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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"crypverify-go/internal/models"

	"github.com/shopspring/decimal"
)

// Static per-chain fallback prices used when the price provider is unreachable
var (
	DefaultEthFallbackUsd = decimal.NewFromInt(2750)
	DefaultBtcFallbackUsd = decimal.NewFromInt(96000)
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	httpTimeout, err := getEnvDuration("HTTP_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getEnvDuration("PRICE_CACHE_TTL", 60*time.Second)
	if err != nil {
		return nil, err
	}

	cooldown, err := getEnvDuration("VERIFY_COOLDOWN", 2*time.Second)
	if err != nil {
		return nil, err
	}

	rps, err := getEnvFloat("PROVIDER_RPS", 5)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "verifications.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Providers: models.ProviderConfig{
			EthereumRpcUrl: getEnvString("ETH_RPC_URL", "https://ethereum-rpc.publicnode.com"),
			BitcoinApiUrl:  getEnvString("BTC_API_URL", "https://api.blockcypher.com/v1/btc/main"),
			PriceApiUrl:    getEnvString("PRICE_API_URL", "https://api.coingecko.com/api/v3"),
			HttpTimeout:    httpTimeout,
			RequestsPerSec: rps,
			Burst:          getEnvInt("PROVIDER_BURST", 5),
		},
		Pricing: models.PricingConfig{
			CacheTTL: cacheTTL,
			Fallbacks: map[models.ChainSymbol]decimal.Decimal{
				models.ChainETH: DefaultEthFallbackUsd,
				models.ChainBTC: DefaultBtcFallbackUsd,
			},
			CoinIds: map[models.ChainSymbol]string{
				models.ChainETH: "ethereum",
				models.ChainBTC: "bitcoin",
			},
		},
		Verification: models.VerificationConfig{
			Cooldown:         cooldown,
			AuditConcurrency: getEnvInt("AUDIT_CONCURRENCY", 4),
			ChainsFile:       getEnvString("CHAINS_FILE", "chains.yaml"),
		},
		Documents: models.DocumentsConfig{
			Dir:       getEnvString("DOCUMENTS_DIR", "verification_docs"),
			PublicUrl: getEnvString("DOCUMENTS_PUBLIC_URL", "http://localhost:8080/v1/admin/documents"),
		},
		Notifications: models.NotificationConfig{
			ApiUrl:     getEnvString("EMAILJS_API_URL", "https://api.emailjs.com"),
			ServiceId:  getEnvString("EMAILJS_SERVICE_ID", ""),
			TemplateId: getEnvString("EMAILJS_TEMPLATE_ID", ""),
			PublicKey:  getEnvString("EMAILJS_PUBLIC_KEY", ""),
			PrivateKey: getEnvString("EMAILJS_PRIVATE_KEY", ""),
		},
		Server: models.ServerConfig{
			Addr:           getEnvString("HTTP_ADDR", ":8080"),
			AdminJwtSecret: getEnvString("ADMIN_JWT_SECRET", ""),
			TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number for %s: %q (%w)", key, value, err)
		}
		return f, nil
	}
	return defaultValue, nil
}

func getEnvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
