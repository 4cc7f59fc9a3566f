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

package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"crypverify-go/internal/api"
	"crypverify-go/internal/chain"
	"crypverify-go/internal/database"
	"crypverify-go/internal/documents"
	"crypverify-go/internal/models"
	"crypverify-go/internal/notify"
	"crypverify-go/internal/pricing"
	"crypverify-go/internal/receipt"
	"crypverify-go/internal/review"
	"crypverify-go/internal/throttle"
	"crypverify-go/internal/transport"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService    *database.Service
	Documents    *documents.LocalStore
	Oracle       *pricing.Oracle
	Resolver     *chain.Resolver
	Notifier     notify.Notifier
	Verification *api.VerificationService
	Clients      *throttle.ClientResolver
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the database, upstream providers, document store
// and notifier into a VerificationService
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	entries, err := LoadChainConfig(cfg.Verification.ChainsFile)
	if err != nil {
		return nil, err
	}
	chainMeta := ApplyChainConfig(cfg, entries)
	if len(entries) > 0 {
		zap.L().Info("Loaded chain overrides",
			zap.String("file", cfg.Verification.ChainsFile),
			zap.Int("count", len(entries)))
	}

	clients, err := throttle.NewClientResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	httpClient, err := transport.NewHttpClient(cfg.Providers.HttpTimeout)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	docs, err := documents.NewLocalStore(cfg.Documents.Dir, cfg.Documents.PublicUrl)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	ethereum := chain.NewEthereumStrategy(cfg.Providers.EthereumRpcUrl, httpClient,
		throttle.NewProviderLimiter(cfg.Providers.RequestsPerSec, cfg.Providers.Burst, "ethereum"))
	bitcoin := chain.NewBitcoinStrategy(cfg.Providers.BitcoinApiUrl, httpClient,
		throttle.NewProviderLimiter(cfg.Providers.RequestsPerSec, cfg.Providers.Burst, "bitcoin"))
	resolver := chain.NewResolver(ethereum, bitcoin)

	prices := pricing.NewCoinGeckoClient(cfg.Providers.PriceApiUrl, cfg.Pricing.CoinIds, httpClient,
		throttle.NewProviderLimiter(cfg.Providers.RequestsPerSec, cfg.Providers.Burst, "prices"))
	oracle := pricing.NewOracle(prices, cfg.Pricing.CacheTTL, cfg.Pricing.Fallbacks)

	notifier := notify.New(cfg.Notifications, httpClient)
	if _, ok := notifier.(notify.LogNotifier); ok {
		zap.L().Warn("EmailJS is not configured; review notifications will only be logged")
	}

	assembler := receipt.NewAssembler()
	auditor := review.NewAuditor(resolver, oracle, assembler)
	workflow := review.NewWorkflow(dbService, auditor, notifier)

	verification := api.NewVerificationService(api.Services{
		Resolver:         resolver,
		Prices:           oracle,
		Assembler:        assembler,
		Formatter:        receipt.NewFormatter(chainMeta),
		Cooldowns:        throttle.NewRegistry(cfg.Verification.Cooldown),
		Store:            dbService,
		Documents:        docs,
		Workflow:         workflow,
		Auditor:          auditor,
		AuditConcurrency: cfg.Verification.AuditConcurrency,
	})

	zap.L().Info("Services initialized",
		zap.String("eth_rpc", cfg.Providers.EthereumRpcUrl),
		zap.String("btc_api", cfg.Providers.BitcoinApiUrl),
		zap.String("price_api", cfg.Providers.PriceApiUrl),
		zap.Duration("price_cache_ttl", cfg.Pricing.CacheTTL),
		zap.Duration("cooldown", cfg.Verification.Cooldown),
		zap.Strings("trusted_proxies", cfg.Server.TrustedProxies))

	return &Services{
		DbService:    dbService,
		Documents:    docs,
		Oracle:       oracle,
		Resolver:     resolver,
		Notifier:     notifier,
		Verification: verification,
		Clients:      clients,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service without upstream providers
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("unable to open submissions database: %w", err)
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
