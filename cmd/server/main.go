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


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"crypverify-go/internal/api"
	"crypverify-go/internal/common"
	"crypverify-go/internal/config"

	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	issueToken := flag.String("issue-token", "", "Print an admin JWT for the given reviewer and exit")
	tokenTTL := flag.Duration("token-ttl", 12*time.Hour, "Lifetime of a token issued with --issue-token")
	origins := flag.String("origins", "", "Comma-separated CORS origins allowed on the public routes")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *issueToken != "" {
		token, err := api.IssueAdminToken(cfg.Server.AdminJwtSecret, *issueToken, *tokenTTL)
		if err != nil {
			zap.L().Fatal("Failed to issue admin token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zap.L().Info("Starting crypverify server", zap.String("addr", cfg.Server.Addr))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if cfg.Server.AdminJwtSecret == "" {
		zap.L().Warn("ADMIN_JWT_SECRET is not set; admin routes are disabled")
	}

	var allowed []string
	for _, o := range strings.Split(*origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewRouter(services.Verification, api.RouterOptions{
			AdminJwtSecret: cfg.Server.AdminJwtSecret,
			Documents:      services.Documents,
			AllowedOrigins: allowed,
			Clients:        services.Clients,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	zap.L().Info("Server listening, press Ctrl+C to stop", zap.String("addr", cfg.Server.Addr))

	select {
	case err := <-errCh:
		if err != nil {
			zap.L().Error("Server stopped unexpectedly", zap.Error(err))
			return
		}
	case <-ctx.Done():
		zap.L().Info("Shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced shutdown after timeout", zap.Error(err))
		return
	}
	zap.L().Info("Server stopped gracefully")
}
