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
	"flag"
	"fmt"
	"os"

	"crypverify-go/internal/common"
	"crypverify-go/internal/config"
	"crypverify-go/internal/models"
	"crypverify-go/internal/receipt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func writePDF(path string, d receipt.Display) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", path, err)
	}
	if err := receipt.WritePDF(f, d); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func manualReceipt(ctx context.Context, services *common.Services, chainFlag, amountFlag, hash string) (*models.Receipt, error) {
	chain, err := models.ParseChainSymbol(chainFlag)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amountFlag, err)
	}
	return services.Verification.ManualReceipt(ctx, chain, amount, hash)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	hashFlag := flag.String("hash", "", "Transaction hash to verify (0x... for Ethereum, otherwise Bitcoin)")
	pdfFlag := flag.String("pdf", "", "Also write the receipt as a PDF to this path (optional)")
	manualFlag := flag.Bool("manual", false, "Issue a manual settlement receipt without an on-chain lookup")
	chainFlag := flag.String("chain", "ETH", "Chain for --manual receipts (ETH or BTC)")
	amountFlag := flag.String("amount", "", "Amount for --manual receipts")
	flag.Parse()

	if !*manualFlag && *hashFlag == "" {
		zap.L().Fatal("The --hash flag is required unless --manual is set")
	}
	if *manualFlag && *amountFlag == "" {
		zap.L().Fatal("The --amount flag is required with --manual")
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	var rec *models.Receipt
	if *manualFlag {
		rec, err = manualReceipt(ctx, services, *chainFlag, *amountFlag, *hashFlag)
	} else {
		rec, err = services.Verification.Verify(ctx, "cli", *hashFlag)
	}
	if err != nil {
		zap.L().Fatal("Verification failed", zap.String("hash", *hashFlag), zap.Error(err))
	}

	display := services.Verification.Display(*rec)
	common.PrintReceipt(os.Stdout, display)
	common.PrintSeparator(os.Stdout, "=", common.DefaultWidth)
	fmt.Println()

	if *pdfFlag != "" {
		if err := writePDF(*pdfFlag, display); err != nil {
			zap.L().Fatal("Failed to write PDF receipt", zap.Error(err))
		}
		zap.L().Info("PDF receipt written", zap.String("path", *pdfFlag))
	}
}
