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
	"os"

	"crypverify-go/internal/common"
	"crypverify-go/internal/config"
	"crypverify-go/internal/models"
	"crypverify-go/internal/store"

	"go.uber.org/zap"
)

type auditStats struct {
	total    int
	verified int
	failed   int
}

// resolveSubmission accepts either a submission id or a reference id
func resolveSubmission(ctx context.Context, s store.SubmissionStore, key string) (*models.VerificationSubmission, error) {
	sub, err := s.GetSubmission(ctx, key)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, store.ErrSubmissionNotFound) {
		return nil, err
	}
	return s.GetSubmissionByReference(ctx, key)
}

func printAuditResult(sub models.VerificationSubmission, rec *models.Receipt, err error, isLast bool) {
	prefix := common.BoxPrefix(isLast)
	if err != nil {
		fmt.Printf("%s%s  %-8s  lookup failed: %v\n", prefix, sub.ReferenceId, sub.Status, err)
		return
	}
	fmt.Printf("%s%s  %-8s  %s %s = $%s\n",
		prefix,
		sub.ReferenceId,
		sub.Status,
		rec.Transaction.NativeAmount.String(),
		rec.Transaction.Chain,
		rec.USDValue.StringFixed(2))
}

func runAudit(ctx context.Context, services *common.Services, search string) auditStats {
	results, err := services.Verification.AuditAll(ctx, search)
	if err != nil {
		zap.L().Fatal("Failed to audit submissions", zap.Error(err))
	}

	common.PrintHeader(os.Stdout, "SUBMISSION AUDIT", common.WideWidth)
	stats := auditStats{total: len(results)}
	for i, r := range results {
		printAuditResult(r.Submission, r.Receipt, r.Err, i == len(results)-1)
		if r.Err != nil {
			stats.failed++
		} else {
			stats.verified++
		}
	}
	return stats
}

func applyDecision(ctx context.Context, services *common.Services, key string, status models.SubmissionStatus) {
	sub, err := resolveSubmission(ctx, services.DbService, key)
	if err != nil {
		zap.L().Fatal("Submission not found", zap.String("key", key), zap.Error(err))
	}

	outcome, err := services.Verification.Review(ctx, sub.Id, status)
	if err != nil {
		zap.L().Fatal("Failed to apply review decision",
			zap.String("reference_id", sub.ReferenceId),
			zap.String("status", string(status)),
			zap.Error(err))
	}

	common.PrintHeader(os.Stdout, "REVIEW DECISION", common.DefaultWidth)
	fmt.Printf("Reference: %s\n", outcome.Submission.ReferenceId)
	fmt.Printf("Status:    %s\n", outcome.Submission.Status)
	fmt.Printf("Notified:  %t\n", outcome.Notified())
	if outcome.NotifyErr != nil {
		fmt.Printf("Notice:    %v\n", outcome.NotifyErr)
	}
	if outcome.Audit != nil {
		fmt.Println()
		common.PrintReceipt(os.Stdout, services.Verification.Display(*outcome.Audit))
	} else if outcome.AuditErr != nil {
		fmt.Printf("Audit:     %v\n", outcome.AuditErr)
	}
	common.PrintSeparator(os.Stdout, "=", common.DefaultWidth)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	searchFlag := flag.String("search", "", "Reference id, or a name/reference substring to filter by (optional)")
	auditFlag := flag.Bool("audit", false, "Re-verify every listed submission against live chain data")
	approveFlag := flag.String("approve", "", "Approve the submission with this id or reference")
	rejectFlag := flag.String("reject", "", "Reject the submission with this id or reference")
	deleteFlag := flag.String("delete", "", "Delete the submission with this id or reference and its documents")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	actions := 0
	for _, set := range []bool{*auditFlag, *approveFlag != "", *rejectFlag != "", *deleteFlag != ""} {
		if set {
			actions++
		}
	}
	if actions > 1 {
		logger.Fatal("Use at most one of --audit, --approve, --reject, --delete")
	}

	// Listing is read-only and does not need the upstream providers
	if actions == 0 {
		logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
		dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer dbService.Close()

		subs, err := common.LoadSubmissions(ctx, dbService, *searchFlag)
		if err != nil {
			logger.Fatal("Failed to load submissions", zap.Error(err))
		}
		common.PrintSubmissions(os.Stdout, subs)
		common.PrintFooter(os.Stdout, fmt.Sprintf("SUMMARY: %d submissions", len(subs)), common.WideWidth)
		return
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	switch {
	case *auditFlag:
		stats := runAudit(ctx, services, *searchFlag)
		common.PrintFooter(os.Stdout,
			fmt.Sprintf("SUMMARY: %d verified, %d failed (%d submissions audited)", stats.verified, stats.failed, stats.total),
			common.WideWidth)
		logger.Info("Audit completed",
			zap.Int("total", stats.total),
			zap.Int("verified", stats.verified),
			zap.Int("failed", stats.failed))
	case *approveFlag != "":
		applyDecision(ctx, services, *approveFlag, models.StatusApproved)
	case *rejectFlag != "":
		applyDecision(ctx, services, *rejectFlag, models.StatusRejected)
	case *deleteFlag != "":
		sub, err := resolveSubmission(ctx, services.DbService, *deleteFlag)
		if err != nil {
			logger.Fatal("Submission not found", zap.String("key", *deleteFlag), zap.Error(err))
		}
		if err := services.Verification.DeleteSubmission(ctx, sub.Id); err != nil {
			logger.Fatal("Failed to delete submission", zap.String("reference_id", sub.ReferenceId), zap.Error(err))
		}
		fmt.Printf("✓ Deleted submission %s (%s)\n", sub.ReferenceId, sub.FullName)
	}
}
