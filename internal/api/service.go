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

package api

import (
	"context"
	"errors"
	"fmt"

	"crypverify-go/internal/documents"
	"crypverify-go/internal/models"
	"crypverify-go/internal/receipt"
	"crypverify-go/internal/review"
	"crypverify-go/internal/store"
	"crypverify-go/internal/throttle"
)

// ErrInvalidRequest marks caller input that failed validation
var ErrInvalidRequest = errors.New("invalid request")

// Services collects the collaborators VerificationService is built from
type Services struct {
	Resolver         review.TransactionResolver
	Prices           review.PriceQuoter
	Assembler        *receipt.Assembler
	Formatter        *receipt.Formatter
	Cooldowns        *throttle.Registry
	Store            store.SubmissionStore
	Documents        documents.Store
	Workflow         *review.Workflow
	Auditor          *review.Auditor
	AuditConcurrency int
}

// VerificationService is the entry point for receipt generation and submission review
type VerificationService struct {
	resolver         review.TransactionResolver
	prices           review.PriceQuoter
	assembler        *receipt.Assembler
	formatter        *receipt.Formatter
	cooldowns        *throttle.Registry
	store            store.SubmissionStore
	docs             documents.Store
	workflow         *review.Workflow
	auditor          *review.Auditor
	auditConcurrency int
}

func NewVerificationService(s Services) *VerificationService {
	if s.Assembler == nil {
		s.Assembler = receipt.NewAssembler()
	}
	if s.Formatter == nil {
		s.Formatter = receipt.NewFormatter(nil)
	}
	if s.Cooldowns == nil {
		s.Cooldowns = throttle.NewRegistry(throttle.DefaultCooldown)
	}
	if s.Auditor == nil {
		s.Auditor = review.NewAuditor(s.Resolver, s.Prices, s.Assembler)
	}
	if s.AuditConcurrency <= 0 {
		s.AuditConcurrency = 1
	}
	return &VerificationService{
		resolver:         s.Resolver,
		prices:           s.Prices,
		assembler:        s.Assembler,
		formatter:        s.Formatter,
		cooldowns:        s.Cooldowns,
		store:            s.Store,
		docs:             s.Documents,
		workflow:         s.Workflow,
		auditor:          s.Auditor,
		auditConcurrency: s.AuditConcurrency,
	}
}

// Display renders a receipt for people
func (s *VerificationService) Display(r models.Receipt) receipt.Display {
	return s.formatter.Format(r)
}

func (s *VerificationService) HealthCheck(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
