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
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/mail"
	"strings"

	"crypverify-go/internal/documents"
	"crypverify-go/internal/models"
	"crypverify-go/internal/review"
	"crypverify-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	referenceIdLength = 9
	maxReferenceTries = 3
	maxFullNameLength = 200
)

// DocumentUpload is one file received at intake
type DocumentUpload struct {
	Filename string
	Content  io.Reader
}

// SubmitParams carries a verification request and its three documents
type SubmitParams struct {
	FullName   string
	Email      string
	TxHash     string
	IdDocument DocumentUpload
	Selfie     DocumentUpload
	Receipt    DocumentUpload
}

// AuditResult is one submission re-verified against live chain data
type AuditResult struct {
	Submission models.VerificationSubmission
	Receipt    *models.Receipt
	Err        error
}

// NewReferenceId returns a 9-character uppercase base-36 id
func NewReferenceId() (string, error) {
	limit := new(big.Int).Exp(big.NewInt(36), big.NewInt(referenceIdLength), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("unable to generate reference id: %w", err)
	}
	ref := strings.ToUpper(n.Text(36))
	return strings.Repeat("0", referenceIdLength-len(ref)) + ref, nil
}

func validateSubmission(p SubmitParams) (SubmitParams, error) {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	p.TxHash = strings.TrimSpace(p.TxHash)

	if p.FullName == "" || len(p.FullName) > maxFullNameLength {
		return p, fmt.Errorf("%w: full name is required (max %d characters)", ErrInvalidRequest, maxFullNameLength)
	}
	addr, err := mail.ParseAddress(p.Email)
	if err != nil || addr.Address != p.Email {
		return p, fmt.Errorf("%w: invalid email address %q", ErrInvalidRequest, p.Email)
	}
	if p.TxHash == "" {
		return p, fmt.Errorf("%w: transaction hash is required", ErrInvalidRequest)
	}
	for name, doc := range map[string]DocumentUpload{"id document": p.IdDocument, "selfie": p.Selfie, "receipt": p.Receipt} {
		if doc.Content == nil {
			return p, fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
		}
	}
	return p, nil
}

// Submit stores the three documents and records a PENDING submission
func (s *VerificationService) Submit(ctx context.Context, p SubmitParams) (*models.VerificationSubmission, error) {
	p, err := validateSubmission(p)
	if err != nil {
		return nil, err
	}

	var stored []string
	cleanup := func() {
		for _, path := range stored {
			if err := s.docs.Delete(context.WithoutCancel(ctx), path); err != nil {
				zap.L().Warn("Failed to remove orphaned document", zap.String("path", path), zap.Error(err))
			}
		}
	}

	var refs models.DocumentRefs
	uploads := []struct {
		folder documents.Folder
		doc    DocumentUpload
		target *string
	}{
		{documents.FolderIds, p.IdDocument, &refs.IdPath},
		{documents.FolderSelfies, p.Selfie, &refs.SelfiePath},
		{documents.FolderReceipts, p.Receipt, &refs.ReceiptPath},
	}

	for _, u := range uploads {
		path, err := s.docs.Put(ctx, u.folder, u.doc.Filename, u.doc.Content)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("unable to store %s document: %w", u.folder, err)
		}
		stored = append(stored, path)
		*u.target = path
	}

	for attempt := 1; ; attempt++ {
		ref, err := NewReferenceId()
		if err != nil {
			cleanup()
			return nil, err
		}

		sub, err := s.store.CreateSubmission(ctx, store.CreateSubmissionParams{
			Id:          uuid.New().String(),
			ReferenceId: ref,
			FullName:    p.FullName,
			Email:       p.Email,
			TxHash:      p.TxHash,
			Documents:   refs,
		})
		if err == nil {
			zap.L().Info("Submission received",
				zap.String("reference_id", sub.ReferenceId),
				zap.String("tx_hash", sub.TxHash))
			return sub, nil
		}
		if !errors.Is(err, store.ErrDuplicateReference) || attempt >= maxReferenceTries {
			cleanup()
			return nil, fmt.Errorf("unable to record submission: %w", err)
		}
		zap.L().Warn("Reference id collision, regenerating", zap.String("reference_id", ref))
	}
}

func (s *VerificationService) ListSubmissions(ctx context.Context, search string) ([]models.VerificationSubmission, error) {
	return s.store.ListSubmissions(ctx, search)
}

func (s *VerificationService) GetSubmission(ctx context.Context, id string) (*models.VerificationSubmission, error) {
	return s.store.GetSubmission(ctx, id)
}

// DocumentURLs resolves the links for a submission's documents. With the
// default DOCUMENTS_PUBLIC_URL they point at GET /v1/admin/documents/{path},
// which requires the reviewer's bearer token.
func (s *VerificationService) DocumentURLs(sub models.VerificationSubmission) models.DocumentRefs {
	return models.DocumentRefs{
		IdPath:      s.docs.PublicURL(sub.Documents.IdPath),
		SelfiePath:  s.docs.PublicURL(sub.Documents.SelfiePath),
		ReceiptPath: s.docs.PublicURL(sub.Documents.ReceiptPath),
	}
}

// Review applies a reviewer decision to the submission with the given id
func (s *VerificationService) Review(ctx context.Context, id string, status models.SubmissionStatus) (*review.Outcome, error) {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.workflow.SetStatus(ctx, sub, status)
}

// Audit re-verifies one submission's hash. It does not pass through the client cooldown.
func (s *VerificationService) Audit(ctx context.Context, id string) (*models.VerificationSubmission, *models.Receipt, error) {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.auditor.Audit(ctx, sub)
	return sub, r, err
}

// AuditAll re-verifies every matching submission, at most auditConcurrency at a time.
// Per-submission lookup failures are reported in the results.
func (s *VerificationService) AuditAll(ctx context.Context, search string) ([]AuditResult, error) {
	subs, err := s.store.ListSubmissions(ctx, search)
	if err != nil {
		return nil, err
	}

	results := make([]AuditResult, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.auditConcurrency)
	for i := range subs {
		i := i
		g.Go(func() error {
			r, err := s.auditor.Audit(gctx, &subs[i])
			results[i] = AuditResult{Submission: subs[i], Receipt: r, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteSubmission removes the record and then its documents
func (s *VerificationService) DeleteSubmission(ctx context.Context, id string) error {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSubmission(ctx, id); err != nil {
		return err
	}
	for _, path := range []string{sub.Documents.IdPath, sub.Documents.SelfiePath, sub.Documents.ReceiptPath} {
		if err := s.docs.Delete(ctx, path); err != nil {
			zap.L().Warn("Failed to delete submission document",
				zap.String("reference_id", sub.ReferenceId),
				zap.String("path", path),
				zap.Error(err))
		}
	}
	return nil
}
