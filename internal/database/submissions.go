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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"crypverify-go/internal/models"
	"crypverify-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.VerificationSubmission, error) {
	var sub models.VerificationSubmission
	var status string
	err := row.Scan(
		&sub.Id, &sub.ReferenceId, &sub.FullName, &sub.Email, &sub.TxHash,
		&sub.Documents.IdPath, &sub.Documents.SelfiePath, &sub.Documents.ReceiptPath,
		&status, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	sub.Status = models.SubmissionStatus(status)
	return &sub, nil
}

func (s *Service) CreateSubmission(ctx context.Context, params store.CreateSubmissionParams) (*models.VerificationSubmission, error) {
	zap.L().Info("Creating submission",
		zap.String("id", params.Id),
		zap.String("reference_id", params.ReferenceId),
		zap.String("tx_hash", params.TxHash))

	createdAt := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, queryInsertSubmission,
		params.Id, params.ReferenceId, params.FullName, params.Email, params.TxHash,
		params.Documents.IdPath, params.Documents.SelfiePath, params.Documents.ReceiptPath,
		createdAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateReference, params.ReferenceId)
		}
		zap.L().Error("Failed to insert submission", zap.String("reference_id", params.ReferenceId), zap.Error(err))
		return nil, fmt.Errorf("unable to insert submission: %w", err)
	}

	return &models.VerificationSubmission{
		Id:          params.Id,
		ReferenceId: params.ReferenceId,
		FullName:    params.FullName,
		Email:       params.Email,
		TxHash:      params.TxHash,
		Documents:   params.Documents,
		Status:      models.StatusPending,
		CreatedAt:   createdAt,
	}, nil
}

func (s *Service) GetSubmission(ctx context.Context, id string) (*models.VerificationSubmission, error) {
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, queryGetSubmissionById, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrSubmissionNotFound, id)
		}
		zap.L().Error("Failed to query submission", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("unable to query submission: %w", err)
	}
	return sub, nil
}

func (s *Service) GetSubmissionByReference(ctx context.Context, referenceId string) (*models.VerificationSubmission, error) {
	referenceId = strings.ToUpper(strings.TrimSpace(referenceId))
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, queryGetSubmissionByReference, referenceId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: reference %s", store.ErrSubmissionNotFound, referenceId)
		}
		return nil, fmt.Errorf("unable to query submission by reference: %w", err)
	}
	return sub, nil
}

func (s *Service) ListSubmissions(ctx context.Context, search string) ([]models.VerificationSubmission, error) {
	search = strings.TrimSpace(search)
	zap.L().Debug("Querying submissions", zap.String("search", search))

	rows, err := s.db.QueryContext(ctx, queryListSubmissions, search, search, search)
	if err != nil {
		zap.L().Error("Failed to query submissions", zap.Error(err))
		return nil, fmt.Errorf("unable to query submissions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var subs []models.VerificationSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan submission row: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission rows: %w", err)
	}

	zap.L().Debug("Retrieved submissions", zap.Int("count", len(subs)))
	return subs, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) error {
	if !status.IsTerminal() {
		return fmt.Errorf("cannot move submission to %s", status)
	}

	result, err := s.db.ExecContext(ctx, queryUpdateSubmissionStatus, string(status), id)
	if err != nil {
		zap.L().Error("Failed to update submission status", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("unable to update submission status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		zap.L().Info("Submission status updated", zap.String("id", id), zap.String("status", string(status)))
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, queryGetSubmissionStatus, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", store.ErrSubmissionNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("unable to read submission status: %w", err)
	}
	return fmt.Errorf("submission %s is already %s - %w", id, current, store.ErrConcurrentModification)
}

func (s *Service) DeleteSubmission(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteSubmission, id)
	if err != nil {
		return fmt.Errorf("unable to delete submission: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrSubmissionNotFound, id)
	}

	zap.L().Info("Submission deleted", zap.String("id", id))
	return nil
}
