package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crypverify-go/internal/models"
	"crypverify-go/internal/store"

	"go.uber.org/zap"
)

// LoadSubmissions resolves a reviewer filter. A filter that is an exact
// reference id returns that submission; anything else is a list search.
func LoadSubmissions(ctx context.Context, s store.SubmissionStore, filter string) ([]models.VerificationSubmission, error) {
	filter = strings.TrimSpace(filter)

	if filter != "" {
		sub, err := s.GetSubmissionByReference(ctx, filter)
		if err == nil {
			return []models.VerificationSubmission{*sub}, nil
		}
		if !errors.Is(err, store.ErrSubmissionNotFound) {
			return nil, fmt.Errorf("failed to look up reference %s: %w", filter, err)
		}
	}

	subs, err := s.ListSubmissions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	zap.L().Info("Retrieved submissions", zap.String("filter", filter), zap.Int("count", len(subs)))
	return subs, nil
}
