package store

import (
	"context"
	"errors"

	"crypverify-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrDuplicateReference     = errors.New("duplicate reference id")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// CreateSubmissionParams contains the fields captured at intake.
// Status always starts as PENDING.
type CreateSubmissionParams struct {
	Id          string
	ReferenceId string
	FullName    string
	Email       string
	TxHash      string
	Documents   models.DocumentRefs
}

// SubmissionStore defines the contract every submission backend must satisfy.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, params CreateSubmissionParams) (*models.VerificationSubmission, error)
	GetSubmission(ctx context.Context, id string) (*models.VerificationSubmission, error)
	GetSubmissionByReference(ctx context.Context, referenceId string) (*models.VerificationSubmission, error)

	// ListSubmissions returns newest first. A non-empty search matches the
	// reference id or full name, case-insensitively.
	ListSubmissions(ctx context.Context, search string) ([]models.VerificationSubmission, error)

	// UpdateStatus moves a PENDING submission to status. A submission that is
	// no longer PENDING yields ErrConcurrentModification.
	UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) error

	DeleteSubmission(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close()
}
