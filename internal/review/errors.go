package review

import (
	"errors"
	"fmt"

	"crypverify-go/internal/models"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// PersistenceError means the status write failed and nothing else ran
type PersistenceError struct {
	SubmissionId string
	Status       models.SubmissionStatus
	Err          error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s for submission %s: %v", e.Status, e.SubmissionId, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NotificationError reports a status change the submitter was not told about
type NotificationError struct {
	ReferenceId string
	Err         error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify submitter of %s: %v", e.ReferenceId, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
