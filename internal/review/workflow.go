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

package review

import (
	"context"
	"fmt"

	"crypverify-go/internal/metrics"
	"crypverify-go/internal/models"
	"crypverify-go/internal/notify"
	"crypverify-go/internal/store"

	"go.uber.org/zap"
)

// Outcome describes a persisted transition. AuditErr and NotifyErr are soft
// failures: the status change stands regardless.
type Outcome struct {
	Submission models.VerificationSubmission
	Audit      *models.Receipt
	AuditErr   error
	NotifyErr  *NotificationError
}

// Notified reports whether the submitter was told about the change
func (o *Outcome) Notified() bool {
	return o.NotifyErr == nil
}

// Workflow drives PENDING -> APPROVED | REJECTED transitions
type Workflow struct {
	store    store.SubmissionStore
	auditor  *Auditor
	notifier notify.Notifier
}

func NewWorkflow(s store.SubmissionStore, auditor *Auditor, notifier notify.Notifier) *Workflow {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Workflow{store: s, auditor: auditor, notifier: notifier}
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to models.SubmissionStatus) bool {
	return from == models.StatusPending && to.IsTerminal()
}

// SetStatus persists the new status, then audits the hash, then notifies
// the submitter once. A *PersistenceError means the audit and the
// notification were skipped and the stored status is unchanged.
func (w *Workflow) SetStatus(ctx context.Context, sub *models.VerificationSubmission, status models.SubmissionStatus) (*Outcome, error) {
	if sub == nil {
		return nil, fmt.Errorf("%w: no submission", ErrInvalidTransition)
	}
	if !CanTransition(sub.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, status)
	}

	if err := w.store.UpdateStatus(ctx, sub.Id, status); err != nil {
		zap.L().Error("Failed to persist review decision",
			zap.String("submission_id", sub.Id),
			zap.String("status", string(status)),
			zap.Error(err))
		return nil, &PersistenceError{SubmissionId: sub.Id, Status: status, Err: err}
	}
	metrics.ReviewTransitions.WithLabelValues(string(status)).Inc()

	updated := *sub
	updated.Status = status
	outcome := &Outcome{Submission: updated}

	if w.auditor != nil {
		receipt, err := w.auditor.Audit(ctx, &updated)
		if err != nil {
			zap.L().Warn("Audit lookup failed after review decision",
				zap.String("reference_id", sub.ReferenceId),
				zap.Error(err))
			outcome.AuditErr = err
		} else {
			outcome.Audit = receipt
		}
	}

	err := w.notifier.Notify(ctx, notify.StatusNotification{
		UserName:    sub.FullName,
		UserEmail:   sub.Email,
		Status:      status,
		ReferenceId: sub.ReferenceId,
	})
	if err != nil {
		metrics.NotificationFailures.Inc()
		zap.L().Warn("Submitter was not notified of review decision",
			zap.String("reference_id", sub.ReferenceId),
			zap.String("status", string(status)),
			zap.Error(err))
		outcome.NotifyErr = &NotificationError{ReferenceId: sub.ReferenceId, Err: err}
	}

	zap.L().Info("Review decision recorded",
		zap.String("reference_id", sub.ReferenceId),
		zap.String("status", string(status)),
		zap.Bool("notified", outcome.Notified()))
	return outcome, nil
}
