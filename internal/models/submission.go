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

package models

import (
	"fmt"
	"strings"
	"time"
)

// SubmissionStatus is the review state of a verification request
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "PENDING"
	StatusApproved SubmissionStatus = "APPROVED"
	StatusRejected SubmissionStatus = "REJECTED"
)

// ParseSubmissionStatus accepts a status name in any case
func ParseSubmissionStatus(s string) (SubmissionStatus, error) {
	switch SubmissionStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown submission status: %q", s)
}

// IsTerminal reports whether no further transitions are allowed
func (s SubmissionStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// DocumentRefs holds object store paths for the uploaded documents
type DocumentRefs struct {
	IdPath      string `json:"id_path"`
	SelfiePath  string `json:"selfie_path"`
	ReceiptPath string `json:"receipt_path"`
}

// VerificationSubmission is a user's identity/payment request awaiting review
type VerificationSubmission struct {
	Id          string           `db:"id" json:"id"`
	ReferenceId string           `db:"reference_id" json:"reference_id"`
	FullName    string           `db:"full_name" json:"full_name"`
	Email       string           `db:"email" json:"email"`
	TxHash      string           `db:"tx_hash" json:"tx_hash"`
	Documents   DocumentRefs     `json:"documents"`
	Status      SubmissionStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}
