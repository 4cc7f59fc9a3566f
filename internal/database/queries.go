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

const (
	querySubmissionColumns = `
		SELECT id, reference_id, full_name, email, tx_hash,
		       id_path, selfie_path, receipt_path, status, created_at
		FROM submissions`

	queryInsertSubmission = `
		INSERT INTO submissions (id, reference_id, full_name, email, tx_hash,
		                         id_path, selfie_path, receipt_path, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'PENDING', ?)`

	queryGetSubmissionById = querySubmissionColumns + `
		WHERE id = ?`

	queryGetSubmissionByReference = querySubmissionColumns + `
		WHERE reference_id = ?`

	queryListSubmissions = querySubmissionColumns + `
		WHERE ? = ''
		   OR instr(LOWER(reference_id), LOWER(?)) > 0
		   OR instr(LOWER(full_name), LOWER(?)) > 0
		ORDER BY created_at DESC, rowid DESC`

	// Only a PENDING row may transition; zero rows affected means it already moved
	queryUpdateSubmissionStatus = `
		UPDATE submissions
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'PENDING'`

	queryGetSubmissionStatus = `
		SELECT status FROM submissions WHERE id = ?`

	queryDeleteSubmission = `
		DELETE FROM submissions WHERE id = ?`
)
