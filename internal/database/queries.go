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
	// Session queries
	queryInsertSession = `
		INSERT INTO sessions (id, email, token, issued_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`

	queryInvalidateOtherSessions = `
		UPDATE sessions
		SET invalidated_at = ?, reason = 'superseded'
		WHERE id != ? AND invalidated_at IS NULL`

	queryGetActiveSession = `
		SELECT id, email, token, issued_at, expires_at
		FROM sessions
		WHERE invalidated_at IS NULL
		ORDER BY issued_at DESC
		LIMIT 1`

	queryInvalidateSession = `
		UPDATE sessions
		SET invalidated_at = ?, reason = ?
		WHERE id = ? AND invalidated_at IS NULL`

	// Receipt queries
	queryInsertReceipt = `
		INSERT INTO submission_receipts (id, kind, idempotency_key, remote_id, amount, currency, destination, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetReceiptByKey = `
		SELECT id, kind, idempotency_key, remote_id, amount, currency, destination, status, created_at
		FROM submission_receipts
		WHERE idempotency_key = ?`

	queryListReceipts = `
		SELECT id, kind, idempotency_key, remote_id, amount, currency, destination, status, created_at
		FROM submission_receipts
		WHERE (? = '' OR kind = ?)
		ORDER BY created_at DESC
		LIMIT ?`

	// Ticket cursor queries
	queryGetTicketCursor = `
		SELECT ticket_id, last_message_id, last_seen_at
		FROM ticket_cursors
		WHERE ticket_id = ?`

	queryUpsertTicketCursor = `
		INSERT INTO ticket_cursors (ticket_id, last_message_id, last_seen_at)
		VALUES (?, ?, ?)
		ON CONFLICT(ticket_id) DO UPDATE SET
			last_message_id = excluded.last_message_id,
			last_seen_at = excluded.last_seen_at`
)
