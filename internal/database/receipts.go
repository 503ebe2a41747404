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
	"time"

	"forex-portal-go/internal/models"
	"forex-portal-go/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func (s *Service) RecordSubmission(ctx context.Context, receipt models.SubmissionReceipt) error {
	if receipt.IdempotencyKey == "" || receipt.Kind == "" {
		return fmt.Errorf("kind and idempotency key are required")
	}
	if receipt.Id == "" {
		receipt.Id = uuid.New().String()
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, queryInsertReceipt,
		receipt.Id, receipt.Kind, receipt.IdempotencyKey, receipt.RemoteId,
		receipt.Amount.String(), receipt.Currency, receipt.Destination, receipt.Status,
		receipt.CreatedAt.UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			zap.L().Info("Duplicate submission receipt",
				zap.String("idempotency_key", receipt.IdempotencyKey))
			return store.ErrDuplicateReceipt
		}
		zap.L().Error("Failed to insert submission receipt",
			zap.String("kind", receipt.Kind),
			zap.String("idempotency_key", receipt.IdempotencyKey),
			zap.Error(err))
		return fmt.Errorf("unable to insert submission receipt: %w", err)
	}

	zap.L().Info("Submission receipt recorded",
		zap.String("kind", receipt.Kind),
		zap.String("remote_id", receipt.RemoteId),
		zap.String("amount", receipt.Amount.String()),
		zap.String("currency", receipt.Currency))
	return nil
}

func (s *Service) GetSubmission(ctx context.Context, idempotencyKey string) (*models.SubmissionReceipt, error) {
	receipt, err := scanReceipt(s.db.QueryRowContext(ctx, queryGetReceiptByKey, idempotencyKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("unable to query submission receipt: %w", err)
	}
	return receipt, nil
}

func (s *Service) ListSubmissions(ctx context.Context, params store.ListReceiptsParams) ([]models.SubmissionReceipt, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, queryListReceipts, params.Kind, params.Kind, limit)
	if err != nil {
		zap.L().Error("Failed to query submission receipts", zap.Error(err))
		return nil, fmt.Errorf("unable to query submission receipts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var receipts []models.SubmissionReceipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan submission receipt: %w", err)
		}
		receipts = append(receipts, *receipt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission receipts: %w", err)
	}

	return receipts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*models.SubmissionReceipt, error) {
	var r models.SubmissionReceipt
	err := row.Scan(&r.Id, &r.Kind, &r.IdempotencyKey, &r.RemoteId,
		&r.Amount, &r.Currency, &r.Destination, &r.Status, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
