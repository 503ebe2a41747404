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

	"go.uber.org/zap"
)

// SaveSession stores a freshly issued session and retires any other active one.
func (s *Service) SaveSession(ctx context.Context, session *models.Session) error {
	if session == nil || session.Id == "" || session.Token == "" {
		return fmt.Errorf("session id and token are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to rollback session transaction", zap.Error(err))
		}
	}()

	_, err = tx.ExecContext(ctx, queryInsertSession,
		session.Id, session.Email, session.Token, session.IssuedAt.UTC(), nullTime(session.ExpiresAt))
	if err != nil {
		zap.L().Error("Failed to insert session", zap.String("email", session.Email), zap.Error(err))
		return fmt.Errorf("unable to insert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, queryInvalidateOtherSessions, time.Now().UTC(), session.Id); err != nil {
		return fmt.Errorf("unable to retire previous sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to commit session: %w", err)
	}

	zap.L().Info("Session stored",
		zap.String("session_id", session.Id),
		zap.String("email", session.Email),
		zap.Time("expires_at", session.ExpiresAt))
	return nil
}

// GetActiveSession returns the newest session that is neither invalidated
// nor expired at now. store.ErrNoSession when there is none.
func (s *Service) GetActiveSession(ctx context.Context, now time.Time) (*models.Session, error) {
	var session models.Session
	var expiresAt sql.NullTime

	err := s.db.QueryRowContext(ctx, queryGetActiveSession).Scan(
		&session.Id, &session.Email, &session.Token, &session.IssuedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoSession
		}
		zap.L().Error("Failed to query active session", zap.Error(err))
		return nil, fmt.Errorf("unable to query active session: %w", err)
	}
	if expiresAt.Valid {
		session.ExpiresAt = expiresAt.Time
	}

	if !session.Active(now) {
		zap.L().Debug("Stored session has expired",
			zap.String("session_id", session.Id),
			zap.Time("expires_at", session.ExpiresAt))
		return nil, store.ErrNoSession
	}

	return &session, nil
}

// InvalidateSession marks a session unusable. Invalidating an already
// invalidated or unknown session is not an error.
func (s *Service) InvalidateSession(ctx context.Context, sessionId, reason string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, queryInvalidateSession, at.UTC(), reason, sessionId)
	if err != nil {
		zap.L().Error("Failed to invalidate session", zap.String("session_id", sessionId), zap.Error(err))
		return fmt.Errorf("unable to invalidate session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}

	zap.L().Info("Session invalidated",
		zap.String("session_id", sessionId),
		zap.String("reason", reason),
		zap.Int64("rows", rowsAffected))
	return nil
}
