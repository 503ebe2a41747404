package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"forex-portal-go/internal/models"
	"forex-portal-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) GetTicketCursor(ctx context.Context, ticketId string) (*models.TicketCursor, error) {
	var c models.TicketCursor
	err := s.db.QueryRowContext(ctx, queryGetTicketCursor, ticketId).Scan(
		&c.TicketId, &c.LastMessageId, &c.LastSeenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("unable to query ticket cursor: %w", err)
	}
	return &c, nil
}

func (s *Service) SaveTicketCursor(ctx context.Context, cursor models.TicketCursor) error {
	if cursor.TicketId == "" || cursor.LastMessageId == "" {
		return fmt.Errorf("ticket id and last message id are required")
	}

	_, err := s.db.ExecContext(ctx, queryUpsertTicketCursor,
		cursor.TicketId, cursor.LastMessageId, cursor.LastSeenAt.UTC())
	if err != nil {
		zap.L().Error("Failed to save ticket cursor",
			zap.String("ticket_id", cursor.TicketId),
			zap.Error(err))
		return fmt.Errorf("unable to save ticket cursor: %w", err)
	}

	zap.L().Debug("Ticket cursor saved",
		zap.String("ticket_id", cursor.TicketId),
		zap.String("last_message_id", cursor.LastMessageId))
	return nil
}
