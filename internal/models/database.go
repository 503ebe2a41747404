package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session is an authenticated backend session (issued at login)
type Session struct {
	Id            string    `db:"id"`
	Email         string    `db:"email"`
	Token         string    `db:"token"`
	IssuedAt      time.Time `db:"issued_at"`
	ExpiresAt     time.Time `db:"expires_at"` // zero when the token carries no exp claim
	InvalidatedAt time.Time `db:"invalidated_at"`
	Reason        string    `db:"reason"`
}

// Active reports whether the session can still be used at the given time
func (s *Session) Active(now time.Time) bool {
	if s == nil || s.Token == "" || !s.InvalidatedAt.IsZero() {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// SubmissionReceipt is the local record of a confirmed deposit or withdrawal
type SubmissionReceipt struct {
	Id             string          `db:"id"`
	Kind           string          `db:"kind"` // "deposit", "withdrawal"
	IdempotencyKey string          `db:"idempotency_key"`
	RemoteId       string          `db:"remote_id"`
	Amount         decimal.Decimal `db:"amount"`
	Currency       string          `db:"currency"`
	Destination    string          `db:"destination"`
	Status         string          `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
}

// TicketCursor tracks the last support message already shown for a ticket
type TicketCursor struct {
	TicketId      string    `db:"ticket_id"`
	LastMessageId string    `db:"last_message_id"`
	LastSeenAt    time.Time `db:"last_seen_at"`
}
