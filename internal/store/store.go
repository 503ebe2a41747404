package store

import (
	"context"
	"errors"
	"time"

	"forex-portal-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNoSession        = errors.New("no active session")
	ErrDuplicateReceipt = errors.New("duplicate submission receipt")
	ErrNotFound         = errors.New("record not found")
)

// ListReceiptsParams filters local submission receipts.
type ListReceiptsParams struct {
	Kind  string // "deposit", "withdrawal", or empty for both
	Limit int
}

// PortalStore defines the local state the client keeps between runs.
// Business data stays on the backend; only session, receipts and
// support-ticket cursors live here.
type PortalStore interface {
	// --- Sessions ---
	SaveSession(ctx context.Context, session *models.Session) error
	GetActiveSession(ctx context.Context, now time.Time) (*models.Session, error)
	InvalidateSession(ctx context.Context, sessionId, reason string, at time.Time) error

	// --- Submission receipts ---
	RecordSubmission(ctx context.Context, receipt models.SubmissionReceipt) error
	GetSubmission(ctx context.Context, idempotencyKey string) (*models.SubmissionReceipt, error)
	ListSubmissions(ctx context.Context, params ListReceiptsParams) ([]models.SubmissionReceipt, error)

	// --- Support ticket cursors ---
	GetTicketCursor(ctx context.Context, ticketId string) (*models.TicketCursor, error)
	SaveTicketCursor(ctx context.Context, cursor models.TicketCursor) error

	// --- Lifecycle ---
	Close()
}
