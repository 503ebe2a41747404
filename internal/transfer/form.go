// Package transfer drives the deposit and withdrawal forms: it loads the
// data a form needs, keeps the draft, resolves limits for the selected
// destination, validates the amount and runs the three-step wizard.
package transfer

import (
	"context"
	"errors"
	"fmt"

	"forex-portal-go/internal/api"
	"forex-portal-go/internal/limits"
	"forex-portal-go/internal/models"
	"forex-portal-go/internal/money"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotLoaded          = errors.New("form data has not been loaded")
	ErrUnknownDestination = errors.New("unknown destination")
	ErrUnknownGateway     = errors.New("unknown deposit gateway")
	ErrUnknownPayment     = errors.New("unknown payment detail")
	ErrKYCRequired        = errors.New("identity verification must be approved before withdrawing")
)

// ReceiptRecorder keeps a local record of confirmed submissions.
type ReceiptRecorder interface {
	RecordSubmission(ctx context.Context, receipt models.SubmissionReceipt) error
}

// Options are shared by both forms. Zero values are usable.
type Options struct {
	Receipts   ReceiptRecorder
	Currencies *money.Table
}

// ValidationError is an inline form error shown next to a field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// submitError carries the user-facing text of a failed confirm while
// keeping the underlying error inspectable.
type submitError struct {
	err error
}

func (e *submitError) Error() string { return api.UserMessage(e.err) }
func (e *submitError) Unwrap() error { return e.err }

// destinationBounds resolves limits for an MT5 account or the wallet.
func destinationBounds(kind, id string, accounts []models.Account, wallet *models.Wallet, dir limits.Direction) (limits.Bounds, string, error) {
	switch kind {
	case api.DestinationMT5:
		for _, a := range accounts {
			if a.Id == id || a.AccountNumber == id {
				return limits.Resolve(accounts, id, dir), a.Currency, nil
			}
		}
		return limits.Bounds{}, "", fmt.Errorf("%w: mt5 account %s", ErrUnknownDestination, id)
	case api.DestinationWallet:
		if wallet == nil || (id != "" && id != wallet.WalletNumber) {
			return limits.Bounds{}, "", fmt.Errorf("%w: wallet %s", ErrUnknownDestination, id)
		}
		return limits.ResolveWallet(wallet, dir), wallet.Currency, nil
	default:
		return limits.Bounds{}, "", fmt.Errorf("%w: kind %q", ErrUnknownDestination, kind)
	}
}

func newIdempotencyKey() string {
	return uuid.New().String()
}

func recordReceipt(ctx context.Context, rec ReceiptRecorder, receipt models.SubmissionReceipt) {
	if rec == nil {
		return
	}
	if err := rec.RecordSubmission(ctx, receipt); err != nil {
		zap.L().Warn("Failed to record submission receipt",
			zap.String("kind", receipt.Kind),
			zap.String("idempotency_key", receipt.IdempotencyKey),
			zap.Error(err))
	}
}
