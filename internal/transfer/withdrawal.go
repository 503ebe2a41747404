package transfer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"forex-portal-go/internal/api"
	"forex-portal-go/internal/limits"
	"forex-portal-go/internal/models"
	"forex-portal-go/internal/money"
	"forex-portal-go/internal/reqgen"
	"forex-portal-go/internal/validate"
	"forex-portal-go/internal/wizard"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const kycApproved = "approved"

// WithdrawalBackend is the part of the REST client the withdrawal form uses.
type WithdrawalBackend interface {
	GetKYCStatus(ctx context.Context) (*models.KYCStatus, error)
	ListPaymentDetails(ctx context.Context) ([]models.PaymentDetail, error)
	GetWallet(ctx context.Context) (*models.Wallet, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	CreateWithdrawal(ctx context.Context, req api.WithdrawalRequest) (*models.WithdrawalResult, error)
}

// WithdrawalDraft is the in-memory crypto withdrawal being edited.
type WithdrawalDraft struct {
	PaymentDetailId string `validate:"required"`
	WithdrawFrom    string `validate:"required,oneof=mt5 wallet"`
	SourceId        string `validate:"required"`
	Amount          string `validate:"required"`
	Password        string
}

type WithdrawalForm struct {
	backend  WithdrawalBackend
	opts     Options
	wizard   *wizard.Wizard
	limitGen reqgen.Counter

	mu             sync.Mutex
	loaded         bool
	kyc            *models.KYCStatus
	payments       []models.PaymentDetail
	wallet         *models.Wallet
	accounts       []models.Account
	draft          WithdrawalDraft
	bounds         limits.Bounds
	currency       string
	idempotencyKey string
	result         *models.WithdrawalResult
}

func NewWithdrawalForm(backend WithdrawalBackend, opts Options) *WithdrawalForm {
	return &WithdrawalForm{
		backend: backend,
		opts:    opts,
		wizard:  wizard.New("withdrawal"),
	}
}

// Load fetches KYC status, payment details, wallet and accounts
// concurrently. It returns ErrKYCRequired when verification is not approved.
func (f *WithdrawalForm) Load(ctx context.Context) error {
	var (
		kyc      *models.KYCStatus
		payments []models.PaymentDetail
		wallet   *models.Wallet
		accounts []models.Account
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		kyc, err = f.backend.GetKYCStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = f.backend.ListPaymentDetails(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		wallet, err = f.backend.GetWallet(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = f.backend.ListAccounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if kyc == nil || !strings.EqualFold(kyc.Status, kycApproved) {
		status := "unknown"
		if kyc != nil {
			status = kyc.Status
		}
		zap.L().Info("Withdrawal blocked by kyc status", zap.String("kyc_status", status))
		return fmt.Errorf("%w (status: %s)", ErrKYCRequired, status)
	}

	usable := make([]models.PaymentDetail, 0, len(payments))
	for _, p := range payments {
		switch strings.ToLower(p.Status) {
		case "", "approved", "active", "verified":
			usable = append(usable, p)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.kyc = kyc
	f.payments = usable
	f.wallet = wallet
	f.accounts = accounts
	f.loaded = true
	return nil
}

func (f *WithdrawalForm) KYC() *models.KYCStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kyc
}

func (f *WithdrawalForm) PaymentDetails() []models.PaymentDetail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PaymentDetail(nil), f.payments...)
}

func (f *WithdrawalForm) Accounts() []models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Account(nil), f.accounts...)
}

func (f *WithdrawalForm) Wallet() *models.Wallet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wallet
}

func (f *WithdrawalForm) SelectPaymentDetail(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		return ErrNotLoaded
	}
	for _, p := range f.payments {
		if p.Id == id {
			f.draft.PaymentDetailId = p.Id
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownPayment, id)
}

// SelectSource switches the account funds are withdrawn from and refreshes
// its limits. Superseded snapshots are dropped.
func (f *WithdrawalForm) SelectSource(ctx context.Context, kind, id string) error {
	f.mu.Lock()
	if !f.loaded {
		f.mu.Unlock()
		return ErrNotLoaded
	}
	if kind == api.DestinationWallet && id == "" && f.wallet != nil {
		id = f.wallet.WalletNumber
	}
	f.draft.WithdrawFrom = kind
	f.draft.SourceId = id
	tok := f.limitGen.Next()
	f.mu.Unlock()

	accounts, wallet, err := fetchSnapshot(ctx, f.backend, kind)
	if err != nil {
		err = fmt.Errorf("unable to load limits: %w", err)
	}
	var (
		bounds   limits.Bounds
		currency string
	)
	if err == nil {
		bounds, currency, err = destinationBounds(kind, id, accounts, wallet, limits.Withdrawal)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.limitGen.Apply(tok, func() {
			f.draft.WithdrawFrom = ""
			f.draft.SourceId = ""
			f.bounds = limits.Bounds{}
		})
		return err
	}
	applied := f.limitGen.Apply(tok, func() {
		if kind == api.DestinationMT5 {
			f.accounts = accounts
		} else {
			f.wallet = wallet
		}
		f.bounds = bounds
		f.currency = currency
	})
	if !applied {
		zap.L().Debug("Dropping superseded limit snapshot",
			zap.String("kind", kind),
			zap.String("source", id),
			zap.Uint64("token", uint64(tok)))
	}
	return nil
}

func (f *WithdrawalForm) SetAmount(raw string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Amount = strings.TrimSpace(raw)
	return f.amountMessageLocked()
}

func (f *WithdrawalForm) AmountMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amountMessageLocked()
}

func (f *WithdrawalForm) amountMessageLocked() string {
	return validate.AmountIn(f.draft.Amount, f.bounds, limits.Withdrawal, f.opts.Currencies.Exponent(f.currency))
}

// SetPassword stores the account password some backends require to
// authorize a withdrawal. It is never logged.
func (f *WithdrawalForm) SetPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Password = password
}

func (f *WithdrawalForm) Draft() WithdrawalDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *WithdrawalForm) Bounds() limits.Bounds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bounds
}

func (f *WithdrawalForm) Currency() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currency
}

func (f *WithdrawalForm) Step() wizard.Step {
	return f.wizard.Step()
}

func (f *WithdrawalForm) Submitted() bool {
	return f.wizard.Submitted()
}

func (f *WithdrawalForm) Submitting() bool {
	return f.wizard.Submitting()
}

// Error is the server message of the last failed confirm.
func (f *WithdrawalForm) Error() string {
	return f.wizard.Error()
}

func (f *WithdrawalForm) Back() {
	f.wizard.Back()
}

func (f *WithdrawalForm) Navigate(step wizard.Step) error {
	return f.wizard.Navigate(step)
}

func (f *WithdrawalForm) Result() *models.WithdrawalResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

func (f *WithdrawalForm) checkLocked() error {
	if !f.loaded {
		return ErrNotLoaded
	}
	if msg := f.amountMessageLocked(); msg != "" {
		return &ValidationError{Field: "amount", Message: msg}
	}
	if err := validate.Draft(f.draft); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// Next validates the details step and moves to Confirm.
func (f *WithdrawalForm) Next() error {
	if step := f.wizard.Step(); step != wizard.Details {
		return fmt.Errorf("%w: next from %s", wizard.ErrInvalidStep, step)
	}

	f.mu.Lock()
	err := f.checkLocked()
	f.mu.Unlock()
	if err != nil {
		return err
	}

	if err := f.wizard.Navigate(wizard.Confirm); err != nil {
		return err
	}

	f.mu.Lock()
	f.idempotencyKey = newIdempotencyKey()
	f.mu.Unlock()
	return nil
}

// Confirm re-checks the draft and submits the withdrawal once; failures
// keep the form at Confirm.
func (f *WithdrawalForm) Confirm(ctx context.Context) error {
	if f.wizard.Step() != wizard.Confirm {
		return wizard.ErrNotAtConfirm
	}

	f.mu.Lock()
	if err := f.checkLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.idempotencyKey == "" {
		f.idempotencyKey = newIdempotencyKey()
	}
	draft := f.draft
	currency := f.currency
	key := f.idempotencyKey
	f.mu.Unlock()

	amount, err := money.ParsePositive(draft.Amount)
	if err != nil {
		return &ValidationError{Field: "amount", Message: validate.MsgInvalidAmount}
	}

	req := api.WithdrawalRequest{
		Amount:          amount,
		Currency:        currency,
		PaymentDetailId: draft.PaymentDetailId,
		WithdrawFrom:    draft.WithdrawFrom,
		Password:        draft.Password,
		IdempotencyKey:  key,
	}
	if draft.WithdrawFrom == api.DestinationMT5 {
		req.MT5AccountId = draft.SourceId
	} else {
		req.WalletNumber = draft.SourceId
	}

	return f.wizard.Confirm(ctx, func(ctx context.Context) error {
		result, err := f.backend.CreateWithdrawal(ctx, req)
		if err != nil {
			return &submitError{err: err}
		}

		recordReceipt(ctx, f.opts.Receipts, models.SubmissionReceipt{
			Kind:           string(limits.Withdrawal),
			IdempotencyKey: key,
			RemoteId:       result.Id,
			Amount:         amount,
			Currency:       currency,
			Destination:    draft.PaymentDetailId,
			Status:         result.Status,
			CreatedAt:      time.Now().UTC(),
		})

		f.mu.Lock()
		f.result = result
		f.draft = WithdrawalDraft{}
		f.bounds = limits.Bounds{}
		f.idempotencyKey = ""
		f.mu.Unlock()
		return nil
	})
}

func (f *WithdrawalForm) Close() {
	f.limitGen.Next()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = WithdrawalDraft{}
	f.bounds = limits.Bounds{}
	f.currency = ""
	f.idempotencyKey = ""
	f.result = nil
	f.wizard.Reset()
}
