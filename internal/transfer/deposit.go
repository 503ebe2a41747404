package transfer

import (
	"context"
	"fmt"
	"os"
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

// DepositBackend is the part of the REST client the deposit form uses.
type DepositBackend interface {
	ListGateways(ctx context.Context) ([]models.Gateway, error)
	GetWallet(ctx context.Context) (*models.Wallet, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	CreateDeposit(ctx context.Context, req api.DepositRequest) (*models.DepositResult, error)
}

// DepositDraft is the in-memory deposit request being edited.
type DepositDraft struct {
	GatewayId       string `validate:"required"`
	DepositTo       string `validate:"required,oneof=mt5 wallet"`
	DestinationId   string `validate:"required"`
	Amount          string `validate:"required"`
	ProofPath       string `validate:"required_if=ProofRequired true"`
	TransactionHash string `validate:"required_if=HashRequired true"`
	ProofRequired   bool
	HashRequired    bool
}

type DepositForm struct {
	backend  DepositBackend
	opts     Options
	wizard   *wizard.Wizard
	limitGen reqgen.Counter

	mu             sync.Mutex
	loaded         bool
	gateways       []models.Gateway
	wallet         *models.Wallet
	accounts       []models.Account
	draft          DepositDraft
	bounds         limits.Bounds
	currency       string
	idempotencyKey string
	result         *models.DepositResult
}

func NewDepositForm(backend DepositBackend, opts Options) *DepositForm {
	return &DepositForm{
		backend: backend,
		opts:    opts,
		wizard:  wizard.New("deposit"),
	}
}

// Load fetches gateways, wallet and accounts concurrently.
func (f *DepositForm) Load(ctx context.Context) error {
	var (
		gateways []models.Gateway
		wallet   *models.Wallet
		accounts []models.Account
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gateways, err = f.backend.ListGateways(gctx)
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

	active := make([]models.Gateway, 0, len(gateways))
	for _, gw := range gateways {
		if gw.Active {
			active = append(active, gw)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.gateways = active
	f.wallet = wallet
	f.accounts = accounts
	f.loaded = true

	zap.L().Debug("Deposit form loaded",
		zap.Int("gateways", len(active)),
		zap.Int("accounts", len(accounts)))
	return nil
}

func (f *DepositForm) Gateways() []models.Gateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Gateway(nil), f.gateways...)
}

func (f *DepositForm) Accounts() []models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Account(nil), f.accounts...)
}

func (f *DepositForm) Wallet() *models.Wallet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wallet
}

func (f *DepositForm) SelectGateway(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		return ErrNotLoaded
	}
	for _, gw := range f.gateways {
		if gw.Id == id {
			f.draft.GatewayId = gw.Id
			f.draft.ProofRequired = gw.RequiresProof
			f.draft.HashRequired = gw.RequiresHash
			if f.currency == "" {
				f.currency = gw.Currency
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownGateway, id)
}

// SelectDestination switches the deposit target and refreshes its limit
// snapshot. Only the latest selection's snapshot is applied; a slower
// response to an earlier selection is dropped.
func (f *DepositForm) SelectDestination(ctx context.Context, kind, id string) error {
	f.mu.Lock()
	if !f.loaded {
		f.mu.Unlock()
		return ErrNotLoaded
	}
	if kind == api.DestinationWallet && id == "" && f.wallet != nil {
		id = f.wallet.WalletNumber
	}
	f.draft.DepositTo = kind
	f.draft.DestinationId = id
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
		bounds, currency, err = destinationBounds(kind, id, accounts, wallet, limits.Deposit)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		// the old account's limits must not apply to the new selection
		f.limitGen.Apply(tok, func() {
			f.draft.DepositTo = ""
			f.draft.DestinationId = ""
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
			zap.String("destination", id),
			zap.Uint64("token", uint64(tok)))
	}
	return nil
}

type snapshotSource interface {
	GetWallet(ctx context.Context) (*models.Wallet, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

func fetchSnapshot(ctx context.Context, src snapshotSource, kind string) ([]models.Account, *models.Wallet, error) {
	switch kind {
	case api.DestinationMT5:
		accounts, err := src.ListAccounts(ctx)
		return accounts, nil, err
	case api.DestinationWallet:
		wallet, err := src.GetWallet(ctx)
		return nil, wallet, err
	default:
		return nil, nil, fmt.Errorf("%w: kind %q", ErrUnknownDestination, kind)
	}
}

// SetAmount stores the raw amount and returns the inline validation message.
func (f *DepositForm) SetAmount(raw string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Amount = strings.TrimSpace(raw)
	return f.amountMessageLocked()
}

// AmountMessage re-validates the current amount against the current bounds.
func (f *DepositForm) AmountMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amountMessageLocked()
}

func (f *DepositForm) amountMessageLocked() string {
	return validate.AmountIn(f.draft.Amount, f.bounds, limits.Deposit, f.opts.Currencies.Exponent(f.currency))
}

func (f *DepositForm) AttachProof(path string) error {
	path = strings.TrimSpace(path)
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return &ValidationError{Field: "proof", Message: "Proof file could not be read."}
		}
		if info.IsDir() {
			return &ValidationError{Field: "proof", Message: "Proof must be a file."}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.ProofPath = path
	return nil
}

func (f *DepositForm) SetTransactionHash(hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.TransactionHash = strings.TrimSpace(hash)
}

func (f *DepositForm) Draft() DepositDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *DepositForm) Bounds() limits.Bounds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bounds
}

func (f *DepositForm) Currency() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currency
}

func (f *DepositForm) Step() wizard.Step {
	return f.wizard.Step()
}

// Submitted reports whether the Done step may render its content.
func (f *DepositForm) Submitted() bool {
	return f.wizard.Submitted()
}

func (f *DepositForm) Submitting() bool {
	return f.wizard.Submitting()
}

// Error is the server message of the last failed confirm.
func (f *DepositForm) Error() string {
	return f.wizard.Error()
}

func (f *DepositForm) Result() *models.DepositResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Navigate follows an external step change.
func (f *DepositForm) Navigate(step wizard.Step) error {
	return f.wizard.Navigate(step)
}

func (f *DepositForm) checkLocked() error {
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

// Next validates the details step and moves to Confirm with the draft intact.
func (f *DepositForm) Next() error {
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

	// one key per pass through Confirm; a retried confirm reuses it
	f.mu.Lock()
	f.idempotencyKey = newIdempotencyKey()
	f.mu.Unlock()
	return nil
}

// Back returns from Confirm to Details keeping every draft field.
func (f *DepositForm) Back() {
	f.wizard.Back()
}

// Confirm submits the deposit once. The draft is checked again so nothing
// invalid leaves the client, whichever way the form reached Confirm. On
// failure the form stays at Confirm and Error returns the server's message.
func (f *DepositForm) Confirm(ctx context.Context) error {
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

	req := api.DepositRequest{
		GatewayId:       draft.GatewayId,
		Amount:          amount,
		Currency:        currency,
		DepositTo:       draft.DepositTo,
		ProofPath:       draft.ProofPath,
		TransactionHash: draft.TransactionHash,
		IdempotencyKey:  key,
	}
	if draft.DepositTo == api.DestinationMT5 {
		req.MT5AccountId = draft.DestinationId
	} else {
		req.WalletNumber = draft.DestinationId
	}

	return f.wizard.Confirm(ctx, func(ctx context.Context) error {
		result, err := f.backend.CreateDeposit(ctx, req)
		if err != nil {
			return &submitError{err: err}
		}

		recordReceipt(ctx, f.opts.Receipts, models.SubmissionReceipt{
			Kind:           string(limits.Deposit),
			IdempotencyKey: key,
			RemoteId:       result.Id,
			Amount:         amount,
			Currency:       currency,
			Destination:    draft.DepositTo + ":" + draft.DestinationId,
			Status:         result.Status,
			CreatedAt:      time.Now().UTC(),
		})

		f.mu.Lock()
		f.result = result
		f.draft = DepositDraft{}
		f.bounds = limits.Bounds{}
		f.idempotencyKey = ""
		f.mu.Unlock()
		return nil
	})
}

// Close discards the draft and any pending step.
func (f *DepositForm) Close() {
	f.limitGen.Next()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = DepositDraft{}
	f.bounds = limits.Bounds{}
	f.currency = ""
	f.idempotencyKey = ""
	f.result = nil
	f.wizard.Reset()
}
