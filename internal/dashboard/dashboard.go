// Package dashboard assembles the account overview: wallet, MT5 accounts
// with their transfer limits, KYC state and per-currency totals.
package dashboard

import (
	"context"
	"sort"

	"forex-portal-go/internal/limits"
	"forex-portal-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Backend interface {
	GetWallet(ctx context.Context) (*models.Wallet, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	GetKYCStatus(ctx context.Context) (*models.KYCStatus, error)
}

// AccountView is an MT5 account with its resolved limits.
type AccountView struct {
	Account    models.Account
	Deposit    limits.Bounds
	Withdrawal limits.Bounds
}

// Total sums balances in one currency. Equity counts the wallet balance
// plus account equity.
type Total struct {
	Currency string
	Balance  decimal.Decimal
	Equity   decimal.Decimal
}

type Overview struct {
	Wallet           *models.Wallet
	WalletDeposit    limits.Bounds
	WalletWithdrawal limits.Bounds
	Accounts         []AccountView
	KYC              *models.KYCStatus
	Totals           []Total
}

// WithdrawalsAllowed reports whether KYC permits withdrawals.
func (o *Overview) WithdrawalsAllowed() bool {
	return o.KYC != nil && o.KYC.Status == "approved"
}

func Load(ctx context.Context, backend Backend) (*Overview, error) {
	var (
		wallet   *models.Wallet
		accounts []models.Account
		kyc      *models.KYCStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		wallet, err = backend.GetWallet(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = backend.ListAccounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		kyc, err = backend.GetKYCStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	overview := &Overview{
		Wallet:   wallet,
		KYC:      kyc,
		Accounts: make([]AccountView, 0, len(accounts)),
	}
	if wallet != nil {
		overview.WalletDeposit = limits.ResolveWallet(wallet, limits.Deposit)
		overview.WalletWithdrawal = limits.ResolveWallet(wallet, limits.Withdrawal)
	}
	for _, a := range accounts {
		overview.Accounts = append(overview.Accounts, AccountView{
			Account:    a,
			Deposit:    limits.Resolve(accounts, a.Id, limits.Deposit),
			Withdrawal: limits.Resolve(accounts, a.Id, limits.Withdrawal),
		})
	}
	overview.Totals = totals(wallet, accounts)

	zap.L().Debug("Overview loaded",
		zap.Int("accounts", len(accounts)),
		zap.Int("currencies", len(overview.Totals)))
	return overview, nil
}

func totals(wallet *models.Wallet, accounts []models.Account) []Total {
	byCurrency := make(map[string]*Total)
	get := func(currency string) *Total {
		t, ok := byCurrency[currency]
		if !ok {
			t = &Total{Currency: currency}
			byCurrency[currency] = t
		}
		return t
	}

	if wallet != nil {
		t := get(wallet.Currency)
		t.Balance = t.Balance.Add(wallet.Balance)
		t.Equity = t.Equity.Add(wallet.Balance)
	}
	for _, a := range accounts {
		t := get(a.Currency)
		t.Balance = t.Balance.Add(a.Balance)
		t.Equity = t.Equity.Add(a.Equity)
	}

	result := make([]Total, 0, len(byCurrency))
	for _, t := range byCurrency {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Currency < result[j].Currency })
	return result
}
