// Package limits derives the effective minimum and maximum for a transfer
// from an account's configured limits and, for deposits, its balance.
package limits

import (
	"forex-portal-go/internal/models"

	"github.com/shopspring/decimal"
)

// Direction of a transfer relative to the selected account
type Direction string

const (
	Deposit    Direction = "deposit"
	Withdrawal Direction = "withdrawal"
)

// Snapshot is the limit data for one account as fetched from the backend
type Snapshot struct {
	Minimum        *decimal.Decimal
	MaximumLimit   *decimal.Decimal
	CurrentBalance decimal.Decimal
}

// Bounds are the effective limits for a transfer. Nil means absent:
// no minimum beyond zero, or no ceiling.
type Bounds struct {
	Min            *decimal.Decimal
	Max            *decimal.Decimal
	MaxLimit       *decimal.Decimal
	CurrentBalance decimal.Decimal
}

// Unbounded reports whether neither a floor nor a ceiling applies
func (b Bounds) Unbounded() bool {
	return b.Min == nil && b.Max == nil
}

// EffectiveMin is Min, or zero when absent
func (b Bounds) EffectiveMin() decimal.Decimal {
	if b.Min == nil {
		return decimal.Zero
	}
	return *b.Min
}

// FromSnapshot computes bounds for a direction.
//
// Deposits subtract the current balance from the configured maximum and clamp
// at zero, so an account already above its maximum accepts no deposit at all.
// Withdrawals use the configured maximum as is.
func FromSnapshot(s Snapshot, dir Direction) Bounds {
	b := Bounds{
		Min:            copyDecimal(s.Minimum),
		MaxLimit:       copyDecimal(s.MaximumLimit),
		CurrentBalance: s.CurrentBalance,
	}

	switch {
	case s.MaximumLimit == nil:
		b.Max = nil
	case dir == Deposit && s.CurrentBalance.IsPositive():
		remaining := decimal.Max(decimal.Zero, s.MaximumLimit.Sub(s.CurrentBalance))
		b.Max = &remaining
	default:
		b.Max = copyDecimal(s.MaximumLimit)
	}

	return b
}

// AccountSnapshot extracts the limits of an MT5 account for a direction
func AccountSnapshot(a models.Account, dir Direction) Snapshot {
	s := Snapshot{CurrentBalance: a.Balance}
	if dir == Deposit {
		s.Minimum, s.MaximumLimit = a.MinimumDeposit, a.MaximumDeposit
	} else {
		s.Minimum, s.MaximumLimit = a.MinimumWithdrawal, a.MaximumWithdrawal
	}
	return s
}

// WalletSnapshot extracts the limits of the internal wallet for a direction
func WalletSnapshot(w models.Wallet, dir Direction) Snapshot {
	s := Snapshot{CurrentBalance: w.Balance}
	if dir == Deposit {
		s.Minimum, s.MaximumLimit = w.MinimumDeposit, w.MaximumDeposit
	} else {
		s.Minimum, s.MaximumLimit = w.MinimumWithdrawal, w.MaximumWithdrawal
	}
	return s
}

// Resolve looks the account up in the loaded list. An unknown id yields
// all-nil bounds, which the validator treats as unbounded.
func Resolve(accounts []models.Account, accountId string, dir Direction) Bounds {
	for _, a := range accounts {
		if a.Id == accountId || (accountId != "" && a.AccountNumber == accountId) {
			return FromSnapshot(AccountSnapshot(a, dir), dir)
		}
	}
	return Bounds{}
}

// ResolveWallet computes bounds for the internal wallet. A nil wallet
// (not loaded yet) yields all-nil bounds.
func ResolveWallet(w *models.Wallet, dir Direction) Bounds {
	if w == nil {
		return Bounds{}
	}
	return FromSnapshot(WalletSnapshot(*w, dir), dir)
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
