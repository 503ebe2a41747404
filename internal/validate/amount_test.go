package validate

import (
	"testing"

	"forex-portal-go/internal/limits"
	"forex-portal-go/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// Account with minimum_deposit=10, maximum_deposit=3000 and balance=900.
func exampleDepositBounds() limits.Bounds {
	accounts := []models.Account{{
		Id:             "acc-1",
		Balance:        decimal.RequireFromString("900"),
		MinimumDeposit: dec("10"),
		MaximumDeposit: dec("3000"),
	}}
	return limits.Resolve(accounts, "acc-1", limits.Deposit)
}

func TestAmount_ExampleAccount(t *testing.T) {
	b := exampleDepositBounds()

	tests := []struct {
		input string
		want  string
	}{
		{"2101", "Maximum deposit is $2100 (account balance + deposit cannot exceed $3000)"},
		{"2100", ""},
		{"2100.00", ""},
		{"2100.01", "Maximum deposit is $2100 (account balance + deposit cannot exceed $3000)"},
		{"5", "Minimum deposit is $10."},
		{"10", ""},
		{"9.99", "Minimum deposit is $10."},
	}
	for _, tt := range tests {
		if got := Amount(tt.input, b, limits.Deposit); got != tt.want {
			t.Errorf("Amount(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAmount_EmptyIsUntouched(t *testing.T) {
	if got := Amount("", exampleDepositBounds(), limits.Deposit); got != "" {
		t.Errorf("expected no error for empty input, got %q", got)
	}
}

func TestAmount_InvalidReportsOnlyValidAmount(t *testing.T) {
	b := exampleDepositBounds()
	for _, raw := range []string{"abc", "0", "-5", "-0.01", "0.0", " ", "1,000", "$5", "NaN", "Infinity"} {
		for _, dir := range []limits.Direction{limits.Deposit, limits.Withdrawal} {
			if got := Amount(raw, b, dir); got != MsgInvalidAmount {
				t.Errorf("Amount(%q, %s) = %q, want %q", raw, dir, got, MsgInvalidAmount)
			}
		}
	}
}

func TestAmount_InRangeHasNoError(t *testing.T) {
	b := limits.Bounds{Min: dec("10"), Max: dec("100")}
	for _, raw := range []string{"10", "10.01", "55.5", "99.99", "100"} {
		if got := Amount(raw, b, limits.Withdrawal); got != "" {
			t.Errorf("Amount(%q) = %q, want no error", raw, got)
		}
	}
}

func TestAmount_DepositMessages(t *testing.T) {
	// no balance: plain ceiling message
	b := limits.FromSnapshot(limits.Snapshot{MaximumLimit: dec("500")}, limits.Deposit)
	if got := Amount("501", b, limits.Deposit); got != "Only allowed to deposit $500." {
		t.Errorf("unexpected message %q", got)
	}

	// balance above the maximum clamps to zero: every deposit rejected
	b = limits.FromSnapshot(limits.Snapshot{
		MaximumLimit:   dec("3000"),
		CurrentBalance: decimal.RequireFromString("3500"),
	}, limits.Deposit)
	want := "Maximum deposit is $0 (account balance + deposit cannot exceed $3000)"
	if got := Amount("1", b, limits.Deposit); got != want {
		t.Errorf("Amount(1) = %q, want %q", got, want)
	}
}

func TestAmount_WithdrawalMessages(t *testing.T) {
	b := limits.FromSnapshot(limits.Snapshot{
		Minimum:        dec("50"),
		MaximumLimit:   dec("1500"),
		CurrentBalance: decimal.RequireFromString("1000"),
	}, limits.Withdrawal)

	if got := Amount("20", b, limits.Withdrawal); got != "Minimum withdrawal is $50." {
		t.Errorf("unexpected message %q", got)
	}
	if got := Amount("1500.5", b, limits.Withdrawal); got != "Maximum withdrawal is $1500." {
		t.Errorf("unexpected message %q", got)
	}
	if got := Amount("1200", b, limits.Withdrawal); got != "" {
		t.Errorf("balance must not cap withdrawals, got %q", got)
	}
}

func TestAmount_HugeExponentExceedsMaximum(t *testing.T) {
	b := limits.FromSnapshot(limits.Snapshot{MaximumLimit: dec("500")}, limits.Deposit)
	if got := Amount("1e400", b, limits.Deposit); got != "Only allowed to deposit $500." {
		t.Errorf("Amount(1e400) = %q, want the maximum message", got)
	}
	if got := Amount("1e-400", b, limits.Deposit); got != MsgInvalidAmount {
		t.Errorf("Amount(1e-400) = %q, want %q", got, MsgInvalidAmount)
	}
}

func TestAmount_Unbounded(t *testing.T) {
	if got := Amount("1000000", limits.Bounds{}, limits.Deposit); got != "" {
		t.Errorf("expected no error when unbounded, got %q", got)
	}
}

func TestAmountIn_RespectsExponent(t *testing.T) {
	b := limits.Bounds{Max: dec("100")}
	// JPY has no minor units: 100.4 rounds to 100 and passes
	if got := AmountIn("100.4", b, limits.Withdrawal, 0); got != "" {
		t.Errorf("expected pass at exponent 0, got %q", got)
	}
	if got := AmountIn("100.4", b, limits.Withdrawal, 2); got == "" {
		t.Error("expected failure at exponent 2")
	}
}
