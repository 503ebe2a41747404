// Package validate holds the advisory client-side checks run before a
// transfer is submitted. The backend remains authoritative.
package validate

import (
	"fmt"

	"forex-portal-go/internal/limits"
	"forex-portal-go/internal/money"
)

const MsgInvalidAmount = "Please enter a valid amount."

// Amount checks a raw amount against bounds using cent precision.
// See AmountIn.
func Amount(raw string, b limits.Bounds, dir limits.Direction) string {
	return AmountIn(raw, b, dir, money.DefaultExponent)
}

// AmountIn returns "" when the amount is acceptable (or untouched) and
// otherwise exactly one message. Rules apply in order, first match wins:
// empty, not a positive number, below minimum, above maximum.
// Comparisons run on integer minor units of the given exponent.
func AmountIn(raw string, b limits.Bounds, dir limits.Direction, exponent int32) string {
	if raw == "" {
		return ""
	}

	amount, err := money.ParsePositive(raw)
	if err != nil {
		return MsgInvalidAmount
	}
	units := money.ToUnits(amount, exponent)

	if b.Min != nil && units < money.ToUnits(*b.Min, exponent) {
		return fmt.Sprintf("Minimum %s is $%s.", dir, b.Min.String())
	}

	if b.Max != nil && units > money.ToUnits(*b.Max, exponent) {
		if dir == limits.Withdrawal {
			return fmt.Sprintf("Maximum withdrawal is $%s.", b.Max.String())
		}
		if b.CurrentBalance.IsPositive() && b.MaxLimit != nil {
			return fmt.Sprintf("Maximum deposit is $%s (account balance + deposit cannot exceed $%s)",
				b.Max.String(), b.MaxLimit.String())
		}
		return fmt.Sprintf("Only allowed to deposit $%s.", b.Max.String())
	}

	return ""
}
