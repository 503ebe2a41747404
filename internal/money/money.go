// Package money converts user-entered amounts into fixed-point values and
// integer minor units so limit checks never compare floats.
package money

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultExponent is used for currencies missing from the table (cents).
const DefaultExponent int32 = 2

var ErrInvalidAmount = errors.New("invalid amount")

// Units is an amount expressed in the currency's smallest unit.
type Units int64

// Currency describes how a currency is split into minor units
type Currency struct {
	Code     string `yaml:"code"`
	Exponent int32  `yaml:"exponent"`
	Symbol   string `yaml:"symbol"`
}

// Table resolves currency exponents. A nil *Table falls back to defaults.
type Table struct {
	byCode map[string]Currency
}

func NewTable(currencies []Currency) *Table {
	t := &Table{byCode: make(map[string]Currency, len(currencies))}
	for _, c := range currencies {
		t.byCode[strings.ToUpper(c.Code)] = c
	}
	return t
}

func (t *Table) Exponent(code string) int32 {
	if t == nil {
		return DefaultExponent
	}
	if c, ok := t.byCode[strings.ToUpper(code)]; ok && c.Exponent >= 0 {
		return c.Exponent
	}
	return DefaultExponent
}

func (t *Table) Symbol(code string) string {
	if t != nil {
		if c, ok := t.byCode[strings.ToUpper(code)]; ok && c.Symbol != "" {
			return c.Symbol
		}
	}
	return "$"
}

// Parse accepts whatever strconv.ParseFloat accepts (after trimming spaces)
// and returns the exact decimal value of the input text. Exponents beyond
// the float64 range keep their exact value ("1e400") or read as zero
// ("1e-400"); the literals NaN and Inf are rejected.
func Parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	f, err := strconv.ParseFloat(s, 64)
	outOfRange := errors.Is(err, strconv.ErrRange)
	if (err != nil && !outOfRange) || math.IsNaN(f) {
		return decimal.Zero, ErrInvalidAmount
	}
	if outOfRange && f == 0 {
		return decimal.Zero, nil
	}
	d, derr := decimal.NewFromString(s)
	if derr != nil {
		// hex floats and similar forms decimal does not read
		if outOfRange || math.IsInf(f, 0) {
			return decimal.Zero, ErrInvalidAmount
		}
		return decimal.NewFromFloat(f), nil
	}
	return d, nil
}

// ParsePositive is Parse restricted to values greater than zero.
func ParsePositive(raw string) (decimal.Decimal, error) {
	d, err := Parse(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ToUnits rounds d half away from zero to the given exponent. Values beyond
// the int64 range saturate.
func ToUnits(d decimal.Decimal, exponent int32) Units {
	shifted := d.Shift(exponent).Round(0)
	if shifted.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return Units(math.MaxInt64)
	}
	if shifted.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return Units(math.MinInt64)
	}
	return Units(shifted.IntPart())
}

// FromUnits converts minor units back to a decimal for display.
func FromUnits(u Units, exponent int32) decimal.Decimal {
	return decimal.NewFromInt(int64(u)).Shift(-exponent)
}
