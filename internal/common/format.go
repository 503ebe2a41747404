package common

import (
	"fmt"
	"strings"

	"forex-portal-go/internal/limits"
	"forex-portal-go/internal/money"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

var (
	titleColor   = color.New(color.Bold, color.FgCyan)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a title between two separator lines
func PrintHeader(title string, width int) {
	fmt.Println()
	PrintSeparator("=", width)
	titleColor.Println(title)
	PrintSeparator("=", width)
}

func PrintSuccess(format string, args ...any) {
	successColor.Printf("✓ "+format+"\n", args...)
}

func PrintWarning(format string, args ...any) {
	warnColor.Printf("! "+format+"\n", args...)
}

func PrintError(format string, args ...any) {
	errorColor.Printf("✗ "+format+"\n", args...)
}

// BoxPrefix returns the box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└─ "
	}
	return "├─ "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// FormatMoney renders an amount with the currency's symbol and minor-unit
// precision, e.g. "$1,250.50".
func FormatMoney(d decimal.Decimal, currency string, table *money.Table) string {
	exp := table.Exponent(currency)
	s := d.StringFixed(exp)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + table.Symbol(currency) + b.String()
}

// FormatBounds renders limits as "min $10.00 · max $2,100.00".
func FormatBounds(b limits.Bounds, currency string, table *money.Table) string {
	floor := "none"
	if b.Min != nil {
		floor = FormatMoney(*b.Min, currency, table)
	}
	ceiling := "unlimited"
	if b.Max != nil {
		ceiling = FormatMoney(*b.Max, currency, table)
	}
	return fmt.Sprintf("min %s · max %s", floor, ceiling)
}

// StatusColor picks a color for a backend status string.
func StatusColor(status string) *color.Color {
	switch strings.ToLower(status) {
	case "approved", "completed", "success", "closed", "resolved", "active":
		return successColor
	case "pending", "processing", "open", "in_progress", "submitted":
		return warnColor
	case "rejected", "failed", "cancelled", "canceled", "blocked":
		return errorColor
	default:
		return color.New(color.Reset)
	}
}
