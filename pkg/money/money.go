// Package money handles monetary amounts as integer cents in the single
// currency the application is configured for. Parsing goes through
// shopspring/decimal so "19.99" never becomes 1998, and display formatting
// goes through go-money so amounts render with the right symbol and grouping.
package money

import (
	"errors"
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency code is configured.
const DefaultCurrency = "USD"

var (
	// ErrInvalidAmount is returned for input that does not parse as a
	// two-decimal fixed-point number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotPositive is returned by ParsePositive for zero or negative input.
	ErrNotPositive = errors.New("amount must be greater than zero")
)

// Amount is a monetary value in minor units (cents).
type Amount struct {
	cents    int64
	currency string
}

// New builds an Amount from cents.
func New(cents int64, currency string) Amount {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Amount{cents: cents, currency: currency}
}

// Parse converts a decimal string such as "50", "50.5" or "1,234.56" into an
// Amount. More than two decimal places, or anything non-numeric, is rejected.
func Parse(s, currency string) (Amount, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	for _, sym := range []string{"$", "€", "£"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(s)

	if s == "" {
		return Amount{}, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Exponent() < -2 {
		return Amount{}, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidAmount, s)
	}

	cents := d.Mul(decimal.New(1, 2)).IntPart()
	return New(cents, currency), nil
}

// ParsePositive is Parse plus the strictly-positive rule applied to amounts
// entering the system.
func ParsePositive(s, currency string) (Amount, error) {
	a, err := Parse(s, currency)
	if err != nil {
		return Amount{}, err
	}
	if a.cents <= 0 {
		return Amount{}, ErrNotPositive
	}
	return a, nil
}

// Cents returns the amount in minor units.
func (a Amount) Cents() int64 { return a.cents }

// Currency returns the ISO-4217 code.
func (a Amount) Currency() string {
	if a.currency == "" {
		return DefaultCurrency
	}
	return a.currency
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a.cents > 0 }

// Add returns a + b. Both sides must share a currency.
func (a Amount) Add(b Amount) Amount {
	return Amount{cents: a.cents + b.cents, currency: a.Currency()}
}

// String renders the plain decimal form, e.g. "1234.56".
func (a Amount) String() string {
	d := decimal.NewFromInt(a.cents).Div(decimal.New(1, 2))
	return d.StringFixed(2)
}

// Display renders the amount for humans, e.g. "$1,234.56".
func (a Amount) Display() string {
	return gomoney.New(a.cents, a.Currency()).Display()
}

// Sum totals a series of cent values into an Amount.
func Sum(currency string, cents ...int64) Amount {
	var total int64
	for _, c := range cents {
		total += c
	}
	return New(total, currency)
}

// FormatCents renders raw cents for display in the given currency.
func FormatCents(cents int64, currency string) string {
	return New(cents, currency).Display()
}
