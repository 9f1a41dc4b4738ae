// Package money provides the two value types every ledger in the engine is
// built on: Money (a fixed-currency decimal amount) and Percentage (a bounded
// [0,100] share). Both validate at construction and keep their invariants
// closed under arithmetic, so downstream code never re-checks them.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	dErrors "urithi/pkg/domain-errors"
)

// Money is a non-negative decimal amount in a single currency.
//
// Invariants:
//   - Amount is never negative (Zero is the only way to express "nothing")
//   - Currency is a non-empty code, uppercased at construction
//   - Binary operations require matching currencies
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New constructs Money from a decimal amount and currency code.
//
// Errors: CodeInvalidInput when the amount is negative or the currency is
// empty. Construction never partially succeeds.
func New(amount decimal.Decimal, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return Money{}, dErrors.New(dErrors.CodeInvalidInput, "currency cannot be empty")
	}
	if amount.IsNegative() {
		return Money{}, dErrors.Newf(dErrors.CodeInvalidInput, "amount cannot be negative: %s", amount)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// NewFromFloat constructs Money from a float64 amount. Intended for trust
// boundaries only; internal arithmetic stays decimal.
func NewFromFloat(amount float64, currency string) (Money, error) {
	return New(decimal.NewFromFloat(amount), currency)
}

// Zero returns the explicit zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// Add returns m + other.
//
// Errors: CodeInvalidInput on currency mismatch.
func (m Money) Add(other Money) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Subtract returns m - other.
//
// Errors: CodeInvalidInput on currency mismatch or when the result would be
// negative (Money cannot represent a deficit).
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	result := m.Amount.Sub(other.Amount)
	if result.IsNegative() {
		return Money{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"subtraction would be negative: %s - %s", m.Amount, other.Amount)
	}
	return Money{Amount: result, Currency: m.Currency}, nil
}

// MultiplyFloat scales the amount by a non-negative factor, rounding to two
// decimal places. Used by the hotchpot engine for the compounding factor.
func (m Money) MultiplyFloat(factor float64) (Money, error) {
	if factor < 0 {
		return Money{}, dErrors.Newf(dErrors.CodeInvalidInput, "factor cannot be negative: %g", factor)
	}
	result := m.Amount.Mul(decimal.NewFromFloat(factor)).Round(2)
	return Money{Amount: result, Currency: m.Currency}, nil
}

// Compare returns -1, 0 or 1 ordering m against other.
//
// Errors: CodeInvalidInput on currency mismatch.
func (m Money) Compare(other Money) (int, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(other.Amount), nil
}

// LessThan reports m < other, failing on currency mismatch.
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	if err != nil {
		return false, err
	}
	return c < 0, nil
}

// GreaterThan reports m > other, failing on currency mismatch.
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// Equal reports value and currency equality.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// Min returns the smaller of m and other.
func (m Money) Min(other Money) (Money, error) {
	less, err := m.LessThan(other)
	if err != nil {
		return Money{}, err
	}
	if less {
		return m, nil
	}
	return other, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

func (m Money) requireSameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return nil
}

// Sum folds a slice of Money in the given currency, starting from zero.
// Every element must match the currency.
func Sum(currency string, amounts ...Money) (Money, error) {
	total := Zero(currency)
	for _, a := range amounts {
		var err error
		total, err = total.Add(a)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
