package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	dErrors "urithi/pkg/domain-errors"
)

var (
	oneHundred = decimal.NewFromInt(100)

	// Epsilon is the tolerance used for percentage equality and closure
	// checks: two shares within 0.0001 of each other are the same share.
	Epsilon = decimal.NewFromFloat(1e-4)
)

// Percentage is a share bounded to [0,100]. Arithmetic preserves the bound:
// Add rejects results above 100, Subtract rejects results below 0.
type Percentage struct {
	Value decimal.Decimal `json:"value"`
}

// NewPercentage constructs a Percentage from a decimal in [0,100].
//
// Errors: CodeInvalidInput when out of range.
func NewPercentage(value decimal.Decimal) (Percentage, error) {
	if value.IsNegative() || value.GreaterThan(oneHundred) {
		return Percentage{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"percentage must be between 0 and 100, got %s", value)
	}
	return Percentage{Value: value}, nil
}

// NewPercentageFromFloat constructs a Percentage from a float64 in [0,100].
func NewPercentageFromFloat(value float64) (Percentage, error) {
	return NewPercentage(decimal.NewFromFloat(value))
}

// ZeroPercent is the identity for Add.
func ZeroPercent() Percentage { return Percentage{Value: decimal.Zero} }

// FullPercent is the closed whole (100%).
func FullPercent() Percentage { return Percentage{Value: oneHundred} }

// Add returns p + other.
//
// Errors: CodeInvalidInput when the result would exceed 100.
func (p Percentage) Add(other Percentage) (Percentage, error) {
	result := p.Value.Add(other.Value)
	if result.GreaterThan(oneHundred) {
		return Percentage{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"percentage sum exceeds 100: %s + %s", p.Value, other.Value)
	}
	return Percentage{Value: result}, nil
}

// Subtract returns p - other.
//
// Errors: CodeInvalidInput when the result would be negative.
func (p Percentage) Subtract(other Percentage) (Percentage, error) {
	result := p.Value.Sub(other.Value)
	if result.IsNegative() {
		return Percentage{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"percentage difference below 0: %s - %s", p.Value, other.Value)
	}
	return Percentage{Value: result}, nil
}

// Of returns the proportional slice of m, rounded to two decimal places.
func (p Percentage) Of(m Money) Money {
	amount := m.Amount.Mul(p.Value).Div(oneHundred).Round(2)
	return Money{Amount: amount, Currency: m.Currency}
}

// Equal reports equality within Epsilon.
func (p Percentage) Equal(other Percentage) bool {
	return p.Value.Sub(other.Value).Abs().LessThanOrEqual(Epsilon)
}

// IsZero reports whether the share is exactly zero.
func (p Percentage) IsZero() bool { return p.Value.IsZero() }

// Float returns the share as a float64, for reporting only.
func (p Percentage) Float() float64 { return p.Value.InexactFloat64() }

func (p Percentage) String() string {
	return fmt.Sprintf("%s%%", p.Value.StringFixed(4))
}

// SumShares adds raw share values without the [0,100] bound, returning the
// total and the overflow beyond 100 (zero when closed). Closure checks need
// to see the overflow amount, not just that the bound was broken.
func SumShares(shares []Percentage) (total decimal.Decimal, overflow decimal.Decimal) {
	for _, s := range shares {
		total = total.Add(s.Value)
	}
	if total.GreaterThan(oneHundred) {
		return total, total.Sub(oneHundred)
	}
	return total, decimal.Zero
}

// SharesCloseTo100 reports whether shares sum to exactly 100 within Epsilon.
func SharesCloseTo100(shares []Percentage) bool {
	total, _ := SumShares(shares)
	return total.Sub(oneHundred).Abs().LessThanOrEqual(Epsilon)
}
