package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percentage is a value object for percentage values in the range [0, 100].
// It is immutable.
type Percentage struct {
	value decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// NewPercentage creates a Percentage, rejecting values outside [0, 100]
func NewPercentage(value decimal.Decimal) (Percentage, error) {
	if value.IsNegative() || value.GreaterThan(hundred) {
		return Percentage{}, fmt.Errorf("percentage must be between 0 and 100, got %s", value)
	}
	return Percentage{value: value}, nil
}

// NewPercentageFromFloat creates a Percentage from a float64
func NewPercentageFromFloat(value float64) (Percentage, error) {
	return NewPercentage(decimal.NewFromFloat(value))
}

// MustPercentage creates a Percentage and panics on invalid input.
// Intended for constants and tests.
func MustPercentage(value float64) Percentage {
	p, err := NewPercentageFromFloat(value)
	if err != nil {
		panic(err)
	}
	return p
}

// Value returns the decimal value
func (p Percentage) Value() decimal.Decimal {
	return p.value
}

// ApplyTo returns the given amount scaled by this percentage
func (p Percentage) ApplyTo(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.value).Div(hundred)
}

// IsZero returns true if the percentage is zero
func (p Percentage) IsZero() bool {
	return p.value.IsZero()
}

// String returns a human readable representation
func (p Percentage) String() string {
	return p.value.String() + "%"
}
