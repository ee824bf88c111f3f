package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are stored as integer centavos; the API boundary speaks decimal BRL
// strings ("10.00"). These helpers convert between the two.

// ParseBRL converts a decimal amount string into centavos. Negative amounts
// and more than two decimal places are rejected.
func ParseBRL(value string) (int64, error) {
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if dec.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", value)
	}
	cents := dec.Mul(decimal.NewFromInt(100))
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than two decimal places", value)
	}
	return cents.IntPart(), nil
}

// FormatBRL renders centavos as a two-decimal BRL string.
func FormatBRL(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
