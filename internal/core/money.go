// Package core defines the entities shared by every component: users, groups,
// receipts and their line items, plus money and calendar-date helpers.
//
// Money is stored as integer cents. Amounts cross two boundaries as decimals:
// user-typed strings in edit blocks ("12.34" or "12,34") and JSON numbers from
// the vision model. Both are converted here and never handled as floats past
// the boundary.
package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is a monetary amount in integer cents. A nil *Money means the value
// was not present on the receipt (distinct from zero).
type Money struct {
	Cents int64
}

var ErrInvalidAmount = errors.New("invalid amount")

// ParseDecimalToCents converts a decimal string to cents with half-up rounding
// on the third decimal place. Both dot and comma separators are accepted.
// Negative amounts are rejected; zero is allowed (a receipt line can be free).
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// ParseMoney is ParseDecimalToCents returning a *Money.
func ParseMoney(s string) (*Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return nil, err
	}
	return &Money{Cents: cents}, nil
}

// MoneyFromFloat converts a JSON number from the vision model into cents with
// half-up rounding. Negative and non-finite values are rejected.
func MoneyFromFloat(v float64) (*Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, ErrInvalidAmount
	}
	return &Money{Cents: int64(math.Round(v * 100))}, nil
}

// Add returns the sum of two optional amounts; nil is treated as zero.
func Add(a, b *Money) Money {
	var sum Money
	if a != nil {
		sum.Cents += a.Cents
	}
	if b != nil {
		sum.Cents += b.Cents
	}
	return sum
}

// DivRound divides the amount by n with half-up rounding. n must be positive.
func (m Money) DivRound(n int64) Money {
	if n <= 0 {
		return Money{}
	}
	half := n / 2
	return Money{Cents: (m.Cents + half) / n}
}

// Format renders the amount as "12.34". Used everywhere a price is shown to
// the user.
func (m Money) Format() string {
	neg := m.Cents < 0
	c := m.Cents
	if neg {
		c = -c
	}
	s := fmt.Sprintf("%d.%02d", c/100, c%100)
	if neg {
		return "-" + s
	}
	return s
}

// FormatOpt renders an optional amount, with "N/A" for nil.
func FormatOpt(m *Money) string {
	if m == nil {
		return "N/A"
	}
	return m.Format()
}
