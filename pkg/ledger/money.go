package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a user-entered decimal amount (like "120.50") to cents.
// Rejects negatives, NaN/Inf and values large enough to overflow int64.
func ParseAmount(field, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: field, Reason: "required"}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	if f < 0 {
		return 0, &ValidationError{Field: field, Reason: "must not be negative"}
	}
	if f > 9e16 {
		return 0, &ValidationError{Field: field, Reason: "too large"}
	}
	return int64(math.Round(f * 100)), nil
}

// FormatCents renders cents as a plain decimal string ("123.45").
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
