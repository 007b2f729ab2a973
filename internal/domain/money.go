package domain

import (
	"fmt"
	"math"
)

// EurosToCents converts a float64 euro amount to int64 cents. It
// validates that the input has at most 2 decimal places and returns an
// error if more precision is provided. Uses math.Round after scaling to
// handle floating-point representation issues.
func EurosToCents(f float64) (int64, error) {
	// Multiply by 1000 to check for a third decimal place.
	// Round to avoid floating-point artifacts (e.g., 85.50 * 1000 = 85499.999...).
	scaled := math.Round(f * 1000)
	if math.Mod(scaled, 10) != 0 {
		return 0, fmt.Errorf("monetary values must have at most 2 decimal places")
	}

	cents := math.Round(f * 100)
	return int64(cents), nil
}

// CentsToEuros converts an int64 cents value to a float64 euro amount.
func CentsToEuros(c int64) float64 {
	return float64(c) / 100.0
}

// FormatCents renders a cents value as a 2-decimal string, e.g. "85.50".
// Volume cache buckets are keyed by this representation externally.
func FormatCents(c int64) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}
