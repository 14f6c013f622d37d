// Package convert implements the raw/real value conversion used for SDR
// threshold parameters.
//
// A stored raw register value maps to a physical quantity via the device's
// M_VAL multiplier and R_EXP decimal exponent:
//
//	real = M_VAL * raw * 10^R_EXP
//	raw  = round(real / (M_VAL * 10^R_EXP))
//
// Rounding is round-half-to-even.
package convert

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrConversion indicates the raw encoding is undefined for the given
	// coefficients (zero divisor or non-finite result).
	ErrConversion = errors.New("conversion error")

	// ErrMissingCoefficients indicates M_VAL or R_EXP could not be resolved
	// from the device or SDR config.
	ErrMissingCoefficients = errors.New("M_VAL and R_EXP not found in device or SDR config")
)

// Coefficients holds the conversion pair resolved from a device's config.
type Coefficients struct {
	MVal int
	RExp int
}

// ToReal converts a stored raw value to its physical quantity.
func ToReal(raw int64, c Coefficients) float64 {
	return float64(c.MVal) * float64(raw) * math.Pow(10, float64(c.RExp))
}

// ToRaw converts a physical quantity to the nearest raw register value,
// rounding halves to even.
func ToRaw(real float64, c Coefficients) (int64, error) {
	divisor := float64(c.MVal) * math.Pow(10, float64(c.RExp))
	if divisor == 0 {
		return 0, fmt.Errorf("%w: cannot divide by zero (M_VAL is 0)", ErrConversion)
	}
	raw := math.RoundToEven(real / divisor)
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("%w: result is not finite", ErrConversion)
	}
	return int64(raw), nil
}

// Trace renders the raw→real calculation for operator-facing output.
func Trace(raw int64, c Coefficients, real float64) string {
	return fmt.Sprintf("Calculation: (%d * %d) * 10^(%d) = %v", c.MVal, raw, c.RExp, real)
}
