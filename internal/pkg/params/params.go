// Package params resolves (device, variable) pairs to readable and settable
// parameter views, applying raw/real conversion for the recognized threshold
// parameters.
package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pmc-tools/pmcconf/internal/pkg/convert"
	"github.com/pmc-tools/pmcconf/internal/pkg/document"
)

var (
	ErrVariableNotFound = errors.New("configuration variable not found")
	ErrInvalidFormat    = errors.New("invalid value format")
)

// thresholdParams are the SDR fields whose stored raw value maps to a
// physical quantity. Membership drives conversion on get and set.
var thresholdParams = map[string]struct{}{
	"NOMINAL_READING":       {},
	"NOMINAL_MAX":           {},
	"NOMINAL_MIN":           {},
	"SEN_MAX":               {},
	"SEN_MIN":               {},
	"UPPER_NON_RECOVERABLE": {},
	"UPPER_CRITICAL":        {},
	"UPPER_NON_CRITICAL":    {},
	"LOWER_NON_RECOVERABLE": {},
	"LOWER_CRITICAL":        {},
	"LOWER_NON_CRITICAL":    {},
}

// IsThreshold reports whether variable is one of the recognized threshold
// parameters. The SDR_ prefix is ignored for recognition.
func IsThreshold(variable string) bool {
	_, ok := thresholdParams[strings.TrimPrefix(variable, "SDR_")]
	return ok
}

// ParseRaw parses a stored or operator-supplied raw literal: 0x-prefixed
// hexadecimal or a plain base-10 integer. Both forms take an optional
// leading sign; "-0x5" is what FormatRaw emits for negative values, so the
// parser must read it back.
func ParseRaw(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if isHexLiteral(s) {
		body, neg := s, false
		switch {
		case strings.HasPrefix(s, "-"):
			body, neg = s[1:], true
		case strings.HasPrefix(s, "+"):
			body = s[1:]
		}
		rest, _ := cutHexPrefix(body)
		n, err := strconv.ParseInt(rest, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a hex literal", ErrInvalidFormat, s)
		}
		if neg {
			n = -n
		}
		return n, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidFormat, s)
	}
	return n, nil
}

// FormatRaw renders the canonical stored form: 0x prefix, lowercase digits,
// zero as 0x0.
func FormatRaw(v int64) string {
	if v < 0 {
		return fmt.Sprintf("-0x%x", -v)
	}
	return fmt.Sprintf("0x%x", v)
}

// Coefficients resolves the M_VAL/R_EXP pair for a device: the device-level
// config wins when it carries both, otherwise the SDR block is consulted.
func Coefficients(dev *document.Device) (convert.Coefficients, error) {
	mval, mok := entryValue(dev.Entries(), "M_VAL")
	rexp, rok := entryValue(dev.Entries(), "R_EXP")
	if !mok || !rok {
		if v, ok := dev.SDRParam("M_VAL"); ok {
			mval, mok = v.Get(), true
		}
		if v, ok := dev.SDRParam("R_EXP"); ok {
			rexp, rok = v.Get(), true
		}
	}
	if !mok || !rok {
		return convert.Coefficients{}, fmt.Errorf("%w: device %q", convert.ErrMissingCoefficients, dev.Name)
	}
	m, err := ParseRaw(mval)
	if err != nil {
		return convert.Coefficients{}, fmt.Errorf("M_VAL: %w", err)
	}
	r, err := ParseRaw(rexp)
	if err != nil {
		return convert.Coefficients{}, fmt.Errorf("R_EXP: %w", err)
	}
	return convert.Coefficients{MVal: int(m), RExp: int(r)}, nil
}

func entryValue(entries []document.Entry, name string) (string, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e.Value.Get(), true
		}
	}
	return "", false
}

// View is the read-side result of a parameter lookup.
type View struct {
	Name      string
	Raw       string  // literal as stored in the document
	Hex       string  // canonical hex form when the literal parses, else Raw
	Real      *float64
	Threshold bool
	Coeff     *convert.Coefficients // set when Real is
}

// Get resolves variable on dev. For threshold parameters the real value is
// computed when the device's coefficients resolve; when they do not, the
// view falls back to raw-only.
func Get(dev *document.Device, variable string) (View, error) {
	v, ok := dev.Param(variable)
	if !ok {
		return View{}, fmt.Errorf("%w: %q for device %q", ErrVariableNotFound, variable, dev.Name)
	}
	raw := v.Get()
	view := View{Name: variable, Raw: raw, Hex: raw, Threshold: IsThreshold(variable)}
	n, err := ParseRaw(raw)
	if err != nil {
		return view, nil
	}
	view.Hex = FormatRaw(n)
	if !view.Threshold {
		return view, nil
	}
	coeff, err := Coefficients(dev)
	if err != nil {
		return view, nil // raw-only fallback
	}
	real := convert.ToReal(n, coeff)
	view.Real = &real
	view.Coeff = &coeff
	return view, nil
}

// Interpret applies the dual raw/real input rule without mutating anything,
// returning the literal to store and its integer value.
//
// A 0x-prefixed or plain-integer literal is raw and is stored as given. A
// decimal-pointed literal is a real value: threshold parameters convert it
// through the device's coefficients and store canonical hex; non-threshold
// parameters reject it. Note the plain-integer case is inherently ambiguous
// ("100" is a valid raw and a trivial real); raw wins, matching the
// established CLI behavior.
func Interpret(dev *document.Device, variable, input string) (string, int64, error) {
	input = strings.TrimSpace(input)
	if isHexLiteral(input) {
		n, err := ParseRaw(input)
		if err != nil {
			return "", 0, err
		}
		return input, n, nil
	}
	if n, err := strconv.ParseInt(input, 10, 64); err == nil {
		return input, n, nil
	}
	real, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q is neither a raw integer nor a real value", ErrInvalidFormat, input)
	}
	if !IsThreshold(variable) {
		return "", 0, fmt.Errorf("%w: %q accepts only raw integer values", ErrInvalidFormat, variable)
	}
	coeff, err := Coefficients(dev)
	if err != nil {
		return "", 0, err
	}
	raw, err := convert.ToRaw(real, coeff)
	if err != nil {
		return "", 0, err
	}
	return FormatRaw(raw), raw, nil
}

// Set interprets input per the dual raw/real rule and writes the resulting
// literal to the parameter, creating a device-level entry when the variable
// does not exist yet. The applied raw value is returned.
func Set(dev *document.Device, variable, input string) (int64, error) {
	literal, n, err := Interpret(dev, variable, input)
	if err != nil {
		return 0, err
	}
	if err := SetRaw(dev, variable, literal); err != nil {
		return 0, err
	}
	return n, nil
}

// SetRaw stores literal verbatim, creating a device-level entry when needed.
func SetRaw(dev *document.Device, variable, literal string) error {
	v, err := dev.EnsureParam(variable)
	if err != nil {
		return fmt.Errorf("%w: %q for device %q", ErrVariableNotFound, variable, dev.Name)
	}
	v.Set(literal)
	return nil
}

func cutHexPrefix(s string) (string, bool) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return rest, true
	}
	return strings.CutPrefix(s, "0X")
}

func isHexLiteral(s string) bool {
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	_, ok := cutHexPrefix(s)
	return ok
}

// FormatReal renders a real value for operator-facing output.
func FormatReal(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// AlignReal appends the parenthesized real value to base, aligned at column
// 32 (one space minimum for longer lines).
func AlignReal(base string, real float64) string {
	pad := 32 - len(base)
	if pad < 1 {
		pad = 1
	}
	return base + strings.Repeat(" ", pad) + "(" + FormatReal(real) + ")"
}
