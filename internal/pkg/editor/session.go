// Package editor drives the interactive batch-threshold workflow: present
// current values, collect new real values for the thresholds and raw masks
// in a fixed order, and stage everything into one change-set that is applied
// only after an explicit confirmation.
package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/pmc-tools/pmcconf/internal/pkg/convert"
	"github.com/pmc-tools/pmcconf/internal/pkg/document"
	"github.com/pmc-tools/pmcconf/internal/pkg/params"
)

// Phase of the session state machine.
type Phase int

const (
	PhaseThresholds Phase = iota
	PhaseMasks
	PhaseConfirm
	PhaseApplied
	PhaseAborted
)

// thresholdOrder is the walk order of the editor: lower thresholds first,
// then upper, then sensor range and nominal range. This ordering is a
// documented usability contract, independent of the order the fields appear
// in the file.
var thresholdOrder = []string{
	"LOWER_NON_RECOVERABLE",
	"LOWER_CRITICAL",
	"LOWER_NON_CRITICAL",
	"UPPER_NON_CRITICAL",
	"UPPER_CRITICAL",
	"UPPER_NON_RECOVERABLE",
	"SEN_MIN",
	"SEN_MAX",
	"NOMINAL_MIN",
	"NOMINAL_MAX",
}

var maskOrder = []string{"LWR_T_MASK", "UPR_T_MASK", "S_R_T_MASK"}

var maskLabels = map[string]string{
	"LWR_T_MASK": "Lower Threshold Reading Mask",
	"UPR_T_MASK": "Upper Threshold Reading Mask",
	"S_R_T_MASK": "Settable/Readable Threshold Mask",
}

type step struct {
	name    string
	mask    bool
	raw     string   // current stored literal, "" when unset
	real    *float64 // current real value when convertible
	present bool
}

// Session is the linear state machine behind the batch editor. It never
// touches the document or the filesystem; it only stages changes.
type Session struct {
	dev     *document.Device
	coeff   *convert.Coefficients
	steps   []step
	idx     int
	phase   Phase
	changes *params.ChangeSet
}

// NewSession prepares a session for dev. The device must carry an SDR block.
func NewSession(dev *document.Device) (*Session, error) {
	if !dev.HasSDR() {
		return nil, fmt.Errorf("%w: %q", document.ErrNoSDR, dev.Name)
	}

	s := &Session{dev: dev, changes: params.NewChangeSet()}
	if c, err := params.Coefficients(dev); err == nil {
		s.coeff = &c
	}

	for _, name := range thresholdOrder {
		v, ok := dev.SDRParam(name)
		if !ok {
			continue // absent parameters are not walked
		}
		st := step{name: name, raw: v.Get(), present: true}
		if s.coeff != nil {
			if n, err := params.ParseRaw(st.raw); err == nil {
				r := convert.ToReal(n, *s.coeff)
				st.real = &r
			}
		}
		s.steps = append(s.steps, st)
	}
	for _, name := range maskOrder {
		st := step{name: name, mask: true}
		if v, ok := dev.SDRParam(name); ok {
			st.raw = v.Get()
			st.present = true
		}
		s.steps = append(s.steps, st)
	}

	if len(s.steps) > 0 && s.steps[0].mask {
		s.phase = PhaseMasks
	}
	return s, nil
}

// Opening renders the session header and the current threshold listing, with
// each real value aligned at column 32.
func (s *Session) Opening() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Interactive Threshold Configuration for: %s\n", s.dev.Name)
	b.WriteString("Press Enter to keep current value, or enter a new value.\n")
	b.WriteString("For threshold parameters, enter the REAL value (e.g., 12.5 for voltage)\n")
	b.WriteString("\nCurrent threshold values:\n")
	for _, st := range s.steps {
		if st.mask || !st.present {
			continue
		}
		line := fmt.Sprintf("  %s: %s", st.name, st.raw)
		if st.real != nil {
			line = params.AlignReal(line, *st.real)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Prompt returns the operator prompt for the current field, or the
// confirmation summary once all fields are walked.
func (s *Session) Prompt() string {
	switch s.phase {
	case PhaseThresholds, PhaseMasks:
		st := s.steps[s.idx]
		if st.mask {
			current := st.raw
			if !st.present {
				current = "Not set"
			}
			return fmt.Sprintf("%s (%s) [current: %s]: ", st.name, maskLabels[st.name], current)
		}
		if st.real != nil {
			return fmt.Sprintf("%s [current: %s]: ", st.name, params.FormatReal(*st.real))
		}
		return fmt.Sprintf("%s [current: %s]: ", st.name, st.raw)
	case PhaseConfirm:
		return s.Summary() + "\nApply these changes? (y/N): "
	default:
		return ""
	}
}

// Summary lists the staged change-set.
func (s *Session) Summary() string {
	lines := lo.Map(s.changes.Entries(), func(c params.Change, _ int) string {
		return fmt.Sprintf("  %s: %s", c.Name, c.Value)
	})
	return "Summary of changes to be applied:\n" + strings.Join(lines, "\n")
}

// Input feeds one line of operator input into the machine. The returned echo
// is operator-facing feedback for the consumed field. An error means the
// input did not parse; the session stays on the same field.
func (s *Session) Input(line string) (string, error) {
	line = strings.TrimSpace(line)
	switch s.phase {
	case PhaseThresholds, PhaseMasks:
		echo, err := s.collect(line)
		if err != nil {
			return "", err
		}
		s.advance()
		return echo, nil
	case PhaseConfirm:
		if strings.EqualFold(line, "y") {
			s.phase = PhaseApplied
		} else {
			s.phase = PhaseAborted
		}
		return "", nil
	default:
		return "", nil
	}
}

func (s *Session) collect(line string) (string, error) {
	if line == "" {
		return "", nil // skip, nothing staged
	}
	st := s.steps[s.idx]

	if st.mask {
		if _, err := params.ParseRaw(line); err != nil {
			return "", err
		}
		s.changes.Add(st.name, line)
		return "", nil
	}

	if s.coeff == nil {
		// No conversion available for this device: keep the literal as-is.
		s.changes.Add(st.name, line)
		return "", nil
	}
	real, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a real value", params.ErrInvalidFormat, line)
	}
	raw, err := convert.ToRaw(real, *s.coeff)
	if err != nil {
		return "", err
	}
	hex := params.FormatRaw(raw)
	s.changes.Add(st.name, hex)
	return fmt.Sprintf("  -> Converting %s to %s", line, hex), nil
}

func (s *Session) advance() {
	s.idx++
	if s.idx >= len(s.steps) {
		if s.changes.Empty() {
			s.phase = PhaseAborted
			return
		}
		s.phase = PhaseConfirm
		return
	}
	if s.steps[s.idx].mask {
		s.phase = PhaseMasks
	}
}

// Abort cancels the session with zero staged mutations applied.
func (s *Session) Abort() {
	if s.phase != PhaseApplied {
		s.phase = PhaseAborted
	}
}

// Phase returns the current machine phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Done reports whether the session reached a terminal phase.
func (s *Session) Done() bool {
	return s.phase == PhaseApplied || s.phase == PhaseAborted
}

// Applied reports whether the operator confirmed the change-set.
func (s *Session) Applied() bool {
	return s.phase == PhaseApplied
}

// Changes returns the staged change-set.
func (s *Session) Changes() *params.ChangeSet {
	return s.changes
}
