// Package schedule runs timed setpoint programs. A program is a small
// line format of hold and ramp steps; parsing turns it into segments
// that evaluate to a power level at any elapsed time, and a Runner
// pushes those levels into a sink such as the serial link's override.
package schedule

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// StepKind selects how a step reaches its target level.
type StepKind uint8

const (
	// Hold sets the target at the step's start and keeps it.
	Hold StepKind = iota
	// Ramp moves linearly from the previous level to the target.
	Ramp
)

// Step is one program segment.
type Step struct {
	Kind     StepKind
	Target   uint8 // percent at the end of the step
	Duration time.Duration
}

// Program is a parsed setpoint program.
type Program struct {
	Steps []Step
}

// Parse reads a program, one step per line:
//
//	HOLD 30 5s
//	RAMP 100% 30s
//	OFF 2s
//
// Blank lines and #-comments are skipped. Keywords are case-insensitive;
// OFF is shorthand for HOLD 0. A ramp starts from the previous step's
// target, or from zero at the top of the program.
func Parse(r io.Reader) (*Program, error) {
	var prog Program

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		step, err := parseStep(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		prog.Steps = append(prog.Steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(prog.Steps) == 0 {
		return nil, errors.New("program has no steps")
	}
	return &prog, nil
}

// ParseString parses a program held in a string.
func ParseString(s string) (*Program, error) {
	return Parse(strings.NewReader(s))
}

func parseStep(fields []string) (Step, error) {
	var step Step

	switch keyword := strings.ToUpper(fields[0]); keyword {
	case "HOLD", "RAMP":
		if len(fields) != 3 {
			return step, fmt.Errorf("%s wants a level and a duration", keyword)
		}
		level, err := parseLevel(fields[1])
		if err != nil {
			return step, err
		}
		d, err := parseDur(fields[2])
		if err != nil {
			return step, err
		}
		step.Target = level
		step.Duration = d
		if keyword == "RAMP" {
			step.Kind = Ramp
		}

	case "OFF":
		if len(fields) != 2 {
			return step, errors.New("OFF wants a duration")
		}
		d, err := parseDur(fields[1])
		if err != nil {
			return step, err
		}
		step.Duration = d // hold at zero

	default:
		return step, fmt.Errorf("unknown step %q", fields[0])
	}
	return step, nil
}

func parseLevel(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimSuffix(s, "%"), 10, 8)
	if err != nil || v > 100 {
		return 0, fmt.Errorf("bad level %q (want 0-100)", s)
	}
	return uint8(v), nil
}

func parseDur(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	return d, nil
}

// Duration returns the program's total run time.
func (p *Program) Duration() time.Duration {
	var total time.Duration
	for _, s := range p.Steps {
		total += s.Duration
	}
	return total
}

// Level evaluates the program at an elapsed time. The second return
// turns false once elapsed passes the end; the level then stays at the
// final target.
func (p *Program) Level(elapsed time.Duration) (uint8, bool) {
	base := uint8(0)
	var acc time.Duration
	for _, s := range p.Steps {
		end := acc + s.Duration
		if elapsed < end {
			if s.Kind == Hold {
				return s.Target, true
			}
			frac := float64(elapsed-acc) / float64(s.Duration)
			level := float64(base) + (float64(s.Target)-float64(base))*frac
			return uint8(level + 0.5), true
		}
		base = s.Target
		acc = end
	}
	return base, false
}
