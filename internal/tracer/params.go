package tracer

import (
	"errors"
	"fmt"

	"github.com/dennwc/gotrace"
)

// TurnPolicy decides which way to turn at ambiguous pixel configurations
// while walking a boundary.
type TurnPolicy int

const (
	TurnMinority TurnPolicy = iota
	TurnMajority
	TurnBlack
	TurnWhite
	TurnLeft
	TurnRight
)

var turnPolicies = []struct {
	name string
	lib  gotrace.TurnPolicy
}{
	TurnMinority: {"minority", gotrace.TurnMinority},
	TurnMajority: {"majority", gotrace.TurnMajority},
	TurnBlack:    {"black", gotrace.TurnBlack},
	TurnWhite:    {"white", gotrace.TurnWhite},
	TurnLeft:     {"left", gotrace.TurnLeft},
	TurnRight:    {"right", gotrace.TurnRight},
}

// ParseTurnPolicy maps a policy name; the empty string means minority.
func ParseTurnPolicy(s string) (TurnPolicy, error) {
	if s == "" {
		return TurnMinority, nil
	}
	for i, p := range turnPolicies {
		if p.name == s {
			return TurnPolicy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown turn policy %q", s)
}

func (p TurnPolicy) valid() bool { return p >= 0 && int(p) < len(turnPolicies) }

func (p TurnPolicy) String() string {
	if !p.valid() {
		return fmt.Sprintf("TurnPolicy(%d)", int(p))
	}
	return turnPolicies[p].name
}

// MaxAlpha is the largest meaningful corner threshold; above it every vertex
// is smoothed.
const MaxAlpha = 4.0 / 3.0

type Params struct {
	// TurdSize drops outlines enclosing this many pixels or fewer.
	TurdSize   int
	TurnPolicy TurnPolicy
	// AlphaMax is the corner threshold; 0 gives a polygon.
	AlphaMax float64
	// OptCurve joins adjacent Bezier segments when they fit within OptTolerance.
	OptCurve     bool
	OptTolerance float64
}

func DefaultParams() Params {
	return Params{
		TurdSize:     2,
		TurnPolicy:   TurnMinority,
		AlphaMax:     1,
		OptCurve:     true,
		OptTolerance: 0.2,
	}
}

var (
	ErrEmptyBitmap    = errors.New("bitmap has no pixels")
	ErrBitmapTooLarge = errors.New("bitmap exceeds the tracing limit")
)

func (p Params) Validate() error {
	if p.TurdSize < 0 {
		return fmt.Errorf("turd size must not be negative, got %d", p.TurdSize)
	}
	if p.AlphaMax < 0 || p.AlphaMax > MaxAlpha+1e-9 {
		return fmt.Errorf("alpha max must be within [0, %.2f], got %g", MaxAlpha, p.AlphaMax)
	}
	if p.OptTolerance < 0 {
		return fmt.Errorf("opt tolerance must not be negative, got %g", p.OptTolerance)
	}
	if !p.TurnPolicy.valid() {
		return fmt.Errorf("unknown turn policy %d", p.TurnPolicy)
	}
	return nil
}

func (p Params) lib() *gotrace.Params {
	return &gotrace.Params{
		TurdSize:     p.TurdSize,
		TurnPolicy:   turnPolicies[p.TurnPolicy].lib,
		AlphaMax:     p.AlphaMax,
		OptiCurve:    p.OptCurve,
		OptTolerance: p.OptTolerance,
	}
}
