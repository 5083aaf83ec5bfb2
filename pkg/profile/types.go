// Package profile runs sequences of dive segments through the ZHL-16 model
// and records the tissue state after each one.
package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/zhl16/pkg/buhlmann"
)

// ErrNegativeDepth is returned for a segment starting or ending above the surface
var ErrNegativeDepth = errors.New("depth must not be negative")

// Gas is a breathing mix. Whatever is not helium or nitrogen is treated as
// oxygen (and trace gases) and does not load the tissues.
type Gas struct {
	Name     string  `json:"name"`
	Helium   float64 `json:"helium"`
	Nitrogen float64 `json:"nitrogen"`
}

// Air returns standard air for the given constants
func Air(c buhlmann.Constants) Gas {
	return Gas{Name: "air", Helium: c.AirHelium, Nitrogen: c.AirNitrogen}
}

// Oxygen returns the non-inert remainder of the mix
func (g Gas) Oxygen() float64 {
	return 1 - g.Helium - g.Nitrogen
}

// Validate checks that both fractions are in [0,1] and leave room for oxygen
func (g Gas) Validate() error {
	if g.Helium < 0 || g.Helium > 1 || g.Nitrogen < 0 || g.Nitrogen > 1 {
		return fmt.Errorf("gas %q: %w: fractions must be in [0, 1]", g.Name, buhlmann.ErrInvalidGasMix)
	}
	if g.Helium+g.Nitrogen > 1 {
		return fmt.Errorf("gas %q: %w: helium and nitrogen exceed 100%%", g.Name, buhlmann.ErrInvalidGasMix)
	}
	return nil
}

// Segment is one exposure between two depths in metres
type Segment struct {
	BeginDepth     float64 `json:"begin_depth"`
	EndDepth       float64 `json:"end_depth"`
	Minutes        float64 `json:"minutes"`
	Gas            Gas     `json:"gas"`
	GradientFactor float64 `json:"gradient_factor"`
}

// Validate enforces the caller contract of the model: non-negative depths,
// a positive duration and a gradient factor in (0, 1]
func (s Segment) Validate() error {
	if s.BeginDepth < 0 || s.EndDepth < 0 {
		return fmt.Errorf("%w: %g to %g m", ErrNegativeDepth, s.BeginDepth, s.EndDepth)
	}
	if !(s.Minutes > 0) {
		return fmt.Errorf("%w: got %g min", buhlmann.ErrZeroDuration, s.Minutes)
	}
	if !(s.GradientFactor > 0 && s.GradientFactor <= 1) {
		return fmt.Errorf("%w: got %g", buhlmann.ErrInvalidGradientFactor, s.GradientFactor)
	}
	return s.Gas.Validate()
}

// Sample is the model state at the end of one segment
type Sample struct {
	Seq                    int               `json:"seq"`
	Runtime                float64           `json:"runtime"` // minutes since the start of the timeline
	Segment                Segment           `json:"segment"`
	Ceiling                float64           `json:"ceiling"` // metres, at the segment gradient factor
	ControllingCompartment int               `json:"controlling_compartment"`
	WorstMValue            float64           `json:"worst_m_value"` // at the segment end depth
	State                  buhlmann.Snapshot `json:"state"`
}

// Timeline is the result of running a list of segments
type Timeline struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Model     string             `json:"model"`
	CreatedAt time.Time          `json:"created_at"`
	Constants buhlmann.Constants `json:"constants"`
	Samples   []Sample           `json:"samples"`
}

// Final returns the last sample, or nil for an empty timeline
func (tl *Timeline) Final() *Sample {
	if len(tl.Samples) == 0 {
		return nil
	}
	return &tl.Samples[len(tl.Samples)-1]
}

// Runtime returns the total duration of the timeline in minutes
func (tl *Timeline) Runtime() float64 {
	if s := tl.Final(); s != nil {
		return s.Runtime
	}
	return 0
}
