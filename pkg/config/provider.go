package config

import (
	"errors"
	"fmt"

	"github.com/chrissnell/zhl16/pkg/buhlmann"
	"github.com/chrissnell/zhl16/pkg/profile"
)

// ErrInvalidProfile is returned when a profile references something it does not define
var ErrInvalidProfile = errors.New("invalid profile")

// AirGasName is always available to segments, even when no gases are declared
const AirGasName = "air"

// ProfileProvider defines the interface for dive profile sources
type ProfileProvider interface {
	// Load the complete profile
	LoadProfile() (*ProfileData, error)

	IsReadOnly() bool
	Close() error
}

// ProfileData represents one dive profile: the model variant, the environment,
// the gases carried and the exposure segments in order
type ProfileData struct {
	Name           string          `json:"name" yaml:"name"`
	Model          string          `json:"model,omitempty" yaml:"model,omitempty"`
	GradientFactor float64         `json:"gradient_factor,omitempty" yaml:"gradient_factor,omitempty"`
	Environment    EnvironmentData `json:"environment,omitempty" yaml:"environment,omitempty"`
	Gases          []GasData       `json:"gases,omitempty" yaml:"gases,omitempty"`
	Segments       []SegmentData   `json:"segments" yaml:"segments"`
}

// EnvironmentData overrides the sea-level constants, e.g. for altitude diving.
// Zero values keep the defaults.
type EnvironmentData struct {
	SurfacePressure float64 `json:"surface_pressure,omitempty" yaml:"surface_pressure,omitempty"`
	WaterVapor      float64 `json:"water_vapor,omitempty" yaml:"water_vapor,omitempty"`
}

// GasData is a named mix, fractions in [0,1]
type GasData struct {
	Name     string  `json:"name" yaml:"name"`
	Helium   float64 `json:"helium" yaml:"helium"`
	Nitrogen float64 `json:"nitrogen" yaml:"nitrogen"`
}

// SegmentData is one exposure. Gas names a declared gas (or "air") and
// GradientFactor, when set, overrides the profile's.
type SegmentData struct {
	BeginDepth     float64 `json:"begin_depth" yaml:"begin_depth"`
	EndDepth       float64 `json:"end_depth" yaml:"end_depth"`
	Minutes        float64 `json:"minutes" yaml:"minutes"`
	Gas            string  `json:"gas,omitempty" yaml:"gas,omitempty"`
	GradientFactor float64 `json:"gradient_factor,omitempty" yaml:"gradient_factor,omitempty"`
}

// ModelName returns the configured variant or the default one
func (p *ProfileData) ModelName() string {
	if p.Model == "" {
		return buhlmann.DefaultModel
	}
	return p.Model
}

// Constants returns the default constants with the environment overrides applied
func (p *ProfileData) Constants() buhlmann.Constants {
	c := buhlmann.DefaultConstants()
	if p.Environment.SurfacePressure > 0 {
		c.SurfacePressure = p.Environment.SurfacePressure
	}
	if p.Environment.WaterVapor > 0 {
		c.WaterVapor = p.Environment.WaterVapor
	}
	return c
}

// Validate checks the model name, gas declarations and segment references.
// Numeric limits are checked by profile.Segment.Validate when the profile runs.
func (p *ProfileData) Validate() error {
	if _, err := buhlmann.LookupModel(p.ModelName()); err != nil {
		return err
	}
	if len(p.Segments) == 0 {
		return fmt.Errorf("%w: profile %q has no segments", ErrInvalidProfile, p.Name)
	}

	declared := make(map[string]bool, len(p.Gases))
	for _, g := range p.Gases {
		if g.Name == "" {
			return fmt.Errorf("%w: gas without a name", ErrInvalidProfile)
		}
		if declared[g.Name] {
			return fmt.Errorf("%w: gas %q declared twice", ErrInvalidProfile, g.Name)
		}
		declared[g.Name] = true
	}

	for i, s := range p.Segments {
		if s.Gas != "" && s.Gas != AirGasName && !declared[s.Gas] {
			return fmt.Errorf("%w: segment %d uses undeclared gas %q", ErrInvalidProfile, i+1, s.Gas)
		}
	}
	return nil
}

// ToSegments converts the profile into model segments. Segments without a gas
// breathe air; segments without a gradient factor use the profile's, and 1.0
// when neither is set.
func (p *ProfileData) ToSegments() ([]profile.Segment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	constants := p.Constants()
	gases := map[string]profile.Gas{AirGasName: profile.Air(constants)}
	for _, g := range p.Gases {
		gases[g.Name] = profile.Gas{Name: g.Name, Helium: g.Helium, Nitrogen: g.Nitrogen}
	}

	defaultGF := p.GradientFactor
	if defaultGF == 0 {
		defaultGF = 1.0
	}

	segments := make([]profile.Segment, len(p.Segments))
	for i, s := range p.Segments {
		gasName := s.Gas
		if gasName == "" {
			gasName = AirGasName
		}
		gf := s.GradientFactor
		if gf == 0 {
			gf = defaultGF
		}
		segments[i] = profile.Segment{
			BeginDepth:     s.BeginDepth,
			EndDepth:       s.EndDepth,
			Minutes:        s.Minutes,
			Gas:            gases[gasName],
			GradientFactor: gf,
		}
	}
	return segments, nil
}
