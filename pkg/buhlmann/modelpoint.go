package buhlmann

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// StopIncrement is the spacing of decompression stops in metres
const StopIncrement = 3.0

// ModelPoint is the state of all 16 compartments at one point in time.
// A ModelPoint is not safe for concurrent mutation; use Clone to branch.
type ModelPoint struct {
	model     *Model
	constants Constants

	compartments [NumCompartments]Compartment
	ceilings     [NumCompartments]float64
	initialized  bool

	ambient float64
	gfNow   float64

	leadCompartment   int // 0-based, -1 until the first segment
	leadMaxAmbient    float64
	leadCeilingMeters float64
	leadCeilingStop   int

	maxNitrogenPressure float64
	maxHeliumPressure   float64
}

// NewModelPoint creates an empty point bound to a coefficient table. Call
// InitializeAtSurface before applying any segment.
func NewModelPoint(model *Model, constants Constants) *ModelPoint {
	mp := &ModelPoint{
		model:             model,
		constants:         constants,
		gfNow:             1.0,
		leadCompartment:   -1,
		leadMaxAmbient:    -100.0,
		leadCeilingMeters: -100.0,
		leadCeilingStop:   -1,
	}
	for i := range mp.compartments {
		mp.compartments[i] = newCompartment(i, constants.SurfacePressure)
	}
	return mp
}

// InitializeAtSurface puts every compartment at rest at the surface: no
// helium and the initial nitrogen loading
func (mp *ModelPoint) InitializeAtSurface() error {
	for i := range mp.compartments {
		if err := mp.compartments[i].SetState(&mp.model.Compartments[i], 0, mp.constants.InitialNitrogen); err != nil {
			return fmt.Errorf("initializing at surface: %w", err)
		}
	}
	mp.ambient = mp.constants.SurfacePressure
	mp.initialized = true
	return nil
}

// AdvanceSegment applies one exposure segment between two absolute pressures.
// Inspired pressures come from the pressure at the start of the segment.
// On error the point is left unchanged.
func (mp *ModelPoint) AdvanceSegment(beginPressure, endPressure, minutes, heliumFraction, nitrogenFraction, gf float64) error {
	if !mp.initialized {
		return ErrNotInitialized
	}
	if err := validateSegment(beginPressure, endPressure, minutes, heliumFraction, nitrogenFraction, gf); err != nil {
		return err
	}

	heliumInspired := (beginPressure - mp.constants.WaterVapor) * heliumFraction
	nitrogenInspired := (beginPressure - mp.constants.WaterVapor) * nitrogenFraction

	var heliumRate, nitrogenRate float64
	if beginPressure != endPressure {
		barPerMin := (endPressure - beginPressure) / minutes
		heliumRate = barPerMin * heliumFraction
		nitrogenRate = barPerMin * nitrogenFraction
	}

	// Work on a copy so a failing compartment leaves the point untouched
	next := mp.compartments
	var ceilings, maxAmbient [NumCompartments]float64
	for i := range next {
		comp := &next[i]
		coef := &mp.model.Compartments[i]
		if err := comp.Advance(coef, heliumInspired, nitrogenInspired, heliumRate, nitrogenRate, minutes); err != nil {
			return err
		}
		comp.ToleratedAmbient = comp.ToleratedAmbientAt(endPressure)

		maxAmbient[i] = comp.MaxTolerableAmbient(gf) - mp.constants.SurfacePressure
		ceilings[i] = PressureToDepth(maxAmbient[i])
	}

	mp.compartments = next
	mp.ceilings = ceilings

	lead := floats.MaxIdx(ceilings[:])
	mp.leadCompartment = lead
	mp.leadMaxAmbient = maxAmbient[lead]
	mp.leadCeilingMeters = ceilings[lead]
	mp.leadCeilingStop = stopDepth(ceilings[lead])

	for i := range mp.compartments {
		mp.maxNitrogenPressure = math.Max(mp.maxNitrogenPressure, mp.compartments[i].NitrogenPressure)
		mp.maxHeliumPressure = math.Max(mp.maxHeliumPressure, mp.compartments[i].HeliumPressure)
	}

	mp.ambient = endPressure
	mp.gfNow = gf
	return nil
}

// AdvanceSegmentByDepth is AdvanceSegment with begin and end given as depths
func (mp *ModelPoint) AdvanceSegmentByDepth(beginDepth, endDepth, minutes, heliumFraction, nitrogenFraction, gf float64) error {
	return mp.AdvanceSegment(
		mp.constants.DepthToAbsolutePressure(beginDepth),
		mp.constants.DepthToAbsolutePressure(endDepth),
		minutes, heliumFraction, nitrogenFraction, gf)
}

func validateSegment(beginPressure, endPressure, minutes, heliumFraction, nitrogenFraction, gf float64) error {
	if !(gf > 0 && gf <= 1) {
		return fmt.Errorf("%w: got %g", ErrInvalidGradientFactor, gf)
	}
	if !(heliumFraction >= 0 && heliumFraction <= 1) || !(nitrogenFraction >= 0 && nitrogenFraction <= 1) {
		return fmt.Errorf("%w: he=%g n2=%g", ErrInvalidGasMix, heliumFraction, nitrogenFraction)
	}
	if heliumFraction+nitrogenFraction > 1 {
		return fmt.Errorf("%w: he+n2=%g exceeds 1", ErrInvalidGasMix, heliumFraction+nitrogenFraction)
	}
	if minutes < 0 || (beginPressure != endPressure && !(minutes > 0)) {
		return fmt.Errorf("%w: %g min from %g to %g bar", ErrZeroDuration, minutes, beginPressure, endPressure)
	}
	return nil
}

// stopDepth rounds a ceiling up to the next stop increment
func stopDepth(ceiling float64) int {
	return int(math.Ceil(ceiling/StopIncrement) * StopIncrement)
}

// gaugeMaxAmbient returns each compartment's gf-scaled tolerated ambient
// pressure relative to the surface
func (mp *ModelPoint) gaugeMaxAmbient(gf float64) []float64 {
	p := make([]float64, NumCompartments)
	for i := range mp.compartments {
		p[i] = mp.compartments[i].MaxTolerableAmbient(gf) - mp.constants.SurfacePressure
	}
	return p
}

// CurrentCeiling returns the deepest compartment ceiling for gf, in metres.
// It never reports a ceiling shallower than the surface.
func (mp *ModelPoint) CurrentCeiling(gf float64) float64 {
	return PressureToDepth(math.Max(0, floats.Max(mp.gaugeMaxAmbient(gf))))
}

// CurrentCeilingAbsolute returns the deepest compartment ceiling for gf as
// absolute pressure
func (mp *ModelPoint) CurrentCeilingAbsolute(gf float64) float64 {
	p := make([]float64, NumCompartments)
	for i := range mp.compartments {
		p[i] = mp.compartments[i].MaxTolerableAmbient(gf)
	}
	return math.Max(0, floats.Max(p))
}

// WorstMValue returns the highest M-value ratio over all compartments at a
// gauge pressure (bar below the surface)
func (mp *ModelPoint) WorstMValue(pressure float64) float64 {
	ambient := pressure + mp.constants.SurfacePressure
	mv := make([]float64, NumCompartments)
	for i := range mp.compartments {
		mv[i] = mp.compartments[i].MValueAt(ambient)
	}
	return math.Max(0, floats.Max(mv))
}

// ControllingCompartmentNumber returns the 1-based number of the compartment
// with the deepest ceiling for gf. Ties go to the lowest number, and 1 is
// returned when no compartment has a ceiling below the surface.
func (mp *ModelPoint) ControllingCompartmentNumber(gf float64) int {
	p := mp.gaugeMaxAmbient(gf)
	idx := floats.MaxIdx(p)
	if p[idx] <= 0 {
		return 1
	}
	return idx + 1
}

// Clone returns an independent copy. The coefficient table stays shared,
// it is never written.
func (mp *ModelPoint) Clone() *ModelPoint {
	c := *mp
	return &c
}

// Model returns the coefficient table the point is bound to
func (mp *ModelPoint) Model() *Model { return mp.model }

// ModelUsed returns the variant name
func (mp *ModelPoint) ModelUsed() string { return mp.model.Name }

// Constants returns the constants the point was built with
func (mp *ModelPoint) Constants() Constants { return mp.constants }

// Ambient returns the absolute pressure at the end of the last segment
func (mp *ModelPoint) Ambient() float64 { return mp.ambient }

// GradientFactor returns the gradient factor of the last segment
func (mp *ModelPoint) GradientFactor() float64 { return mp.gfNow }

// Compartment returns a copy of the compartment at a 0-based index
func (mp *ModelPoint) Compartment(index int) Compartment { return mp.compartments[index] }

// Ceilings returns the per-compartment ceilings of the last segment in metres
func (mp *ModelPoint) Ceilings() [NumCompartments]float64 { return mp.ceilings }

// LeadCompartment returns the 0-based index of the compartment that set the
// ceiling of the last segment, or -1 before any segment
func (mp *ModelPoint) LeadCompartment() int { return mp.leadCompartment }

// LeadMaxAmbient returns the leading compartment's tolerated gauge pressure
func (mp *ModelPoint) LeadMaxAmbient() float64 { return mp.leadMaxAmbient }

// LeadCeilingMeters returns the leading compartment's ceiling
func (mp *ModelPoint) LeadCeilingMeters() float64 { return mp.leadCeilingMeters }

// LeadCeilingStop returns the leading ceiling rounded up to a 3 m stop
func (mp *ModelPoint) LeadCeilingStop() int { return mp.leadCeilingStop }

// MaxNitrogenPressure returns the highest compartment N2 pressure seen so far
func (mp *ModelPoint) MaxNitrogenPressure() float64 { return mp.maxNitrogenPressure }

// MaxHeliumPressure returns the highest compartment He pressure seen so far
func (mp *ModelPoint) MaxHeliumPressure() float64 { return mp.maxHeliumPressure }
