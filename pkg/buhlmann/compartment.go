package buhlmann

import (
	"fmt"
	"math"
)

// Compartment is the state of one tissue compartment. The blended A and B
// coefficients are only defined while HeliumPressure+NitrogenPressure > 0,
// which SetState enforces.
type Compartment struct {
	Index            int     `json:"index"` // 0-based position, fixed
	HeliumPressure   float64 `json:"helium_pressure"`
	NitrogenPressure float64 `json:"nitrogen_pressure"`
	BlendedA         float64 `json:"blended_a"`
	BlendedB         float64 `json:"blended_b"`
	SurfaceMValue    float64 `json:"surface_m_value"`
	ToleratedAmbient float64 `json:"tolerated_ambient"`

	surfacePressure float64
	haldane         haldaneFactors
}

// haldaneFactors caches 1-e^(-Kt) per gas for the last constant-depth
// segment duration. It is invalidated whenever the duration changes.
type haldaneFactors struct {
	valid    bool
	minutes  float64
	helium   float64
	nitrogen float64
}

func newCompartment(index int, surfacePressure float64) Compartment {
	return Compartment{Index: index, surfacePressure: surfacePressure}
}

// InertPressure is the total dissolved inert gas pressure
func (c *Compartment) InertPressure() float64 {
	return c.HeliumPressure + c.NitrogenPressure
}

// SetState stores new dissolved pressures and re-blends the M-value
// coefficients, weighting each gas by its share of the inert total.
func (c *Compartment) SetState(coef *Coefficient, heliumPressure, nitrogenPressure float64) error {
	total := heliumPressure + nitrogenPressure
	if heliumPressure < 0 || nitrogenPressure < 0 || !(total > 0) {
		return fmt.Errorf("compartment %d (he=%g n2=%g): %w", c.Index+1, heliumPressure, nitrogenPressure, ErrNoInertGas)
	}

	c.HeliumPressure = heliumPressure
	c.NitrogenPressure = nitrogenPressure
	c.BlendedA = (coef.HeliumA*heliumPressure + coef.NitrogenA*nitrogenPressure) / total
	c.BlendedB = (coef.HeliumB*heliumPressure + coef.NitrogenB*nitrogenPressure) / total
	c.SurfaceMValue = c.MValueAt(c.surfacePressure)
	return nil
}

// Advance moves the compartment across one segment. With both gas rates
// nonzero the ambient pressure is changing and the Schreiner equation is
// used, otherwise the Haldane equation for constant ambient pressure.
func (c *Compartment) Advance(coef *Coefficient, heliumInspired, nitrogenInspired, heliumRate, nitrogenRate, minutes float64) error {
	var he, n2 float64

	if heliumRate != 0 && nitrogenRate != 0 {
		he = schreiner(c.HeliumPressure, coef.HeliumK, heliumInspired, heliumRate, minutes)
		n2 = schreiner(c.NitrogenPressure, coef.NitrogenK, nitrogenInspired, nitrogenRate, minutes)
	} else {
		if !c.haldane.valid || c.haldane.minutes != minutes {
			c.haldane = haldaneFactors{
				valid:    true,
				minutes:  minutes,
				helium:   1 - math.Exp(-coef.HeliumK*minutes),
				nitrogen: 1 - math.Exp(-coef.NitrogenK*minutes),
			}
		}
		he = c.HeliumPressure + (heliumInspired-c.HeliumPressure)*c.haldane.helium
		n2 = c.NitrogenPressure + (nitrogenInspired-c.NitrogenPressure)*c.haldane.nitrogen
	}

	return c.SetState(coef, he, n2)
}

// schreiner solves tissue loading under a constant rate of change of the
// inspired partial pressure
func schreiner(old, k, inspired, rate, minutes float64) float64 {
	return inspired + rate*(minutes-1/k) - (inspired-old-rate/k)*math.Exp(-k*minutes)
}

// ToleratedAmbientAt returns the M-value, the highest tissue pressure
// tolerated at the given absolute ambient pressure
func (c *Compartment) ToleratedAmbientAt(pressure float64) float64 {
	return pressure/c.BlendedB + c.BlendedA
}

// MaxTolerableAmbient returns the lowest absolute ambient pressure this
// compartment may be brought to with its M-value scaled by gf. gf=1 is the
// unmodified Bühlmann limit.
func (c *Compartment) MaxTolerableAmbient(gf float64) float64 {
	return (c.InertPressure() - c.BlendedA*gf) / (gf/c.BlendedB - gf + 1)
}

// MValueAt returns tissue pressure as a fraction of the M-value at the given
// absolute ambient pressure. Above 1 the tissue exceeds its limit.
func (c *Compartment) MValueAt(ambient float64) float64 {
	return c.InertPressure() / (ambient/c.BlendedB + c.BlendedA)
}
