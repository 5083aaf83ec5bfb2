package buhlmann

import (
	"errors"
	"math"
	"testing"
)

func TestSetStateBlendsCoefficients(t *testing.T) {
	coef := &zhl16c.Compartments[0]

	tests := []struct {
		name      string
		helium    float64
		nitrogen  float64
		expectedA float64
		expectedB float64
	}{
		{
			name:      "nitrogen only",
			helium:    0,
			nitrogen:  0.745,
			expectedA: coef.NitrogenA,
			expectedB: coef.NitrogenB,
		},
		{
			name:      "helium only",
			helium:    1.2,
			nitrogen:  0,
			expectedA: coef.HeliumA,
			expectedB: coef.HeliumB,
		},
		{
			name:      "equal mix",
			helium:    1.0,
			nitrogen:  1.0,
			expectedA: (coef.HeliumA + coef.NitrogenA) / 2,
			expectedB: (coef.HeliumB + coef.NitrogenB) / 2,
		},
		{
			name:      "one quarter helium",
			helium:    0.5,
			nitrogen:  1.5,
			expectedA: 0.25*coef.HeliumA + 0.75*coef.NitrogenA,
			expectedB: 0.25*coef.HeliumB + 0.75*coef.NitrogenB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompartment(0, 1.01325)
			if err := c.SetState(coef, tt.helium, tt.nitrogen); err != nil {
				t.Fatalf("SetState: %v", err)
			}
			if math.Abs(c.BlendedA-tt.expectedA) > 1e-12 {
				t.Errorf("BlendedA = %.6f, expected %.6f", c.BlendedA, tt.expectedA)
			}
			if math.Abs(c.BlendedB-tt.expectedB) > 1e-12 {
				t.Errorf("BlendedB = %.6f, expected %.6f", c.BlendedB, tt.expectedB)
			}
			if math.Abs(c.SurfaceMValue-c.MValueAt(1.01325)) > 1e-12 {
				t.Errorf("SurfaceMValue = %.6f, expected %.6f", c.SurfaceMValue, c.MValueAt(1.01325))
			}
		})
	}
}

func TestSetStateRejectsEmptyCompartment(t *testing.T) {
	coef := &zhl16c.Compartments[0]

	cases := [][2]float64{{0, 0}, {-0.1, 0.05}, {0.2, -0.3}, {math.NaN(), 0.5}}
	for _, p := range cases {
		c := newCompartment(0, 1.01325)
		err := c.SetState(coef, p[0], p[1])
		if !errors.Is(err, ErrNoInertGas) {
			t.Errorf("SetState(he=%g, n2=%g) error = %v, expected ErrNoInertGas", p[0], p[1], err)
		}
	}
}

func TestHaldaneHalfTime(t *testing.T) {
	// After exactly one half-time the gap to the inspired pressure halves
	for i := range zhl16c.Compartments {
		coef := &zhl16c.Compartments[i]
		c := newCompartment(i, 1.01325)
		if err := c.SetState(coef, 0, 0.745); err != nil {
			t.Fatal(err)
		}

		if err := c.Advance(coef, 0, 3.0, 0, 0, coef.NitrogenHalfTime); err != nil {
			t.Fatal(err)
		}
		expected := 0.745 + (3.0-0.745)/2
		if math.Abs(c.NitrogenPressure-expected) > 1e-9 {
			t.Errorf("compartment %d: N2 = %.9f after one half-time, expected %.9f", i+1, c.NitrogenPressure, expected)
		}
	}
}

func TestHaldaneCacheFollowsDuration(t *testing.T) {
	coef := &zhl16c.Compartments[4]

	stepped := newCompartment(4, 1.01325)
	single := newCompartment(4, 1.01325)
	for _, c := range []*Compartment{&stepped, &single} {
		if err := c.SetState(coef, 0.1, 0.745); err != nil {
			t.Fatal(err)
		}
	}

	// 5 + 5 + 10 + 10 minutes must land where a single 30 minute exposure does
	for _, minutes := range []float64{5, 5, 10, 10} {
		if err := stepped.Advance(coef, 1.2, 2.5, 0, 0, minutes); err != nil {
			t.Fatal(err)
		}
		if stepped.haldane.minutes != minutes {
			t.Errorf("cached duration = %g, expected %g", stepped.haldane.minutes, minutes)
		}
	}
	if err := single.Advance(coef, 1.2, 2.5, 0, 0, 30); err != nil {
		t.Fatal(err)
	}

	if math.Abs(stepped.NitrogenPressure-single.NitrogenPressure) > 1e-9 {
		t.Errorf("N2 stepped = %.9f, single = %.9f", stepped.NitrogenPressure, single.NitrogenPressure)
	}
	if math.Abs(stepped.HeliumPressure-single.HeliumPressure) > 1e-9 {
		t.Errorf("He stepped = %.9f, single = %.9f", stepped.HeliumPressure, single.HeliumPressure)
	}
}

func TestSchreinerConvergesToHaldane(t *testing.T) {
	for i := range zhl16c.Compartments {
		coef := &zhl16c.Compartments[i]

		schreinerComp := newCompartment(i, 1.01325)
		haldaneComp := newCompartment(i, 1.01325)
		for _, c := range []*Compartment{&schreinerComp, &haldaneComp} {
			if err := c.SetState(coef, 0.3, 1.1); err != nil {
				t.Fatal(err)
			}
		}

		// A vanishing rate on both gases keeps the Schreiner branch selected
		const rate = 1e-10
		if err := schreinerComp.Advance(coef, 1.4, 1.8, rate, rate, 12); err != nil {
			t.Fatal(err)
		}
		if err := haldaneComp.Advance(coef, 1.4, 1.8, 0, 0, 12); err != nil {
			t.Fatal(err)
		}

		if math.Abs(schreinerComp.NitrogenPressure-haldaneComp.NitrogenPressure) > 1e-6 {
			t.Errorf("compartment %d: N2 schreiner = %.9f, haldane = %.9f", i+1, schreinerComp.NitrogenPressure, haldaneComp.NitrogenPressure)
		}
		if math.Abs(schreinerComp.HeliumPressure-haldaneComp.HeliumPressure) > 1e-6 {
			t.Errorf("compartment %d: He schreiner = %.9f, haldane = %.9f", i+1, schreinerComp.HeliumPressure, haldaneComp.HeliumPressure)
		}
	}
}

func TestLowerGradientFactorDeepensCeiling(t *testing.T) {
	coef := &zhl16c.Compartments[1]
	c := newCompartment(1, 1.01325)
	if err := c.SetState(coef, 0.4, 2.2); err != nil {
		t.Fatal(err)
	}

	prev := c.MaxTolerableAmbient(1.0)
	for gf := 0.95; gf > 0.05; gf -= 0.05 {
		amb := c.MaxTolerableAmbient(gf)
		if amb < prev {
			t.Errorf("gf %.2f: tolerated ambient %.6f dropped below %.6f", gf, amb, prev)
		}
		prev = amb
	}
}

func TestMaxTolerableAmbientMatchesMValueLine(t *testing.T) {
	// At gf=1 the tissue pressure sits exactly on the M-value line at the
	// tolerated ambient pressure
	coef := &zhl16c.Compartments[6]
	c := newCompartment(6, 1.01325)
	if err := c.SetState(coef, 0.6, 1.9); err != nil {
		t.Fatal(err)
	}

	amb := c.MaxTolerableAmbient(1.0)
	if mv := c.MValueAt(amb); math.Abs(mv-1.0) > 1e-12 {
		t.Errorf("M-value ratio at tolerated ambient = %.12f, expected 1", mv)
	}
	if tol := c.ToleratedAmbientAt(amb); math.Abs(tol-c.InertPressure()) > 1e-12 {
		t.Errorf("M-value at tolerated ambient = %.12f, expected %.12f", tol, c.InertPressure())
	}
}
