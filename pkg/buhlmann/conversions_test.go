package buhlmann

import (
	"math"
	"testing"
)

func TestDepthPressureRoundTrip(t *testing.T) {
	depths := []float64{0, 0.1, 3, 29.8675, 150}
	surfaces := []float64{DefaultConstants().SurfacePressure, 0.92, 0.7, 1.03}

	for _, surface := range surfaces {
		c := DefaultConstants()
		c.SurfacePressure = surface

		for _, d := range depths {
			abs := c.DepthToAbsolutePressure(d)
			if got := PressureToDepth(abs - surface); math.Abs(got-d) > 1e-9 {
				t.Errorf("surface %g: PressureToDepth(DepthToAbsolutePressure(%g) - surface) = %g", surface, d, got)
			}
			if got := c.AbsolutePressureToDepth(abs); math.Abs(got-d) > 1e-9 {
				t.Errorf("surface %g: AbsolutePressureToDepth(%g) = %g, expected %g", surface, abs, got, d)
			}
			if got := PressureToDepth(DepthToPressure(d)); math.Abs(got-d) > 1e-9 {
				t.Errorf("gauge round trip of %g m = %g", d, got)
			}
		}
	}

	for _, d := range depths {
		sea := DefaultConstants()
		if got, want := DepthToAbsolutePressure(d), sea.DepthToAbsolutePressure(d); got != want {
			t.Errorf("DepthToAbsolutePressure(%g) = %g, expected %g at sea level", d, got, want)
		}
		if got := sea.AbsolutePressureToDepth(DepthToAbsolutePressure(d)); math.Abs(got-d) > 1e-9 {
			t.Errorf("sea level round trip of %g m = %g", d, got)
		}
	}
}

func TestConversionValues(t *testing.T) {
	tests := []struct {
		depth    float64
		gauge    float64
		absolute float64
	}{
		{0, 0, 1.01325},
		{10, 1, 2.01325},
		{29.8675, 2.98675, 4.0},
		{150, 15, 16.01325},
	}

	for _, tt := range tests {
		if got := DepthToPressure(tt.depth); math.Abs(got-tt.gauge) > 1e-12 {
			t.Errorf("DepthToPressure(%g) = %g, expected %g", tt.depth, got, tt.gauge)
		}
		if got := DepthToAbsolutePressure(tt.depth); math.Abs(got-tt.absolute) > 1e-12 {
			t.Errorf("DepthToAbsolutePressure(%g) = %g, expected %g", tt.depth, got, tt.absolute)
		}
	}
}
