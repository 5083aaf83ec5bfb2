// Package buhlmann implements the Bühlmann ZHL-16 tissue model: inert gas
// loading of 16 compartments across dive segments, and the ceiling derived
// from the gradient-factor-scaled M-values of the leading compartment.
//
// Pressures are absolute and in bar, depths are metres of sea water
// (10 m per bar) and durations are minutes.
package buhlmann

import (
	"fmt"
	"math"
	"sort"
)

// NumCompartments is the number of tissue compartments in every ZHL-16 variant
const NumCompartments = 16

// DefaultModel is the variant used when none is requested
const DefaultModel = "ZHL16c"

// Coefficient holds the physiological constants of one compartment.
// A is the M-value intercept and B the reciprocal slope, per gas.
type Coefficient struct {
	Compartment      int     `json:"compartment"` // 1-based
	NitrogenHalfTime float64 `json:"nitrogen_half_time"`
	HeliumHalfTime   float64 `json:"helium_half_time"`
	NitrogenA        float64 `json:"nitrogen_a"`
	NitrogenB        float64 `json:"nitrogen_b"`
	HeliumA          float64 `json:"helium_a"`
	HeliumB          float64 `json:"helium_b"`

	// Decay-rate constants, ln(2)/half-time
	NitrogenK float64 `json:"nitrogen_k"`
	HeliumK   float64 `json:"helium_k"`
}

// Model is one named coefficient table. Models are shared read-only by
// every ModelPoint built from them.
type Model struct {
	Name         string                       `json:"name"`
	Compartments [NumCompartments]Coefficient `json:"compartments"`
}

func newCoefficient(compartment int, n2HalfTime, heHalfTime, n2A, n2B, heA, heB float64) Coefficient {
	return Coefficient{
		Compartment:      compartment,
		NitrogenHalfTime: n2HalfTime,
		HeliumHalfTime:   heHalfTime,
		NitrogenA:        n2A,
		NitrogenB:        n2B,
		HeliumA:          heA,
		HeliumB:          heB,
		NitrogenK:        math.Ln2 / n2HalfTime,
		HeliumK:          math.Ln2 / heHalfTime,
	}
}

var zhl16c = &Model{
	Name: "ZHL16c",
	Compartments: [NumCompartments]Coefficient{
		newCoefficient(1, 5.00, 1.88, 1.1696, 0.5578, 1.6189, 0.4770),
		newCoefficient(2, 8.00, 3.02, 1.0000, 0.6514, 1.3830, 0.5747),
		newCoefficient(3, 12.50, 4.72, 0.8618, 0.7222, 1.1919, 0.6527),
		newCoefficient(4, 18.50, 6.99, 0.7562, 0.7825, 1.0458, 0.7223),
		newCoefficient(5, 27.00, 10.21, 0.6200, 0.8126, 0.9220, 0.7582),
		newCoefficient(6, 38.30, 14.48, 0.5043, 0.8434, 0.8205, 0.7957),
		newCoefficient(7, 54.30, 20.53, 0.4410, 0.8693, 0.7305, 0.8279),
		newCoefficient(8, 77.00, 29.11, 0.4000, 0.8910, 0.6502, 0.8553),
		newCoefficient(9, 109.00, 41.20, 0.3750, 0.9092, 0.5950, 0.8757),
		newCoefficient(10, 146.00, 55.19, 0.3500, 0.9222, 0.5545, 0.8903),
		newCoefficient(11, 187.00, 70.69, 0.3295, 0.9319, 0.5333, 0.8997),
		newCoefficient(12, 239.00, 90.34, 0.3065, 0.9403, 0.5189, 0.9073),
		newCoefficient(13, 305.00, 115.29, 0.2835, 0.9477, 0.5181, 0.9122),
		newCoefficient(14, 390.00, 147.42, 0.2610, 0.9544, 0.5176, 0.9171),
		newCoefficient(15, 498.00, 188.24, 0.2480, 0.9602, 0.5172, 0.9217),
		newCoefficient(16, 635.00, 240.03, 0.2327, 0.9653, 0.5119, 0.9267),
	},
}

// ZH-L16B differs from C only in the nitrogen A values of the middle compartments
var zhl16b = &Model{
	Name: "ZHL16b",
	Compartments: [NumCompartments]Coefficient{
		newCoefficient(1, 5.00, 1.88, 1.1696, 0.5578, 1.6189, 0.4770),
		newCoefficient(2, 8.00, 3.02, 1.0000, 0.6514, 1.3830, 0.5747),
		newCoefficient(3, 12.50, 4.72, 0.8618, 0.7222, 1.1919, 0.6527),
		newCoefficient(4, 18.50, 6.99, 0.7562, 0.7825, 1.0458, 0.7223),
		newCoefficient(5, 27.00, 10.21, 0.6667, 0.8126, 0.9220, 0.7582),
		newCoefficient(6, 38.30, 14.48, 0.5600, 0.8434, 0.8205, 0.7957),
		newCoefficient(7, 54.30, 20.53, 0.4947, 0.8693, 0.7305, 0.8279),
		newCoefficient(8, 77.00, 29.11, 0.4500, 0.8910, 0.6502, 0.8553),
		newCoefficient(9, 109.00, 41.20, 0.4187, 0.9092, 0.5950, 0.8757),
		newCoefficient(10, 146.00, 55.19, 0.3798, 0.9222, 0.5545, 0.8903),
		newCoefficient(11, 187.00, 70.69, 0.3497, 0.9319, 0.5333, 0.8997),
		newCoefficient(12, 239.00, 90.34, 0.3223, 0.9403, 0.5189, 0.9073),
		newCoefficient(13, 305.00, 115.29, 0.2850, 0.9477, 0.5181, 0.9122),
		newCoefficient(14, 390.00, 147.42, 0.2737, 0.9544, 0.5176, 0.9171),
		newCoefficient(15, 498.00, 188.24, 0.2523, 0.9602, 0.5172, 0.9217),
		newCoefficient(16, 635.00, 240.03, 0.2327, 0.9653, 0.5119, 0.9267),
	},
}

var models = map[string]*Model{
	zhl16c.Name: zhl16c,
	zhl16b.Name: zhl16b,
}

// LookupModel returns a copy of the coefficient table for a variant name.
// Changing the copy does not affect other callers.
func LookupModel(name string) (*Model, error) {
	m, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	c := *m
	return &c, nil
}

// ModelNames returns the available variant names in sorted order
func ModelNames() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
