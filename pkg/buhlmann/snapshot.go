package buhlmann

import "fmt"

// Snapshot is a serializable copy of a ModelPoint
type Snapshot struct {
	Model               string                       `json:"model"`
	Ambient             float64                      `json:"ambient"`
	GradientFactor      float64                      `json:"gradient_factor"`
	LeadCompartment     int                          `json:"lead_compartment"`
	LeadMaxAmbient      float64                      `json:"lead_max_ambient"`
	LeadCeilingMeters   float64                      `json:"lead_ceiling_meters"`
	LeadCeilingStop     int                          `json:"lead_ceiling_stop"`
	MaxNitrogenPressure float64                      `json:"max_nitrogen_pressure"`
	MaxHeliumPressure   float64                      `json:"max_helium_pressure"`
	Ceilings            [NumCompartments]float64     `json:"ceilings"`
	Compartments        [NumCompartments]Compartment `json:"compartments"`
}

// Snapshot captures the current state
func (mp *ModelPoint) Snapshot() Snapshot {
	return Snapshot{
		Model:               mp.model.Name,
		Ambient:             mp.ambient,
		GradientFactor:      mp.gfNow,
		LeadCompartment:     mp.leadCompartment,
		LeadMaxAmbient:      mp.leadMaxAmbient,
		LeadCeilingMeters:   mp.leadCeilingMeters,
		LeadCeilingStop:     mp.leadCeilingStop,
		MaxNitrogenPressure: mp.maxNitrogenPressure,
		MaxHeliumPressure:   mp.maxHeliumPressure,
		Ceilings:            mp.ceilings,
		Compartments:        mp.compartments,
	}
}

// Restore rebuilds a ModelPoint from a snapshot. The blended coefficients are
// recomputed from the stored pressures rather than trusted.
func Restore(snap Snapshot, constants Constants) (*ModelPoint, error) {
	model, err := LookupModel(snap.Model)
	if err != nil {
		return nil, err
	}

	mp := NewModelPoint(model, constants)
	for i := range mp.compartments {
		sc := snap.Compartments[i]
		comp := &mp.compartments[i]
		if err := comp.SetState(&model.Compartments[i], sc.HeliumPressure, sc.NitrogenPressure); err != nil {
			return nil, fmt.Errorf("restoring snapshot: %w", err)
		}
		comp.ToleratedAmbient = sc.ToleratedAmbient
	}

	mp.initialized = true
	mp.ambient = snap.Ambient
	mp.gfNow = snap.GradientFactor
	mp.ceilings = snap.Ceilings
	mp.leadCompartment = snap.LeadCompartment
	mp.leadMaxAmbient = snap.LeadMaxAmbient
	mp.leadCeilingMeters = snap.LeadCeilingMeters
	mp.leadCeilingStop = snap.LeadCeilingStop
	mp.maxNitrogenPressure = snap.MaxNitrogenPressure
	mp.maxHeliumPressure = snap.MaxHeliumPressure
	return mp, nil
}
