package buhlmann

// Constants holds the environmental and physiological parameters of a
// simulation. It is a value type: a ModelPoint keeps the copy it was built
// with and nothing modifies it afterwards.
type Constants struct {
	SurfacePressure    float64 `json:"surface_pressure"`    // bar
	SurfaceTemperature float64 `json:"surface_temperature"` // °C
	AirHelium          float64 `json:"air_helium"`
	AirNitrogen        float64 `json:"air_nitrogen"`
	AirOxygen          float64 `json:"air_oxygen"`
	AirArgon           float64 `json:"air_argon"`
	WaterVapor         float64 `json:"water_vapor"`      // alveolar water vapour pressure, bar
	InitialNitrogen    float64 `json:"initial_nitrogen"` // resting tissue N2 at the surface, bar
}

// DefaultConstants returns sea-level reference values
func DefaultConstants() Constants {
	return Constants{
		SurfacePressure:    1.01325,
		SurfaceTemperature: 20,
		AirHelium:          0.0,
		AirNitrogen:        0.7808,
		AirOxygen:          0.2095,
		AirArgon:           0.00934,
		WaterVapor:         0.0627,
		InitialNitrogen:    0.745,
	}
}

// AirInertFraction is the fraction of inert gas in standard air
func (c Constants) AirInertFraction() float64 {
	return c.AirHelium + c.AirNitrogen + c.AirArgon
}
