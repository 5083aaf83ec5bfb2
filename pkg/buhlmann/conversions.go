package buhlmann

// MetersPerBar is the metric seawater depth equivalent of one bar
const MetersPerBar = 10.0

// DepthToPressure converts a depth in metres to gauge pressure in bar
func DepthToPressure(depth float64) float64 {
	return depth / MetersPerBar
}

// PressureToDepth converts gauge pressure in bar to a depth in metres
func PressureToDepth(pressure float64) float64 {
	return pressure * MetersPerBar
}

// DepthToAbsolutePressure converts a depth to absolute pressure at this surface pressure
func (c Constants) DepthToAbsolutePressure(depth float64) float64 {
	return c.SurfacePressure + DepthToPressure(depth)
}

// AbsolutePressureToDepth converts absolute pressure to a depth below this surface
func (c Constants) AbsolutePressureToDepth(pressure float64) float64 {
	return PressureToDepth(pressure - c.SurfacePressure)
}

// DepthToAbsolutePressure converts a depth to absolute pressure at sea level
func DepthToAbsolutePressure(depth float64) float64 {
	return DefaultConstants().DepthToAbsolutePressure(depth)
}
