package buhlmann

import "errors"

var (
	// ErrUnknownModel is returned for a variant name with no coefficient table
	ErrUnknownModel = errors.New("unknown model variant")

	// ErrNoInertGas means a compartment would hold zero (or negative) total
	// inert gas pressure, where the blended coefficients are undefined
	ErrNoInertGas = errors.New("compartment inert gas pressure must be positive")

	// ErrZeroDuration is returned for a segment with no duration over which
	// ambient pressure changes, or a negative duration
	ErrZeroDuration = errors.New("segment duration must be positive")

	// ErrInvalidGradientFactor is returned for a gradient factor outside (0, 1]
	ErrInvalidGradientFactor = errors.New("gradient factor must be in (0, 1]")

	// ErrInvalidGasMix is returned when a fraction lies outside [0, 1] or
	// helium and nitrogen together exceed 1
	ErrInvalidGasMix = errors.New("invalid gas mix")

	// ErrNotInitialized is returned when a segment is applied before the
	// point has been set to its surface state
	ErrNotInitialized = errors.New("model point not initialized")
)
