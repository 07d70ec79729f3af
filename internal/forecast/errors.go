package forecast

import "errors"

// Sentinel errors of the forecasting engine. ErrModelUnavailable and
// ErrWeatherUnavailable are recovered internally (heuristic fallback,
// default weather); only ErrInvalidDate surfaces to callers.
var (
	ErrModelUnavailable   = errors.New("model artifacts unavailable")
	ErrWeatherUnavailable = errors.New("weather data unavailable")
	ErrNoLocation         = errors.New("no known location")
	ErrInvalidDate        = errors.New("invalid date")
)
