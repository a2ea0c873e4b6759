package domain

import (
	"math"

	"github.com/couchcryptid/fire-index-etl/internal/raster"
)

const (
	// Prepared bands live in [1, 65535]. The floor of 1 keeps every
	// prepared value usable in the ratio denominator.
	preparedMin = 1
	preparedMax = 65535

	// Thermal band: linear over 183.15 K .. 333.15 K.
	thermalBaseK = 183.15
	thermalSpanK = 150

	// Hot band: power law over 273.15 K .. 333.15 K.
	hotBaseK = 273.15
	hotSpanK = 60
	hotGamma = 0.4
)

var hotExponent = 1 / hotGamma

// PrepareThermalIR maps IR_112 Kelvin samples linearly onto [1, 65535].
// Finite inputs always land in range; NaN samples become undefined.
func PrepareThermalIR(raw raster.Band) raster.Field {
	return raw.ToField(func(k float64) (float64, bool) {
		if math.IsNaN(k) {
			return 0, false
		}
		return clampPrepared(preparedMax * ((k - thermalBaseK) / thermalSpanK)), true
	})
}

// PrepareHotIR maps IR_039 Kelvin samples onto [1, 65535] with a 2.5
// power law that stretches separation at fire temperatures. Samples
// below 273.15 K, and NaN samples, take the floor value 1.
func PrepareHotIR(raw raster.Band) raster.Field {
	return raw.ToField(func(k float64) (float64, bool) {
		base := (k - hotBaseK) / hotSpanK
		if math.IsNaN(base) || base < 0 {
			return preparedMin, true
		}
		return clampPrepared(preparedMax * math.Pow(base, hotExponent)), true
	})
}

func clampPrepared(v float64) float64 {
	return math.Max(preparedMin, math.Min(preparedMax, v))
}
