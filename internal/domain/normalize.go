package domain

import (
	"fmt"
	"math"

	"github.com/couchcryptid/fire-index-etl/internal/raster"
)

// NormalizationParams configures NormalizeBand. Floor defaults to 0;
// a nil Ceiling means no ceiling beyond the bit-depth maximum.
type NormalizationParams struct {
	InputMin float64
	InputMax float64
	Gamma    float64
	BitDepth raster.BitDepth
	Floor    float64
	Ceiling  *float64
}

// VisibleParams is the linear visible-channel normalization over
// [0, inMax] percent reflectance.
func VisibleParams(inMax float64, depth raster.BitDepth) NormalizationParams {
	return NormalizationParams{
		InputMin: 0,
		InputMax: inMax,
		Gamma:    1,
		BitDepth: depth,
	}
}

func (np NormalizationParams) validate() error {
	if err := validateGamma(np.Gamma); err != nil {
		return err
	}
	if !np.BitDepth.Valid() {
		return fmt.Errorf("%w: %d", raster.ErrInvalidBitDepth, np.BitDepth)
	}
	if !isFinite(np.InputMin) || !isFinite(np.InputMax) {
		return fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, np.InputMin, np.InputMax)
	}
	return nil
}

// NormalizeBand clips (band - min)/(max - min) to [0,1], applies the
// 1/gamma power when gamma != 1, scales to the bit depth, applies floor
// and ceiling, and truncates. An empty input range divides by 1 instead
// of failing. NaN samples come out as 0; results beyond the bit depth
// saturate.
func NormalizeBand(band raster.Band, np NormalizationParams) (raster.Quantized, error) {
	if err := np.validate(); err != nil {
		return raster.Quantized{}, err
	}
	q, err := raster.NewQuantized(band.Shape(), np.BitDepth)
	if err != nil {
		return raster.Quantized{}, err
	}

	denom := np.InputMax - np.InputMin
	if denom == 0 {
		denom = 1
	}
	scale := np.BitDepth.Max()

	for i, v := range band.Values() {
		norm := clipUnit((v - np.InputMin) / denom)
		if np.Gamma != 1 {
			norm = math.Pow(norm, 1/np.Gamma)
		}
		out := math.Max(norm*scale, np.Floor)
		if np.Ceiling != nil {
			out = math.Min(out, *np.Ceiling)
		}
		q.Set(i, out)
	}
	return q, nil
}

// clipUnit clamps v to [0,1]. NaN passes through.
func clipUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
