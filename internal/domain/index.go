package domain

import (
	"fmt"
	"math"

	"github.com/couchcryptid/fire-index-etl/internal/raster"
)

// Extrema is the observed range of the signed ratio over a whole scene.
// Computing it and applying it are separate steps so a tiled caller can
// supply fixed extrema instead of recomputing them per tile.
type Extrema struct {
	Min float64
	Max float64
}

// Degenerate reports whether the range is empty (every pixel equal).
func (e Extrema) Degenerate() bool { return e.Max == e.Min }

// SignedRatio computes -(thermal - hot) / (thermal + hot) per pixel, so
// pixels where the hot band dominates score high. A zero denominator or
// an undefined input leaves the pixel undefined.
func SignedRatio(thermal, hot raster.Field) (raster.Field, error) {
	if err := raster.SameShape(thermal.Shape(), hot.Shape()); err != nil {
		return raster.Field{}, fmt.Errorf("signed ratio: %w", err)
	}

	out := raster.NewField(thermal.Shape())
	for i := 0; i < thermal.Len(); i++ {
		t, okT := thermal.At(i)
		h, okH := hot.At(i)
		if !okT || !okH {
			continue
		}
		denom := t + h
		if denom == 0 {
			continue
		}
		r := -((t - h) / denom)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out.Set(i, r)
	}
	return out, nil
}

// ComputeExtrema returns the min and max over defined pixels. ok is false
// when no pixel is defined.
func ComputeExtrema(f raster.Field) (ext Extrema, ok bool) {
	for i := 0; i < f.Len(); i++ {
		v, defined := f.At(i)
		if !defined {
			continue
		}
		if !ok {
			ext = Extrema{Min: v, Max: v}
			ok = true
			continue
		}
		if v < ext.Min {
			ext.Min = v
		}
		if v > ext.Max {
			ext.Max = v
		}
	}
	return ext, ok
}

// ApplyIndexMapping rescales f to [0,1] using ext, applies the 1/gamma
// power, scales to the bit depth and truncates. Undefined pixels, and
// every pixel of a degenerate range, come out as 0. With externally
// supplied extrema, values below ext.Min map to 0 and values above
// ext.Max saturate.
func ApplyIndexMapping(f raster.Field, ext Extrema, p Params) (raster.Quantized, error) {
	if err := p.Validate(); err != nil {
		return raster.Quantized{}, err
	}
	q, err := raster.NewQuantized(f.Shape(), p.BitDepth)
	if err != nil {
		return raster.Quantized{}, err
	}
	if ext.Degenerate() {
		return q, nil
	}

	span := ext.Max - ext.Min
	exp := 1 / p.Gamma
	scale := p.BitDepth.Max()
	for i := 0; i < f.Len(); i++ {
		v, ok := f.At(i)
		if !ok {
			continue
		}
		norm := (v - ext.Min) / span
		q.Set(i, math.Pow(norm, exp)*scale)
	}
	return q, nil
}

// ComputeIndex derives the fire index from two prepared bands using the
// bands' own observed ratio range.
func ComputeIndex(thermal, hot raster.Field, p Params) (raster.Quantized, error) {
	if err := p.Validate(); err != nil {
		return raster.Quantized{}, err
	}
	ratio, err := SignedRatio(thermal, hot)
	if err != nil {
		return raster.Quantized{}, err
	}
	ext, _ := ComputeExtrema(ratio)
	return ApplyIndexMapping(ratio, ext, p)
}

// ComputeIndexFromRaw prepares raw IR_112 and IR_039 Kelvin bands and
// derives the fire index. Mismatched shapes fail before any computation.
func ComputeIndexFromRaw(thermalRaw, hotRaw raster.Band, p Params) (raster.Quantized, error) {
	if err := raster.SameShape(thermalRaw.Shape(), hotRaw.Shape()); err != nil {
		return raster.Quantized{}, fmt.Errorf("fire index: %w", err)
	}
	if err := p.Validate(); err != nil {
		return raster.Quantized{}, err
	}
	return ComputeIndex(PrepareThermalIR(thermalRaw), PrepareHotIR(hotRaw), p)
}
