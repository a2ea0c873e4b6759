package raster

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBitDepth is returned for any bit depth other than 8 or 16.
var ErrInvalidBitDepth = errors.New("invalid bit depth")

// BitDepth is the unsigned integer width of a quantized raster.
type BitDepth uint8

const (
	Depth8  BitDepth = 8
	Depth16 BitDepth = 16
)

// ParseBitDepth validates an integer bit depth.
func ParseBitDepth(n int) (BitDepth, error) {
	switch n {
	case 8:
		return Depth8, nil
	case 16:
		return Depth16, nil
	default:
		return 0, fmt.Errorf("%w: %d (want 8 or 16)", ErrInvalidBitDepth, n)
	}
}

// Valid reports whether d is 8 or 16.
func (d BitDepth) Valid() bool { return d == Depth8 || d == Depth16 }

// Max returns the largest representable sample: 255 or 65535.
func (d BitDepth) Max() float64 {
	if d == Depth8 {
		return math.MaxUint8
	}
	return math.MaxUint16
}

// Quantize converts a scaled float sample into the integer range of d.
// NaN maps to 0; values outside [0, Max] saturate; in-range values are
// truncated toward zero, never rounded.
func (d BitDepth) Quantize(v float64) uint16 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= d.Max():
		return uint16(d.Max())
	default:
		return uint16(v)
	}
}

// Quantized is the terminal integer raster of one channel.
type Quantized struct {
	shape Shape
	depth BitDepth
	pix   []uint16
}

// NewQuantized returns an all-zero raster of the given shape and depth.
func NewQuantized(shape Shape, depth BitDepth) (Quantized, error) {
	if !depth.Valid() {
		return Quantized{}, fmt.Errorf("%w: %d", ErrInvalidBitDepth, depth)
	}
	return Quantized{shape: shape, depth: depth, pix: make([]uint16, shape.Len())}, nil
}

// Shape returns the raster dimensions.
func (q Quantized) Shape() Shape { return q.shape }

// Depth returns the bit depth of the samples.
func (q Quantized) Depth() BitDepth { return q.depth }

// Set quantizes v into the pixel at row-major index i.
func (q *Quantized) Set(i int, v float64) { q.pix[i] = q.depth.Quantize(v) }

// At returns the sample at row r, column c.
func (q Quantized) At(r, c int) uint16 { return q.pix[r*q.shape.Cols+c] }

// Uint16 returns a row-major copy of the samples.
func (q Quantized) Uint16() []uint16 {
	out := make([]uint16, len(q.pix))
	copy(out, q.pix)
	return out
}

// Uint8 returns the samples narrowed to bytes. It fails for 16-bit rasters.
func (q Quantized) Uint8() ([]uint8, error) {
	if q.depth != Depth8 {
		return nil, fmt.Errorf("%w: %d-bit raster has no 8-bit view", ErrInvalidBitDepth, q.depth)
	}
	out := make([]uint8, len(q.pix))
	for i, v := range q.pix {
		out[i] = uint8(v)
	}
	return out, nil
}
