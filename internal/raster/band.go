package raster

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShapeMismatch is returned when bands combined in one computation
	// do not share identical dimensions.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrEmptyBand is returned when a band is built with zero rows or columns.
	ErrEmptyBand = errors.New("empty band")
)

// Shape is the spatial size of a raster in pixels.
type Shape struct {
	Rows int
	Cols int
}

// Len returns the number of pixels covered by the shape.
func (s Shape) Len() int { return s.Rows * s.Cols }

func (s Shape) String() string { return fmt.Sprintf("%dx%d", s.Rows, s.Cols) }

// SameShape returns ErrShapeMismatch when any shape differs from the first.
func SameShape(shapes ...Shape) error {
	for i := 1; i < len(shapes); i++ {
		if shapes[i] != shapes[0] {
			return fmt.Errorf("%w: %s vs %s", ErrShapeMismatch, shapes[0], shapes[i])
		}
	}
	return nil
}

// Band is an immutable two-dimensional grid of physical measurements
// (Kelvin, percent reflectance). Transforms never mutate a Band; they
// return new values.
type Band struct {
	m *mat.Dense
}

// NewBand builds a rows x cols band from row-major samples. The samples
// are copied.
func NewBand(rows, cols int, data []float64) (Band, error) {
	if rows <= 0 || cols <= 0 {
		return Band{}, fmt.Errorf("%w: %dx%d", ErrEmptyBand, rows, cols)
	}
	if len(data) != rows*cols {
		return Band{}, fmt.Errorf("%w: %d samples for %dx%d", ErrShapeMismatch, len(data), rows, cols)
	}
	values := make([]float64, len(data))
	copy(values, data)
	return Band{m: mat.NewDense(rows, cols, values)}, nil
}

// FromRows builds a band from a slice of equally long rows.
func FromRows(rows [][]float64) (Band, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Band{}, ErrEmptyBand
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return Band{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return Band{m: mat.NewDense(len(rows), cols, data)}, nil
}

// Constant returns a rows x cols band with every pixel set to v.
func Constant(rows, cols int, v float64) (Band, error) {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = v
	}
	return NewBand(rows, cols, data)
}

// Shape returns the band dimensions. The zero Band has shape 0x0.
func (b Band) Shape() Shape {
	if b.m == nil {
		return Shape{}
	}
	r, c := b.m.Dims()
	return Shape{Rows: r, Cols: c}
}

// At returns the sample at row r, column c.
func (b Band) At(r, c int) float64 { return b.m.At(r, c) }

// Values returns a row-major copy of the samples.
func (b Band) Values() []float64 {
	if b.m == nil {
		return nil
	}
	raw := b.m.RawMatrix()
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for r := 0; r < raw.Rows; r++ {
		out = append(out, raw.Data[r*raw.Stride:r*raw.Stride+raw.Cols]...)
	}
	return out
}

// Apply returns a new band with fn applied to every sample.
func (b Band) Apply(fn func(v float64) float64) Band {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return fn(v) }, b.m)
	return Band{m: &out}
}

// ToField maps every sample through fn into a Field. fn reports whether
// the mapped value is defined.
func (b Band) ToField(fn func(v float64) (float64, bool)) Field {
	shape := b.Shape()
	f := NewField(shape)
	for r := 0; r < shape.Rows; r++ {
		for c := 0; c < shape.Cols; c++ {
			if v, ok := fn(b.m.At(r, c)); ok {
				f.Set(r*shape.Cols+c, v)
			}
		}
	}
	return f
}
