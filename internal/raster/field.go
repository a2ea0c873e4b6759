package raster

// Field is an intermediate float grid that carries an explicit
// defined/undefined marker per pixel. Undefined pixels hold 0 and are
// skipped by reductions; they never rely on NaN propagation.
type Field struct {
	shape   Shape
	values  []float64
	defined []bool
}

// NewField returns a field of the given shape with every pixel undefined.
func NewField(shape Shape) Field {
	return Field{
		shape:   shape,
		values:  make([]float64, shape.Len()),
		defined: make([]bool, shape.Len()),
	}
}

// Shape returns the field dimensions.
func (f Field) Shape() Shape { return f.shape }

// Len returns the number of pixels.
func (f Field) Len() int { return len(f.values) }

// At returns the value at row-major index i and whether it is defined.
func (f Field) At(i int) (float64, bool) {
	return f.values[i], f.defined[i]
}

// Set stores v at row-major index i and marks the pixel defined.
func (f *Field) Set(i int, v float64) {
	f.values[i] = v
	f.defined[i] = true
}

// Unset marks the pixel at row-major index i undefined.
func (f *Field) Unset(i int) {
	f.values[i] = 0
	f.defined[i] = false
}

// DefinedCount returns how many pixels carry a value.
func (f Field) DefinedCount() int {
	n := 0
	for _, ok := range f.defined {
		if ok {
			n++
		}
	}
	return n
}

// Map returns a new field with fn applied to each defined pixel.
// Undefined pixels stay undefined; fn may also mark a pixel undefined
// by returning false.
func (f Field) Map(fn func(v float64) (float64, bool)) Field {
	out := NewField(f.shape)
	for i, v := range f.values {
		if !f.defined[i] {
			continue
		}
		if mv, ok := fn(v); ok {
			out.Set(i, mv)
		}
	}
	return out
}
