package domain

import (
	"math"
	"testing"

	"github.com/couchcryptid/fire-index-etl/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grid(t *testing.T, rows ...[]float64) raster.Band {
	t.Helper()
	b, err := raster.FromRows(rows)
	require.NoError(t, err)
	return b
}

func uniform(t *testing.T, rows, cols int, v float64) raster.Band {
	t.Helper()
	b, err := raster.Constant(rows, cols, v)
	require.NoError(t, err)
	return b
}

func fieldFrom(values []float64, defined []bool) raster.Field {
	f := raster.NewField(raster.Shape{Rows: 1, Cols: len(values)})
	for i, v := range values {
		if defined == nil || defined[i] {
			f.Set(i, v)
		}
	}
	return f
}

func TestComputeIndexFromRaw(t *testing.T) {
	thermal := uniform(t, 2, 2, 293.15)
	hot := grid(t, []float64{280, 300}, []float64{320, 340})

	t.Run("16-bit", func(t *testing.T) {
		p := DefaultParams()
		idx, err := ComputeIndexFromRaw(thermal, hot, p)
		require.NoError(t, err)

		assert.Equal(t, raster.Depth16, idx.Depth())
		assert.Equal(t, []uint16{0, 2260, 29974, 65535}, idx.Uint16())
	})

	t.Run("8-bit", func(t *testing.T) {
		p := DefaultParams()
		p.BitDepth = raster.Depth8
		idx, err := ComputeIndexFromRaw(thermal, hot, p)
		require.NoError(t, err)

		px, err := idx.Uint8()
		require.NoError(t, err)
		assert.Equal(t, []uint8{0, 8, 116, 255}, px)
	})

	t.Run("shape mismatch fails first", func(t *testing.T) {
		_, err := ComputeIndexFromRaw(uniform(t, 2, 2, 300), uniform(t, 2, 3, 300), DefaultParams())
		require.ErrorIs(t, err, raster.ErrShapeMismatch)
		assert.Contains(t, err.Error(), "fire index")
	})

	t.Run("invalid params", func(t *testing.T) {
		p := DefaultParams()
		p.Gamma = 0
		_, err := ComputeIndexFromRaw(thermal, hot, p)
		assert.ErrorIs(t, err, ErrInvalidGamma)

		p = DefaultParams()
		p.BitDepth = 12
		_, err = ComputeIndexFromRaw(thermal, hot, p)
		assert.ErrorIs(t, err, raster.ErrInvalidBitDepth)
	})
}

func TestComputeIndexFromRaw_UniformSceneIsUniform(t *testing.T) {
	idx, err := ComputeIndexFromRaw(uniform(t, 2, 2, 293.15), uniform(t, 2, 2, 320), DefaultParams())
	require.NoError(t, err)

	px := idx.Uint16()
	require.Len(t, px, 4)
	for _, v := range px {
		assert.Equal(t, px[0], v)
	}
	// A uniform ratio has an empty range, which renders as no signal.
	assert.Equal(t, uint16(0), px[0])
}

func TestComputeIndexFromRaw_OutputRange(t *testing.T) {
	thermal := grid(t, []float64{250, 260, 270}, []float64{280, 290, math.NaN()})
	hot := grid(t, []float64{200, 290, 310}, []float64{330, 400, 300})

	for _, depth := range []raster.BitDepth{raster.Depth8, raster.Depth16} {
		p := DefaultParams()
		p.BitDepth = depth
		idx, err := ComputeIndexFromRaw(thermal, hot, p)
		require.NoError(t, err)

		assert.Equal(t, depth, idx.Depth())
		for _, v := range idx.Uint16() {
			assert.LessOrEqual(t, float64(v), depth.Max())
		}
		assert.Equal(t, uint16(0), idx.At(1, 2), "undefined thermal pixel renders as 0")
	}
}

func TestComputeIndex_Idempotent(t *testing.T) {
	thermal := PrepareThermalIR(grid(t, []float64{290, 295}, []float64{300, 305}))
	hot := PrepareHotIR(grid(t, []float64{300, 310}, []float64{290, 330}))

	first, err := ComputeIndex(thermal, hot, DefaultParams())
	require.NoError(t, err)
	second, err := ComputeIndex(thermal, hot, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeIndex_EqualConstantBandsAreZero(t *testing.T) {
	thermal := fieldFrom([]float64{500, 500, 500, 500}, nil)
	hot := fieldFrom([]float64{500, 500, 500, 500}, nil)

	idx, err := ComputeIndex(thermal, hot, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 0, 0, 0}, idx.Uint16())
}

func TestSignedRatio(t *testing.T) {
	thermal := fieldFrom([]float64{1, 3, 1, 2, 5}, []bool{true, true, true, false, true})
	hot := fieldFrom([]float64{3, 1, -1, 2, 5}, nil)

	ratio, err := SignedRatio(thermal, hot)
	require.NoError(t, err)

	v, ok := ratio.At(0)
	require.True(t, ok)
	assert.Equal(t, 0.5, v, "hot-dominant pixels are positive")

	v, ok = ratio.At(1)
	require.True(t, ok)
	assert.Equal(t, -0.5, v)

	_, ok = ratio.At(2)
	assert.False(t, ok, "zero denominator is undefined")

	_, ok = ratio.At(3)
	assert.False(t, ok, "undefined input stays undefined")

	v, ok = ratio.At(4)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)

	_, err = SignedRatio(thermal, fieldFrom([]float64{1}, nil))
	assert.ErrorIs(t, err, raster.ErrShapeMismatch)
}

func TestComputeExtrema(t *testing.T) {
	ext, ok := ComputeExtrema(fieldFrom([]float64{0.2, -5, 0.7, 9}, []bool{true, false, true, false}))
	require.True(t, ok)
	assert.Equal(t, Extrema{Min: 0.2, Max: 0.7}, ext)
	assert.False(t, ext.Degenerate())

	_, ok = ComputeExtrema(fieldFrom([]float64{1, 2}, []bool{false, false}))
	assert.False(t, ok)
}

func TestApplyIndexMapping_ExternalExtrema(t *testing.T) {
	p := DefaultParams()
	p.Gamma = 1
	ratio := fieldFrom([]float64{-1, 0, 1, -2, 2}, nil)

	idx, err := ApplyIndexMapping(ratio, Extrema{Min: -1, Max: 1}, p)
	require.NoError(t, err)

	assert.Equal(t, []uint16{0, 32767, 65535, 0, 65535}, idx.Uint16())
}

func TestApplyIndexMapping_DegenerateRange(t *testing.T) {
	idx, err := ApplyIndexMapping(fieldFrom([]float64{0.3, 0.3}, nil), Extrema{Min: 0.3, Max: 0.3}, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 0}, idx.Uint16())
}
