package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransform() Affine {
	// 10m pixels, north-up
	return Affine{300000, 10, 0, 5000000, 0, -10}
}

func newRaster(values [][]float64) *IndexRaster {
	return &IndexRaster{Values: values, Transform: testTransform(), EPSG: 32620}
}

func TestAffine(t *testing.T) {
	t.Parallel()

	a := testTransform()

	x, y := a.Apply(0, 0)
	assert.Equal(t, 300000.0, x)
	assert.Equal(t, 5000000.0, y)

	x, y = a.Apply(2, 3)
	assert.Equal(t, 300020.0, x)
	assert.Equal(t, 4999970.0, y)

	assert.Equal(t, 100.0, a.PixelArea())
}

func TestComputeNDVI(t *testing.T) {
	t.Parallel()

	t.Run("values and nodata", func(t *testing.T) {
		t.Parallel()
		nir := newRaster([][]float64{{0.6, 0.5, math.NaN(), 0.0}})
		red := newRaster([][]float64{{0.2, 0.5, 0.1, 0.0}})

		ndvi, err := ComputeNDVI(nir, red)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, ndvi.Values[0][0], 1e-9)
		assert.InDelta(t, 0.0, ndvi.Values[0][1], 1e-9)
		assert.True(t, math.IsNaN(ndvi.Values[0][2]))
		assert.True(t, math.IsNaN(ndvi.Values[0][3])) // zero denominator
	})

	t.Run("shape mismatch", func(t *testing.T) {
		t.Parallel()
		nir := newRaster([][]float64{{0.6, 0.5}})
		red := newRaster([][]float64{{0.2}})
		_, err := ComputeNDVI(nir, red)
		var mismatch *ShapeMismatchError
		require.ErrorAs(t, err, &mismatch)
	})
}

func TestMedianFilter(t *testing.T) {
	t.Parallel()

	t.Run("size one is a no-op", func(t *testing.T) {
		t.Parallel()
		r := newRaster([][]float64{{1, 2}, {3, 4}})
		out, err := MedianFilter(r, 1)
		require.NoError(t, err)
		assert.Equal(t, r, out)
	})

	t.Run("even size is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := MedianFilter(newRaster([][]float64{{1}}), 4)
		assert.Error(t, err)
	})

	t.Run("suppresses a single outlier", func(t *testing.T) {
		t.Parallel()
		r := newRaster([][]float64{
			{0.1, 0.1, 0.1},
			{0.1, 9.0, 0.1},
			{0.1, 0.1, 0.1},
		})
		out, err := MedianFilter(r, 3)
		require.NoError(t, err)
		assert.InDelta(t, 0.1, out.Values[1][1], 1e-9)
	})

	t.Run("nan pixels stay nan and are excluded from neighbors", func(t *testing.T) {
		t.Parallel()
		r := newRaster([][]float64{
			{0.2, math.NaN(), 0.2},
			{0.2, 0.2, 0.2},
		})
		out, err := MedianFilter(r, 3)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(out.Values[0][1]))
		assert.InDelta(t, 0.2, out.Values[1][1], 1e-9)
	})
}
