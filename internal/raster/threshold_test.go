package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
)

func thresholdSettings() properties.Settings {
	settings := properties.DefaultSettings()
	settings.ThresholdValue = 0.05
	settings.MeanMin = 0.02
	settings.MeanMode = properties.MeanFilterScene
	return settings
}

func TestThreshold(t *testing.T) {
	t.Parallel()

	t.Run("threshold with passing scene mean", func(t *testing.T) {
		t.Parallel()
		// scene mean 0.0475 >= 0.02, so only the bare threshold decides
		r := newRaster([][]float64{
			{-0.1, 0.06},
			{0.2, 0.03},
		})
		mask, err := Threshold(r, nil, thresholdSettings())
		require.NoError(t, err)
		assert.Equal(t, [][]bool{
			{false, true},
			{true, false},
		}, mask.Cells)
	})

	t.Run("all below threshold yields an empty mask", func(t *testing.T) {
		t.Parallel()
		r := newRaster([][]float64{
			{0.01, 0.02},
			{0.03, 0.049},
		})
		mask, err := Threshold(r, nil, thresholdSettings())
		require.NoError(t, err)
		assert.Zero(t, mask.CountSet())
	})

	t.Run("failing scene mean suppresses everything", func(t *testing.T) {
		t.Parallel()
		// isolated bright pixels over water: mean -0.17 < 0.02
		r := newRaster([][]float64{
			{-0.3, 0.06},
			{0.2, -0.64},
		})
		mask, err := Threshold(r, nil, thresholdSettings())
		require.NoError(t, err)
		assert.Zero(t, mask.CountSet())
	})

	t.Run("nodata pixels are never land", func(t *testing.T) {
		t.Parallel()
		r := newRaster([][]float64{{math.NaN(), 0.5}})
		mask, err := Threshold(r, nil, thresholdSettings())
		require.NoError(t, err)
		assert.False(t, mask.Cells[0][0])
		assert.True(t, mask.Cells[0][1])
	})

	t.Run("local mean mode gates per neighborhood", func(t *testing.T) {
		t.Parallel()
		settings := thresholdSettings()
		settings.MeanMode = properties.MeanFilterLocal
		settings.MeanWindow = 3

		// left pixel sits in a negative neighborhood, right one does not
		r := newRaster([][]float64{
			{0.06, -0.9, 0.3, 0.06},
			{-0.9, -0.9, 0.3, 0.3},
		})
		mask, err := Threshold(r, nil, settings)
		require.NoError(t, err)
		assert.False(t, mask.Cells[0][0])
		assert.True(t, mask.Cells[0][3])
	})

	t.Run("aoi restricts classification", func(t *testing.T) {
		t.Parallel()
		r := newRaster([][]float64{{0.5, 0.5}})
		aoi := NewMaskLike(r)
		aoi.Cells[0][1] = true

		mask, err := Threshold(r, aoi, thresholdSettings())
		require.NoError(t, err)
		assert.False(t, mask.Cells[0][0])
		assert.True(t, mask.Cells[0][1])
	})

	t.Run("aoi shape mismatch", func(t *testing.T) {
		t.Parallel()
		r := newRaster([][]float64{{0.5, 0.5}})
		aoi := NewMaskLike(newRaster([][]float64{{0.5}}))
		_, err := Threshold(r, aoi, thresholdSettings())
		var mismatch *ShapeMismatchError
		require.ErrorAs(t, err, &mismatch)
	})
}
