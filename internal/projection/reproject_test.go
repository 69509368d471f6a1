package projection

import (
	"fmt"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/vector"
)

func squareFeature(side float64) vector.PolygonFeature {
	return vector.PolygonFeature{
		Geometry: orb.Polygon{orb.Ring{
			{0, 0}, {side, 0}, {side, side}, {0, side}, {0, 0},
		}},
		AreaM2:       side * side,
		Year:         2023,
		SourceMaskID: "2023_test",
	}
}

func TestReprojectWith(t *testing.T) {
	t.Parallel()

	t.Run("areas are recomputed in the target frame", func(t *testing.T) {
		t.Parallel()
		// uniform 2x scale quadruples areas
		scale := func(xs, ys []float64) error {
			for i := range xs {
				xs[i] *= 2
				ys[i] *= 2
			}
			return nil
		}

		out, err := reprojectWith(scale, []vector.PolygonFeature{squareFeature(10)}, 4326, 32198)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.InDelta(t, 400.0, out[0].AreaM2, 1e-9)
		assert.Equal(t, 2023, out[0].Year)
		assert.Equal(t, "2023_test", out[0].SourceMaskID)
	})

	t.Run("input features are untouched", func(t *testing.T) {
		t.Parallel()
		shift := func(xs, ys []float64) error {
			for i := range xs {
				xs[i] += 100
			}
			return nil
		}

		in := squareFeature(10)
		_, err := reprojectWith(shift, []vector.PolygonFeature{in}, 4326, 32198)
		require.NoError(t, err)
		assert.Equal(t, orb.Point{0, 0}, in.Geometry[0][0])
	})

	t.Run("transform failure surfaces as reprojection error", func(t *testing.T) {
		t.Parallel()
		broken := func(xs, ys []float64) error {
			return fmt.Errorf("proj pipeline exploded")
		}

		_, err := reprojectWith(broken, []vector.PolygonFeature{squareFeature(10)}, 4326, 32198)
		var reprojErr *ReprojectionError
		require.ErrorAs(t, err, &reprojErr)
		assert.Equal(t, 4326, reprojErr.SourceEPSG)
		assert.Equal(t, 32198, reprojErr.TargetEPSG)
	})

	t.Run("non-finite vertex is rejected", func(t *testing.T) {
		t.Parallel()
		poison := func(xs, ys []float64) error {
			xs[0] = math.NaN()
			return nil
		}

		_, err := reprojectWith(poison, []vector.PolygonFeature{squareFeature(10)}, 4326, 32198)
		var reprojErr *ReprojectionError
		require.ErrorAs(t, err, &reprojErr)
	})

	t.Run("collapsed polygon is rejected", func(t *testing.T) {
		t.Parallel()
		collapse := func(xs, ys []float64) error {
			for i := range xs {
				xs[i], ys[i] = 0, 0
			}
			return nil
		}

		_, err := reprojectWith(collapse, []vector.PolygonFeature{squareFeature(10)}, 4326, 32198)
		var reprojErr *ReprojectionError
		require.ErrorAs(t, err, &reprojErr)
	})
}

func TestFilterByArea(t *testing.T) {
	t.Parallel()

	features := []vector.PolygonFeature{
		squareFeature(100), // 10000 m2
		squareFeature(10),  // 100 m2
	}

	kept := FilterByArea(features, 3000)
	require.Len(t, kept, 1)
	assert.InDelta(t, 10000.0, kept[0].AreaM2, 1e-9)

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		again := FilterByArea(kept, 3000)
		assert.Equal(t, kept, again)
	})

	t.Run("area is recomputed from geometry", func(t *testing.T) {
		t.Parallel()
		stale := squareFeature(100)
		stale.AreaM2 = 1 // lies about its size
		kept := FilterByArea([]vector.PolygonFeature{stale}, 3000)
		require.Len(t, kept, 1)
		assert.InDelta(t, 10000.0, kept[0].AreaM2, 1e-9)
	})
}
