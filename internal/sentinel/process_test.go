package sentinel

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestRasterSize(t *testing.T) {
	t.Parallel()

	t.Run("square degrees stay square at the equator", func(t *testing.T) {
		t.Parallel()
		width, height := rasterSize(orb.Bound{Min: orb.Point{-0.5, -0.5}, Max: orb.Point{0.5, 0.5}})
		assert.Equal(t, 11100, width)
		assert.Equal(t, 11100, height)
	})

	t.Run("width shrinks with latitude", func(t *testing.T) {
		t.Parallel()
		// A degree of longitude at 47.5N spans cos(47.5) of its equatorial
		// length, so the raster narrows while the height holds.
		width, height := rasterSize(orb.Bound{Min: orb.Point{-69.5, 47}, Max: orb.Point{-68.5, 48}})
		assert.Equal(t, 11100, height)
		assert.InDelta(t, 7499, width, 1)
		assert.Less(t, width, height)
	})
}
