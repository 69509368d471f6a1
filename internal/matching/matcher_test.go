package matching

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/catalog"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/tides"
)

func testSettings() properties.Settings {
	settings := properties.DefaultSettings()
	settings.RequiredTiles = []string{"T20TNT", "T20TPT"}
	return settings
}

// seriesWithExtremum builds a series whose single maximum of 1.956 sits at
// 2023-06-10 04:00 UTC.
func seriesWithExtremum(t *testing.T) *tides.Series {
	t.Helper()
	base := time.Date(2023, 6, 10, 3, 0, 0, 0, time.UTC)
	series, err := tides.NewSeries([]tides.TidalSample{
		{Timestamp: base, Height: 1.2},
		{Timestamp: base.Add(time.Hour), Height: 1.956},
		{Timestamp: base.Add(2 * time.Hour), Height: 1.3},
	})
	require.NoError(t, err)
	return series
}

func TestNewMatcher(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.SearchWindow = 30 * time.Minute
	settings.AcceptanceWindow = time.Hour

	_, err := NewMatcher(catalog.NewMemorySource(nil), seriesWithExtremum(t), settings)
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestMatch(t *testing.T) {
	t.Parallel()

	extremum := time.Date(2023, 6, 10, 4, 0, 0, 0, time.UTC)

	t.Run("scene inside the acceptance window matches", func(t *testing.T) {
		t.Parallel()
		source := catalog.NewMemorySource([]catalog.SceneRecord{
			{ID: "s1", TileID: "T20TNT", AcquisitionTime: extremum.Add(-10 * time.Minute), CloudCoverPct: 10},
		})
		settings := testSettings()
		settings.AcceptanceWindow = 30 * time.Minute
		matcher, err := NewMatcher(source, seriesWithExtremum(t), settings)
		require.NoError(t, err)

		candidates, err := matcher.Match(context.Background(), extremum.Add(-24*time.Hour), extremum.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "s1", candidates[0].Scene.ID)
		assert.Equal(t, 1.956, candidates[0].Extremum.Height)
		assert.Equal(t, 10*time.Minute, candidates[0].TimeDelta)
	})

	t.Run("scene outside the acceptance window is dropped", func(t *testing.T) {
		t.Parallel()
		source := catalog.NewMemorySource([]catalog.SceneRecord{
			{ID: "far", TileID: "T20TNT", AcquisitionTime: extremum.Add(90 * time.Minute), CloudCoverPct: 10},
		})
		matcher, err := NewMatcher(source, seriesWithExtremum(t), testSettings())
		require.NoError(t, err)

		candidates, err := matcher.Match(context.Background(), extremum.Add(-24*time.Hour), extremum.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("no extrema means no candidates", func(t *testing.T) {
		t.Parallel()
		source := catalog.NewMemorySource([]catalog.SceneRecord{
			{ID: "s1", TileID: "T20TNT", AcquisitionTime: extremum, CloudCoverPct: 10},
		})
		matcher, err := NewMatcher(source, seriesWithExtremum(t), testSettings())
		require.NoError(t, err)

		candidates, err := matcher.Match(context.Background(), extremum.Add(time.Hour), extremum.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}

func TestMatchDeltaBound(t *testing.T) {
	t.Parallel()

	// Every candidate's delta must respect the acceptance window, whatever
	// the catalog holds.
	rng := rand.New(rand.NewSource(42))
	extremum := time.Date(2023, 6, 10, 4, 0, 0, 0, time.UTC)

	records := make([]catalog.SceneRecord, 0, 200)
	for i := 0; i < 200; i++ {
		offset := time.Duration(rng.Intn(8*3600)-4*3600) * time.Second
		records = append(records, catalog.SceneRecord{
			ID:              fmt.Sprintf("scene-%03d", i),
			TileID:          "T20TNT",
			AcquisitionTime: extremum.Add(offset),
			CloudCoverPct:   float64(rng.Intn(20)),
		})
	}

	settings := testSettings()
	matcher, err := NewMatcher(catalog.NewMemorySource(records), seriesWithExtremum(t), settings)
	require.NoError(t, err)

	candidates, err := matcher.Match(context.Background(), extremum.Add(-24*time.Hour), extremum.Add(24*time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.LessOrEqual(t, c.TimeDelta, settings.AcceptanceWindow)
		assert.GreaterOrEqual(t, c.TimeDelta, time.Duration(0))
	}
}
