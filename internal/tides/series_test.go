package tides

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(hour, minute int) time.Time {
	return time.Date(2023, 6, 10, hour, minute, 0, 0, time.UTC)
}

func buildSeries(t *testing.T, heights ...float64) *Series {
	t.Helper()
	samples := make([]TidalSample, 0, len(heights))
	for i, h := range heights {
		samples = append(samples, TidalSample{Timestamp: ts(0, i*15), Height: h})
	}
	series, err := NewSeries(samples)
	require.NoError(t, err)
	return series
}

func TestNewSeries(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		_, err := NewSeries(nil)
		assert.Error(t, err)
	})

	t.Run("sorts by timestamp", func(t *testing.T) {
		t.Parallel()
		series, err := NewSeries([]TidalSample{
			{Timestamp: ts(12, 0), Height: 2},
			{Timestamp: ts(6, 0), Height: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, ts(6, 0), series.Start())
		assert.Equal(t, ts(12, 0), series.End())
	})

	t.Run("duplicate timestamps keep the last occurrence", func(t *testing.T) {
		t.Parallel()
		series, err := NewSeries([]TidalSample{
			{Timestamp: ts(6, 0), Height: 1.0},
			{Timestamp: ts(6, 0), Height: 1.5},
		})
		require.NoError(t, err)
		require.Equal(t, 1, series.Len())
		assert.Equal(t, 1.5, series.Samples()[0].Height)
	})
}

func TestExtrema(t *testing.T) {
	t.Parallel()

	collect := func(s *Series) []TidalSample {
		out := []TidalSample{}
		for e := range s.Extrema(s.Start(), s.End()) {
			out = append(out, e)
		}
		return out
	}

	t.Run("peaks and troughs are strict", func(t *testing.T) {
		t.Parallel()
		series := buildSeries(t, 1.0, 2.0, 1.0, 0.5, 1.5)
		extrema := collect(series)
		require.Len(t, extrema, 2)
		assert.Equal(t, 2.0, extrema[0].Height)
		assert.Equal(t, 0.5, extrema[1].Height)
	})

	t.Run("endpoints are never extrema", func(t *testing.T) {
		t.Parallel()
		// monotonically rising: the last sample is the highest but has
		// only one neighbor
		series := buildSeries(t, 1.0, 2.0, 3.0)
		assert.Empty(t, collect(series))
	})

	t.Run("plateau yields the earliest sample", func(t *testing.T) {
		t.Parallel()
		series := buildSeries(t, 1.0, 2.0, 2.0, 2.0, 1.0)
		extrema := collect(series)
		require.Len(t, extrema, 1)
		assert.Equal(t, ts(0, 15), extrema[0].Timestamp)
		assert.Equal(t, 2.0, extrema[0].Height)
	})

	t.Run("plateau that is not an extremum", func(t *testing.T) {
		t.Parallel()
		// shoulder: flat stretch on a rising slope
		series := buildSeries(t, 1.0, 2.0, 2.0, 3.0, 1.0)
		extrema := collect(series)
		require.Len(t, extrema, 1)
		assert.Equal(t, 3.0, extrema[0].Height)
	})

	t.Run("plateau running to the series end is excluded", func(t *testing.T) {
		t.Parallel()
		series := buildSeries(t, 1.0, 2.0, 2.0)
		assert.Empty(t, collect(series))
	})

	t.Run("range bounds are inclusive", func(t *testing.T) {
		t.Parallel()
		series := buildSeries(t, 1.0, 2.0, 1.0)
		count := 0
		for range series.Extrema(ts(0, 15), ts(0, 15)) {
			count++
		}
		assert.Equal(t, 1, count)

		count = 0
		for range series.Extrema(ts(0, 16), ts(0, 30)) {
			count++
		}
		assert.Zero(t, count)
	})
}

func TestStatistics(t *testing.T) {
	t.Parallel()

	series := buildSeries(t, 1.0, 2.0, 3.0, 4.0)

	t.Run("full range", func(t *testing.T) {
		t.Parallel()
		stats, err := series.Statistics(series.Start(), series.End())
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Count)
		assert.InDelta(t, 2.5, stats.Mean, 1e-9)
		assert.InDelta(t, 2.5, stats.Median, 1e-9)
		assert.Equal(t, 1.0, stats.Min)
		assert.Equal(t, 4.0, stats.Max)
		assert.Greater(t, stats.StdDev, 0.0)
	})

	t.Run("empty range", func(t *testing.T) {
		t.Parallel()
		_, err := series.Statistics(ts(10, 0), ts(11, 0))
		var emptyErr *EmptyRangeError
		require.ErrorAs(t, err, &emptyErr)
	})
}

func TestFilters(t *testing.T) {
	t.Parallel()

	series, err := NewSeries([]TidalSample{
		{Timestamp: time.Date(2023, 6, 10, 3, 0, 0, 0, time.UTC), Height: 0.5},
		{Timestamp: time.Date(2023, 6, 10, 9, 0, 0, 0, time.UTC), Height: 1.5},
		{Timestamp: time.Date(2023, 6, 11, 9, 0, 0, 0, time.UTC), Height: 2.5},
	})
	require.NoError(t, err)

	t.Run("by level", func(t *testing.T) {
		t.Parallel()
		filtered := series.FilterByLevel(1.0, 2.0)
		require.Len(t, filtered, 1)
		assert.Equal(t, 1.5, filtered[0].Height)
	})

	t.Run("by date", func(t *testing.T) {
		t.Parallel()
		filtered := series.FilterByDate(
			time.Date(2023, 6, 11, 0, 0, 0, 0, time.UTC),
			time.Date(2023, 6, 11, 23, 59, 0, 0, time.UTC),
		)
		require.Len(t, filtered, 1)
		assert.Equal(t, 2.5, filtered[0].Height)
	})

	t.Run("by hour", func(t *testing.T) {
		t.Parallel()
		filtered := series.FilterByHour(8, 10)
		assert.Len(t, filtered, 2)
	})
}

func TestDailyStatistics(t *testing.T) {
	t.Parallel()

	series, err := NewSeries([]TidalSample{
		{Timestamp: time.Date(2023, 6, 10, 3, 0, 0, 0, time.UTC), Height: 1.0},
		{Timestamp: time.Date(2023, 6, 10, 9, 0, 0, 0, time.UTC), Height: 3.0},
		{Timestamp: time.Date(2023, 6, 11, 9, 0, 0, 0, time.UTC), Height: 2.0},
	})
	require.NoError(t, err)

	daily := series.DailyStatistics()
	require.Len(t, daily, 2)

	day := time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, daily[day].Count)
	assert.InDelta(t, 2.0, daily[day].Mean, 1e-9)
}
