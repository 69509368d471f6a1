package tides

import (
	"fmt"
	"iter"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TidalSample is one water-level measurement.
type TidalSample struct {
	Timestamp time.Time
	Height    float64
}

// Series is a time-ordered, read-only set of tidal samples. Once built it is
// never mutated, so it can be shared across parallel year workers without
// locking.
type Series struct {
	samples []TidalSample
}

// NewSeries sorts the given samples ascending by timestamp and collapses
// duplicate timestamps, keeping the last occurrence in input order.
func NewSeries(samples []TidalSample) (*Series, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot build a tidal series from zero samples")
	}

	byTime := make(map[time.Time]TidalSample, len(samples))
	for _, s := range samples {
		byTime[s.Timestamp] = s
	}

	sorted := make([]TidalSample, 0, len(byTime))
	for _, s := range byTime {
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	return &Series{samples: sorted}, nil
}

func (s *Series) Len() int {
	return len(s.samples)
}

// Samples returns the backing slice. Callers must treat it as read-only.
func (s *Series) Samples() []TidalSample {
	return s.samples
}

func (s *Series) Start() time.Time {
	return s.samples[0].Timestamp
}

func (s *Series) End() time.Time {
	return s.samples[len(s.samples)-1].Timestamp
}

// Extrema yields the local maxima and minima of the series whose timestamps
// fall inside [from, to]. A sample is an extremum when it is strictly higher
// (or lower) than the nearest distinct neighbor values on both sides; for a
// plateau of equal heights the earliest sample is yielded. Series endpoints
// have only one neighbor and are never extrema.
func (s *Series) Extrema(from, to time.Time) iter.Seq[TidalSample] {
	return func(yield func(TidalSample) bool) {
		n := len(s.samples)
		i := 1
		for i < n-1 {
			// extend plateau of equal heights starting at i
			j := i
			for j+1 < n && s.samples[j+1].Height == s.samples[i].Height {
				j++
			}
			if j == n-1 {
				break
			}
			prev := s.samples[i-1].Height
			next := s.samples[j+1].Height
			h := s.samples[i].Height
			peak := h > prev && h > next
			trough := h < prev && h < next
			if peak || trough {
				ts := s.samples[i].Timestamp
				if !ts.Before(from) && !ts.After(to) {
					if !yield(s.samples[i]) {
						return
					}
				}
			}
			i = j + 1
		}
	}
}

// Statistics summarizes the water levels measured inside [from, to].
type Statistics struct {
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	StdDev float64
}

func (s *Series) Statistics(from, to time.Time) (Statistics, error) {
	levels := []float64{}
	for _, sample := range s.samples {
		if sample.Timestamp.Before(from) || sample.Timestamp.After(to) {
			continue
		}
		levels = append(levels, sample.Height)
	}
	if len(levels) == 0 {
		return Statistics{}, &EmptyRangeError{From: from, To: to}
	}

	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)

	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	st := Statistics{
		Count:  len(levels),
		Mean:   stat.Mean(levels, nil),
		Median: median,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(levels) > 1 {
		st.StdDev = stat.StdDev(levels, nil)
	}
	return st, nil
}

// FilterByLevel returns the samples whose height lies in [min, max].
func (s *Series) FilterByLevel(min, max float64) []TidalSample {
	filtered := []TidalSample{}
	for _, sample := range s.samples {
		if sample.Height >= min && sample.Height <= max {
			filtered = append(filtered, sample)
		}
	}
	return filtered
}

// FilterByDate returns the samples measured inside [from, to] inclusive.
func (s *Series) FilterByDate(from, to time.Time) []TidalSample {
	filtered := []TidalSample{}
	for _, sample := range s.samples {
		if sample.Timestamp.Before(from) || sample.Timestamp.After(to) {
			continue
		}
		filtered = append(filtered, sample)
	}
	return filtered
}

// FilterByHour returns the samples measured between startHour and endHour
// inclusive, regardless of date.
func (s *Series) FilterByHour(startHour, endHour int) []TidalSample {
	filtered := []TidalSample{}
	for _, sample := range s.samples {
		h := sample.Timestamp.Hour()
		if h >= startHour && h <= endHour {
			filtered = append(filtered, sample)
		}
	}
	return filtered
}

// DailyStatistics groups the series by calendar day and summarizes each day.
func (s *Series) DailyStatistics() map[time.Time]Statistics {
	byDay := map[time.Time][]float64{}
	for _, sample := range s.samples {
		t := sample.Timestamp
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		byDay[day] = append(byDay[day], sample.Height)
	}

	daily := make(map[time.Time]Statistics, len(byDay))
	for day, levels := range byDay {
		sorted := append([]float64(nil), levels...)
		sort.Float64s(sorted)
		median := sorted[len(sorted)/2]
		if len(sorted)%2 == 0 {
			median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
		}
		st := Statistics{
			Count:  len(levels),
			Mean:   stat.Mean(levels, nil),
			Median: median,
			Min:    sorted[0],
			Max:    sorted[len(sorted)-1],
		}
		if len(levels) > 1 {
			st.StdDev = stat.StdDev(levels, nil)
		}
		daily[day] = st
	}
	return daily
}
