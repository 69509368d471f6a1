package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/catalog"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/log"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/tides"
)

// ConfigurationError reports an invalid window configuration.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("matcher configuration invalid: %s", e.Reason)
}

// MatchCandidate pairs a scene with the tidal extremum it was acquired close
// to. Invariant: TimeDelta <= the configured acceptance window.
type MatchCandidate struct {
	Scene     catalog.SceneRecord
	Extremum  tides.TidalSample
	TimeDelta time.Duration
}

// Matcher finds scenes acquired within the acceptance window of a tidal
// extremum. The search window bounds how far around each extremum the catalog
// is queried and is always at least as wide as the acceptance window.
type Matcher struct {
	source   catalog.Source
	series   *tides.Series
	settings properties.Settings
}

func NewMatcher(source catalog.Source, series *tides.Series, settings properties.Settings) (*Matcher, error) {
	if settings.AcceptanceWindow > settings.SearchWindow {
		return nil, &ConfigurationError{
			Reason: fmt.Sprintf("acceptance window %s exceeds search window %s",
				settings.AcceptanceWindow, settings.SearchWindow),
		}
	}
	return &Matcher{source: source, series: series, settings: settings}, nil
}

// Match returns every valid candidate for the analysis period [from, to].
// The result is deliberately unsorted; ranking is the selector's job.
func (m *Matcher) Match(ctx context.Context, from, to time.Time) ([]MatchCandidate, error) {
	candidates := []MatchCandidate{}

	for extremum := range m.series.Extrema(from, to) {
		scenes, err := m.source.Query(ctx,
			extremum.Timestamp.Add(-m.settings.SearchWindow),
			extremum.Timestamp.Add(m.settings.SearchWindow),
			m.settings.MaxCloudCover,
			m.settings.RequiredTiles,
		)
		if err != nil {
			return nil, fmt.Errorf("catalog query around extremum %s failed: %w",
				extremum.Timestamp.Format("2006-01-02 15:04"), err)
		}

		for _, scene := range scenes {
			delta := scene.AcquisitionTime.Sub(extremum.Timestamp)
			if delta < 0 {
				delta = -delta
			}
			if delta > m.settings.AcceptanceWindow {
				continue
			}
			candidates = append(candidates, MatchCandidate{
				Scene:     scene,
				Extremum:  extremum,
				TimeDelta: delta,
			})
		}
	}

	log.Infow("temporal matching complete", "from", from, "to", to, "candidates", len(candidates))
	return candidates, nil
}
