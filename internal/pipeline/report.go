package pipeline

import (
	"fmt"
	"strings"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/raster"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/vector"
)

// NoCandidateError marks a year with no acquisition pass covering the
// required tile group. It is a reportable gap, not a failure.
type NoCandidateError struct {
	Year   int
	Reason string
}

func (e *NoCandidateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%d: %s", e.Year, e.Reason)
	}
	return fmt.Sprintf("no candidate pair covers the tile group in %d", e.Year)
}

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeGap       Outcome = "gap"
	OutcomeFailed    Outcome = "failed"
)

// YearStatus records how one year's run ended. Gaps (valid absence of data)
// are kept distinct from failures (broken invariants, unavailable sources).
type YearStatus struct {
	Year     int
	Outcome  Outcome
	Reason   string
	Features int
	TotalKm2 float64
}

// YearlySurface is one year's final polygon set in the canonical frame. Mask
// is the cleaned land mask the polygons were traced from, kept around for
// preview rendering.
type YearlySurface struct {
	Year     int
	EPSG     int
	Features []vector.PolygonFeature
	TotalKm2 float64
	Mask     *raster.BinaryMask
}

// Report is the result of a multi-year run. Years and Surfaces are ordered
// by year; Surfaces holds only completed years.
type Report struct {
	RunID    string
	Years    []YearStatus
	Surfaces []YearlySurface
}

func (r *Report) Completed() int {
	n := 0
	for _, y := range r.Years {
		if y.Outcome == OutcomeCompleted {
			n++
		}
	}
	return n
}

func (r *Report) Failed() []YearStatus {
	failed := []YearStatus{}
	for _, y := range r.Years {
		if y.Outcome == OutcomeFailed {
			failed = append(failed, y)
		}
	}
	return failed
}

// Summary renders a short human-readable digest for logs and notifications.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d/%d year(s) completed\n", r.RunID, r.Completed(), len(r.Years))
	for _, y := range r.Years {
		switch y.Outcome {
		case OutcomeCompleted:
			fmt.Fprintf(&b, "  %d: %d surface(s), %.4f km2\n", y.Year, y.Features, y.TotalKm2)
		case OutcomeGap:
			fmt.Fprintf(&b, "  %d: gap (%s)\n", y.Year, y.Reason)
		case OutcomeFailed:
			fmt.Fprintf(&b, "  %d: FAILED (%s)\n", y.Year, y.Reason)
		}
	}
	return b.String()
}
