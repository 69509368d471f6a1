package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/catalog"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/log"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/matching"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/projection"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/raster"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/selection"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/tides"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/vector"
)

// RasterProvider supplies the per-year index raster produced by the external
// download/mosaic collaborator for a chosen acquisition pass.
type RasterProvider interface {
	IndexRaster(ctx context.Context, sel selection.YearlyPairSelection) (*raster.IndexRaster, error)
}

// Pipeline runs the full chain per year: temporal matching, pair selection,
// thresholding, cleanup, vectorization and normalization. Years are
// independent units; one year failing never aborts the others.
type Pipeline struct {
	series   *tides.Series
	source   catalog.Source
	provider RasterProvider
	settings properties.Settings
	workers  int
}

func New(series *tides.Series, source catalog.Source, provider RasterProvider, settings properties.Settings) (*Pipeline, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		series:   series,
		source:   source,
		provider: provider,
		settings: settings,
		workers:  4,
	}, nil
}

// Run processes every calendar year overlapping [from, to] and reports each
// year's outcome. The returned error covers only run-wide problems; per-year
// failures live in the report.
func (p *Pipeline) Run(ctx context.Context, from, to time.Time) (*Report, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("analysis period ends before it starts")
	}

	years := []int{}
	for y := from.Year(); y <= to.Year(); y++ {
		years = append(years, y)
	}

	report := &Report{RunID: uuid.NewString()}
	log.Infow("pipeline run starting", "run_id", report.RunID, "years", len(years))

	var (
		mu          sync.Mutex
		progressBar = progressbar.Default(int64(len(years)), "Processing years")
	)

	wp := workerpool.New(p.workers)
	for _, year := range years {
		wp.Submit(func() {
			status, surface := p.runYear(ctx, year, from, to)

			mu.Lock()
			report.Years = append(report.Years, status)
			if surface != nil {
				report.Surfaces = append(report.Surfaces, *surface)
			}
			progressBar.Add(1)
			mu.Unlock()
		})
	}
	wp.StopWait()

	sort.Slice(report.Years, func(i, j int) bool { return report.Years[i].Year < report.Years[j].Year })
	sort.Slice(report.Surfaces, func(i, j int) bool { return report.Surfaces[i].Year < report.Surfaces[j].Year })

	log.Infow("pipeline run finished", "run_id", report.RunID, "completed", report.Completed(), "failed", len(report.Failed()))
	return report, nil
}

func (p *Pipeline) runYear(ctx context.Context, year int, from, to time.Time) (YearStatus, *YearlySurface) {
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC)
	if yearStart.Before(from) {
		yearStart = from
	}
	if yearEnd.After(to) {
		yearEnd = to
	}

	sel, err := p.selectPair(ctx, year, yearStart, yearEnd)
	if err != nil {
		var gap *NoCandidateError
		if errors.As(err, &gap) {
			return YearStatus{Year: year, Outcome: OutcomeGap, Reason: err.Error()}, nil
		}
		return YearStatus{Year: year, Outcome: OutcomeFailed, Reason: err.Error()}, nil
	}

	surface, err := p.extractSurface(ctx, sel)
	if err != nil {
		var gap *NoCandidateError
		if errors.As(err, &gap) {
			return YearStatus{Year: year, Outcome: OutcomeGap, Reason: err.Error()}, nil
		}
		log.Errorw("year failed", "year", year, "error", err)
		return YearStatus{Year: year, Outcome: OutcomeFailed, Reason: err.Error()}, nil
	}

	return YearStatus{
		Year:     year,
		Outcome:  OutcomeCompleted,
		Features: len(surface.Features),
		TotalKm2: surface.TotalKm2,
	}, surface
}

func (p *Pipeline) selectPair(ctx context.Context, year int, from, to time.Time) (selection.YearlyPairSelection, error) {
	matcher, err := matching.NewMatcher(p.source, p.series, p.settings)
	if err != nil {
		return selection.YearlyPairSelection{}, err
	}

	candidates, err := matcher.Match(ctx, from, to)
	if err != nil {
		return selection.YearlyPairSelection{}, err
	}

	selections := selection.SelectBestPairs(candidates, p.settings)
	sel, ok := selections[year]
	if !ok {
		return selection.YearlyPairSelection{}, &NoCandidateError{Year: year}
	}
	return sel, nil
}

func (p *Pipeline) extractSurface(ctx context.Context, sel selection.YearlyPairSelection) (*YearlySurface, error) {
	index, err := p.provider.IndexRaster(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("index raster for %d unavailable: %w", sel.Year, err)
	}

	smoothed, err := raster.MedianFilter(index, p.settings.MedianSize)
	if err != nil {
		return nil, err
	}

	mask, err := raster.Threshold(smoothed, nil, p.settings)
	if err != nil {
		return nil, err
	}

	cleaned := vector.Clean(mask, p.settings.MinObjectPixels)
	cleaned = vector.FillSmallHoles(cleaned, p.settings.MinHolePixels)
	cleaned, err = vector.FilterComponentsByMean(cleaned, smoothed, p.settings.MeanMin)
	if err != nil {
		return nil, err
	}

	maskID := fmt.Sprintf("%d_%s", sel.Year, strings.Join(sel.TileGroup, "-"))
	features := vector.Vectorize(cleaned, sel.Year, maskID)
	if len(features) == 0 {
		return nil, &NoCandidateError{Year: sel.Year, Reason: "no land surface left after mask cleanup"}
	}

	projected, err := projection.Reproject(features, index.EPSG, p.settings.TargetEPSG)
	if err != nil {
		return nil, err
	}

	final := projection.FilterByArea(projected, p.settings.MinAreaM2)
	if len(final) == 0 {
		return nil, &NoCandidateError{Year: sel.Year, Reason: "no surface above the minimum area"}
	}

	surface := &YearlySurface{Year: sel.Year, EPSG: p.settings.TargetEPSG, Features: final, Mask: cleaned}
	for _, f := range final {
		surface.TotalKm2 += f.AreaM2 / 1e6
	}
	return surface, nil
}
