package sentinel

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/raster"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/selection"
)

// Provider feeds the surface pipeline with rasters fetched from the process
// API instead of local mosaic files. The selection's scene footprints give the
// bounding box and its acquisition times give the mosaicking window, so the
// API reproduces the pass that was selected against the tide record.
type Provider struct {
	client *ProcessClient
}

func NewProvider(ctx context.Context) (*Provider, error) {
	client, err := NewProcessClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client}, nil
}

func (p *Provider) IndexRaster(ctx context.Context, sel selection.YearlyPairSelection) (*raster.IndexRaster, error) {
	bound, err := passBound(sel)
	if err != nil {
		return nil, err
	}

	from, to := passWindow(sel)
	return p.client.FetchIndexRaster(ctx, bound, from, to)
}

func passBound(sel selection.YearlyPairSelection) (orb.Bound, error) {
	bound := orb.Bound{}
	found := false
	for _, scene := range sel.Scenes {
		if scene.Footprint == nil {
			continue
		}
		if !found {
			bound = scene.Footprint.Bound()
			found = true
		} else {
			bound = bound.Union(scene.Footprint.Bound())
		}
	}
	if !found {
		return orb.Bound{}, fmt.Errorf("no scene of year %d carries a footprint", sel.Year)
	}
	return bound, nil
}

// passWindow pads the pass's acquisition span by an hour on each side so the
// mostRecent mosaicking picks exactly the selected scenes.
func passWindow(sel selection.YearlyPairSelection) (time.Time, time.Time) {
	from := sel.Scenes[0].AcquisitionTime
	to := from
	for _, scene := range sel.Scenes[1:] {
		if scene.AcquisitionTime.Before(from) {
			from = scene.AcquisitionTime
		}
		if scene.AcquisitionTime.After(to) {
			to = scene.AcquisitionTime
		}
	}
	return from.Add(-time.Hour), to.Add(time.Hour)
}
