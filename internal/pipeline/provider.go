package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/geotiff"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/raster"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/selection"
)

// FileRasterProvider reads per-year mosaics written by the external
// download/mosaic step. It looks for a precomputed index raster
// <year>_ndvi.tif first and falls back to computing NDVI from the
// <year>_B04.tiff / <year>_B08.tiff band mosaics.
type FileRasterProvider struct {
	Dir  string
	EPSG int
}

func (p *FileRasterProvider) IndexRaster(_ context.Context, sel selection.YearlyPairSelection) (*raster.IndexRaster, error) {
	ndviPath := filepath.Join(p.Dir, fmt.Sprintf("%d_ndvi.tif", sel.Year))
	if _, err := os.Stat(ndviPath); err == nil {
		return geotiff.Read(ndviPath, 1, p.EPSG)
	}

	redPath := filepath.Join(p.Dir, fmt.Sprintf("%d_B04.tiff", sel.Year))
	nirPath := filepath.Join(p.Dir, fmt.Sprintf("%d_B08.tiff", sel.Year))
	if _, err := os.Stat(redPath); err != nil {
		return nil, fmt.Errorf("no mosaic found for %d in %s: %w", sel.Year, p.Dir, err)
	}
	return geotiff.ReadNDVI(redPath, nirPath, p.EPSG)
}
