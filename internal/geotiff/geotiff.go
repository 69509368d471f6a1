// Package geotiff wraps the GDAL-backed file readers. Keeping them out of
// the raster package lets the pure grid math build without GDAL headers.
package geotiff

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/raster"
)

// Read loads one band of a georeferenced raster into an IndexRaster. band is
// 1-based. epsg identifies the raster's reference frame; the mosaic
// collaborator writes it alongside the file. No-data pixels become NaN.
func Read(path string, band int, epsg int) (*raster.IndexRaster, error) {
	godal.RegisterInternalDrivers()

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer ds.Close()

	bands := ds.Bands()
	if band < 1 || band > len(bands) {
		return nil, fmt.Errorf("raster %s has %d bands, requested band %d", path, len(bands), band)
	}
	b := bands[band-1]

	transform, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to read geotransform of %s: %w", path, err)
	}

	width := ds.Structure().SizeX
	height := ds.Structure().SizeY
	nodata, hasNodata := b.NoData()

	values := make([][]float64, height)
	for y := 0; y < height; y++ {
		values[y] = make([]float64, width)
		if err := b.Read(0, y, values[y], width, 1); err != nil {
			return nil, fmt.Errorf("failed to read row %d of %s: %w", y, path, err)
		}
		for x, v := range values[y] {
			if hasNodata && v == nodata {
				values[y][x] = math.NaN()
			} else if math.IsInf(v, 0) {
				values[y][x] = math.NaN()
			}
		}
	}

	return &raster.IndexRaster{Values: values, Transform: raster.Affine(transform), EPSG: epsg}, nil
}

// ReadNDVI loads RED and NIR band rasters and computes their NDVI. Both
// files must share the same grid; the mosaic step guarantees that.
func ReadNDVI(redPath, nirPath string, epsg int) (*raster.IndexRaster, error) {
	red, err := Read(redPath, 1, epsg)
	if err != nil {
		return nil, err
	}
	nir, err := Read(nirPath, 1, epsg)
	if err != nil {
		return nil, err
	}
	return raster.ComputeNDVI(nir, red)
}
