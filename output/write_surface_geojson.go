package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/pipeline"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
)

// WriteSurfaceGeoJson writes one year's polygon set as a GeoJSON
// FeatureCollection attributed with year, area_m2, area_km2 and the run
// total TOT_KM2 repeated on every feature. Returns the output path.
func WriteSurfaceGeoJson(surface pipeline.YearlySurface) (string, error) {
	outputDir := filepath.Join(properties.RootPath(), "data", "result")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create result directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, fmt.Sprintf("surface_%d.geojson", surface.Year))

	collection := geojson.NewFeatureCollection()
	for _, f := range surface.Features {
		feature := geojson.NewFeature(f.Geometry)
		feature.Properties["year"] = f.Year
		feature.Properties["area_m2"] = f.AreaM2
		feature.Properties["area_km2"] = f.AreaM2 / 1e6
		feature.Properties["source_mask"] = f.SourceMaskID
		feature.Properties["TOT_KM2"] = surface.TotalKm2
		feature.Properties["epsg"] = surface.EPSG
		collection.Append(feature)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create GeoJSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(collection); err != nil {
		return "", fmt.Errorf("failed to encode GeoJSON: %w", err)
	}

	fmt.Println("GeoJSON file created successfully at", outputPath)
	return outputPath, nil
}
