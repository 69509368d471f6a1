package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/selection"
)

type selectionRow struct {
	Year          int     `csv:"year"`
	TileID        string  `csv:"tile_id"`
	SceneID       string  `csv:"scene_id"`
	SceneName     string  `csv:"scene_name"`
	Acquisition   string  `csv:"acquisition_time"`
	CloudCoverPct float64 `csv:"cloud_cover_pct"`
	ExtremumTime  string  `csv:"tidal_extremum_time"`
	ExtremumLevel float64 `csv:"tidal_extremum_m"`
	DeltaMinutes  float64 `csv:"time_delta_minutes"`
}

// WriteSelectionCSV saves the per-year chosen pairs as a CSV report, one row
// per scene, years ascending. Returns the output path.
func WriteSelectionCSV(selections map[int]selection.YearlyPairSelection, name string) (string, error) {
	outputDir := filepath.Join(properties.RootPath(), "data", "result")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create result directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, name+".csv")

	years := make([]int, 0, len(selections))
	for year := range selections {
		years = append(years, year)
	}
	sort.Ints(years)

	rows := []selectionRow{}
	for _, year := range years {
		sel := selections[year]
		for _, scene := range sel.Scenes {
			rows = append(rows, selectionRow{
				Year:          year,
				TileID:        scene.TileID,
				SceneID:       scene.ID,
				SceneName:     scene.Name,
				Acquisition:   scene.AcquisitionTime.Format("2006-01-02 15:04:05"),
				CloudCoverPct: scene.CloudCoverPct,
				ExtremumTime:  sel.Extremum.Timestamp.Format("2006-01-02 15:04:05"),
				ExtremumLevel: sel.Extremum.Height,
				DeltaMinutes:  sel.TimeDelta.Minutes(),
			})
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create selection report: %w", err)
	}
	defer file.Close()

	// the tide exporter switches the global gocsv writer to ';'
	gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		return gocsv.NewSafeCSVWriter(csv.NewWriter(out))
	})

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return "", fmt.Errorf("failed to write selection report: %w", err)
	}

	fmt.Println("Selection report created successfully at", outputPath)
	return outputPath, nil
}
