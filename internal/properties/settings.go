package properties

import (
	"fmt"
	"time"
)

// MeanFilterMode selects which mean the anti-water filter compares against
// mean_min: the whole scene, or a square neighborhood around each pixel.
type MeanFilterMode string

const (
	MeanFilterScene MeanFilterMode = "scene"
	MeanFilterLocal MeanFilterMode = "local"
)

// Settings is the full configuration surface of the pipeline. It is built
// once, validated, and passed by value into each component; nothing mutates
// it afterwards.
type Settings struct {
	// Acquisition selection
	MaxCloudCover      float64       // percent, 0-100
	SearchWindow       time.Duration // how far around an extremum the catalog is queried
	AcceptanceWindow   time.Duration // max |scene time - extremum time| for a candidate
	IntraPairTolerance time.Duration // two scenes of a pair must be within this of each other
	RequiredTiles      []string      // tile ids that together cover the study area

	// Surface extraction
	MedianSize      int            // median smoothing window before thresholding, 0 or 1 disables
	ThresholdValue  float64        // index value above which a pixel counts as land
	MeanMin         float64        // anti-water mean-index floor
	MeanMode        MeanFilterMode // scene or local mean for the mean_min gate
	MeanWindow      int            // odd window size for MeanFilterLocal
	MinObjectPixels int            // connected components below this are dropped
	MinHolePixels   int            // enclosed holes below this are filled
	MinAreaM2       float64        // polygons below this area are dropped
	TargetEPSG      int            // metric CRS used for area computation and output
}

// DefaultSettings mirrors the values the study area was calibrated with.
func DefaultSettings() Settings {
	return Settings{
		MaxCloudCover:      20,
		SearchWindow:       2 * time.Hour,
		AcceptanceWindow:   time.Hour,
		IntraPairTolerance: 30 * time.Minute,
		RequiredTiles:      []string{"T20TNT", "T20TPT"},
		MedianSize:         5,
		ThresholdValue:     0.05,
		MeanMin:            0.02,
		MeanMode:           MeanFilterScene,
		MeanWindow:         5,
		MinObjectPixels:    150,
		MinHolePixels:      150,
		MinAreaM2:          3000,
		TargetEPSG:         32198,
	}
}

func (s Settings) Validate() error {
	if s.MaxCloudCover < 0 || s.MaxCloudCover > 100 {
		return fmt.Errorf("max cloud cover must be within [0,100], got %f", s.MaxCloudCover)
	}
	if s.SearchWindow <= 0 || s.AcceptanceWindow <= 0 {
		return fmt.Errorf("search and acceptance windows must be positive")
	}
	if len(s.RequiredTiles) == 0 {
		return fmt.Errorf("at least one required tile must be configured")
	}
	if s.MeanMode != MeanFilterScene && s.MeanMode != MeanFilterLocal {
		return fmt.Errorf("unknown mean filter mode %q", s.MeanMode)
	}
	if s.MeanMode == MeanFilterLocal && (s.MeanWindow < 1 || s.MeanWindow%2 == 0) {
		return fmt.Errorf("mean window must be a positive odd number, got %d", s.MeanWindow)
	}
	if s.MedianSize > 1 && s.MedianSize%2 == 0 {
		return fmt.Errorf("median size must be odd, got %d", s.MedianSize)
	}
	if s.MinObjectPixels < 0 || s.MinHolePixels < 0 {
		return fmt.Errorf("pixel cleanup thresholds cannot be negative")
	}
	if s.MinAreaM2 < 0 {
		return fmt.Errorf("min area cannot be negative")
	}
	if s.TargetEPSG <= 0 {
		return fmt.Errorf("target EPSG code must be set")
	}
	return nil
}
