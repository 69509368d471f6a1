package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// SceneRecord is one satellite acquisition as reported by the catalog.
// Records are immutable once built.
type SceneRecord struct {
	ID              string
	Name            string
	TileID          string
	AcquisitionTime time.Time
	CloudCoverPct   float64
	Footprint       orb.Geometry
}

// Source answers filtered scene queries. Implementations must not silently
// drop scenes: a backend failure surfaces as SourceUnavailableError, never as
// an empty result.
type Source interface {
	Query(ctx context.Context, from, to time.Time, maxCloudCover float64, tiles []string) ([]SceneRecord, error)
}

// TileFromProductName extracts the tile code from a product name of the form
// S2X_MSILXX_YYYYMMDDTHHMMSS_NXXXX_RXXX_TXXXXX_....
func TileFromProductName(name string) (string, bool) {
	parts := strings.Split(name, "_")
	if len(parts) < 6 || !strings.HasPrefix(parts[5], "T") {
		return "", false
	}
	return parts[5], true
}

// Validate checks that all required fields are present, so missing-key
// surprises fail here at the catalog boundary instead of deep in matching.
func (r SceneRecord) Validate() error {
	if r.ID == "" {
		return &MalformedInputError{Field: "Id", Reason: "missing product id"}
	}
	if r.TileID == "" {
		return &MalformedInputError{Field: "Name", Reason: fmt.Sprintf("cannot derive tile id from product name %q", r.Name)}
	}
	if r.AcquisitionTime.IsZero() {
		return &MalformedInputError{Field: "ContentDate", Reason: "missing acquisition time"}
	}
	if r.CloudCoverPct < 0 || r.CloudCoverPct > 100 {
		return &MalformedInputError{Field: "cloudCover", Reason: fmt.Sprintf("cloud cover %f outside [0,100]", r.CloudCoverPct)}
	}
	return nil
}
