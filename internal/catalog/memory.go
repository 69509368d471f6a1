package catalog

import (
	"context"
	"sort"
	"time"
)

// MemorySource is an in-memory Source, used by tests and by callers that
// already hold the scene metadata (e.g. a saved selection report).
type MemorySource struct {
	records []SceneRecord
}

func NewMemorySource(records []SceneRecord) *MemorySource {
	sorted := append([]SceneRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].AcquisitionTime.Before(sorted[j].AcquisitionTime)
	})
	return &MemorySource{records: sorted}
}

func (m *MemorySource) Query(_ context.Context, from, to time.Time, maxCloudCover float64, tiles []string) ([]SceneRecord, error) {
	wanted := make(map[string]bool, len(tiles))
	for _, t := range tiles {
		wanted[t] = true
	}

	matched := []SceneRecord{}
	for _, record := range m.records {
		if record.AcquisitionTime.Before(from) || record.AcquisitionTime.After(to) {
			continue
		}
		if record.CloudCoverPct > maxCloudCover {
			continue
		}
		if len(wanted) > 0 && !wanted[record.TileID] {
			continue
		}
		matched = append(matched, record)
	}
	return matched, nil
}
