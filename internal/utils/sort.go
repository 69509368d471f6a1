// Package utils holds small shared helpers with no home of their own.
package utils

import (
	"sort"
	"time"
)

// SortedKeys returns the map's time keys in chronological order, so callers
// iterating a keyed-by-day map print stable output.
func SortedKeys[T any](m map[time.Time]T) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Before(keys[j])
	})
	return keys
}
