package selection

import (
	"sort"
	"strings"
	"time"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/catalog"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/log"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/matching"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/tides"
)

// YearlyPairSelection is the chosen acquisition pass for one year: one scene
// per required tile, all acquired within the intra-pair tolerance of each
// other. Scenes are ordered by tile id so repeated runs emit identical
// output.
type YearlyPairSelection struct {
	Year          int
	TileGroup     []string
	Scenes        []catalog.SceneRecord
	Extremum      tides.TidalSample
	TimeDelta     time.Duration // largest scene-to-extremum delta of the pass
	CombinedCloud float64       // max cloud cover across the pass
	PairSpread    time.Duration // widest acquisition-time gap inside the pass
}

// SelectBestPairs groups candidates by year, slices each year's scenes into
// acquisition passes no wider than the intra-pair tolerance, and keeps the
// best complete pass per year. Ranking, in priority order: lowest combined
// cloud cover (max of the pass), smallest time delta to the extremum,
// smallest intra-pass spread, lexicographic scene ids. Years where no pass
// covers every required tile are absent from the result; that is a
// reportable gap, not an error.
func SelectBestPairs(candidates []matching.MatchCandidate, settings properties.Settings) map[int]YearlyPairSelection {
	byYear := map[int][]matching.MatchCandidate{}
	for _, c := range dedupeScenes(candidates) {
		year := c.Scene.AcquisitionTime.Year()
		byYear[year] = append(byYear[year], c)
	}

	selections := map[int]YearlyPairSelection{}
	for year, yearCandidates := range byYear {
		passes := clusterPasses(yearCandidates, settings.IntraPairTolerance)

		best := YearlyPairSelection{}
		found := false
		for _, pass := range passes {
			selection, ok := assemblePair(year, pass, settings.RequiredTiles)
			if !ok {
				continue
			}
			if !found || betterPair(selection, best) {
				best = selection
				found = true
			}
		}

		if found {
			selections[year] = best
			log.Infow("pair selected",
				"year", year,
				"cloud", best.CombinedCloud,
				"delta", best.TimeDelta,
				"scenes", sceneIDs(best.Scenes))
		} else {
			log.Warnf("no complete tile coverage for year %d, skipping", year)
		}
	}
	return selections
}

// dedupeScenes keeps one candidate per scene id: the one closest to its
// extremum, earliest extremum on a tie.
func dedupeScenes(candidates []matching.MatchCandidate) []matching.MatchCandidate {
	best := map[string]matching.MatchCandidate{}
	order := []string{}
	for _, c := range candidates {
		existing, ok := best[c.Scene.ID]
		if !ok {
			best[c.Scene.ID] = c
			order = append(order, c.Scene.ID)
			continue
		}
		if c.TimeDelta < existing.TimeDelta ||
			(c.TimeDelta == existing.TimeDelta && c.Extremum.Timestamp.Before(existing.Extremum.Timestamp)) {
			best[c.Scene.ID] = c
		}
	}

	deduped := make([]matching.MatchCandidate, 0, len(order))
	for _, id := range order {
		deduped = append(deduped, best[id])
	}
	return deduped
}

// clusterPasses slices candidates into acquisition passes: scenes sorted by
// acquisition time, then one window per starting scene holding every scene
// within tolerance of it. Chained scenes that drift further apart than the
// tolerance end up in separate windows, so any pair assembled from one window
// keeps its scenes within tolerance of each other. Windows fully contained in
// the previous one are skipped; the wider window already carries their scenes.
func clusterPasses(candidates []matching.MatchCandidate, tolerance time.Duration) [][]matching.MatchCandidate {
	sorted := append([]matching.MatchCandidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		ti, tj := sorted[i].Scene.AcquisitionTime, sorted[j].Scene.AcquisitionTime
		if ti.Equal(tj) {
			return sorted[i].Scene.ID < sorted[j].Scene.ID
		}
		return ti.Before(tj)
	})

	passes := [][]matching.MatchCandidate{}
	prevEnd := -1
	for i := range sorted {
		end := i
		for end+1 < len(sorted) &&
			sorted[end+1].Scene.AcquisitionTime.Sub(sorted[i].Scene.AcquisitionTime) <= tolerance {
			end++
		}
		if end > prevEnd {
			passes = append(passes, sorted[i:end+1])
			prevEnd = end
		}
	}
	return passes
}

// assemblePair picks the best scene per required tile inside a pass. Partial
// coverage is absent coverage: if any required tile is missing the pass is
// discarded.
func assemblePair(year int, pass []matching.MatchCandidate, requiredTiles []string) (YearlyPairSelection, bool) {
	perTile := map[string]matching.MatchCandidate{}
	for _, c := range pass {
		existing, ok := perTile[c.Scene.TileID]
		if !ok || betterScene(c, existing) {
			perTile[c.Scene.TileID] = c
		}
	}

	chosen := make([]matching.MatchCandidate, 0, len(requiredTiles))
	tiles := append([]string(nil), requiredTiles...)
	sort.Strings(tiles)
	for _, tile := range tiles {
		c, ok := perTile[tile]
		if !ok {
			return YearlyPairSelection{}, false
		}
		chosen = append(chosen, c)
	}

	selection := YearlyPairSelection{
		Year:      year,
		TileGroup: tiles,
		Extremum:  chosen[0].Extremum,
	}
	var earliest, latest time.Time
	for i, c := range chosen {
		selection.Scenes = append(selection.Scenes, c.Scene)
		if c.Scene.CloudCoverPct > selection.CombinedCloud {
			selection.CombinedCloud = c.Scene.CloudCoverPct
		}
		if c.TimeDelta > selection.TimeDelta {
			selection.TimeDelta = c.TimeDelta
		}
		t := c.Scene.AcquisitionTime
		if i == 0 || t.Before(earliest) {
			earliest = t
		}
		if i == 0 || t.After(latest) {
			latest = t
		}
	}
	selection.PairSpread = latest.Sub(earliest)
	return selection, true
}

func betterScene(a, b matching.MatchCandidate) bool {
	if a.Scene.CloudCoverPct != b.Scene.CloudCoverPct {
		return a.Scene.CloudCoverPct < b.Scene.CloudCoverPct
	}
	if a.TimeDelta != b.TimeDelta {
		return a.TimeDelta < b.TimeDelta
	}
	return a.Scene.ID < b.Scene.ID
}

func betterPair(a, b YearlyPairSelection) bool {
	if a.CombinedCloud != b.CombinedCloud {
		return a.CombinedCloud < b.CombinedCloud
	}
	if a.TimeDelta != b.TimeDelta {
		return a.TimeDelta < b.TimeDelta
	}
	if a.PairSpread != b.PairSpread {
		return a.PairSpread < b.PairSpread
	}
	return strings.Join(sceneIDs(a.Scenes), "_") < strings.Join(sceneIDs(b.Scenes), "_")
}

func sceneIDs(scenes []catalog.SceneRecord) []string {
	ids := make([]string, 0, len(scenes))
	for _, s := range scenes {
		ids = append(ids, s.ID)
	}
	return ids
}
