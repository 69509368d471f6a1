package vector

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/raster"
)

// PolygonFeature is one vectorized land surface. AreaM2 is only meaningful
// once the geometry lives in a metric reference frame; the normalizer
// recomputes it after reprojection.
type PolygonFeature struct {
	Geometry     orb.Polygon
	AreaM2       float64
	Year         int
	SourceMaskID string
}

type gridPoint struct {
	X, Y int
}

type gridEdge struct {
	from, to gridPoint
}

// Vectorize converts a binary mask into polygon geometries in world
// coordinates using the mask's affine transform. Touching land pixels of one
// 8-connected component merge into one polygon; enclosed water regions
// become holes. Output rings are closed, exteriors wound counter-clockwise.
func Vectorize(mask *raster.BinaryMask, year int, maskID string) []PolygonFeature {
	labels, counts := labelComponents(mask)

	features := []PolygonFeature{}
	for label := 1; label < len(counts); label++ {
		rings := traceComponent(mask, labels, label)
		for _, polygon := range assemblePolygons(rings, mask.Transform) {
			features = append(features, PolygonFeature{
				Geometry:     polygon,
				AreaM2:       math.Abs(planar.Area(polygon)),
				Year:         year,
				SourceMaskID: maskID,
			})
		}
	}
	return features
}

// traceComponent walks the boundary edges of one labeled component and chains
// them into closed rings in pixel coordinates. Exterior rings come out with
// positive shoelace area, holes negative.
func traceComponent(mask *raster.BinaryMask, labels [][]int, label int) []orb.Ring {
	height, width := mask.Height(), mask.Width()
	at := func(x, y int) bool {
		return x >= 0 && x < width && y >= 0 && y < height && labels[y][x] == label
	}

	edges := []gridEdge{}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if labels[y][x] != label {
				continue
			}
			// interior stays on the left walking clockwise in row-down space
			if !at(x, y-1) {
				edges = append(edges, gridEdge{gridPoint{x, y}, gridPoint{x + 1, y}})
			}
			if !at(x+1, y) {
				edges = append(edges, gridEdge{gridPoint{x + 1, y}, gridPoint{x + 1, y + 1}})
			}
			if !at(x, y+1) {
				edges = append(edges, gridEdge{gridPoint{x + 1, y + 1}, gridPoint{x, y + 1}})
			}
			if !at(x-1, y) {
				edges = append(edges, gridEdge{gridPoint{x, y + 1}, gridPoint{x, y}})
			}
		}
	}

	outgoing := map[gridPoint][]int{}
	for i, e := range edges {
		outgoing[e.from] = append(outgoing[e.from], i)
	}

	used := make([]bool, len(edges))
	rings := []orb.Ring{}
	for start := range edges {
		if used[start] {
			continue
		}
		ring := orb.Ring{}
		current := start
		for {
			used[current] = true
			e := edges[current]
			ring = append(ring, orb.Point{float64(e.from.X), float64(e.from.Y)})

			next := -1
			candidates := outgoing[e.to]
			if len(candidates) == 1 {
				if !used[candidates[0]] {
					next = candidates[0]
				}
			} else {
				// pinch vertex: prefer the sharpest right turn so each
				// ring stays simple
				next = pickTurn(edges, candidates, used, e)
			}
			if next < 0 {
				break
			}
			current = next
			if current == start {
				break
			}
		}
		ring = append(ring, ring[0]) // close
		rings = append(rings, ring)
	}
	return rings
}

func direction(e gridEdge) int {
	switch {
	case e.to.X > e.from.X:
		return 0 // east
	case e.to.Y > e.from.Y:
		return 1 // south
	case e.to.X < e.from.X:
		return 2 // west
	default:
		return 3 // north
	}
}

func pickTurn(edges []gridEdge, candidates []int, used []bool, incoming gridEdge) int {
	in := direction(incoming)
	// rightmost turn first, straight second, left last; never reverse
	for _, preferred := range []int{(in + 1) % 4, in, (in + 3) % 4} {
		for _, idx := range candidates {
			if !used[idx] && direction(edges[idx]) == preferred {
				return idx
			}
		}
	}
	return -1
}

// assemblePolygons classifies pixel-space rings as exteriors or holes,
// assigns holes to their containing exterior, and maps everything through
// the affine transform with normalized winding.
func assemblePolygons(rings []orb.Ring, transform raster.Affine) []orb.Polygon {
	type shell struct {
		pixel orb.Ring
		holes []orb.Ring
	}

	shells := []shell{}
	holes := []orb.Ring{}
	for _, ring := range rings {
		if shoelace(ring) > 0 {
			shells = append(shells, shell{pixel: ring})
		} else {
			holes = append(holes, ring)
		}
	}

	// larger shells first so nested containment resolves to the innermost
	sort.SliceStable(shells, func(i, j int) bool {
		return math.Abs(shoelace(shells[i].pixel)) > math.Abs(shoelace(shells[j].pixel))
	})

	for _, hole := range holes {
		for i := len(shells) - 1; i >= 0; i-- {
			if planar.RingContains(shells[i].pixel, hole[0]) {
				shells[i].holes = append(shells[i].holes, hole)
				break
			}
		}
	}

	polygons := make([]orb.Polygon, 0, len(shells))
	for _, s := range shells {
		polygon := orb.Polygon{toWorld(s.pixel, transform, true)}
		for _, hole := range s.holes {
			polygon = append(polygon, toWorld(hole, transform, false))
		}
		polygons = append(polygons, polygon)
	}
	return polygons
}

func shoelace(ring orb.Ring) float64 {
	sum := 0.0
	for i := 0; i < len(ring)-1; i++ {
		sum += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	return sum / 2
}

// toWorld maps a pixel-space ring through the affine transform and fixes the
// winding: exteriors counter-clockwise, holes clockwise.
func toWorld(ring orb.Ring, transform raster.Affine, exterior bool) orb.Ring {
	world := make(orb.Ring, len(ring))
	for i, p := range ring {
		x, y := transform.Apply(p[0], p[1])
		world[i] = orb.Point{x, y}
	}

	area := planar.Area(world)
	if (exterior && area < 0) || (!exterior && area > 0) {
		world.Reverse()
	}
	return world
}
