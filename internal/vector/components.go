package vector

import (
	"math"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/log"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/raster"
)

var neighbors8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// labelComponents assigns a 1-based label to every 8-connected component of
// set cells. Returns the label grid and the pixel count per label (index 0
// unused).
func labelComponents(mask *raster.BinaryMask) ([][]int, []int) {
	height, width := mask.Height(), mask.Width()
	labels := make([][]int, height)
	for y := range labels {
		labels[y] = make([]int, width)
	}

	counts := []int{0}
	next := 1
	stack := [][2]int{}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask.Cells[y][x] || labels[y][x] != 0 {
				continue
			}
			labels[y][x] = next
			count := 0
			stack = append(stack[:0], [2]int{x, y})
			for len(stack) > 0 {
				cell := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				count++
				for _, d := range neighbors8 {
					nx, ny := cell[0]+d[0], cell[1]+d[1]
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					if mask.Cells[ny][nx] && labels[ny][nx] == 0 {
						labels[ny][nx] = next
						stack = append(stack, [2]int{nx, ny})
					}
				}
			}
			counts = append(counts, count)
			next++
		}
	}
	return labels, counts
}

// Clean removes 8-connected components smaller than minObjectPixels. Removed
// components are discarded as noise: their pixels become not-land, never the
// other way around. The input mask is left untouched.
func Clean(mask *raster.BinaryMask, minObjectPixels int) *raster.BinaryMask {
	labels, counts := labelComponents(mask)

	cleaned := &raster.BinaryMask{
		Cells:     make([][]bool, mask.Height()),
		Transform: mask.Transform,
		EPSG:      mask.EPSG,
	}
	removed := 0
	for label, count := range counts {
		if label > 0 && count < minObjectPixels {
			removed++
		}
	}
	for y := range cleaned.Cells {
		cleaned.Cells[y] = make([]bool, mask.Width())
		for x := range cleaned.Cells[y] {
			label := labels[y][x]
			cleaned.Cells[y][x] = label != 0 && counts[label] >= minObjectPixels
		}
	}

	if removed > 0 {
		log.Debugf("mask cleanup removed %d small components", removed)
	}
	return cleaned
}

// FillSmallHoles turns enclosed not-land regions smaller than minHolePixels
// into land. A hole is a 4-connected background region that does not touch
// the grid border.
func FillSmallHoles(mask *raster.BinaryMask, minHolePixels int) *raster.BinaryMask {
	height, width := mask.Height(), mask.Width()
	filled := &raster.BinaryMask{
		Cells:     make([][]bool, height),
		Transform: mask.Transform,
		EPSG:      mask.EPSG,
	}
	for y := range filled.Cells {
		filled.Cells[y] = append([]bool(nil), mask.Cells[y]...)
	}

	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, width)
	}

	neighbors4 := [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask.Cells[y][x] || visited[y][x] {
				continue
			}
			region := [][2]int{}
			touchesBorder := false
			stack := [][2]int{{x, y}}
			visited[y][x] = true
			for len(stack) > 0 {
				cell := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				region = append(region, cell)
				if cell[0] == 0 || cell[0] == width-1 || cell[1] == 0 || cell[1] == height-1 {
					touchesBorder = true
				}
				for _, d := range neighbors4 {
					nx, ny := cell[0]+d[0], cell[1]+d[1]
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					if !mask.Cells[ny][nx] && !visited[ny][nx] {
						visited[ny][nx] = true
						stack = append(stack, [2]int{nx, ny})
					}
				}
			}
			if !touchesBorder && len(region) < minHolePixels {
				for _, cell := range region {
					filled.Cells[cell[1]][cell[0]] = true
				}
			}
		}
	}
	return filled
}

// FilterComponentsByMean drops every component whose mean index value over
// valid pixels is below meanMin. This is the raster-level anti-water pass:
// a sand bank keeps a slightly positive mean while turbid water does not.
func FilterComponentsByMean(mask *raster.BinaryMask, index *raster.IndexRaster, meanMin float64) (*raster.BinaryMask, error) {
	if mask.Height() != index.Height() || mask.Width() != index.Width() {
		return nil, &raster.ShapeMismatchError{
			Op:         "component mean filter",
			WantWidth:  index.Width(),
			WantHeight: index.Height(),
			GotWidth:   mask.Width(),
			GotHeight:  mask.Height(),
		}
	}

	labels, counts := labelComponents(mask)
	sums := make([]float64, len(counts))
	valid := make([]int, len(counts))
	for y := range labels {
		for x, label := range labels[y] {
			if label == 0 {
				continue
			}
			if v := index.Values[y][x]; !math.IsNaN(v) {
				sums[label] += v
				valid[label]++
			}
		}
	}

	keep := make([]bool, len(counts))
	dropped := 0
	for label := 1; label < len(counts); label++ {
		keep[label] = valid[label] > 0 && sums[label]/float64(valid[label]) >= meanMin
		if !keep[label] {
			dropped++
		}
	}

	filtered := &raster.BinaryMask{
		Cells:     make([][]bool, mask.Height()),
		Transform: mask.Transform,
		EPSG:      mask.EPSG,
	}
	for y := range filtered.Cells {
		filtered.Cells[y] = make([]bool, mask.Width())
		for x := range filtered.Cells[y] {
			filtered.Cells[y][x] = keep[labels[y][x]]
		}
	}

	if dropped > 0 {
		log.Debugf("component mean filter dropped %d components", dropped)
	}
	return filtered, nil
}
