package raster

import (
	"fmt"
	"math"
)

// Affine is a GDAL-order geotransform: origin x, pixel width, row rotation,
// origin y, column rotation, pixel height (negative for north-up rasters).
type Affine [6]float64

// Apply maps pixel coordinates (col, row) to world coordinates.
func (a Affine) Apply(col, row float64) (x, y float64) {
	x = a[0] + col*a[1] + row*a[2]
	y = a[3] + col*a[4] + row*a[5]
	return x, y
}

// PixelArea returns the world-space area covered by one pixel.
func (a Affine) PixelArea() float64 {
	return math.Abs(a[1]*a[5] - a[2]*a[4])
}

// IndexRaster is a per-pixel index grid (e.g. a normalized-difference index)
// with its geotransform and reference frame. No-data pixels are NaN. A raster
// is owned by the stage that produced it and is never mutated in place.
type IndexRaster struct {
	Values    [][]float64
	Transform Affine
	EPSG      int
}

func (r *IndexRaster) Height() int {
	return len(r.Values)
}

func (r *IndexRaster) Width() int {
	if len(r.Values) == 0 {
		return 0
	}
	return len(r.Values[0])
}

// BinaryMask is a land/not-land classification of an IndexRaster. Its
// dimensions and transform always match the raster it was derived from.
type BinaryMask struct {
	Cells     [][]bool
	Transform Affine
	EPSG      int
}

func (m *BinaryMask) Height() int {
	return len(m.Cells)
}

func (m *BinaryMask) Width() int {
	if len(m.Cells) == 0 {
		return 0
	}
	return len(m.Cells[0])
}

// CountSet returns the number of true cells.
func (m *BinaryMask) CountSet() int {
	count := 0
	for _, row := range m.Cells {
		for _, cell := range row {
			if cell {
				count++
			}
		}
	}
	return count
}

// NewMaskLike allocates an all-false mask with the raster's shape and frame.
func NewMaskLike(r *IndexRaster) *BinaryMask {
	cells := make([][]bool, r.Height())
	for y := range cells {
		cells[y] = make([]bool, r.Width())
	}
	return &BinaryMask{Cells: cells, Transform: r.Transform, EPSG: r.EPSG}
}

// ComputeNDVI derives (nir-red)/(nir+red) per pixel. The two grids must have
// identical shape; pixels where either band is NaN or the denominator is zero
// come out as NaN.
func ComputeNDVI(nir, red *IndexRaster) (*IndexRaster, error) {
	if nir.Height() != red.Height() || nir.Width() != red.Width() {
		return nil, &ShapeMismatchError{
			Op:         "ndvi",
			WantWidth:  red.Width(),
			WantHeight: red.Height(),
			GotWidth:   nir.Width(),
			GotHeight:  nir.Height(),
		}
	}

	values := make([][]float64, red.Height())
	for y := 0; y < red.Height(); y++ {
		values[y] = make([]float64, red.Width())
		for x := 0; x < red.Width(); x++ {
			n, r := nir.Values[y][x], red.Values[y][x]
			den := n + r
			if math.IsNaN(n) || math.IsNaN(r) || den == 0 {
				values[y][x] = math.NaN()
				continue
			}
			values[y][x] = (n - r) / den
		}
	}
	return &IndexRaster{Values: values, Transform: red.Transform, EPSG: red.EPSG}, nil
}

// MedianFilter returns a smoothed copy of the raster using a size x size
// median window. NaN pixels stay NaN and are excluded from neighbor medians.
func MedianFilter(r *IndexRaster, size int) (*IndexRaster, error) {
	if size <= 1 {
		return r, nil
	}
	if size%2 == 0 {
		return nil, fmt.Errorf("median filter size must be odd, got %d", size)
	}

	half := size / 2
	height, width := r.Height(), r.Width()
	values := make([][]float64, height)
	window := make([]float64, 0, size*size)

	for y := 0; y < height; y++ {
		values[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if math.IsNaN(r.Values[y][x]) {
				values[y][x] = math.NaN()
				continue
			}
			window = window[:0]
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= height || nx < 0 || nx >= width {
						continue
					}
					if v := r.Values[ny][nx]; !math.IsNaN(v) {
						window = append(window, v)
					}
				}
			}
			values[y][x] = median(window)
		}
	}
	return &IndexRaster{Values: values, Transform: r.Transform, EPSG: r.EPSG}, nil
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	// insertion sort, windows are tiny
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && values[j] < values[j-1]; j-- {
			values[j], values[j-1] = values[j-1], values[j]
		}
	}
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}
