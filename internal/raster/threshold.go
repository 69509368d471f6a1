package raster

import (
	"math"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
)

// Threshold classifies each pixel as land when its index value is at least
// settings.ThresholdValue AND the configured mean (whole scene or a local
// MeanWindow neighborhood) is at least settings.MeanMin. The second condition
// is an independent water-suppression filter: turbid water can carry locally
// elevated index values that pass the bare threshold. No-data (NaN) pixels
// are never land. aoi restricts classification to true cells and may be nil;
// its dimensions must match the raster.
func Threshold(r *IndexRaster, aoi *BinaryMask, settings properties.Settings) (*BinaryMask, error) {
	if aoi != nil && (aoi.Height() != r.Height() || aoi.Width() != r.Width()) {
		return nil, &ShapeMismatchError{
			Op:         "threshold",
			WantWidth:  r.Width(),
			WantHeight: r.Height(),
			GotWidth:   aoi.Width(),
			GotHeight:  aoi.Height(),
		}
	}

	mask := NewMaskLike(r)

	var sceneMeanOK bool
	if settings.MeanMode == properties.MeanFilterScene {
		sceneMeanOK = sceneMean(r) >= settings.MeanMin
	}

	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			v := r.Values[y][x]
			if math.IsNaN(v) || v < settings.ThresholdValue {
				continue
			}
			if aoi != nil && !aoi.Cells[y][x] {
				continue
			}
			if settings.MeanMode == properties.MeanFilterScene {
				if !sceneMeanOK {
					continue
				}
			} else if localMean(r, x, y, settings.MeanWindow) < settings.MeanMin {
				continue
			}
			mask.Cells[y][x] = true
		}
	}
	return mask, nil
}

func sceneMean(r *IndexRaster) float64 {
	sum, count := 0.0, 0
	for _, row := range r.Values {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			count++
		}
	}
	if count == 0 {
		return math.Inf(-1)
	}
	return sum / float64(count)
}

func localMean(r *IndexRaster, x, y, window int) float64 {
	half := window / 2
	sum, count := 0.0, 0
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			ny, nx := y+dy, x+dx
			if ny < 0 || ny >= r.Height() || nx < 0 || nx >= r.Width() {
				continue
			}
			if v := r.Values[ny][nx]; !math.IsNaN(v) {
				sum += v
				count++
			}
		}
	}
	if count == 0 {
		return math.Inf(-1)
	}
	return sum / float64(count)
}
