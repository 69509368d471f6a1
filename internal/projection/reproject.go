package projection

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/vector"
)

// ReprojectionError reports a coordinate transform that failed or produced
// degenerate geometry. Emitting corrupted polygons is never an option.
type ReprojectionError struct {
	SourceEPSG int
	TargetEPSG int
	Err        error
}

func (e *ReprojectionError) Error() string {
	return fmt.Sprintf("reprojection EPSG:%d -> EPSG:%d failed: %v", e.SourceEPSG, e.TargetEPSG, e.Err)
}

func (e *ReprojectionError) Unwrap() error {
	return e.Err
}

// pointTransform converts coordinate slices in place.
type pointTransform func(xs, ys []float64) error

// Reproject transforms every vertex of every feature from sourceEPSG to
// targetEPSG and recomputes each feature's area in the target frame. The
// input features are not modified.
func Reproject(features []vector.PolygonFeature, sourceEPSG, targetEPSG int) ([]vector.PolygonFeature, error) {
	if sourceEPSG == targetEPSG {
		identity := func(xs, ys []float64) error { return nil }
		return reprojectWith(identity, features, sourceEPSG, targetEPSG)
	}

	src, err := godal.NewSpatialRefFromEPSG(sourceEPSG)
	if err != nil {
		return nil, &ReprojectionError{SourceEPSG: sourceEPSG, TargetEPSG: targetEPSG, Err: err}
	}
	defer src.Close()

	dst, err := godal.NewSpatialRefFromEPSG(targetEPSG)
	if err != nil {
		return nil, &ReprojectionError{SourceEPSG: sourceEPSG, TargetEPSG: targetEPSG, Err: err}
	}
	defer dst.Close()

	trn, err := godal.NewTransform(src, dst)
	if err != nil {
		return nil, &ReprojectionError{SourceEPSG: sourceEPSG, TargetEPSG: targetEPSG, Err: err}
	}
	defer trn.Close()

	transform := func(xs, ys []float64) error {
		successful := make([]bool, len(xs))
		if err := trn.TransformEx(xs, ys, nil, successful); err != nil {
			return err
		}
		for i, ok := range successful {
			if !ok {
				return fmt.Errorf("vertex %d could not be transformed", i)
			}
		}
		return nil
	}

	return reprojectWith(transform, features, sourceEPSG, targetEPSG)
}

func reprojectWith(transform pointTransform, features []vector.PolygonFeature, sourceEPSG, targetEPSG int) ([]vector.PolygonFeature, error) {
	out := make([]vector.PolygonFeature, 0, len(features))
	for _, feature := range features {
		polygon := make(orb.Polygon, 0, len(feature.Geometry))
		for _, ring := range feature.Geometry {
			xs := make([]float64, len(ring))
			ys := make([]float64, len(ring))
			for i, p := range ring {
				xs[i], ys[i] = p[0], p[1]
			}
			if err := transform(xs, ys); err != nil {
				return nil, &ReprojectionError{SourceEPSG: sourceEPSG, TargetEPSG: targetEPSG, Err: err}
			}

			projected := make(orb.Ring, len(ring))
			for i := range ring {
				if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsInf(xs[i], 0) || math.IsInf(ys[i], 0) {
					return nil, &ReprojectionError{
						SourceEPSG: sourceEPSG,
						TargetEPSG: targetEPSG,
						Err:        fmt.Errorf("vertex %d degenerated to a non-finite coordinate", i),
					}
				}
				projected[i] = orb.Point{xs[i], ys[i]}
			}
			polygon = append(polygon, projected)
		}

		area := math.Abs(planar.Area(polygon))
		if area == 0 {
			return nil, &ReprojectionError{
				SourceEPSG: sourceEPSG,
				TargetEPSG: targetEPSG,
				Err:        fmt.Errorf("polygon collapsed to zero area"),
			}
		}

		out = append(out, vector.PolygonFeature{
			Geometry:     polygon,
			AreaM2:       area,
			Year:         feature.Year,
			SourceMaskID: feature.SourceMaskID,
		})
	}
	return out, nil
}

// FilterByArea drops features below minAreaM2, computing each area from the
// geometry in its current frame. The caller must reproject to a metric frame
// first; areas in geographic degrees are meaningless. Filtering an already
// filtered set with the same threshold changes nothing.
func FilterByArea(features []vector.PolygonFeature, minAreaM2 float64) []vector.PolygonFeature {
	kept := make([]vector.PolygonFeature, 0, len(features))
	for _, feature := range features {
		area := math.Abs(planar.Area(feature.Geometry))
		if area < minAreaM2 {
			continue
		}
		feature.AreaM2 = area
		kept = append(kept, feature)
	}
	return kept
}
