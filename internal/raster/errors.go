package raster

import "fmt"

// ShapeMismatchError reports grids whose dimensions disagree.
type ShapeMismatchError struct {
	Op         string
	WantWidth  int
	WantHeight int
	GotWidth   int
	GotHeight  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch, want %dx%d, got %dx%d",
		e.Op, e.WantWidth, e.WantHeight, e.GotWidth, e.GotHeight)
}
