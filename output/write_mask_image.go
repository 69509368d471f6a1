package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/raster"
)

// WriteMaskImage renders a binary mask as a PNG preview, land in white over
// a dark water background. Returns the output path.
func WriteMaskImage(mask *raster.BinaryMask, name string) (string, error) {
	outputDir := filepath.Join(properties.RootPath(), "data", "result")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create result directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, name+".png")

	width, height := mask.Width(), mask.Height()
	dc := gg.NewContext(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask.Cells[y][x] {
				dc.SetRGB(1, 1, 1)
			} else {
				dc.SetRGB(0.05, 0.15, 0.3)
			}
			dc.SetPixel(x, y)
		}
	}

	if err := dc.SavePNG(outputPath); err != nil {
		return "", fmt.Errorf("failed to save mask image: %w", err)
	}

	fmt.Println("Mask preview created successfully at", outputPath)
	return outputPath, nil
}
