package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/geotiff"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/log"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/raster"
)

const (
	resolutionMeters = 10.0
	maxAttempts      = 5
	retryDelay       = 2 * time.Second
)

// evalscript asks the process API for the two bands the water index needs.
// Band 1 of the returned raster is RED, band 2 is NIR.
const evalscript = `
//VERSION=3
function setup() {
  return {
    input: ["B04", "B08"],
    output: {
      id: "default",
      bands: 2,
      sampleType: SampleType.FLOAT32,
    },
  }
}

function evaluatePixel(sample) {
  return [sample.B04, sample.B08];
}
`

// ProcessClient requests band rasters from the Copernicus Data Space process
// API. It is an alternative to pre-built local mosaics: the API returns one
// already-mosaicked raster for a bounding box and time range.
type ProcessClient struct {
	httpClient *http.Client
	url        string
}

func NewProcessClient(ctx context.Context) (*ProcessClient, error) {
	clientID := properties.CopernicusClientID()
	clientSecret := properties.CopernicusClientSecret()
	tokenURL := properties.CopernicusTokenURL()
	if clientID == "" || clientSecret == "" || tokenURL == "" {
		return nil, fmt.Errorf("missing required environment variables: COPERNICUS_CLIENT_ID, COPERNICUS_CLIENT_SECRET, or COPERNICUS_TOKEN_URL")
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	return &ProcessClient{
		httpClient: config.Client(ctx),
		url:        properties.ProcessAPIURL(),
	}, nil
}

// rasterSize converts the bound's degree spans into pixel counts at the
// target resolution. One degree of latitude is roughly 111 km everywhere;
// degrees of longitude shrink with cos(latitude), so the width is scaled by
// the bound's mid-latitude.
func rasterSize(bound orb.Bound) (width, height int) {
	const pixelsPerDegree = 111_000.0 / resolutionMeters
	midLat := (bound.Min[1] + bound.Max[1]) / 2 * math.Pi / 180
	width = int((bound.Max[0] - bound.Min[0]) * math.Cos(midLat) * pixelsPerDegree)
	height = int((bound.Max[1] - bound.Min[1]) * pixelsPerDegree)
	return width, height
}

// FetchIndexRaster requests RED and NIR for the bounding box and time range,
// decodes the returned GeoTIFF and computes the water index raster. The
// process API mosaics in WGS84, so the result carries EPSG:4326.
func (c *ProcessClient) FetchIndexRaster(ctx context.Context, bound orb.Bound, from, to time.Time) (*raster.IndexRaster, error) {
	widthPixels, heightPixels := rasterSize(bound)
	if widthPixels < 1 || heightPixels < 1 {
		return nil, fmt.Errorf("bounding box %v is too small for a %gm raster", bound, resolutionMeters)
	}

	requestPayload := map[string]interface{}{
		"input": map[string]interface{}{
			"bounds": map[string]interface{}{
				"bbox": []float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]},
			},
			"data": []map[string]interface{}{
				{
					"dataFilter": map[string]interface{}{
						"timeRange": map[string]string{
							"from": from.Format(time.RFC3339),
							"to":   to.Format(time.RFC3339),
						},
					},
					"type": "sentinel-2-l2a",
				},
			},
		},
		"output": map[string]interface{}{
			"width":  widthPixels,
			"height": heightPixels,
			"responses": []map[string]interface{}{
				{
					"identifier": "default",
					"format": map[string]string{
						"type": "image/tiff",
					},
				},
			},
		},
		"evalscript": evalscript,
		"mosaicking": "mostRecent",
	}

	requestBody, err := json.Marshal(requestPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	content, err := c.post(ctx, requestBody)
	if err != nil {
		return nil, err
	}

	return decodeIndexRaster(content)
}

func (c *ProcessClient) post(ctx context.Context, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build process request: %w", err)
		}
		request.Header.Set("Content-Type", "application/json")

		response, err := c.httpClient.Do(request)
		if err != nil {
			lastErr = err
			log.Warnf("process request attempt %d failed: %v", attempt, err)
		} else {
			content, readErr := io.ReadAll(response.Body)
			response.Body.Close()
			if readErr != nil {
				return nil, fmt.Errorf("failed to read process response: %w", readErr)
			}
			if response.StatusCode == http.StatusOK {
				return content, nil
			}
			lastErr = fmt.Errorf("process API returned status %d: %s", response.StatusCode, string(content))
			if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
				return nil, lastErr
			}
			log.Warnf("process request attempt %d failed: %v", attempt, lastErr)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("failed to request raster after %d attempts: %w", maxAttempts, lastErr)
}

// decodeIndexRaster writes the response to a temporary file so godal can open
// it, reads both bands and computes the index.
func decodeIndexRaster(content []byte) (*raster.IndexRaster, error) {
	tmp, err := os.CreateTemp("", "bands-*.tiff")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary raster file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temporary raster file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temporary raster file: %w", err)
	}

	red, err := geotiff.Read(path, 1, 4326)
	if err != nil {
		return nil, err
	}
	nir, err := geotiff.Read(path, 2, 4326)
	if err != nil {
		return nil, err
	}
	return raster.ComputeNDVI(nir, red)
}
