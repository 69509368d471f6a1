package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/cache"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/log"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	pageSize    = 1000
	maxAttempts = 5
	baseBackoff = 2 * time.Second
	maxBackoff  = 30 * time.Second
)

type odataProduct struct {
	ID          string `json:"Id"`
	Name        string `json:"Name"`
	ContentDate struct {
		Start string `json:"Start"`
	} `json:"ContentDate"`
	GeoFootprint json.RawMessage `json:"GeoFootprint"`
	Attributes   []struct {
		Name  string      `json:"Name"`
		Value interface{} `json:"Value"`
	} `json:"Attributes"`
}

type odataPage struct {
	Value    []odataProduct `json:"value"`
	NextLink string         `json:"@odata.nextLink"`
}

// Client queries the Copernicus Data Space OData catalog for Sentinel-2 L2A
// products. Transient failures are retried with bounded exponential backoff;
// authentication failures fail fast.
type Client struct {
	baseURL    string
	httpClient *http.Client
	queryCache *cache.FileCache[[]SceneRecord]
}

// NewClient builds a catalog client authenticated with the Copernicus
// client-credentials flow configured through the environment.
func NewClient(ctx context.Context) (*Client, error) {
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

	return &Client{
		baseURL:    properties.CatalogBaseURL(),
		httpClient: config.Client(ctx),
		queryCache: cache.NewFileCache[[]SceneRecord]("catalog"),
	}, nil
}

// Query returns every SENTINEL-2 L2A scene acquired inside [from, to] with
// cloud cover at most maxCloudCover and a tile id in tiles. Pagination is
// followed to the end; a partial page is never returned as a final result.
func (c *Client) Query(ctx context.Context, from, to time.Time, maxCloudCover float64, tiles []string) ([]SceneRecord, error) {
	cacheKey := c.queryCache.GenerateKey(from.Unix(), to.Unix(), maxCloudCover, tiles)
	if cached, ok := c.queryCache.Get(cacheKey); ok {
		log.Debugf("catalog query served from cache (%d scenes)", len(cached))
		return cached, nil
	}

	filter := fmt.Sprintf(
		"Collection/Name eq 'SENTINEL-2' and contains(Name,'L2A') and "+
			"ContentDate/Start ge %s and ContentDate/Start le %s and "+
			"Attributes/OData.CSC.DoubleAttribute/any(att:att/Name eq 'cloudCover' and att/OData.CSC.DoubleAttribute/Value le %f)",
		from.UTC().Format("2006-01-02T15:04:05.000Z"),
		to.UTC().Format("2006-01-02T15:04:05.000Z"),
		maxCloudCover,
	)

	query := url.Values{}
	query.Set("$filter", filter)
	query.Set("$expand", "Attributes")
	query.Set("$top", fmt.Sprintf("%d", pageSize))
	query.Set("$orderby", "ContentDate/Start asc")

	next := fmt.Sprintf("%s/Products?%s", c.baseURL, query.Encode())

	wanted := make(map[string]bool, len(tiles))
	for _, t := range tiles {
		wanted[t] = true
	}

	records := []SceneRecord{}
	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}

		for _, product := range page.Value {
			record, err := parseProduct(product)
			if err != nil {
				return nil, err
			}
			if len(wanted) > 0 && !wanted[record.TileID] {
				continue
			}
			records = append(records, record)
		}
		next = page.NextLink
	}

	log.Infow("catalog query complete", "from", from, "to", to, "scenes", len(records))
	if err := c.queryCache.Set(cacheKey, records); err != nil {
		log.Warnf("failed to cache catalog query: %v", err)
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*odataPage, error) {
	backoff := baseBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build catalog request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusOK && readErr == nil:
				var page odataPage
				if err := json.Unmarshal(body, &page); err != nil {
					return nil, &SourceUnavailableError{StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid catalog response: %w", err)}
				}
				return &page, nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return nil, &SourceUnavailableError{Auth: true, StatusCode: resp.StatusCode, Err: fmt.Errorf("unauthorized access, check your client ID and secret")}
			case resp.StatusCode >= 500 || readErr != nil:
				lastErr = fmt.Errorf("catalog returned status %d", resp.StatusCode)
			default:
				return nil, &SourceUnavailableError{StatusCode: resp.StatusCode, Err: fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, string(body))}
			}
		}

		if attempt < maxAttempts {
			log.Warnf("catalog attempt %d failed: %v, retrying in %s", attempt, lastErr, backoff)
			select {
			case <-ctx.Done():
				return nil, &SourceUnavailableError{Err: ctx.Err()}
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	return nil, &SourceUnavailableError{Err: fmt.Errorf("catalog unreachable after %d attempts: %w", maxAttempts, lastErr)}
}

func parseProduct(product odataProduct) (SceneRecord, error) {
	record := SceneRecord{ID: product.ID, Name: product.Name}

	if tile, ok := TileFromProductName(product.Name); ok {
		record.TileID = tile
	}

	if product.ContentDate.Start != "" {
		ts, err := time.Parse(time.RFC3339, product.ContentDate.Start)
		if err != nil {
			// the catalog also emits fractional seconds without a zone
			ts, err = time.Parse("2006-01-02T15:04:05.000Z", product.ContentDate.Start)
			if err != nil {
				return SceneRecord{}, &MalformedInputError{Field: "ContentDate", Reason: fmt.Sprintf("unparsable acquisition time %q", product.ContentDate.Start)}
			}
		}
		record.AcquisitionTime = ts
	}

	record.CloudCoverPct = -1
	for _, attr := range product.Attributes {
		if attr.Name != "cloudCover" {
			continue
		}
		if v, ok := attr.Value.(float64); ok {
			record.CloudCoverPct = v
		}
	}
	if record.CloudCoverPct < 0 {
		return SceneRecord{}, &MalformedInputError{Field: "cloudCover", Reason: fmt.Sprintf("product %s has no cloudCover attribute", product.Name)}
	}

	if len(product.GeoFootprint) > 0 {
		geom, err := geojson.UnmarshalGeometry(product.GeoFootprint)
		if err == nil {
			record.Footprint = geom.Geometry()
		}
	}

	if err := record.Validate(); err != nil {
		return SceneRecord{}, err
	}
	return record, nil
}
