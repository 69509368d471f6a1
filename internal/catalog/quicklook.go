package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/log"
	"golang.org/x/sync/errgroup"
)

// DownloadQuicklooks fetches the preview image of each scene into outDir,
// at most four downloads in flight at once. Files already present are kept.
func (c *Client) DownloadQuicklooks(ctx context.Context, scenes []SceneRecord, outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create quicklook directory: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for _, scene := range scenes {
		group.Go(func() error {
			outPath := filepath.Join(outDir, scene.ID+".jpg")
			if _, err := os.Stat(outPath); err == nil {
				return nil
			}

			url := fmt.Sprintf("%s/Products(%s)/Products('Quicklook')/$value", c.baseURL, scene.ID)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("failed to build quicklook request: %w", err)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return &SourceUnavailableError{Err: err}
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return &SourceUnavailableError{Auth: true, StatusCode: resp.StatusCode, Err: fmt.Errorf("unauthorized quicklook download")}
			}
			if resp.StatusCode != http.StatusOK {
				return &SourceUnavailableError{StatusCode: resp.StatusCode, Err: fmt.Errorf("quicklook download returned status %d", resp.StatusCode)}
			}

			file, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create quicklook file: %w", err)
			}
			defer file.Close()

			if _, err := io.Copy(file, resp.Body); err != nil {
				os.Remove(outPath)
				return fmt.Errorf("failed to write quicklook file: %w", err)
			}

			log.Debugf("quicklook saved: %s", outPath)
			return nil
		})
	}

	return group.Wait()
}
