package scenesource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/adapter/filestore"
	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/observability"
)

// maxErrorBody caps how much of a failed response is copied into the error.
const maxErrorBody = 512

// Client implements domain.SceneSource by fetching JSON scenes over HTTP.
type Client struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an HTTP scene client.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// LoadScene downloads and decodes the scene at url.
func (c *Client) LoadScene(ctx context.Context, url string) (domain.Scene, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Scene{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Scene{}, fmt.Errorf("fetch scene: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.Scene{}, fmt.Errorf("scene server error: status %d: %s", resp.StatusCode, body)
	}

	scene, err := filestore.DecodeScene(resp.Body)
	if err != nil {
		return domain.Scene{}, fmt.Errorf("%s: %w", url, err)
	}

	c.metrics.SceneFetchDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())
	c.logger.Debug("scene fetched", "url", url, "scene_id", scene.ID, "duration", time.Since(start))
	return scene, nil
}
