package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/observability"
)

// SceneTransformer implements Transformer: it loads the requested scene
// and builds its fire composite.
type SceneTransformer struct {
	source    domain.SceneSource
	profile   domain.Profile
	defaults  domain.Params
	outputDir string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTransformer creates a SceneTransformer. Requests that omit mode or
// bit depth use defaults. Products are placed under outputDir/<scene id>/.
func NewTransformer(source domain.SceneSource, profile domain.Profile, defaults domain.Params, outputDir string, logger *slog.Logger, metrics *observability.Metrics) *SceneTransformer {
	return &SceneTransformer{
		source:    source,
		profile:   profile,
		defaults:  defaults,
		outputDir: outputDir,
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *SceneTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Product, error) {
	req, err := domain.ParseSceneRequest(raw)
	if err != nil {
		return domain.Product{}, err
	}
	params, err := req.Params(t.defaults)
	if err != nil {
		return domain.Product{}, fmt.Errorf("scene request %s: %w", req.SceneID, err)
	}

	scene, err := t.source.LoadScene(ctx, req.URI)
	if err != nil {
		return domain.Product{}, fmt.Errorf("load scene %s: %w", req.URI, err)
	}
	if req.SceneID != "" {
		scene.ID = req.SceneID
	}
	if scene.ID == "" {
		return domain.Product{}, fmt.Errorf("%w: no scene id for %s", domain.ErrInvalidRequest, req.URI)
	}
	dir, err := t.productDir(scene.ID)
	if err != nil {
		return domain.Product{}, err
	}

	start := time.Now()
	composite, err := domain.BuildComposite(scene, t.profile, params)
	if err != nil {
		return domain.Product{}, err
	}
	t.metrics.CompositeDuration.WithLabelValues(string(params.Mode)).Observe(time.Since(start).Seconds())
	t.metrics.UndefinedPixels.Add(float64(composite.UndefinedPixels))
	if composite.DegenerateIndex {
		t.metrics.DegenerateIndexes.Inc()
		t.logger.Warn("fire index has no range, index channel is blank", "scene_id", scene.ID)
	}

	return domain.Product{
		Composite:  composite,
		OutputPath: filepath.Join(dir, composite.FileName()),
	}, nil
}

// productDir returns outputDir/<scene id>. The id must be a single local
// path element.
func (t *SceneTransformer) productDir(sceneID string) (string, error) {
	if sceneID == "." || strings.ContainsAny(sceneID, `/\`) || !filepath.IsLocal(sceneID) {
		return "", fmt.Errorf("%w: scene id %q is not a valid directory name", domain.ErrInvalidRequest, sceneID)
	}
	return filepath.Join(t.outputDir, sceneID), nil
}
