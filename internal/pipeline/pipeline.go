package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// Retry delays for extract and load failures.
const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize scene requests from the source.
// It may return a partial batch together with an error; the pipeline
// processes the partial batch before handling the error.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns one scene request into a composite product.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Product, error)
}

// BatchLoader delivers finished products to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, products []domain.Product) error
}

// Loaders runs several loaders in order and stops at the first error,
// so a notice is only published after its composite has been stored.
type Loaders []BatchLoader

// LoadBatch implements BatchLoader.
func (ls Loaders) LoadBatch(ctx context.Context, products []domain.Product) error {
	for _, l := range ls {
		if err := l.LoadBatch(ctx, products); err != nil {
			return err
		}
	}
	return nil
}

// Pipeline orchestrates the request-composite-publish loop.
//
// A request's offset is committed only after it is settled: either its
// composite has been loaded, or it failed to transform and is skipped.
// Load failures are retried in place until they succeed or the context
// ends, so no request is committed without its product.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has produced a composite,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced any composites yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for ctx.Err() == nil {
		batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if err != nil && ctx.Err() == nil {
			p.logger.Error("extract batch failed", "error", err, "partial_size", len(batch))
		}

		if len(batch) == 0 {
			if err == nil {
				continue
			}
			if !retry.SleepWithContext(ctx, backoff) {
				break
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = initialBackoff
		if !p.handleBatch(ctx, batch) {
			break
		}
	}

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// handleBatch builds, loads, and commits one batch. It returns false when
// the context ended before the batch was settled; the unsettled requests
// stay uncommitted and are redelivered.
func (p *Pipeline) handleBatch(ctx context.Context, batch []domain.RawEvent) bool {
	start := time.Now()
	p.metrics.RequestsConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	products, built := p.transformAll(ctx, batch)
	if len(products) == 0 {
		return true
	}

	if !p.loadWithRetry(ctx, products) {
		return false
	}
	for _, raw := range built {
		p.commitOffset(ctx, raw)
	}

	p.metrics.CompositesProduced.Add(float64(len(products)))
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// transformAll returns the products of the requests that transformed and
// the requests they came from. Failed requests are committed and skipped.
func (p *Pipeline) transformAll(ctx context.Context, batch []domain.RawEvent) ([]domain.Product, []domain.RawEvent) {
	products := make([]domain.Product, 0, len(batch))
	built := make([]domain.RawEvent, 0, len(batch))

	for _, raw := range batch {
		product, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("composite failed, skipping request",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		products = append(products, product)
		built = append(built, raw)
	}
	return products, built
}

// loadWithRetry loads the same products until the loader succeeds. It
// returns false if the context ends first.
func (p *Pipeline) loadWithRetry(ctx context.Context, products []domain.Product) bool {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := p.loader.LoadBatch(ctx, products)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		p.logger.Error("load batch failed, retrying",
			"error", err,
			"attempt", attempt,
			"batch_size", len(products),
			"backoff", backoff,
		)
		p.metrics.LoadRetries.Inc()
		if !retry.SleepWithContext(ctx, backoff) {
			return false
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
