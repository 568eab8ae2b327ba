package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor yields up to batchSize time indices per call and io.EOF
// once every index has been handed out.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]int, error)
}

// Transformer evaluates one time index into a publishable event.
type Transformer interface {
	Transform(ctx context.Context, t int) (domain.LayerEvent, error)
}

// BatchLoader writes multiple layer events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.LayerEvent) error
}

// Pipeline walks the dataset's time axis once and publishes an event per
// evaluated slice.
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

// CheckReadiness returns nil once the pipeline has published at least one batch.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no layer events published yet")
	}
	return nil
}

// Run publishes every slice and returns when the extractor is exhausted or
// the context is cancelled. Slices that fail to evaluate are skipped; load
// failures are retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("layer publisher started", "batch_size", p.batchSize)
	p.metrics.PublisherRunning.Set(1)
	defer p.metrics.PublisherRunning.Set(0)

	backoff := initialBackoff
	published := 0

	for {
		if ctx.Err() != nil {
			p.logger.Info("layer publisher stopping", "reason", ctx.Err(), "published", published)
			return nil
		}

		batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if errors.Is(err, io.EOF) {
			p.logger.Info("layer publisher finished", "published", published)
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("extract batch failed", "error", err)
			if !p.backoffOrStop(ctx, &backoff) {
				return nil
			}
			continue
		}
		if len(batch) == 0 {
			continue
		}

		n, ok := p.processBatch(ctx, batch, &backoff)
		published += n
		if !ok {
			return nil
		}
	}
}

// processBatch evaluates and publishes one batch of time indices. Returns the
// number of events published and false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, batch []int, backoff *time.Duration) (int, bool) {
	start := time.Now()
	p.metrics.BatchSize.Observe(float64(len(batch)))

	events := make([]domain.LayerEvent, 0, len(batch))
	for _, t := range batch {
		event, err := p.transformer.Transform(ctx, t)
		if err != nil {
			p.logger.Warn("evaluation failed, skipping slice", "time_index", t, "error", err)
			p.metrics.EvaluationErrors.Inc()
			continue
		}
		events = append(events, event)
	}

	if len(events) == 0 {
		return 0, true
	}

	for {
		err := p.loader.LoadBatch(ctx, events)
		if err == nil {
			break
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(events))
		if !p.backoffOrStop(ctx, backoff) {
			return 0, false
		}
	}
	*backoff = initialBackoff

	p.metrics.LayersPublished.Add(float64(len(events)))
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return len(events), true
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the context was cancelled.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}
