package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
)

// Evaluator is the part of domain.ClimateContext the transformer needs.
type Evaluator interface {
	EvaluateIndex(t int) (domain.Evaluation, error)
	Threshold() (*domain.GlobalThreshold, error)
}

// LayerTransformer implements Transformer by evaluating a slice and naming
// its high-risk regions with an optional geocoder.
type LayerTransformer struct {
	evaluator Evaluator
	geocoder  domain.Geocoder
	runID     string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTransformer creates a LayerTransformer stamped with a fresh run ID. Pass
// a nil geocoder to publish unnamed regions.
func NewTransformer(e Evaluator, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *LayerTransformer {
	return &LayerTransformer{
		evaluator: e,
		geocoder:  geocoder,
		runID:     uuid.NewString(),
		logger:    logger,
		metrics:   metrics,
	}
}

// RunID identifies every event published by this transformer.
func (t *LayerTransformer) RunID() string { return t.runID }

func (t *LayerTransformer) Transform(ctx context.Context, index int) (domain.LayerEvent, error) {
	ev, err := t.evaluator.EvaluateIndex(index)
	if err != nil {
		return domain.LayerEvent{}, err
	}
	ev.Regions = domain.NameRegions(ctx, ev.Regions, t.geocoder, t.logger)

	t.metrics.SlicesEvaluated.Inc()
	t.metrics.HighRiskRegions.Observe(float64(len(ev.Regions)))

	// A threshold error means the evaluation already fell back to local stats.
	g, _ := t.evaluator.Threshold()
	return domain.NewLayerEvent(t.runID, ev, g), nil
}
