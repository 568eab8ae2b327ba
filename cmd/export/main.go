// Command export evaluates every month of an ERA5 dataset and writes the
// resulting layer events as a JSON array. It uses the same domain package as
// the service, so the output matches what the publisher sends to Kafka.
//
// Usage:
//
//	go run ./cmd/export \
//	  -data-dir data \
//	  -out data/export/layers.json \
//	  -generated-at 2025-01-01T00:00:00Z
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/netcdf"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "data", "directory containing ERA5 NetCDF files")
	out := flag.String("out", "", "output path for the JSON export (default stdout)")
	generatedAt := flag.String("generated-at", "", "fixed RFC 3339 timestamp for generated_at, for reproducible output")
	skipUnreadable := flag.Bool("skip-unreadable", false, "skip NetCDF files that cannot be read")
	flag.Parse()

	if *generatedAt != "" {
		ts, err := time.Parse(time.RFC3339, *generatedAt)
		if err != nil {
			return fmt.Errorf("invalid -generated-at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(ts))
		defer domain.SetClock(nil)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetricsForTesting()

	ctx := context.Background()
	ds, err := netcdf.NewLoader(*dataDir, runtime.NumCPU(), *skipUnreadable, logger, metrics).Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	log.Printf("loaded %d time steps on a %dx%d grid", len(ds.Times), len(ds.Lat), len(ds.Lon))

	climate := domain.NewClimateContext(ds, nil, logger)
	if _, err := climate.Threshold(); err != nil {
		log.Printf("global threshold unavailable, using per-slice thresholds: %v", err)
	}

	collector := &collector{}
	p := pipeline.New(
		pipeline.NewSliceCursor(len(ds.Times)),
		pipeline.NewTransformer(climate, nil, logger, metrics),
		collector,
		logger, metrics, len(ds.Times),
	)
	if err := p.Run(ctx); err != nil {
		return err
	}
	if len(collector.events) == 0 {
		return errors.New("no time step could be evaluated")
	}

	if err := writeJSON(*out, collector.events); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	printStats(collector.events)
	return nil
}

// collector is a pipeline.BatchLoader that keeps events in memory.
type collector struct {
	events []domain.LayerEvent
}

func (c *collector) LoadBatch(_ context.Context, events []domain.LayerEvent) error {
	c.events = append(c.events, events...)
	return nil
}

func writeJSON(path string, v any) error {
	var w io.Writer = os.Stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
		log.Printf("writing %s", path)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(events []domain.LayerEvent) {
	degraded, regions := 0, 0
	for _, e := range events {
		if e.Alerts.Degraded {
			degraded++
		}
		regions += len(e.Regions)
	}
	log.Printf("exported %d months (%d degraded), %d high-risk regions", len(events), degraded, regions)
}
