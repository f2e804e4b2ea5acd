// Package pipeline runs one end-to-end pass: load both regional sources,
// transform them into the sales table and replace the destination table.
//
// Stages run sequentially. Every stage is timed and logged under a run ID,
// and errors are returned as produced by the stage (see core.StageError).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/salesetl/internal/core"
	"github.com/JonMunkholm/salesetl/internal/logging"
	"github.com/JonMunkholm/salesetl/internal/sheet"
	"github.com/JonMunkholm/salesetl/internal/sink"
	"github.com/google/uuid"
)

// DefaultTable is the destination table used when Config leaves it empty.
const DefaultTable = "sales_data"

// Config holds the options of a single run.
type Config struct {
	RegionASource    string
	RegionBSource    string
	DestinationTable string
	Destination      sink.Writer
}

// Result summarizes a successful run.
type Result struct {
	RunID     string
	Table     string
	Stats     core.Stats
	Durations map[core.Stage]time.Duration
	Elapsed   time.Duration
}

// Run executes the pipeline. On failure nothing after the failing stage runs,
// and the destination is only touched by the final stage.
func Run(ctx context.Context, cfg Config) (Result, error) {
	res := Result{
		RunID:     uuid.NewString(),
		Table:     cfg.DestinationTable,
		Durations: make(map[core.Stage]time.Duration, 3),
	}
	if res.Table == "" {
		res.Table = DefaultTable
	}
	if cfg.Destination == nil {
		return res, errors.New("pipeline: destination is required")
	}

	ctx = logging.WithRunID(ctx, res.RunID)
	logger := logging.FromContext(ctx)
	start := time.Now()

	logger.Info("run started",
		"region_a", cfg.RegionASource,
		"region_b", cfg.RegionBSource,
		"driver", cfg.Destination.Driver(),
		"table", res.Table,
	)

	stageStart := time.Now()
	a, err := load(ctx, cfg.RegionASource, core.RegionA)
	if err != nil {
		return res, fail(ctx, &res, start, err)
	}
	b, err := load(ctx, cfg.RegionBSource, core.RegionB)
	if err != nil {
		return res, fail(ctx, &res, start, err)
	}
	res.Durations[core.StageLoad] = time.Since(stageStart)

	stageStart = time.Now()
	table, stats, err := core.Transform(a, b)
	if err != nil {
		return res, fail(ctx, &res, start, err)
	}
	res.Stats = stats
	res.Durations[core.StageTransform] = time.Since(stageStart)
	logging.WithFields(ctx, "stage", core.StageTransform).Info("stage completed",
		"combined", stats.CombinedRows,
		"duplicates", stats.DuplicateRows,
		"non_positive", stats.NonPositiveRows,
		"output", stats.OutputRows,
		"duration", res.Durations[core.StageTransform],
	)

	// A cancelled run must not reach the destination.
	if err := ctx.Err(); err != nil {
		return res, fail(ctx, &res, start, err)
	}

	stageStart = time.Now()
	if err := cfg.Destination.Replace(ctx, res.Table, table); err != nil {
		return res, fail(ctx, &res, start, err)
	}
	res.Durations[core.StageSink] = time.Since(stageStart)
	logging.WithFields(ctx, "stage", core.StageSink).Info("stage completed",
		"table", res.Table,
		"rows", len(table.Records),
		"duration", res.Durations[core.StageSink],
	)

	res.Elapsed = time.Since(start)
	logger.Info("run completed", "rows", stats.OutputRows, "duration", res.Elapsed)
	return res, nil
}

// load reads one source and flattens it under region.
func load(ctx context.Context, path string, region core.Region) (*core.FlatTable, error) {
	stageStart := time.Now()

	s, err := sheet.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	t, err := core.Flatten(s, region)
	if err != nil {
		return nil, err
	}

	logging.WithFields(ctx, "stage", core.StageLoad, "region", region).Info("region loaded",
		"source", path,
		"rows", len(t.Records),
		"columns", len(t.Columns),
		"duration", time.Since(stageStart),
	)
	return t, nil
}

// fail logs a failed run and returns err unchanged.
func fail(ctx context.Context, res *Result, start time.Time, err error) error {
	res.Elapsed = time.Since(start)

	attrs := []any{"error", err, "duration", res.Elapsed}
	if stage := core.StageOf(err); stage != "" {
		attrs = append(attrs, "stage", stage, "code", core.CodeOf(err))
	}
	logging.FromContext(ctx).Error("run failed", attrs...)
	return err
}

// String renders the result for a one-line summary.
func (r Result) String() string {
	return fmt.Sprintf("run %s: %d+%d rows loaded, %d duplicates, %d non-positive, %d written to %s in %s",
		r.RunID, r.Stats.RegionARows, r.Stats.RegionBRows, r.Stats.DuplicateRows,
		r.Stats.NonPositiveRows, r.Stats.OutputRows, r.Table, r.Elapsed.Round(time.Millisecond))
}
