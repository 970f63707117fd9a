package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wiroj/stocketl/internal/calendar"
	"github.com/wiroj/stocketl/internal/metrics"
	"github.com/wiroj/stocketl/internal/storage"
)

// Loader consumes a day's stored artifacts after extraction completes.
// Both the wide-row aggregator and the lookup-table loader satisfy it.
type Loader interface {
	Load(ctx context.Context, prefix string) error
}

// Runner drives one pipeline invocation for a single run day:
// checkpoint resolution, the due extraction stages in order, then the
// loaders against the same day prefix.
type Runner struct {
	resolver  *Resolver
	extractor *Extractor
	loaders   []Loader
	cal       calendar.Calendar
	gw        storage.Gateway
	bucket    string
	logger    *slog.Logger
}

// NewRunner wires a runner. cal may be nil, in which case every day is a
// trading day. Loaders run in the given order after extraction.
func NewRunner(
	resolver *Resolver,
	extractor *Extractor,
	loaders []Loader,
	cal calendar.Calendar,
	gw storage.Gateway,
	bucket string,
	logger *slog.Logger,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		resolver:  resolver,
		extractor: extractor,
		loaders:   loaders,
		cal:       cal,
		gw:        gw,
		bucket:    bucket,
		logger:    logger,
	}
}

// Report summarizes one invocation.
type Report struct {
	RunID      string    `json:"run_id"`
	Day        string    `json:"day"`
	Skipped    bool      `json:"skipped"`
	SkipReason string    `json:"skip_reason,omitempty"`
	StagesRun  []string  `json:"stages_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Run executes the pipeline for the given day. Fatal stage errors abort
// the invocation and propagate unchanged; the next run resumes from the
// checkpoint the completed stages left behind.
func (r *Runner) Run(ctx context.Context, day time.Time) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Day:       DayPrefix(day),
		StartedAt: time.Now().UTC(),
	}
	logger := r.logger.With("run_id", report.RunID, "day", report.Day)

	if r.cal != nil && r.cal.IsHoliday(day) {
		logger.Info("market holiday, skipping run")
		report.Skipped = true
		report.SkipReason = "holiday"
		report.FinishedAt = time.Now().UTC()
		metrics.RunsTotal.WithLabelValues("skipped").Inc()
		return report, nil
	}

	prefix := report.Day
	if err := r.extractor.EnsureDay(ctx, prefix); err != nil {
		metrics.RunsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	due := r.resolver.Resolve(ctx, prefix)
	if err := r.runStages(ctx, logger, report, prefix, due); err != nil {
		metrics.RunsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	for _, loader := range r.loaders {
		if err := loader.Load(ctx, prefix); err != nil {
			metrics.RunsTotal.WithLabelValues("failure").Inc()
			return nil, err
		}
	}

	report.FinishedAt = time.Now().UTC()
	r.writeManifest(ctx, report)
	metrics.RunsTotal.WithLabelValues("success").Inc()
	logger.Info("run complete",
		"stages", report.StagesRun,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

// runStages dispatches the due stages in pipeline order, threading the
// ranked symbol list from the most-active stage into the per-symbol
// stages. On resume the list is recovered from the stored artifact.
func (r *Runner) runStages(ctx context.Context, logger *slog.Logger, report *Report, prefix string, due []Stage) error {
	if len(due) == 0 {
		logger.Info("extraction already complete, loading only")
		return nil
	}

	dueSet := make(map[Stage]bool, len(due))
	for _, s := range due {
		dueSet[s] = true
	}

	// A fresh ranked list supersedes any per-symbol artifacts already
	// present: the new top symbols may differ from what a prior run
	// stored, so every downstream stage runs again.
	if dueSet[StageMostActive] {
		for _, s := range Stages {
			dueSet[s] = true
		}
	}

	var symbols []string

	dispatch := map[Stage]func(context.Context) error{
		StageMostActive: func(ctx context.Context) error {
			top, err := r.extractor.ExtractMostActive(ctx, prefix)
			if err != nil {
				return err
			}
			symbols = top
			return nil
		},
		StagePrice: func(ctx context.Context) error {
			return r.extractor.ExtractPrices(ctx, prefix, symbols)
		},
		StageNews: func(ctx context.Context) error {
			return r.extractor.ExtractNews(ctx, prefix, symbols)
		},
		StageBizInfo: func(ctx context.Context) error {
			return r.extractor.ExtractBizInfo(ctx, prefix, symbols)
		},
	}

	// Resumed run: the ranked list already exists, recover the symbols
	// the per-symbol stages need.
	if !dueSet[StageMostActive] {
		top, err := r.extractor.StoredTopSymbols(ctx, prefix)
		if err != nil {
			return err
		}
		symbols = top
	}

	for _, stage := range Stages {
		if !dueSet[stage] {
			continue
		}
		start := time.Now()
		if err := dispatch[stage](ctx); err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
		metrics.StageDuration.WithLabelValues(stage.String()).Observe(time.Since(start).Seconds())
		report.StagesRun = append(report.StagesRun, stage.String())
	}
	return nil
}

// writeManifest records run lineage next to the data. Failures are
// logged, not fatal; the manifest is advisory.
func (r *Runner) writeManifest(ctx context.Context, report *Report) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		r.logger.Warn("marshal manifest failed", "error", err)
		return
	}
	key := fmt.Sprintf("_runs/%s/manifest.json", report.RunID)
	if _, err := r.gw.PutObject(ctx, r.bucket, key, data); err != nil {
		r.logger.Warn("manifest write failed", "key", key, "error", err)
	}
}
