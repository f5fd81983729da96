package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"adtech-etl/internal/batch"
	"adtech-etl/internal/config/configs"
	"adtech-etl/internal/core/aggregate"
	"adtech-etl/internal/core/port"
)

// AggregateJob scans the raw event stream once, feeds every projection
// accumulator, and reloads each projection target with staging-swap
// semantics. Distinct projections share nothing, so their flushes run in
// parallel goroutines.
type AggregateJob struct {
	src                 port.EventSource
	store               port.ProjectionStore
	anchorMode          string
	windowDays          int
	projectionBatchSize int
	engagementBatchSize int
	now                 func() time.Time
	logger              *slog.Logger
}

// NewAggregateJob creates the job. anchorMode selects how windowed
// projections anchor "now" (configs.AnchorLatestEvent or
// configs.AnchorFixedClock); windowDays is the rolling window length.
func NewAggregateJob(src port.EventSource, store port.ProjectionStore, cfg configs.ETL, logger *slog.Logger) *AggregateJob {
	return &AggregateJob{
		src:                 src,
		store:               store,
		anchorMode:          cfg.AnchorMode,
		windowDays:          cfg.WindowDays,
		projectionBatchSize: cfg.ProjectionBatchSize,
		engagementBatchSize: cfg.EngagementBatchSize,
		now:                 time.Now,
		logger:              logger,
	}
}

// Run performs the aggregation pass. With the latest-event anchor the
// source is scanned twice: once to find the newest timestamp, once to
// aggregate. A source with no usable events leaves every live projection
// untouched.
func (j *AggregateJob) Run(ctx context.Context) (port.JobSummary, error) {
	var summary port.JobSummary

	anchor, ok, err := j.resolveAnchor(ctx)
	if err != nil {
		return summary, fmt.Errorf("resolve window anchor: %w", err)
	}
	if !ok {
		j.logger.Info("no events in source, keeping previous projections")
		return summary, nil
	}
	window := aggregate.Window{From: anchor.AddDate(0, 0, -j.windowDays), To: anchor}
	bucket := fmt.Sprintf("last_%d_days", j.windowDays)
	j.logger.Info("aggregation window resolved",
		slog.Time("from", window.From), slog.Time("to", window.To))

	campaigns := aggregate.NewCampaignDaily()
	users := aggregate.NewTopUsers(bucket, window)
	region := aggregate.NewRegionSpend()
	advertisers := aggregate.NewAdvertiserTotals(bucket, window)
	engagement := aggregate.NewEngagement()

	engine := aggregate.NewEngine(campaigns, users, region, advertisers, engagement)
	stats, err := engine.Run(ctx, j.src)
	if err != nil {
		return summary, fmt.Errorf("aggregation pass: %w", err)
	}
	summary.EventsScanned = stats.Rows
	summary.RowsSkipped = stats.Skipped
	j.logger.Info("aggregation pass finished", slog.Int("events", stats.Rows))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	done := func(name string, rep batch.Report, err error) {
		mu.Lock()
		defer mu.Unlock()
		summary.RowsWritten += rep.Written
		summary.FailedBatches += len(rep.Errors)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	run := func(name string, reload func(context.Context) (batch.Report, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep, err := reload(ctx)
			done(name, rep, err)
		}()
	}

	run(campaigns.Name(), func(ctx context.Context) (batch.Report, error) {
		return reloadProjection(ctx, j, campaigns.Name(), campaigns.Rows(), j.projectionBatchSize, j.store.InsertCampaignDailyMetrics)
	})
	run(users.Name(), func(ctx context.Context) (batch.Report, error) {
		return reloadProjection(ctx, j, users.Name(), users.Rows(), j.projectionBatchSize, j.store.InsertUserClickCounts)
	})
	run(region.Name(), func(ctx context.Context) (batch.Report, error) {
		return reloadProjection(ctx, j, region.Name(), region.Rows(), j.projectionBatchSize, j.store.InsertRegionAdvertiserSpend)
	})
	run(advertisers.Name(), func(ctx context.Context) (batch.Report, error) {
		return reloadProjection(ctx, j, advertisers.Name(), advertisers.Rows(), j.projectionBatchSize, j.store.InsertAdvertiserSpend)
	})
	run(engagement.Name(), func(ctx context.Context) (batch.Report, error) {
		return reloadProjection(ctx, j, engagement.Name(), engagement.Rows(), j.engagementBatchSize, j.store.InsertEngagementRecords)
	})
	wg.Wait()

	return summary, errors.Join(errs...)
}

func (j *AggregateJob) resolveAnchor(ctx context.Context) (time.Time, bool, error) {
	if j.anchorMode == configs.AnchorFixedClock {
		return j.now().UTC(), true, nil
	}
	return aggregate.MaxTimestamp(ctx, j.src)
}

// reloadProjection performs one projection's staging reload: reset, batched
// fill, publish. When any batch was rejected the publish step is skipped so
// the live projection keeps the previous run's rows.
func reloadProjection[T any](ctx context.Context, j *AggregateJob, name string, rows []T, size int, insert batch.FlushFunc[T]) (batch.Report, error) {
	if err := j.store.ResetStaging(ctx, name); err != nil {
		return batch.Report{}, fmt.Errorf("reset staging: %w", err)
	}
	w := batch.NewWriter(size, j.logger.With(slog.String("projection", name)), insert)
	rep, err := w.WriteAll(ctx, rows)
	if err != nil {
		return rep, err
	}
	if rep.Failed() {
		return rep, ErrIncompleteReload
	}
	if err := j.store.PublishStaging(ctx, name); err != nil {
		return rep, fmt.Errorf("publish staging: %w", err)
	}
	j.logger.Info("projection reloaded", slog.String("projection", name), slog.Int("rows", rep.Written))
	return rep, nil
}
