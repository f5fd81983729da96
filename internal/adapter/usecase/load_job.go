package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"adtech-etl/internal/batch"
	"adtech-etl/internal/core/domain"
	"adtech-etl/internal/core/port"
)

// LoadJob bulk-loads the delimited event file into the raw event table.
// The table is cleared first, so re-running the load against the same file
// reproduces the same table contents.
type LoadJob struct {
	src       port.EventSource
	store     port.EventStore
	batchSize int
	logger    *slog.Logger
}

// NewLoadJob creates the job.
func NewLoadJob(src port.EventSource, store port.EventStore, batchSize int, logger *slog.Logger) *LoadJob {
	return &LoadJob{src: src, store: store, batchSize: batchSize, logger: logger}
}

// Run scans the file and writes its rows in batches. Malformed rows were
// already skipped and counted by the reader; rejected batches are logged
// and do not block the remaining batches.
func (j *LoadJob) Run(ctx context.Context) (port.JobSummary, error) {
	var summary port.JobSummary

	var events []domain.RawEvent
	stats, err := j.src.Scan(ctx, func(ev domain.RawEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("read event file: %w", err)
	}
	summary.EventsScanned = stats.Rows
	summary.RowsSkipped = stats.Skipped

	if err := j.store.Reset(ctx); err != nil {
		return summary, fmt.Errorf("reset raw events: %w", err)
	}

	w := batch.NewWriter(j.batchSize, j.logger, j.store.InsertEvents)
	rep, err := w.WriteAll(ctx, events)
	if err != nil {
		return summary, err
	}
	summary.RowsWritten = rep.Written
	summary.FailedBatches = len(rep.Errors)

	j.logger.Info("raw events loaded",
		slog.Int("rows", rep.Written),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed_batches", len(rep.Errors)))
	if rep.Failed() {
		return summary, ErrIncompleteReload
	}
	return summary, nil
}
