package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"adtech-etl/internal/batch"
	"adtech-etl/internal/core/domain"
	"adtech-etl/internal/core/port"
	"adtech-etl/internal/core/sessionize"
)

// ErrIncompleteReload is returned when some sink batches were rejected. The
// staging target is incomplete, so the job skips the publish step and the
// live target keeps the previous run's data. Rerun to completion to refresh
// the projection.
var ErrIncompleteReload = errors.New("reload incomplete: some batches were rejected")

// SessionizeJob converts the flat raw event stream into session documents
// and reloads the session store.
type SessionizeJob struct {
	src       port.EventSource
	store     port.SessionStore
	timeout   time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewSessionizeJob creates the job. timeout is the inactivity gap that
// closes a session; batchSize bounds one session sink write.
func NewSessionizeJob(src port.EventSource, store port.SessionStore, timeout time.Duration, batchSize int, logger *slog.Logger) *SessionizeJob {
	return &SessionizeJob{src: src, store: store, timeout: timeout, batchSize: batchSize, logger: logger}
}

// Run performs one full pass: scan, window, reload. A source failure is
// fatal and nothing is written; rejected sink batches are logged, the
// remaining batches continue, and the publish step is skipped so the live
// session set stays consistent.
func (j *SessionizeJob) Run(ctx context.Context) (port.JobSummary, error) {
	var summary port.JobSummary

	var events []domain.RawEvent
	stats, err := j.src.Scan(ctx, func(ev domain.RawEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("read event source: %w", err)
	}
	summary.EventsScanned = stats.Rows
	summary.RowsSkipped = stats.Skipped

	res := sessionize.Sessionize(events, j.timeout)
	summary.RowsSkipped += res.Dropped
	if res.Dropped > 0 {
		j.logger.Warn("events excluded from windowing", slog.Int("count", res.Dropped))
	}
	j.logger.Info("windowing finished",
		slog.Int("events", stats.Rows),
		slog.Int("sessions", len(res.Sessions)))

	if err := j.store.EnsureIndexes(ctx); err != nil {
		return summary, err
	}
	if err := j.store.ResetStaging(ctx); err != nil {
		return summary, fmt.Errorf("reset session staging: %w", err)
	}

	w := batch.NewWriter(j.batchSize, j.logger, j.store.InsertSessions)
	rep, err := w.WriteAll(ctx, res.Sessions)
	if err != nil {
		return summary, err
	}
	summary.RowsWritten = rep.Written
	summary.FailedBatches = len(rep.Errors)
	if rep.Failed() {
		return summary, ErrIncompleteReload
	}

	if err := j.store.PublishStaging(ctx); err != nil {
		return summary, fmt.Errorf("publish sessions: %w", err)
	}
	return summary, nil
}
