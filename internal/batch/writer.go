// Package batch slices large reload sets into bounded-size sink writes.
package batch

import (
	"context"
	"fmt"
	"log/slog"
)

// FlushFunc persists one batch of records to a sink.
type FlushFunc[T any] func(ctx context.Context, items []T) error

// Report summarises one WriteAll invocation. A failed batch is logged and
// skipped; the remaining batches still run, so the caller must treat a full
// reload as best-effort rather than atomic.
type Report struct {
	Batches int
	Written int
	Errors  []BatchError
}

// Failed reports whether any batch write was rejected.
func (r Report) Failed() bool { return len(r.Errors) > 0 }

// BatchError records one rejected batch with enough context (index and
// offset range) to support manual replay.
type BatchError struct {
	Batch int
	Start int
	Count int
	Err   error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("batch %d (rows %d..%d): %v", e.Batch, e.Start, e.Start+e.Count-1, e.Err)
}

// Writer writes records in batches of at most size rows. A short final
// batch is still flushed.
type Writer[T any] struct {
	size   int
	flush  FlushFunc[T]
	logger *slog.Logger
}

// NewWriter builds a writer. A non-positive size falls back to 1.
func NewWriter[T any](size int, logger *slog.Logger, flush FlushFunc[T]) *Writer[T] {
	if size < 1 {
		size = 1
	}
	return &Writer[T]{size: size, flush: flush, logger: logger}
}

// WriteAll splits items into batches and flushes each one. Context
// cancellation stops between batches and is returned as the error; per-batch
// sink rejections are collected in the report instead.
func (w *Writer[T]) WriteAll(ctx context.Context, items []T) (Report, error) {
	var rep Report
	for start := 0; start < len(items); start += w.size {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		end := min(start+w.size, len(items))
		chunk := items[start:end]

		if err := w.flush(ctx, chunk); err != nil {
			be := BatchError{Batch: rep.Batches, Start: start, Count: len(chunk), Err: err}
			rep.Errors = append(rep.Errors, be)
			w.logger.Error("batch write rejected",
				slog.Int("batch", be.Batch),
				slog.Int("start", be.Start),
				slog.Int("count", be.Count),
				slog.Any("error", err))
		} else {
			rep.Written += len(chunk)
		}
		rep.Batches++
	}
	return rep, nil
}
