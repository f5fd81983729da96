// Package aggregate maintains several independently keyed accumulator maps
// over a single scan of the raw event stream. Accumulators are transient and
// process-local: they are rebuilt from scratch on every run and flushed into
// their targets with full-reload semantics.
package aggregate

import (
	"context"
	"time"

	"adtech-etl/internal/core/domain"
	"adtech-etl/internal/core/port"
)

// Projection is one (key-extractor, accumulate-function) pair applied to
// every scanned row. Adding a projection never requires touching the scan
// loop. Accumulation operators are commutative and associative, so row
// order does not affect the final values.
type Projection interface {
	Name() string
	Add(ev domain.RawEvent)
}

// Engine applies a fixed set of projections to one pass over the source.
// Scanning once and updating N in-memory maps is strictly cheaper than one
// pass per projection when the source is an expensive sequential scan.
type Engine struct {
	projections []Projection
}

// NewEngine builds an engine over the given projection set.
func NewEngine(projections ...Projection) *Engine {
	return &Engine{projections: projections}
}

// Projections returns the registered projection set.
func (e *Engine) Projections() []Projection {
	return e.projections
}

// Run performs the single aggregation pass. Rows the source could not parse
// are already excluded from the stream and reported in the scan stats; a
// fully unreadable source aborts the run with an error.
func (e *Engine) Run(ctx context.Context, src port.EventSource) (port.ScanStats, error) {
	return src.Scan(ctx, func(ev domain.RawEvent) error {
		for _, p := range e.projections {
			p.Add(ev)
		}
		return nil
	})
}

// Window is a closed time interval filter for windowed projections. The
// zero Window accepts everything.
type Window struct {
	From, To time.Time
}

// Contains reports whether ts falls inside the window.
func (w Window) Contains(ts time.Time) bool {
	if w.From.IsZero() && w.To.IsZero() {
		return true
	}
	return !ts.Before(w.From) && !ts.After(w.To)
}

// MaxTimestamp scans the source once and returns the latest event
// timestamp. Windowed aggregations anchor "now" on it because the dataset
// itself, not the wall clock, defines freshness. ok is false when the
// source holds no events with a usable timestamp.
func MaxTimestamp(ctx context.Context, src port.EventSource) (latest time.Time, ok bool, err error) {
	_, err = src.Scan(ctx, func(ev domain.RawEvent) error {
		if ev.Timestamp.After(latest) {
			latest = ev.Timestamp
			ok = true
		}
		return nil
	})
	if err != nil {
		return time.Time{}, false, err
	}
	return latest, ok, nil
}
