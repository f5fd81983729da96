package port

import (
	"context"
	"errors"

	"adtech-etl/internal/core/domain"
)

// ErrStopScan may be returned from a scan callback to stop the scan early
// without reporting an error to the caller.
var ErrStopScan = errors.New("stop scan")

// ScanStats reports how a source scan went. Skipped counts rows the source
// could read but not parse; those rows are logged by the source and excluded
// from the emitted event stream.
type ScanStats struct {
	Rows    int
	Skipped int
}

// EventSource streams normalized raw events in bounded chunks. A source must
// be scannable more than once within a run: windowed aggregations perform a
// max-timestamp pre-scan before the main pass. Scan aborts with an error
// only when the source itself is unreadable; a minority of malformed rows is
// skipped and counted instead.
type EventSource interface {
	Scan(ctx context.Context, fn func(domain.RawEvent) error) (ScanStats, error)
}
