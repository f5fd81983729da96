// Package sessionize partitions a flat per-user ad event stream into
// session documents using an inactivity-gap rule.
package sessionize

import (
	"sort"
	"time"

	"adtech-etl/internal/core/domain"
)

// Result carries the produced sessions plus the number of events that were
// excluded from windowing because they had no usable timestamp.
type Result struct {
	Sessions []domain.Session
	Dropped  int
}

// Sessionize groups events by user, orders each group by timestamp
// (stable on ties) and cuts a new session whenever the gap between two
// consecutive events strictly exceeds timeout. Session boundaries are a
// pure function of timestamp gaps; no other field participates.
//
// Events with a zero timestamp are excluded and counted in Dropped rather
// than being treated as gap-zero. The input slice is not modified.
func Sessionize(events []domain.RawEvent, timeout time.Duration) Result {
	var res Result

	ordered := make([]domain.RawEvent, 0, len(events))
	for _, ev := range events {
		if ev.Timestamp.IsZero() {
			res.Dropped++
			continue
		}
		ordered = append(ordered, ev)
	}

	// Sort by (user, timestamp) then emit boundaries in one linear scan,
	// so per-user buckets never need to be held separately in memory.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].UserID != ordered[j].UserID {
			return ordered[i].UserID < ordered[j].UserID
		}
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var (
		bag    []domain.Impression
		user   int64
		lastTS time.Time
	)
	flush := func() {
		if len(bag) == 0 {
			return
		}
		res.Sessions = append(res.Sessions, domain.NewSession(user, bag))
		bag = nil
	}

	for _, ev := range ordered {
		if len(bag) > 0 && (ev.UserID != user || ev.Timestamp.Sub(lastTS) > timeout) {
			flush()
		}
		bag = append(bag, domain.NewImpression(ev))
		user = ev.UserID
		lastTS = ev.Timestamp
	}
	flush()

	return res
}
