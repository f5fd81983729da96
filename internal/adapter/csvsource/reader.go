// Package csvsource reads the delimited bulk event file and normalizes its
// rows into domain events.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"adtech-etl/internal/core/domain"
	"adtech-etl/internal/core/port"
)

// Column names expected in the file header. CampaignStartDate and
// CampaignEndDate are optional; everything else is required.
var requiredColumns = []string{
	"EventID", "UserID", "AdvertiserName", "CampaignName", "Device",
	"Location", "Timestamp", "BidAmount", "AdCost", "WasClicked",
	"ClickTimestamp", "AdRevenue", "AdSlotSize",
	"CampaignTargetingCountry", "CampaignTargetingInterest",
	"CampaignTargetingCriteria",
}

// Timestamps appear either with a space separator or as RFC 3339.
var timeLayouts = []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02T15:04:05"}

// Reader is an EventSource over a delimited file. Every Scan reopens the
// file, so the source can be scanned more than once per run.
type Reader struct {
	path   string
	sep    rune
	logger *slog.Logger
}

// NewReader builds a reader for path. sep is the column separator, usually ','.
func NewReader(path string, sep rune, logger *slog.Logger) *Reader {
	return &Reader{path: path, sep: sep, logger: logger}
}

// Scan streams the file's rows as normalized events. Structurally malformed
// rows (wrong field count, bad quoting) and rows that fail type
// normalization are skipped with a counted warning; only an unreadable file
// or a header missing required columns aborts the scan.
func (r *Reader) Scan(ctx context.Context, fn func(domain.RawEvent) error) (port.ScanStats, error) {
	var stats port.ScanStats

	f, err := os.Open(r.path)
	if err != nil {
		return stats, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = r.sep

	header, err := cr.Read()
	if err != nil {
		return stats, fmt.Errorf("read event file header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return stats, fmt.Errorf("event file header missing column %q", name)
		}
	}

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		line++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Skipped++
			r.logger.Warn("skipping malformed event row",
				slog.Int("line", parseErr.Line), slog.Any("error", err))
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("read event file line %d: %w", line, err)
		}

		ev, err := parseRow(record, cols)
		if err != nil {
			stats.Skipped++
			r.logger.Warn("skipping malformed event row",
				slog.Int("line", line), slog.Any("error", err))
			continue
		}
		stats.Rows++
		if err := fn(ev); err != nil {
			if errors.Is(err, port.ErrStopScan) {
				return stats, nil
			}
			return stats, err
		}
	}
}

func parseRow(record []string, cols map[string]int) (domain.RawEvent, error) {
	get := func(name string) string {
		if i, ok := cols[name]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	var ev domain.RawEvent
	var err error

	if ev.EventID, err = uuid.Parse(get("EventID")); err != nil {
		return ev, fmt.Errorf("event id: %w", err)
	}
	if ev.UserID, err = strconv.ParseInt(get("UserID"), 10, 64); err != nil {
		return ev, fmt.Errorf("user id: %w", err)
	}
	if ev.Timestamp, err = parseTime(get("Timestamp")); err != nil {
		return ev, fmt.Errorf("timestamp: %w", err)
	}
	if ev.BidAmount, err = decimal.NewFromString(get("BidAmount")); err != nil {
		return ev, fmt.Errorf("bid amount: %w", err)
	}
	if ev.AdCost, err = decimal.NewFromString(get("AdCost")); err != nil {
		return ev, fmt.Errorf("ad cost: %w", err)
	}
	if ev.WasClicked, err = strconv.ParseBool(get("WasClicked")); err != nil {
		return ev, fmt.Errorf("was clicked: %w", err)
	}
	ev.Device = get("Device")
	ev.Location = get("Location")

	if ev.WasClicked {
		if raw := get("ClickTimestamp"); raw != "" {
			ts, err := parseTime(raw)
			if err != nil {
				return ev, fmt.Errorf("click timestamp: %w", err)
			}
			ev.ClickTimestamp = &ts
		}
		if raw := get("AdRevenue"); raw != "" {
			rev, err := decimal.NewFromString(raw)
			if err != nil {
				return ev, fmt.Errorf("ad revenue: %w", err)
			}
			ev.AdRevenue = &rev
		}
	}

	name := get("CampaignName")
	campaignID, err := domain.ParseCampaignID(name)
	if err != nil {
		return ev, err
	}
	slot, err := domain.ParseSlotSize(get("AdSlotSize"))
	if err != nil {
		return ev, err
	}
	ev.Campaign = domain.CampaignSnapshot{
		CampaignID:        campaignID,
		Name:              name,
		AdvertiserName:    get("AdvertiserName"),
		TargetingCriteria: get("CampaignTargetingCriteria"),
		TargetingInterest: get("CampaignTargetingInterest"),
		TargetingCountry:  get("CampaignTargetingCountry"),
		AdSlotSize:        slot,
	}
	// optional snapshot dates; blank is fine, garbage is not
	if raw := get("CampaignStartDate"); raw != "" {
		if ev.Campaign.StartDate, err = parseTime(raw); err != nil {
			return ev, fmt.Errorf("campaign start date: %w", err)
		}
	}
	if raw := get("CampaignEndDate"); raw != "" {
		if ev.Campaign.EndDate, err = parseTime(raw); err != nil {
			return ev, fmt.Errorf("campaign end date: %w", err)
		}
	}
	return ev, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
