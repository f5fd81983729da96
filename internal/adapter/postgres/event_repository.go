package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"adtech-etl/internal/core/domain"
	"adtech-etl/internal/core/port"
)

// EventRepository reads and writes the raw_events table. It implements
// port.EventSource with a keyset-paginated chunked scan and port.EventStore
// for the bulk file loader.
//
// Decimal columns travel as text on both paths so the exact NUMERIC value
// survives the round trip without float conversion.
type EventRepository struct {
	pool      *pgxpool.Pool
	chunkSize int
	logger    *slog.Logger
}

// NewEventRepository returns a new repository instance. chunkSize bounds
// how many rows one scan round trip fetches.
func NewEventRepository(pool *pgxpool.Pool, chunkSize int, logger *slog.Logger) *EventRepository {
	if chunkSize < 1 {
		chunkSize = 1000
	}
	return &EventRepository{pool: pool, chunkSize: chunkSize, logger: logger}
}

const eventColumns = `event_id, user_id, advertiser_name, campaign_name, device, location, ts,
    bid_amount::text, ad_cost::text, was_clicked, click_ts, ad_revenue::text, ad_slot_size,
    targeting_country, targeting_interest, targeting_criteria, campaign_start_date, campaign_end_date`

type eventRow struct {
	EventID           uuid.UUID
	UserID            int64
	AdvertiserName    string
	CampaignName      string
	Device            *string
	Location          *string
	TS                time.Time
	BidAmount         string
	AdCost            string
	WasClicked        bool
	ClickTS           *time.Time
	AdRevenue         *string
	AdSlotSize        *string
	TargetingCountry  *string
	TargetingInterest *string
	TargetingCriteria *string
	CampaignStart     *time.Time
	CampaignEnd       *time.Time
}

// Scan streams raw_events in chunks ordered by event_id. Rows whose stored
// text fields cannot be normalized (campaign name without a trailing id,
// malformed slot size, malformed decimals) are skipped with a counted
// warning; a failed query aborts the scan.
func (r *EventRepository) Scan(ctx context.Context, fn func(domain.RawEvent) error) (port.ScanStats, error) {
	var stats port.ScanStats
	var lastID *uuid.UUID

	for {
		rows, err := r.queryChunk(ctx, lastID)
		if err != nil {
			return stats, fmt.Errorf("scan raw_events: %w", err)
		}
		chunk, err := pgx.CollectRows(rows, pgx.RowToStructByPos[eventRow])
		if err != nil {
			return stats, fmt.Errorf("scan raw_events: %w", err)
		}
		if len(chunk) == 0 {
			return stats, nil
		}

		for i := range chunk {
			row := &chunk[i]
			ev, err := row.toDomain()
			if err != nil {
				stats.Skipped++
				r.logger.Warn("skipping malformed raw event",
					slog.String("event_id", row.EventID.String()),
					slog.Any("error", err))
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

		last := chunk[len(chunk)-1].EventID
		lastID = &last
		if len(chunk) < r.chunkSize {
			return stats, nil
		}
	}
}

func (r *EventRepository) queryChunk(ctx context.Context, after *uuid.UUID) (pgx.Rows, error) {
	if after == nil {
		return r.pool.Query(ctx,
			fmt.Sprintf(`SELECT %s FROM raw_events ORDER BY event_id LIMIT $1`, eventColumns),
			r.chunkSize)
	}
	return r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM raw_events WHERE event_id > $1 ORDER BY event_id LIMIT $2`, eventColumns),
		*after, r.chunkSize)
}

func (row *eventRow) toDomain() (domain.RawEvent, error) {
	var ev domain.RawEvent
	var err error

	if ev.BidAmount, err = decimal.NewFromString(row.BidAmount); err != nil {
		return ev, fmt.Errorf("bid amount: %w", err)
	}
	if ev.AdCost, err = decimal.NewFromString(row.AdCost); err != nil {
		return ev, fmt.Errorf("ad cost: %w", err)
	}
	if row.AdRevenue != nil {
		rev, err := decimal.NewFromString(*row.AdRevenue)
		if err != nil {
			return ev, fmt.Errorf("ad revenue: %w", err)
		}
		ev.AdRevenue = &rev
	}

	campaignID, err := domain.ParseCampaignID(row.CampaignName)
	if err != nil {
		return ev, err
	}
	var slot domain.SlotSize
	if row.AdSlotSize != nil && *row.AdSlotSize != "" {
		if slot, err = domain.ParseSlotSize(*row.AdSlotSize); err != nil {
			return ev, err
		}
	}

	ev.EventID = row.EventID
	ev.UserID = row.UserID
	ev.Device = deref(row.Device)
	ev.Location = deref(row.Location)
	ev.Timestamp = row.TS.UTC()
	ev.WasClicked = row.WasClicked
	if row.ClickTS != nil {
		ts := row.ClickTS.UTC()
		ev.ClickTimestamp = &ts
	}
	ev.Campaign = domain.CampaignSnapshot{
		CampaignID:        campaignID,
		Name:              row.CampaignName,
		AdvertiserName:    row.AdvertiserName,
		TargetingCriteria: deref(row.TargetingCriteria),
		TargetingInterest: deref(row.TargetingInterest),
		TargetingCountry:  deref(row.TargetingCountry),
		AdSlotSize:        slot,
	}
	if row.CampaignStart != nil {
		ev.Campaign.StartDate = row.CampaignStart.UTC()
	}
	if row.CampaignEnd != nil {
		ev.Campaign.EndDate = row.CampaignEnd.UTC()
	}
	return ev, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Reset clears the raw event table before a fresh bulk load.
func (r *EventRepository) Reset(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `TRUNCATE raw_events`)
	return err
}

// InsertEvents appends one batch of raw events using a pgx batch round trip.
func (r *EventRepository) InsertEvents(ctx context.Context, events []domain.RawEvent) error {
	if len(events) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, ev := range events {
		var clickTS *time.Time
		if ev.ClickTimestamp != nil {
			ts := *ev.ClickTimestamp
			clickTS = &ts
		}
		var revenue *string
		if ev.AdRevenue != nil {
			s := ev.AdRevenue.String()
			revenue = &s
		}
		var start, end *time.Time
		if !ev.Campaign.StartDate.IsZero() {
			start = &ev.Campaign.StartDate
		}
		if !ev.Campaign.EndDate.IsZero() {
			end = &ev.Campaign.EndDate
		}
		slot := fmt.Sprintf("%dx%d", ev.Campaign.AdSlotSize.Width, ev.Campaign.AdSlotSize.Height)
		b.Queue(`INSERT INTO raw_events
    (event_id, user_id, advertiser_name, campaign_name, device, location, ts,
     bid_amount, ad_cost, was_clicked, click_ts, ad_revenue, ad_slot_size,
     targeting_country, targeting_interest, targeting_criteria,
     campaign_start_date, campaign_end_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (event_id) DO NOTHING`,
			ev.EventID, ev.UserID, ev.Campaign.AdvertiserName, ev.Campaign.Name,
			ev.Device, ev.Location, ev.Timestamp,
			ev.BidAmount.String(), ev.AdCost.String(), ev.WasClicked, clickTS, revenue, slot,
			ev.Campaign.TargetingCountry, ev.Campaign.TargetingInterest, ev.Campaign.TargetingCriteria,
			start, end)
	}
	return r.pool.SendBatch(ctx, b).Close()
}
