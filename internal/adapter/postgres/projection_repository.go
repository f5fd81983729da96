package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"adtech-etl/internal/core/domain"
	"adtech-etl/internal/core/port"
)

// ProjectionRepository implements port.ProjectionStore and
// port.AnalyticsStore over the projection tables. Each projection has a
// `<table>_staging` twin: a reload fills staging in batches and publishes
// by moving the staged rows into the live table inside one transaction, so
// an interrupted run never leaves the live projection half rewritten.
type ProjectionRepository struct {
	pool *pgxpool.Pool
}

// NewProjectionRepository returns a new repository instance.
func NewProjectionRepository(pool *pgxpool.Pool) *ProjectionRepository {
	return &ProjectionRepository{pool: pool}
}

// projectionTables whitelists the projections; names are interpolated into
// SQL and must never come from user input.
var projectionTables = map[string]bool{
	port.ProjectionCampaignDailyMetrics:    true,
	port.ProjectionTopUsersByClicks:        true,
	port.ProjectionAdvertiserSpendByRegion: true,
	port.ProjectionTopAdvertisersBySpend:   true,
	port.ProjectionUserEngagementHistory:   true,
}

func tableName(projection string) (string, error) {
	if !projectionTables[projection] {
		return "", fmt.Errorf("unknown projection %q", projection)
	}
	return projection, nil
}

// ResetStaging clears the projection's staging table.
func (r *ProjectionRepository) ResetStaging(ctx context.Context, projection string) error {
	table, err := tableName(projection)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, fmt.Sprintf(`TRUNCATE %s_staging`, table))
	return err
}

// publishTx is the slice of pgx.Tx the publish step needs.
type publishTx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PublishStaging atomically replaces the live projection with the staged
// rows.
func (r *ProjectionRepository) PublishStaging(ctx context.Context, projection string) error {
	table, err := tableName(projection)
	if err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	return publishStaged(ctx, tx, table)
}

// publishStaged runs the swap inside tx. The named return matters: a failed
// commit must surface to the caller, otherwise the job would report success
// while the live table still holds the previous run.
func publishStaged(ctx context.Context, tx publishTx, table string) (err error) {
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, table)); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s SELECT * FROM %s_staging`, table, table)); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, fmt.Sprintf(`TRUNCATE %s_staging`, table))
	return err
}

// InsertCampaignDailyMetrics appends one batch to the staging table.
func (r *ProjectionRepository) InsertCampaignDailyMetrics(ctx context.Context, rows []domain.CampaignDailyMetric) error {
	b := &pgx.Batch{}
	for _, row := range rows {
		b.Queue(`INSERT INTO campaign_daily_metrics_staging (campaign_id, event_date, impressions, clicks, ctr)
VALUES ($1,$2,$3,$4,$5)`,
			row.CampaignID, row.EventDate, row.Impressions, row.Clicks, row.CTR)
	}
	return r.pool.SendBatch(ctx, b).Close()
}

// InsertUserClickCounts appends one batch to the staging table.
func (r *ProjectionRepository) InsertUserClickCounts(ctx context.Context, rows []domain.UserClickCount) error {
	b := &pgx.Batch{}
	for _, row := range rows {
		b.Queue(`INSERT INTO top_users_by_clicks_staging (time_bucket, user_id, total_clicks)
VALUES ($1,$2,$3)`,
			row.TimeBucket, row.UserID, row.TotalClicks)
	}
	return r.pool.SendBatch(ctx, b).Close()
}

// InsertRegionAdvertiserSpend appends one batch to the staging table.
func (r *ProjectionRepository) InsertRegionAdvertiserSpend(ctx context.Context, rows []domain.RegionAdvertiserSpend) error {
	b := &pgx.Batch{}
	for _, row := range rows {
		b.Queue(`INSERT INTO advertiser_spend_by_region_staging (region, event_date, advertiser_name, total_spend)
VALUES ($1,$2,$3,$4)`,
			row.Region, row.EventDate, row.AdvertiserName, row.TotalSpend.String())
	}
	return r.pool.SendBatch(ctx, b).Close()
}

// InsertAdvertiserSpend appends one batch to the staging table.
func (r *ProjectionRepository) InsertAdvertiserSpend(ctx context.Context, rows []domain.AdvertiserSpend) error {
	b := &pgx.Batch{}
	for _, row := range rows {
		b.Queue(`INSERT INTO top_advertisers_by_spend_staging (time_bucket, advertiser_name, total_spend)
VALUES ($1,$2,$3)`,
			row.TimeBucket, row.AdvertiserName, row.TotalSpend.String())
	}
	return r.pool.SendBatch(ctx, b).Close()
}

// InsertEngagementRecords appends one batch to the staging table.
func (r *ProjectionRepository) InsertEngagementRecords(ctx context.Context, rows []domain.EngagementRecord) error {
	b := &pgx.Batch{}
	for _, row := range rows {
		b.Queue(`INSERT INTO user_engagement_history_staging (user_id, event_time, event_id, campaign_name, advertiser_name, was_clicked)
VALUES ($1,$2,$3,$4,$5,$6)`,
			row.UserID, row.EventTime, row.EventID, row.CampaignName, row.AdvertiserName, row.WasClicked)
	}
	return r.pool.SendBatch(ctx, b).Close()
}

// CampaignDailyMetrics returns the daily metric rows for one campaign
// inside [from, to], newest day first.
func (r *ProjectionRepository) CampaignDailyMetrics(ctx context.Context, campaignID int, from, to time.Time) ([]domain.CampaignDailyMetric, error) {
	rows, err := r.pool.Query(ctx, `SELECT campaign_id, event_date, impressions, clicks, ctr
FROM campaign_daily_metrics
WHERE campaign_id = $1 AND event_date >= $2 AND event_date <= $3
ORDER BY event_date DESC`, campaignID, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CampaignDailyMetric, error) {
		var m domain.CampaignDailyMetric
		err := row.Scan(&m.CampaignID, &m.EventDate, &m.Impressions, &m.Clicks, &m.CTR)
		return m, err
	})
}

// TopUsersByClicks returns the highest-clicking users, most clicks first.
func (r *ProjectionRepository) TopUsersByClicks(ctx context.Context, limit int) ([]domain.UserClickCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT time_bucket, user_id, total_clicks
FROM top_users_by_clicks
ORDER BY total_clicks DESC, user_id
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.UserClickCount, error) {
		var u domain.UserClickCount
		err := row.Scan(&u.TimeBucket, &u.UserID, &u.TotalClicks)
		return u, err
	})
}

// RegionAdvertiserSpend returns the spend rows for one region, highest
// spend first.
func (r *ProjectionRepository) RegionAdvertiserSpend(ctx context.Context, region string) ([]domain.RegionAdvertiserSpend, error) {
	rows, err := r.pool.Query(ctx, `SELECT region, event_date, advertiser_name, total_spend::text
FROM advertiser_spend_by_region
WHERE region = $1
ORDER BY total_spend DESC, event_date DESC, advertiser_name`, region)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RegionAdvertiserSpend, error) {
		var s domain.RegionAdvertiserSpend
		var spend string
		if err := row.Scan(&s.Region, &s.EventDate, &s.AdvertiserName, &spend); err != nil {
			return s, err
		}
		var err error
		s.TotalSpend, err = decimal.NewFromString(spend)
		return s, err
	})
}

// TopAdvertisersBySpend returns the biggest spenders, highest spend first.
func (r *ProjectionRepository) TopAdvertisersBySpend(ctx context.Context, limit int) ([]domain.AdvertiserSpend, error) {
	rows, err := r.pool.Query(ctx, `SELECT time_bucket, advertiser_name, total_spend::text
FROM top_advertisers_by_spend
ORDER BY total_spend DESC, advertiser_name
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AdvertiserSpend, error) {
		var s domain.AdvertiserSpend
		var spend string
		if err := row.Scan(&s.TimeBucket, &s.AdvertiserName, &spend); err != nil {
			return s, err
		}
		var err error
		s.TotalSpend, err = decimal.NewFromString(spend)
		return s, err
	})
}

// UserEngagementHistory returns one user's most recent events, newest first.
func (r *ProjectionRepository) UserEngagementHistory(ctx context.Context, userID int64, limit int) ([]domain.EngagementRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, event_time, event_id, campaign_name, advertiser_name, was_clicked
FROM user_engagement_history
WHERE user_id = $1
ORDER BY event_time DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.EngagementRecord, error) {
		var e domain.EngagementRecord
		err := row.Scan(&e.UserID, &e.EventTime, &e.EventID, &e.CampaignName, &e.AdvertiserName, &e.WasClicked)
		return e, err
	})
}
