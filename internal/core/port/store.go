package port

import (
	"context"
	"time"

	"adtech-etl/internal/core/domain"
)

// SessionStore persists session documents. Implementations fill a staging
// target and publish it with an atomic swap, so a rerun against unchanged
// raw data replaces the prior projection without stale leftovers and a run
// that dies before PublishStaging leaves the live data untouched.
type SessionStore interface {
	// EnsureIndexes confirms the session target exists with the expected
	// (userId, sessionStart desc) key layout.
	EnsureIndexes(ctx context.Context) error
	// ResetStaging clears the staging target before a full reload.
	ResetStaging(ctx context.Context) error
	// InsertSessions appends one batch of sessions to the staging target.
	InsertSessions(ctx context.Context, sessions []domain.Session) error
	// PublishStaging atomically replaces the live target with staging.
	PublishStaging(ctx context.Context) error
}

// Names of the projection targets handled by ProjectionStore.
const (
	ProjectionCampaignDailyMetrics    = "campaign_daily_metrics"
	ProjectionTopUsersByClicks        = "top_users_by_clicks"
	ProjectionAdvertiserSpendByRegion = "advertiser_spend_by_region"
	ProjectionTopAdvertisersBySpend   = "top_advertisers_by_spend"
	ProjectionUserEngagementHistory   = "user_engagement_history"
)

// ProjectionStore persists the aggregate projections. Every projection has
// its own staging target; ResetStaging and PublishStaging are scoped by
// projection name so distinct projections can be reloaded in parallel.
type ProjectionStore interface {
	ResetStaging(ctx context.Context, projection string) error
	PublishStaging(ctx context.Context, projection string) error

	InsertCampaignDailyMetrics(ctx context.Context, rows []domain.CampaignDailyMetric) error
	InsertUserClickCounts(ctx context.Context, rows []domain.UserClickCount) error
	InsertRegionAdvertiserSpend(ctx context.Context, rows []domain.RegionAdvertiserSpend) error
	InsertAdvertiserSpend(ctx context.Context, rows []domain.AdvertiserSpend) error
	InsertEngagementRecords(ctx context.Context, rows []domain.EngagementRecord) error
}

// EventStore is the write side of the raw event table, fed by the bulk
// file loader.
type EventStore interface {
	Reset(ctx context.Context) error
	InsertEvents(ctx context.Context, events []domain.RawEvent) error
}

// AnalyticsStore is the read side over the published projections, queried
// by the caching read API with exact or range key lookups only.
type AnalyticsStore interface {
	CampaignDailyMetrics(ctx context.Context, campaignID int, from, to time.Time) ([]domain.CampaignDailyMetric, error)
	TopUsersByClicks(ctx context.Context, limit int) ([]domain.UserClickCount, error)
	RegionAdvertiserSpend(ctx context.Context, region string) ([]domain.RegionAdvertiserSpend, error)
	TopAdvertisersBySpend(ctx context.Context, limit int) ([]domain.AdvertiserSpend, error)
	UserEngagementHistory(ctx context.Context, userID int64, limit int) ([]domain.EngagementRecord, error)
}
