package port

import (
	"context"
	"time"

	"adtech-etl/internal/core/domain"
)

// JobSummary reports the outcome of one batch run. FailedBatches counts
// sink batches whose write was rejected; those are logged with enough
// context for manual replay and do not abort the remaining batches.
type JobSummary struct {
	EventsScanned int
	RowsSkipped   int
	RowsWritten   int
	FailedBatches int
}

// SessionizeUseCase converts the flat raw event stream into session
// documents and reloads the session target.
type SessionizeUseCase interface {
	Run(ctx context.Context) (JobSummary, error)
}

// AggregateUseCase scans the raw event stream once, maintains every
// registered projection accumulator, and reloads each projection target.
type AggregateUseCase interface {
	Run(ctx context.Context) (JobSummary, error)
}

// LoadUseCase bulk-loads a delimited event file into the raw event table.
type LoadUseCase interface {
	Run(ctx context.Context) (JobSummary, error)
}

// AnalyticsUseCase exposes point and range lookups over the published
// projections for the read API.
type AnalyticsUseCase interface {
	CampaignDailyMetrics(ctx context.Context, campaignID int, from, to time.Time) ([]domain.CampaignDailyMetric, error)
	TopUsersByClicks(ctx context.Context, limit int) ([]domain.UserClickCount, error)
	RegionAdvertiserSpend(ctx context.Context, region string) ([]domain.RegionAdvertiserSpend, error)
	TopAdvertisersBySpend(ctx context.Context, limit int) ([]domain.AdvertiserSpend, error)
	UserEngagementHistory(ctx context.Context, userID int64, limit int) ([]domain.EngagementRecord, error)
}
