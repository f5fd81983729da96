package usecase

import (
	"context"
	"time"

	"adtech-etl/internal/core/domain"
	"adtech-etl/internal/core/port"
)

const (
	defaultLimit = 10
	maxLimit     = 500
)

// AnalyticsService serves point and range lookups over the published
// projections. It only normalizes arguments; queries run against the
// projection store, never against raw data.
type AnalyticsService struct {
	store port.AnalyticsStore
}

// NewAnalyticsService creates the service with the provided store.
func NewAnalyticsService(store port.AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// CampaignDailyMetrics returns the per-day metrics of one campaign within
// [from, to]. A zero from/to defaults to the last 30 days.
func (s *AnalyticsService) CampaignDailyMetrics(ctx context.Context, campaignID int, from, to time.Time) ([]domain.CampaignDailyMetric, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	return s.store.CampaignDailyMetrics(ctx, campaignID, from, to)
}

// TopUsersByClicks returns the highest-clicking users.
func (s *AnalyticsService) TopUsersByClicks(ctx context.Context, limit int) ([]domain.UserClickCount, error) {
	return s.store.TopUsersByClicks(ctx, clampLimit(limit))
}

// RegionAdvertiserSpend returns advertiser spend rows for one region.
func (s *AnalyticsService) RegionAdvertiserSpend(ctx context.Context, region string) ([]domain.RegionAdvertiserSpend, error) {
	return s.store.RegionAdvertiserSpend(ctx, region)
}

// TopAdvertisersBySpend returns the biggest spenders.
func (s *AnalyticsService) TopAdvertisersBySpend(ctx context.Context, limit int) ([]domain.AdvertiserSpend, error) {
	return s.store.TopAdvertisersBySpend(ctx, clampLimit(limit))
}

// UserEngagementHistory returns one user's most recent events.
func (s *AnalyticsService) UserEngagementHistory(ctx context.Context, userID int64, limit int) ([]domain.EngagementRecord, error) {
	return s.store.UserEngagementHistory(ctx, userID, clampLimit(limit))
}
