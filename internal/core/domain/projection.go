package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Projection rows. Each type below is one row of an independently keyed
// aggregate view materialised from raw events. Rows are derived, fully
// recomputed on every run, and replace the prior persisted projection.

// CampaignDailyMetric aggregates impressions and clicks per campaign per
// day. CTR is derived at flush time; it is zero when there are no
// impressions.
type CampaignDailyMetric struct {
	CampaignID  int
	EventDate   time.Time
	Impressions int64
	Clicks      int64
	CTR         float64
}

// UserClickCount is the total number of clicked events for one user inside
// a named time bucket. Only clicked events contribute.
type UserClickCount struct {
	TimeBucket  string
	UserID      int64
	TotalClicks int64
}

// RegionAdvertiserSpend is the exact decimal ad-cost sum for one
// (region, day, advertiser) grouping. Events without a region or an
// advertiser are excluded from this projection only.
type RegionAdvertiserSpend struct {
	Region         string
	EventDate      time.Time
	AdvertiserName string
	TotalSpend     decimal.Decimal
}

// AdvertiserSpend is the exact decimal ad-cost sum for one advertiser
// inside a named time bucket.
type AdvertiserSpend struct {
	TimeBucket     string
	AdvertiserName string
	TotalSpend     decimal.Decimal
}

// EngagementRecord is one full-fidelity row per raw event, keyed for range
// queries on (userID, eventTime descending). EventID disambiguates distinct
// events that share a user and a timestamp; the feed guarantees no
// uniqueness on that pair.
type EngagementRecord struct {
	UserID         int64
	EventTime      time.Time
	EventID        uuid.UUID
	CampaignName   string
	AdvertiserName string
	WasClicked     bool
}
