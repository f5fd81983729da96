package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"adtech-etl/internal/core/domain"
	"adtech-etl/internal/core/port"
)

// Rows() of every projection returns its result in a deterministic key
// order, so a rerun against unchanged raw data produces identical output.

type campaignDayKey struct {
	campaignID int
	day        time.Time
}

// CampaignDaily counts impressions and clicks per (campaign, day).
type CampaignDaily struct {
	counts map[campaignDayKey]*dailyCounts
}

type dailyCounts struct {
	impressions int64
	clicks      int64
}

func NewCampaignDaily() *CampaignDaily {
	return &CampaignDaily{counts: make(map[campaignDayKey]*dailyCounts)}
}

func (p *CampaignDaily) Name() string { return port.ProjectionCampaignDailyMetrics }

func (p *CampaignDaily) Add(ev domain.RawEvent) {
	key := campaignDayKey{campaignID: ev.Campaign.CampaignID, day: ev.EventDate()}
	c := p.counts[key]
	if c == nil {
		c = &dailyCounts{}
		p.counts[key] = c
	}
	c.impressions++
	if ev.WasClicked {
		c.clicks++
	}
}

// Rows derives CTR at flush time; impressions can never be zero for an
// existing key, but the guard keeps the division total.
func (p *CampaignDaily) Rows() []domain.CampaignDailyMetric {
	rows := make([]domain.CampaignDailyMetric, 0, len(p.counts))
	for key, c := range p.counts {
		ctr := 0.0
		if c.impressions > 0 {
			ctr = float64(c.clicks) / float64(c.impressions)
		}
		rows = append(rows, domain.CampaignDailyMetric{
			CampaignID:  key.campaignID,
			EventDate:   key.day,
			Impressions: c.impressions,
			Clicks:      c.clicks,
			CTR:         ctr,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CampaignID != rows[j].CampaignID {
			return rows[i].CampaignID < rows[j].CampaignID
		}
		return rows[i].EventDate.Before(rows[j].EventDate)
	})
	return rows
}

// TopUsers counts clicked events per user inside a time window.
type TopUsers struct {
	bucket string
	window Window
	clicks map[int64]int64
}

func NewTopUsers(bucket string, window Window) *TopUsers {
	return &TopUsers{bucket: bucket, window: window, clicks: make(map[int64]int64)}
}

func (p *TopUsers) Name() string { return port.ProjectionTopUsersByClicks }

func (p *TopUsers) Add(ev domain.RawEvent) {
	if !ev.WasClicked || !p.window.Contains(ev.Timestamp) {
		return
	}
	p.clicks[ev.UserID]++
}

func (p *TopUsers) Rows() []domain.UserClickCount {
	rows := make([]domain.UserClickCount, 0, len(p.clicks))
	for userID, total := range p.clicks {
		rows = append(rows, domain.UserClickCount{
			TimeBucket:  p.bucket,
			UserID:      userID,
			TotalClicks: total,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows
}

type regionDayKey struct {
	region     string
	day        time.Time
	advertiser string
}

// RegionSpend sums ad cost per (region, day, advertiser) over every event
// regardless of click outcome. Rows with a blank region or advertiser are
// excluded here but still counted by the other projections.
type RegionSpend struct {
	spend map[regionDayKey]decimal.Decimal
}

func NewRegionSpend() *RegionSpend {
	return &RegionSpend{spend: make(map[regionDayKey]decimal.Decimal)}
}

func (p *RegionSpend) Name() string { return port.ProjectionAdvertiserSpendByRegion }

func (p *RegionSpend) Add(ev domain.RawEvent) {
	region := strings.TrimSpace(ev.Campaign.TargetingCountry)
	advertiser := strings.TrimSpace(ev.Campaign.AdvertiserName)
	if region == "" || advertiser == "" {
		return
	}
	key := regionDayKey{region: region, day: ev.EventDate(), advertiser: advertiser}
	p.spend[key] = p.spend[key].Add(ev.AdCost)
}

func (p *RegionSpend) Rows() []domain.RegionAdvertiserSpend {
	rows := make([]domain.RegionAdvertiserSpend, 0, len(p.spend))
	for key, total := range p.spend {
		rows = append(rows, domain.RegionAdvertiserSpend{
			Region:         key.region,
			EventDate:      key.day,
			AdvertiserName: key.advertiser,
			TotalSpend:     total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if !a.EventDate.Equal(b.EventDate) {
			return a.EventDate.Before(b.EventDate)
		}
		return a.AdvertiserName < b.AdvertiserName
	})
	return rows
}

// AdvertiserTotals sums ad cost per advertiser inside a time window.
type AdvertiserTotals struct {
	bucket string
	window Window
	spend  map[string]decimal.Decimal
}

func NewAdvertiserTotals(bucket string, window Window) *AdvertiserTotals {
	return &AdvertiserTotals{bucket: bucket, window: window, spend: make(map[string]decimal.Decimal)}
}

func (p *AdvertiserTotals) Name() string { return port.ProjectionTopAdvertisersBySpend }

func (p *AdvertiserTotals) Add(ev domain.RawEvent) {
	if !p.window.Contains(ev.Timestamp) {
		return
	}
	advertiser := strings.TrimSpace(ev.Campaign.AdvertiserName)
	if advertiser == "" {
		return
	}
	p.spend[advertiser] = p.spend[advertiser].Add(ev.AdCost)
}

func (p *AdvertiserTotals) Rows() []domain.AdvertiserSpend {
	rows := make([]domain.AdvertiserSpend, 0, len(p.spend))
	for advertiser, total := range p.spend {
		rows = append(rows, domain.AdvertiserSpend{
			TimeBucket:     p.bucket,
			AdvertiserName: advertiser,
			TotalSpend:     total,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AdvertiserName < rows[j].AdvertiserName })
	return rows
}

// Engagement keeps one full-fidelity row per event with no aggregation,
// ordered for range queries on (userID, eventTime descending).
type Engagement struct {
	rows []domain.EngagementRecord
}

func NewEngagement() *Engagement {
	return &Engagement{}
}

func (p *Engagement) Name() string { return port.ProjectionUserEngagementHistory }

func (p *Engagement) Add(ev domain.RawEvent) {
	p.rows = append(p.rows, domain.EngagementRecord{
		UserID:         ev.UserID,
		EventTime:      ev.Timestamp,
		EventID:        ev.EventID,
		CampaignName:   ev.Campaign.Name,
		AdvertiserName: ev.Campaign.AdvertiserName,
		WasClicked:     ev.WasClicked,
	})
}

func (p *Engagement) Rows() []domain.EngagementRecord {
	rows := make([]domain.EngagementRecord, len(p.rows))
	copy(rows, p.rows)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].UserID != rows[j].UserID {
			return rows[i].UserID < rows[j].UserID
		}
		if !rows[i].EventTime.Equal(rows[j].EventTime) {
			return rows[i].EventTime.After(rows[j].EventTime)
		}
		return rows[i].EventID.String() < rows[j].EventID.String()
	})
	return rows
}
