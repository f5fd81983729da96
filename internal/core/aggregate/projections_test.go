package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adtech-etl/internal/core/domain"
)

func TestCampaignDailyCountsAndCTR(t *testing.T) {
	day := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	p := NewCampaignDaily()
	p.Add(testEvent(1, "Acme", day, "1.00", true))
	p.Add(testEvent(2, "Acme", day.Add(time.Hour), "1.00", false))
	p.Add(testEvent(3, "Acme", day.Add(2*time.Hour), "1.00", true))
	p.Add(testEvent(1, "Acme", day.AddDate(0, 0, 1), "1.00", false))

	rows := p.Rows()
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, int64(3), first.Impressions)
	assert.Equal(t, int64(2), first.Clicks)
	assert.InDelta(t, 2.0/3.0, first.CTR, 1e-12)

	second := rows[1]
	assert.Equal(t, int64(1), second.Impressions)
	assert.Equal(t, int64(0), second.Clicks)
	assert.Zero(t, second.CTR)

	for _, r := range rows {
		assert.LessOrEqual(t, r.Clicks, r.Impressions)
	}
}

func TestCampaignDailySumsMatchScannedTotals(t *testing.T) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	p := NewCampaignDaily()

	totalClicks := 0
	for i := 0; i < 100; i++ {
		clicked := i%4 == 0
		if clicked {
			totalClicks++
		}
		ev := testEvent(int64(i), "Acme", day.Add(time.Duration(i)*time.Hour), "1.00", clicked)
		ev.Campaign.CampaignID = i % 7
		p.Add(ev)
	}

	var impressions, clicks int64
	for _, r := range p.Rows() {
		impressions += r.Impressions
		clicks += r.Clicks
	}
	assert.Equal(t, int64(100), impressions)
	assert.Equal(t, int64(totalClicks), clicks)
}

func TestTopUsersOnlyClickedEventsInWindow(t *testing.T) {
	anchor := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	p := NewTopUsers("last_30_days", Window{From: anchor.AddDate(0, 0, -30), To: anchor})

	p.Add(testEvent(1, "Acme", anchor.AddDate(0, 0, -1), "1.00", true))
	p.Add(testEvent(1, "Acme", anchor.AddDate(0, 0, -2), "1.00", true))
	p.Add(testEvent(1, "Acme", anchor.AddDate(0, 0, -3), "1.00", false)) // not clicked
	p.Add(testEvent(1, "Acme", anchor.AddDate(0, 0, -40), "1.00", true)) // outside window
	p.Add(testEvent(2, "Acme", anchor, "1.00", true))

	rows := p.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].UserID)
	assert.Equal(t, int64(2), rows[0].TotalClicks)
	assert.Equal(t, "last_30_days", rows[0].TimeBucket)
	assert.Equal(t, int64(1), rows[1].TotalClicks)
}

func TestRegionSpendExactDecimalSum(t *testing.T) {
	day := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	p := NewRegionSpend()
	p.Add(testEvent(1, "Acme", day, "10.00", false))
	p.Add(testEvent(2, "Acme", day.Add(time.Minute), "15.50", true))

	rows := p.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "UA", rows[0].Region)
	assert.Equal(t, "Acme", rows[0].AdvertiserName)
	assert.True(t, rows[0].TotalSpend.Equal(decimal.RequireFromString("25.50")),
		"want exactly 25.50, got %s", rows[0].TotalSpend)
}

func TestRegionSpendSkipsBlankRegionOrAdvertiser(t *testing.T) {
	day := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	p := NewRegionSpend()

	noRegion := testEvent(1, "Acme", day, "5.00", false)
	noRegion.Campaign.TargetingCountry = "  "
	p.Add(noRegion)

	noAdvertiser := testEvent(2, "", day, "5.00", false)
	p.Add(noAdvertiser)

	p.Add(testEvent(3, "Acme", day, "5.00", false))

	assert.Len(t, p.Rows(), 1)
}

func TestAdvertiserTotalsWindowed(t *testing.T) {
	anchor := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	p := NewAdvertiserTotals("last_30_days", Window{From: anchor.AddDate(0, 0, -30), To: anchor})

	p.Add(testEvent(1, "Acme", anchor.AddDate(0, 0, -5), "2.25", false))
	p.Add(testEvent(2, "Acme", anchor.AddDate(0, 0, -6), "1.75", true))
	p.Add(testEvent(3, "Acme", anchor.AddDate(0, 0, -45), "99.00", false)) // outside window
	p.Add(testEvent(4, "Bolt", anchor, "3.00", false))

	rows := p.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0].AdvertiserName)
	assert.True(t, rows[0].TotalSpend.Equal(decimal.RequireFromString("4.00")))
	assert.Equal(t, "Bolt", rows[1].AdvertiserName)
}

func TestEngagementFullFidelityOrdering(t *testing.T) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	p := NewEngagement()
	p.Add(testEvent(2, "Acme", day, "1.00", false))
	p.Add(testEvent(1, "Acme", day.Add(time.Hour), "1.00", true))
	p.Add(testEvent(1, "Acme", day.Add(3*time.Hour), "1.00", false))

	rows := p.Rows()
	require.Len(t, rows, 3)
	// (userID asc, eventTime desc)
	assert.Equal(t, int64(1), rows[0].UserID)
	assert.Equal(t, day.Add(3*time.Hour), rows[0].EventTime)
	assert.Equal(t, int64(1), rows[1].UserID)
	assert.Equal(t, day.Add(time.Hour), rows[1].EventTime)
	assert.Equal(t, int64(2), rows[2].UserID)
}

// TestEngagementKeepsSameTimestampEvents guards the row-per-event contract:
// the feed gives no uniqueness on (user, timestamp), so two events sharing
// both must still produce two distinct rows keyed by event id.
func TestEngagementKeepsSameTimestampEvents(t *testing.T) {
	ts := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	p := NewEngagement()
	first := testEvent(1, "Acme", ts, "1.00", true)
	second := testEvent(1, "Acme", ts, "1.00", false)
	p.Add(first)
	p.Add(second)

	rows := p.Rows()
	require.Len(t, rows, 2)
	assert.NotEqual(t, rows[0].EventID, rows[1].EventID)
	ids := []string{rows[0].EventID.String(), rows[1].EventID.String()}
	assert.ElementsMatch(t, ids, []string{first.EventID.String(), second.EventID.String()})
	// same user and timestamp, so event id breaks the tie deterministically
	assert.Less(t, rows[0].EventID.String(), rows[1].EventID.String())
}

func TestRowsDeterministicAcrossRebuilds(t *testing.T) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	events := make([]domain.RawEvent, 0, 60)
	for i := 0; i < 60; i++ {
		ev := testEvent(int64(i%9), "Acme", day.Add(time.Duration(i)*13*time.Minute), "0.75", i%2 == 0)
		ev.Campaign.CampaignID = i % 4
		events = append(events, ev)
	}

	build := func() ([]domain.CampaignDailyMetric, []domain.RegionAdvertiserSpend) {
		campaigns := NewCampaignDaily()
		region := NewRegionSpend()
		for _, ev := range events {
			campaigns.Add(ev)
			region.Add(ev)
		}
		return campaigns.Rows(), region.Rows()
	}

	c1, r1 := build()
	c2, r2 := build()
	assert.Equal(t, c1, c2)
	assert.Equal(t, r1, r2)
}
