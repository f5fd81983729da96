package sessionize

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adtech-etl/internal/core/domain"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func event(user int64, at time.Time, clicked bool) domain.RawEvent {
	ev := domain.RawEvent{
		EventID:    uuid.New(),
		UserID:     user,
		Device:     "mobile",
		Location:   "Kyiv",
		Timestamp:  at,
		BidAmount:  decimal.NewFromFloat(0.5),
		AdCost:     decimal.NewFromFloat(1.25),
		WasClicked: clicked,
		Campaign: domain.CampaignSnapshot{
			CampaignID:     7,
			Name:           "Spring_Sale_7",
			AdvertiserName: "Acme",
		},
	}
	if clicked {
		ct := at.Add(5 * time.Second)
		rev := decimal.NewFromFloat(2.4)
		ev.ClickTimestamp = &ct
		ev.AdRevenue = &rev
	}
	return ev
}

func TestGapRuleSplitsSessions(t *testing.T) {
	// Events at t=0,10,20,45 minutes with a 30 minute timeout must yield
	// exactly two sessions: {0,10,20} and {45}.
	events := []domain.RawEvent{
		event(1, base, false),
		event(1, base.Add(10*time.Minute), true),
		event(1, base.Add(20*time.Minute), false),
		event(1, base.Add(45*time.Minute), false),
	}

	res := Sessionize(events, 30*time.Minute)
	require.Len(t, res.Sessions, 2)

	first, second := res.Sessions[0], res.Sessions[1]
	assert.Equal(t, 3, first.ImpressionsCount)
	assert.Equal(t, 1, first.ClicksCount)
	assert.Equal(t, base, first.SessionStart)
	assert.Equal(t, base.Add(20*time.Minute), first.SessionEnd)

	assert.Equal(t, 1, second.ImpressionsCount)
	assert.Equal(t, base.Add(45*time.Minute), second.SessionStart)
	assert.Equal(t, second.SessionStart, second.SessionEnd)
}

func TestExactTimeoutGapStaysInSession(t *testing.T) {
	// The rule is strictly-greater-than: a gap of exactly the timeout does
	// not break the session.
	events := []domain.RawEvent{
		event(1, base, false),
		event(1, base.Add(30*time.Minute), false),
	}
	res := Sessionize(events, 30*time.Minute)
	require.Len(t, res.Sessions, 1)
	assert.Equal(t, 2, res.Sessions[0].ImpressionsCount)
}

func TestUsersNeverShareASession(t *testing.T) {
	events := []domain.RawEvent{
		event(1, base, false),
		event(2, base.Add(time.Second), false),
	}
	res := Sessionize(events, 30*time.Minute)
	require.Len(t, res.Sessions, 2)
	assert.NotEqual(t, res.Sessions[0].UserID, res.Sessions[1].UserID)
}

func TestSingleEventYieldsSingleImpressionSession(t *testing.T) {
	res := Sessionize([]domain.RawEvent{event(9, base, true)}, 30*time.Minute)
	require.Len(t, res.Sessions, 1)

	s := res.Sessions[0]
	assert.Equal(t, int64(9), s.UserID)
	assert.Equal(t, 1, s.ImpressionsCount)
	assert.Equal(t, 1, s.ClicksCount)
	assert.Equal(t, s.SessionStart, s.SessionEnd)
}

func TestUnorderedInputIsSortedPerUser(t *testing.T) {
	events := []domain.RawEvent{
		event(1, base.Add(45*time.Minute), false),
		event(2, base, false),
		event(1, base, false),
		event(1, base.Add(10*time.Minute), false),
	}
	res := Sessionize(events, 30*time.Minute)
	require.Len(t, res.Sessions, 3)

	// user 1: {0,10} and {45}; user 2: {0}
	assert.Equal(t, 2, res.Sessions[0].ImpressionsCount)
	assert.Equal(t, 1, res.Sessions[1].ImpressionsCount)
	assert.Equal(t, int64(2), res.Sessions[2].UserID)
}

func TestImpressionCountsCoverAllValidEvents(t *testing.T) {
	var events []domain.RawEvent
	for i := 0; i < 50; i++ {
		events = append(events, event(int64(i%5), base.Add(time.Duration(i)*17*time.Minute), i%3 == 0))
	}
	res := Sessionize(events, 30*time.Minute)

	total := 0
	for _, s := range res.Sessions {
		total += s.ImpressionsCount
	}
	assert.Equal(t, len(events), total)
}

func TestZeroTimestampExcludedNotZeroGap(t *testing.T) {
	bad := event(1, time.Time{}, false)
	events := []domain.RawEvent{event(1, base, false), bad, event(1, base.Add(5*time.Minute), false)}

	res := Sessionize(events, 30*time.Minute)
	assert.Equal(t, 1, res.Dropped)
	require.Len(t, res.Sessions, 1)
	assert.Equal(t, 2, res.Sessions[0].ImpressionsCount)
}

func TestDeterministicAcrossRuns(t *testing.T) {
	events := []domain.RawEvent{
		event(3, base.Add(2*time.Minute), true),
		event(1, base, false),
		event(3, base.Add(50*time.Minute), false),
		event(1, base.Add(29*time.Minute), true),
	}
	first := Sessionize(events, 30*time.Minute)
	second := Sessionize(events, 30*time.Minute)
	assert.Equal(t, first, second)
}

func TestMaxGapWithinSessionNeverExceedsTimeout(t *testing.T) {
	timeout := 30 * time.Minute
	var events []domain.RawEvent
	for i := 0; i < 40; i++ {
		events = append(events, event(1, base.Add(time.Duration(i*i)*time.Minute), false))
	}
	res := Sessionize(events, timeout)

	for _, s := range res.Sessions {
		for i := 1; i < len(s.Impressions); i++ {
			gap := s.Impressions[i].Timestamp.Sub(s.Impressions[i-1].Timestamp)
			assert.LessOrEqual(t, gap, timeout)
		}
	}
	// consecutive sessions of the same user are separated by more than the timeout
	for i := 1; i < len(res.Sessions); i++ {
		if res.Sessions[i].UserID != res.Sessions[i-1].UserID {
			continue
		}
		gap := res.Sessions[i].SessionStart.Sub(res.Sessions[i-1].SessionEnd)
		assert.Greater(t, gap, timeout)
	}
}
