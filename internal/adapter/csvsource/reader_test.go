package csvsource

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adtech-etl/internal/core/domain"
)

const header = "EventID,UserID,AdvertiserName,CampaignName,Device,Location,Timestamp,BidAmount,AdCost,WasClicked,ClickTimestamp,AdRevenue,AdSlotSize,CampaignTargetingCountry,CampaignTargetingInterest,CampaignTargetingCriteria\n"

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+body), 0o644))
	return path
}

func collect(t *testing.T, path string) ([]domain.RawEvent, int) {
	t.Helper()
	r := NewReader(path, ',', slog.New(slog.NewTextHandler(io.Discard, nil)))
	var events []domain.RawEvent
	stats, err := r.Scan(context.Background(), func(ev domain.RawEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	return events, stats.Skipped
}

func TestScanNormalizesRow(t *testing.T) {
	body := "0b8cbba2-46a9-4b63-bd2a-13b9a2fdbe74,42,Acme,Spring_Sale_7,mobile,Kyiv,2025-03-01 12:30:00,0.55,1.25,True,2025-03-01 12:30:05,2.40,300x250,UA,sports,age>18\n"
	events, skipped := collect(t, writeFile(t, body))
	require.Len(t, events, 1)
	assert.Zero(t, skipped)

	ev := events[0]
	assert.Equal(t, "0b8cbba2-46a9-4b63-bd2a-13b9a2fdbe74", ev.EventID.String())
	assert.Equal(t, int64(42), ev.UserID)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC), ev.Timestamp)
	assert.True(t, ev.AdCost.Equal(decimal.RequireFromString("1.25")))
	assert.True(t, ev.WasClicked)
	require.NotNil(t, ev.ClickTimestamp)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 30, 5, 0, time.UTC), *ev.ClickTimestamp)
	require.NotNil(t, ev.AdRevenue)
	assert.True(t, ev.AdRevenue.Equal(decimal.RequireFromString("2.40")))

	assert.Equal(t, 7, ev.Campaign.CampaignID)
	assert.Equal(t, "Acme", ev.Campaign.AdvertiserName)
	assert.Equal(t, "UA", ev.Campaign.TargetingCountry)
	assert.Equal(t, domain.SlotSize{Width: 300, Height: 250}, ev.Campaign.AdSlotSize)
}

func TestUnclickedRowHasNoClickFields(t *testing.T) {
	body := "14aa8c70-7c19-40ae-96f5-8356e2ed3d49,7,Acme,Spring_Sale_7,desktop,Lviv,2025-03-01 09:00:00,0.30,0.80,False,,,728x90,UA,music,age>18\n"
	events, _ := collect(t, writeFile(t, body))
	require.Len(t, events, 1)
	assert.False(t, events[0].WasClicked)
	assert.Nil(t, events[0].ClickTimestamp)
	assert.Nil(t, events[0].AdRevenue)
}

func TestMalformedRowsSkippedWithCount(t *testing.T) {
	body := "" +
		"bad-uuid,7,Acme,Spring_Sale_7,desktop,Lviv,2025-03-01 09:00:00,0.30,0.80,False,,,728x90,UA,music,age>18\n" +
		"14aa8c70-7c19-40ae-96f5-8356e2ed3d49,7,Acme,Spring_Sale_7,desktop,Lviv,not-a-time,0.30,0.80,False,,,728x90,UA,music,age>18\n" +
		"24aa8c70-7c19-40ae-96f5-8356e2ed3d49,7,Acme,Spring_Sale_7,desktop,Lviv,2025-03-01 09:00:00,0.30,0.80,False,,,banner,UA,music,age>18\n" +
		"34aa8c70-7c19-40ae-96f5-8356e2ed3d49,7,Acme,Spring_Sale_7,desktop,Lviv,2025-03-01 09:00:00,0.30,0.80,False,,,728x90,UA,music,age>18\n"
	events, skipped := collect(t, writeFile(t, body))
	assert.Len(t, events, 1)
	assert.Equal(t, 3, skipped)
}

func TestShortRowSkippedScanContinues(t *testing.T) {
	body := "" +
		"this,row,is,short\n" +
		"14aa8c70-7c19-40ae-96f5-8356e2ed3d49,7,Acme,Spring_Sale_7,desktop,Lviv,2025-03-01 09:00:00,0.30,0.80,False,,,728x90,UA,music,age>18\n"
	events, skipped := collect(t, writeFile(t, body))
	require.Len(t, events, 1, "rows after a short row must still be read")
	assert.Equal(t, 1, skipped)
	assert.Equal(t, int64(7), events[0].UserID)
}

func TestMissingFileAbortsScan(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "nope.csv"), ',', slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := r.Scan(context.Background(), func(domain.RawEvent) error { return nil })
	assert.Error(t, err)
}

func TestMissingRequiredColumnAbortsScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte("EventID,UserID\n"), 0o644))
	r := NewReader(path, ',', slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := r.Scan(context.Background(), func(domain.RawEvent) error { return nil })
	assert.ErrorContains(t, err, "missing column")
}

func TestRescanYieldsSameEvents(t *testing.T) {
	body := "14aa8c70-7c19-40ae-96f5-8356e2ed3d49,7,Acme,Spring_Sale_7,desktop,Lviv,2025-03-01 09:00:00,0.30,0.80,False,,,728x90,UA,music,age>18\n"
	path := writeFile(t, body)
	first, _ := collect(t, path)
	second, _ := collect(t, path)
	assert.Equal(t, first, second)
}
