package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Click is a click on an impression together with the revenue it realised.
// A Click has no identity of its own; it is owned by its parent Impression.
type Click struct {
	ClickTimestamp time.Time
	AdRevenue      decimal.Decimal
}

// Impression is one RawEvent reshaped for embedding inside a Session.
// Clicks is a list even though the current feed emits at most one click per
// impression; the document shape supports more.
type Impression struct {
	ImpressionID uuid.UUID
	Timestamp    time.Time
	Device       string
	Location     string
	Campaign     CampaignSnapshot
	BidAmount    decimal.Decimal
	AdCost       decimal.Decimal
	Clicks       []Click
}

// NewImpression reshapes a raw event into an embeddable impression,
// attaching the click sub-record when the event was clicked.
func NewImpression(ev RawEvent) Impression {
	imp := Impression{
		ImpressionID: ev.EventID,
		Timestamp:    ev.Timestamp,
		Device:       ev.Device,
		Location:     ev.Location,
		Campaign:     ev.Campaign,
		BidAmount:    ev.BidAmount,
		AdCost:       ev.AdCost,
		Clicks:       []Click{},
	}
	if ev.WasClicked {
		click := Click{}
		if ev.ClickTimestamp != nil {
			click.ClickTimestamp = *ev.ClickTimestamp
		}
		if ev.AdRevenue != nil {
			click.AdRevenue = *ev.AdRevenue
		}
		imp.Clicks = append(imp.Clicks, click)
	}
	return imp
}

// ClickCount sums the clicks over the impression's click list.
func (i Impression) ClickCount() int {
	return len(i.Clicks)
}

// Session is a maximal run of one user's impressions in which no two
// consecutive impressions are separated by more than the inactivity timeout.
// Sessions are never mutated after creation.
type Session struct {
	UserID           int64
	SessionStart     time.Time
	SessionEnd       time.Time
	ImpressionsCount int
	ClicksCount      int
	Impressions      []Impression
}

// NewSession builds a completed session document from a non-empty bag of
// impressions ordered by timestamp.
func NewSession(userID int64, impressions []Impression) Session {
	clicks := 0
	for _, imp := range impressions {
		clicks += imp.ClickCount()
	}
	return Session{
		UserID:           userID,
		SessionStart:     impressions[0].Timestamp,
		SessionEnd:       impressions[len(impressions)-1].Timestamp,
		ImpressionsCount: len(impressions),
		ClicksCount:      clicks,
		Impressions:      impressions,
	}
}
