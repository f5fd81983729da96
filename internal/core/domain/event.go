package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawEvent is one observed ad impression, optionally followed by a click.
// Events are immutable once ingested. The campaign field is a snapshot taken
// at impression time, not a live reference: two events for the "same"
// campaign may embed different snapshots if the campaign changed between
// them.
type RawEvent struct {
	EventID        uuid.UUID
	UserID         int64
	Device         string
	Location       string
	Timestamp      time.Time
	BidAmount      decimal.Decimal
	AdCost         decimal.Decimal
	WasClicked     bool
	ClickTimestamp *time.Time
	AdRevenue      *decimal.Decimal
	Campaign       CampaignSnapshot
}

// EventDate returns the UTC calendar day of the event.
func (e RawEvent) EventDate() time.Time {
	return e.Timestamp.UTC().Truncate(24 * time.Hour)
}

// SlotSize is an ad-slot dimension pair, parsed from the composite
// "WxH" column of the source feed.
type SlotSize struct {
	Width  int `bson:"width"`
	Height int `bson:"height"`
}

// ParseSlotSize parses a "WxH" string such as "300x250".
func ParseSlotSize(s string) (SlotSize, error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return SlotSize{}, fmt.Errorf("malformed ad slot size %q", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return SlotSize{}, fmt.Errorf("malformed ad slot width %q: %w", s, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return SlotSize{}, fmt.Errorf("malformed ad slot height %q: %w", s, err)
	}
	return SlotSize{Width: width, Height: height}, nil
}
