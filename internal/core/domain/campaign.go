package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CampaignSnapshot captures the state of a campaign as it was at impression
// time. Snapshots are copy-on-read value objects: historical impressions must
// reflect targeting and dates as of the moment the ad was shown, never the
// campaign's current state.
type CampaignSnapshot struct {
	CampaignID        int       `bson:"campaignId"`
	Name              string    `bson:"name"`
	AdvertiserName    string    `bson:"advertiserName"`
	StartDate         time.Time `bson:"startDate,omitempty"`
	EndDate           time.Time `bson:"endDate,omitempty"`
	TargetingCriteria string    `bson:"targetingCriteria"`
	TargetingInterest string    `bson:"targetingInterest"`
	TargetingCountry  string    `bson:"targetingCountry"`
	AdSlotSize        SlotSize  `bson:"adSlotSize"`
}

// ParseCampaignID extracts the numeric campaign id from a campaign name of
// the form "<anything>_<id>". The feed carries no separate id column, only
// the name with the id as its trailing segment.
func ParseCampaignID(name string) (int, error) {
	i := strings.LastIndex(name, "_")
	if i < 0 || i == len(name)-1 {
		return 0, fmt.Errorf("campaign name %q has no trailing id", name)
	}
	id, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return 0, fmt.Errorf("campaign name %q has non-numeric id: %w", name, err)
	}
	return id, nil
}
