package db

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed inserts demo raw events into the adtech-etl database so the batch
// jobs have something to chew on without the production feed.
func Seed(ctx context.Context, db *pgxpool.Pool) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	advertisers := []string{"Acme", "Globex", "Initech", "Umbrella"}
	devices := []string{"mobile", "desktop", "tablet"}
	locations := []string{"Kyiv", "Lviv", "Odesa", "Kharkiv"}
	countries := []string{"UA", "PL", "DE"}
	interests := []string{"sports", "music", "tech"}
	slots := []string{"300x250", "728x90", "160x600"}

	now := time.Now().UTC().Truncate(time.Hour)
	for i := 0; i < 2000; i++ {
		campaignID := 1 + r.Intn(8)
		advertiser := advertisers[campaignID%len(advertisers)]
		ts := now.Add(-time.Duration(r.Intn(45*24)) * time.Hour)
		wasClicked := r.Float64() < 0.2

		var clickTS *time.Time
		var adRevenue *float64
		if wasClicked {
			ct := ts.Add(time.Duration(1+r.Intn(120)) * time.Second)
			rev := 0.5 + r.Float64()*4
			clickTS = &ct
			adRevenue = &rev
		}

		_, err := db.Exec(ctx, `INSERT INTO raw_events
    (event_id, user_id, advertiser_name, campaign_name, device, location, ts,
     bid_amount, ad_cost, was_clicked, click_ts, ad_revenue, ad_slot_size,
     targeting_country, targeting_interest, targeting_criteria)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT DO NOTHING`,
			uuid.NewString(),
			1+r.Intn(200),
			advertiser,
			fmt.Sprintf("%s_Push_%d", advertiser, campaignID),
			devices[r.Intn(len(devices))],
			locations[r.Intn(len(locations))],
			ts,
			fmt.Sprintf("%.2f", 0.1+r.Float64()),
			fmt.Sprintf("%.2f", 0.25+r.Float64()*3),
			wasClicked,
			clickTS,
			adRevenue,
			slots[r.Intn(len(slots))],
			countries[r.Intn(len(countries))],
			interests[r.Intn(len(interests))],
			"age>18",
		)
		if err != nil {
			return err
		}
	}
	return nil
}
