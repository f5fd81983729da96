// Package mongo persists session documents in MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"adtech-etl/internal/core/domain"
)

const (
	sessionsCollection = "sessions"
	stagingCollection  = "sessions_staging"
)

// SessionRepository implements port.SessionStore. A reload fills the
// staging collection in batches and publishes it with a renameCollection
// swap, so readers never observe a half-written session set and a run that
// dies before PublishStaging leaves the live collection untouched.
type SessionRepository struct {
	db *mongo.Database
}

// NewSessionRepository returns a new repository instance.
func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{db: db}
}

// Session document shape. Money fields are stored as doubles, matching the
// document contract of the session sink; exact decimal arithmetic matters
// for the spend projections, not here.
type sessionDoc struct {
	UserID           int64           `bson:"userId"`
	SessionStart     time.Time       `bson:"sessionStart"`
	SessionEnd       time.Time       `bson:"sessionEnd"`
	ImpressionsCount int             `bson:"impressionsCount"`
	ClicksCount      int             `bson:"clicksCount"`
	Impressions      []impressionDoc `bson:"impressions"`
}

type impressionDoc struct {
	ImpressionID string                  `bson:"impressionId"`
	Timestamp    time.Time               `bson:"timestamp"`
	Device       string                  `bson:"device"`
	Location     string                  `bson:"location"`
	Campaign     domain.CampaignSnapshot `bson:"campaign"`
	BidAmount    float64                 `bson:"bidAmount"`
	AdCost       float64                 `bson:"adCost"`
	Clicks       []clickDoc              `bson:"clicks"`
}

type clickDoc struct {
	ClickTimestamp time.Time `bson:"clickTimestamp"`
	AdRevenue      float64   `bson:"adRevenue"`
}

func toDoc(s domain.Session) sessionDoc {
	doc := sessionDoc{
		UserID:           s.UserID,
		SessionStart:     s.SessionStart,
		SessionEnd:       s.SessionEnd,
		ImpressionsCount: s.ImpressionsCount,
		ClicksCount:      s.ClicksCount,
		Impressions:      make([]impressionDoc, 0, len(s.Impressions)),
	}
	for _, imp := range s.Impressions {
		impDoc := impressionDoc{
			ImpressionID: imp.ImpressionID.String(),
			Timestamp:    imp.Timestamp,
			Device:       imp.Device,
			Location:     imp.Location,
			Campaign:     imp.Campaign,
			BidAmount:    imp.BidAmount.InexactFloat64(),
			AdCost:       imp.AdCost.InexactFloat64(),
			Clicks:       make([]clickDoc, 0, len(imp.Clicks)),
		}
		for _, c := range imp.Clicks {
			impDoc.Clicks = append(impDoc.Clicks, clickDoc{
				ClickTimestamp: c.ClickTimestamp,
				AdRevenue:      c.AdRevenue.InexactFloat64(),
			})
		}
		doc.Impressions = append(doc.Impressions, impDoc)
	}
	return doc
}

// EnsureIndexes confirms the live collection carries the
// (userId asc, sessionStart desc) index that the read side range-queries.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(sessionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "sessionStart", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("ensure session indexes: %w", err)
	}
	return nil
}

// ResetStaging drops and recreates the staging collection before a full
// reload. Creating it explicitly keeps the publish rename valid even when
// the run produced zero sessions.
func (r *SessionRepository) ResetStaging(ctx context.Context) error {
	if err := r.db.Collection(stagingCollection).Drop(ctx); err != nil {
		return fmt.Errorf("drop session staging: %w", err)
	}
	if err := r.db.CreateCollection(ctx, stagingCollection); err != nil {
		return fmt.Errorf("create session staging: %w", err)
	}
	return nil
}

// InsertSessions appends one batch of session documents to staging.
func (r *SessionRepository) InsertSessions(ctx context.Context, sessions []domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	docs := make([]interface{}, len(sessions))
	for i, s := range sessions {
		docs[i] = toDoc(s)
	}
	if _, err := r.db.Collection(stagingCollection).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert sessions: %w", err)
	}
	return nil
}

// PublishStaging renames staging over the live collection, dropping the
// previous contents in the same server-side operation.
func (r *SessionRepository) PublishStaging(ctx context.Context) error {
	dbName := r.db.Name()
	cmd := bson.D{
		{Key: "renameCollection", Value: dbName + "." + stagingCollection},
		{Key: "to", Value: dbName + "." + sessionsCollection},
		{Key: "dropTarget", Value: true},
	}
	if err := r.db.Client().Database("admin").RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("publish sessions: %w", err)
	}
	return r.EnsureIndexes(ctx)
}
