package configs

import "time"

// ETL configures the batch jobs: the session windowing run and the
// projection aggregation run. Batch sizes differ per target because the
// session documents are much larger than projection rows.
type ETL struct {
	// SessionTimeoutMinutes is the inactivity gap that closes a session.
	SessionTimeoutMinutes int `env:"SESSION_TIMEOUT_MINUTES" envDefault:"30"`

	// ReadChunkSize bounds how many raw rows a source fetches per round trip.
	ReadChunkSize int `env:"READ_CHUNK_SIZE" envDefault:"1000"`

	// SessionBatchSize bounds one session sink write.
	SessionBatchSize int `env:"SESSION_BATCH_SIZE" envDefault:"500"`

	// ProjectionBatchSize bounds one aggregate projection sink write.
	ProjectionBatchSize int `env:"PROJECTION_BATCH_SIZE" envDefault:"100"`

	// EngagementBatchSize bounds one engagement history sink write. The
	// projection is row-per-event, so it tolerates a larger batch.
	EngagementBatchSize int `env:"ENGAGEMENT_BATCH_SIZE" envDefault:"1000"`

	// LoadBatchSize bounds one raw event bulk-load write.
	LoadBatchSize int `env:"LOAD_BATCH_SIZE" envDefault:"1000"`

	// AnchorMode selects how windowed aggregations anchor "now":
	// "latest-event" uses the newest timestamp found in the source,
	// "fixed-clock" uses the system clock.
	AnchorMode string `env:"ANCHOR_MODE" envDefault:"latest-event"`

	// WindowDays is the length of the rolling window for the windowed
	// projections.
	WindowDays int `env:"WINDOW_DAYS" envDefault:"30"`
}

// SessionTimeout returns the inactivity timeout as a duration.
func (c ETL) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

// Anchor modes recognised by ETL.AnchorMode.
const (
	AnchorLatestEvent = "latest-event"
	AnchorFixedClock  = "fixed-clock"
)
