package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx records the statements run against it and injects failures.
type fakeTx struct {
	stmts      []string
	execErr    error
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.stmts = append(t.stmts, sql)
	return pgconn.CommandTag{}, t.execErr
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func TestPublishStagedSwapsInsideOneTx(t *testing.T) {
	tx := &fakeTx{}
	require.NoError(t, publishStaged(context.Background(), tx, "campaign_daily_metrics"))

	require.Equal(t, []string{
		`TRUNCATE campaign_daily_metrics`,
		`INSERT INTO campaign_daily_metrics SELECT * FROM campaign_daily_metrics_staging`,
		`TRUNCATE campaign_daily_metrics_staging`,
	}, tx.stmts)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

// TestPublishStagedCommitFailureSurfaces guards the named return: a commit
// rejected by the server must fail the publish, not vanish in the defer.
func TestPublishStagedCommitFailureSurfaces(t *testing.T) {
	commitErr := errors.New("server closed the connection")
	tx := &fakeTx{commitErr: commitErr}

	err := publishStaged(context.Background(), tx, "top_users_by_clicks")
	require.ErrorIs(t, err, commitErr)
	assert.True(t, tx.committed)
}

func TestPublishStagedExecFailureRollsBack(t *testing.T) {
	execErr := errors.New("relation is locked")
	tx := &fakeTx{execErr: execErr}

	err := publishStaged(context.Background(), tx, "top_users_by_clicks")
	require.ErrorIs(t, err, execErr)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestPublishStagingRejectsUnknownProjection(t *testing.T) {
	repo := NewProjectionRepository(nil)
	err := repo.PublishStaging(context.Background(), "users; DROP TABLE raw_events")
	assert.ErrorContains(t, err, "unknown projection")
}
