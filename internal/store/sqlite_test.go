package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "batches.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	b := testBatch("b1")
	require.NoError(t, s.CreateBatch(ctx, b))

	got, err := s.GetBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "employees.csv", got.FileName)
	assert.Equal(t, model.BatchStatusUploaded, got.Status)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "jane@acme.com", got.Records[0].Email)
	require.Len(t, got.Outcomes, 2)
	assert.Nil(t, got.Outcomes[0])
	assert.Empty(t, got.Error)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)
}

func TestSQLiteStorePut(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	b := testBatch("b1")
	require.NoError(t, s.CreateBatch(ctx, b))

	now := time.Now().UTC().Truncate(time.Second)
	b.Status = model.BatchStatusAnalyzing
	b.StartedAt = &now
	b.Outcomes[0] = &model.Outcome{
		Record:     b.Records[0],
		Status:     model.StatusExact,
		MatchCount: 4,
		Matches:    model.FieldMatches{Name: true, Email: true, Company: true, Position: true},
	}
	require.NoError(t, s.PutBatch(ctx, b))

	got, err := s.GetBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusAnalyzing, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.True(t, got.StartedAt.Equal(now))
	require.NotNil(t, got.Outcomes[0])
	assert.Equal(t, model.StatusExact, got.Outcomes[0].Status)
	assert.Equal(t, 4, got.Outcomes[0].MatchCount)
	assert.Nil(t, got.Outcomes[1])
}

func TestSQLiteStorePutNotFound(t *testing.T) {
	s := newTestSQLite(t)

	err := s.PutBatch(context.Background(), testBatch("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreGetNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetBatch(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreList(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	older := testBatch("b-old")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := testBatch("b-new")
	newer.Status = model.BatchStatusCompleted

	require.NoError(t, s.CreateBatch(ctx, older))
	require.NoError(t, s.CreateBatch(ctx, newer))

	all, err := s.ListBatches(ctx, BatchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b-new", all[0].ID)

	completed, err := s.ListBatches(ctx, BatchFilter{Status: model.BatchStatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "b-new", completed[0].ID)

	limited, err := s.ListBatches(ctx, BatchFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "b-old", limited[0].ID)
}
