package uploads

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/equipment"
	"github.com/dmitrijs2005/equipview/internal/server/migrations"
	"github.com/dmitrijs2005/equipview/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(db, migrations.SQLiteDir))

	for _, id := range []string{"a1", "a2"} {
		_, err := db.Exec(`INSERT INTO accounts (id, username, password_hash, created_at) VALUES (?, ?, x'00', 0)`, id, id)
		require.NoError(t, err)
	}
	return db
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	repo := NewSQLiteRepository(db)

	u := sampleUpload()
	require.NoError(t, repo.Insert(ctx, u))

	got, err := repo.Get(ctx, "a1", "u1")
	require.NoError(t, err)
	assert.Equal(t, u.UploadMeta, got.UploadMeta)
	assert.Equal(t, u.Summary, got.Summary)
	assert.Equal(t, u.Rows, got.Rows)

	_, err = repo.Get(ctx, "a2", "u1")
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.Get(ctx, "a1", "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteRepository_EmptySummary(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(openSQLite(t))

	u := &models.Upload{
		UploadMeta: models.UploadMeta{ID: "e1", AccountID: "a1", Filename: "empty.csv", UploadedAt: time.Unix(0, 0).UTC()},
		Summary:    equipment.Summarize(nil),
	}
	require.NoError(t, repo.Insert(ctx, u))

	got, err := repo.Get(ctx, "a1", "e1")
	require.NoError(t, err)
	assert.Nil(t, got.Summary.Averages.Flowrate)
	assert.Equal(t, map[string]int{}, got.Summary.TypeDistribution)
	assert.Empty(t, got.Rows)
}

func TestSQLiteRepository_ListAndEvict(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	repo := NewSQLiteRepository(db)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 7; i++ {
		u := sampleUpload()
		u.ID = fmt.Sprintf("u%d", i)
		u.StorageKey = fmt.Sprintf("k%d", i)
		u.UploadedAt = base
		require.NoError(t, repo.Insert(ctx, u))
	}
	other := sampleUpload()
	other.ID, other.AccountID = "x1", "a2"
	require.NoError(t, repo.Insert(ctx, other))

	list, err := repo.List(ctx, "a1", common.HistoryLimit)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "u7", list[0].ID, "equal timestamps still order by insertion")
	assert.Equal(t, "u3", list[4].ID)

	evicted, err := repo.EvictBeyond(ctx, "a1", common.HistoryLimit)
	require.NoError(t, err)
	ids := []string{}
	for _, m := range evicted {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)

	all, err := repo.List(ctx, "a1", 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	var orphans int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM upload_rows WHERE upload_id IN ('u1', 'u2')`).Scan(&orphans))
	assert.Zero(t, orphans)

	otherList, err := repo.List(ctx, "a2", common.HistoryLimit)
	require.NoError(t, err)
	assert.Len(t, otherList, 1)

	evicted, err = repo.EvictBeyond(ctx, "a1", common.HistoryLimit)
	require.NoError(t, err)
	assert.Empty(t, evicted)
}
