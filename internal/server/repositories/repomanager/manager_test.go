package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteRunsMigrations(t *testing.T) {
	goose.SetLogger(goose.NopLogger())
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "equipview.db")

	db, m, err := Open(ctx, SQLitePrefix+path)
	require.NoError(t, err)
	defer db.Close()

	assert.IsType(t, &SQLiteRepositoryManager{}, m)
	require.NoError(t, m.RunMigrations(ctx, db))

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM uploads`).Scan(&n))
	assert.Zero(t, n)
}

func TestOpen_PicksDriver(t *testing.T) {
	orig := sqlOpen
	defer func() { sqlOpen = orig }()

	var gotDriver, gotDSN string
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		return nil, errors.New("stop")
	}

	_, _, err := Open(context.Background(), "postgres://u:p@db/equipview")
	require.Error(t, err)
	assert.Equal(t, "pgx", gotDriver)
	assert.Equal(t, "postgres://u:p@db/equipview", gotDSN)

	_, _, err = Open(context.Background(), "sqlite:/tmp/x.db?mode=rwc")
	require.Error(t, err)
	assert.Equal(t, "sqlite", gotDriver)
	assert.Equal(t, "/tmp/x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", gotDSN)
}
