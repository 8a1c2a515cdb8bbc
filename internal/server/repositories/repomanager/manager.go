// Package repomanager vends repository implementations for the configured
// database and runs its schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/equipview/internal/dbx"
	"github.com/dmitrijs2005/equipview/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/equipview/internal/server/repositories/uploads"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Uploads(db dbx.DBTX) uploads.Repository
}

// SQLitePrefix marks a DSN as a path to an SQLite database file.
const SQLitePrefix = "sqlite:"

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to the database named by dsn and returns the matching
// manager. DSNs starting with "sqlite:" use modernc SQLite; anything else is
// handed to pgx.
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		db  *sql.DB
		m   RepositoryManager
		err error
	)

	if path, ok := strings.CutPrefix(dsn, SQLitePrefix); ok {
		db, err = sqlOpen("sqlite", sqliteDSN(path))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		m = NewSQLiteRepositoryManager()
	} else {
		db, err = sqlOpen("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		m, _ = NewPostgresRepositoryManager(db)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	return db, m, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
