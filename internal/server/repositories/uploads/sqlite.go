package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/dbx"
	"github.com/dmitrijs2005/equipview/internal/server/models"
)

// SQLiteRepository keeps uploaded_at as Unix microseconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func sqlitePlaceholder(int) string { return "?" }

func (r *SQLiteRepository) Insert(ctx context.Context, u *models.Upload) error {
	query :=
		`INSERT INTO uploads (id, account_id, filename, uploaded_at, storage_key,
		   row_count, total_count, incomplete_count, avg_flowrate, avg_pressure, avg_temperature, type_distribution)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	sargs, err := summaryArgs(u.Summary)
	if err != nil {
		return err
	}
	args := append([]any{u.ID, u.AccountID, u.Filename, u.UploadedAt.UnixMicro(), u.StorageKey}, sargs...)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return insertRows(ctx, r.db, u.ID, u.Rows, sqlitePlaceholder)
}

func (r *SQLiteRepository) List(ctx context.Context, accountID string, limit int) ([]models.UploadMeta, error) {
	query :=
		`SELECT id, account_id, filename, uploaded_at, storage_key
		 FROM uploads
		 WHERE account_id = ?
		 ORDER BY seq DESC
		 LIMIT ?`

	return r.queryMetas(ctx, query, accountID, limit)
}

func (r *SQLiteRepository) Get(ctx context.Context, accountID, id string) (*models.Upload, error) {
	query :=
		`SELECT id, account_id, filename, uploaded_at, storage_key,
		   row_count, total_count, incomplete_count, avg_flowrate, avg_pressure, avg_temperature, type_distribution
		 FROM uploads
		 WHERE id = ? AND account_id = ?`

	u := &models.Upload{}
	var sc summaryColumns
	var uploadedAt int64
	dest := append([]any{&u.ID, &u.AccountID, &u.Filename, &uploadedAt, &u.StorageKey}, sc.dest()...)

	if err := r.db.QueryRowContext(ctx, query, id, accountID).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.UploadedAt = time.UnixMicro(uploadedAt).UTC()

	s, err := sc.summary()
	if err != nil {
		return nil, err
	}
	u.Summary = s

	rows, err := selectRows(ctx, r.db,
		`SELECT position, equipment_name, equipment_type, flowrate, pressure, temperature
		 FROM upload_rows
		 WHERE upload_id = ?
		 ORDER BY position`, u.ID)
	if err != nil {
		return nil, err
	}
	u.Rows = rows

	return u, nil
}

// EvictBeyond deletes rows explicitly so it does not depend on the
// foreign_keys pragma being enabled on the connection.
func (r *SQLiteRepository) EvictBeyond(ctx context.Context, accountID string, keep int) ([]models.UploadMeta, error) {
	query :=
		`SELECT id, account_id, filename, uploaded_at, storage_key
		 FROM uploads
		 WHERE account_id = ?
		 ORDER BY seq DESC
		 LIMIT -1 OFFSET ?`

	evicted, err := r.queryMetas(ctx, query, accountID, keep)
	if err != nil {
		return nil, err
	}

	for _, m := range evicted {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM upload_rows WHERE upload_id = ?`, m.ID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, m.ID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}
	return evicted, nil
}

func (r *SQLiteRepository) queryMetas(ctx context.Context, query string, args ...any) ([]models.UploadMeta, error) {
	rs, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rs.Close()

	out := []models.UploadMeta{}
	for rs.Next() {
		var m models.UploadMeta
		var uploadedAt int64
		if err := rs.Scan(&m.ID, &m.AccountID, &m.Filename, &uploadedAt, &m.StorageKey); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.UploadedAt = time.UnixMicro(uploadedAt).UTC()
		out = append(out, m)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
