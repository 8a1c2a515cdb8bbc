package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/dbx"
	"github.com/dmitrijs2005/equipview/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func pgPlaceholder(i int) string { return "$" + strconv.Itoa(i) }

func (r *PostgresRepository) Insert(ctx context.Context, u *models.Upload) error {
	query :=
		`INSERT INTO uploads (id, account_id, filename, uploaded_at, storage_key,
		   row_count, total_count, incomplete_count, avg_flowrate, avg_pressure, avg_temperature, type_distribution)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	sargs, err := summaryArgs(u.Summary)
	if err != nil {
		return err
	}
	args := append([]any{u.ID, u.AccountID, u.Filename, u.UploadedAt, u.StorageKey}, sargs...)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return insertRows(ctx, r.db, u.ID, u.Rows, pgPlaceholder)
}

func (r *PostgresRepository) List(ctx context.Context, accountID string, limit int) ([]models.UploadMeta, error) {
	query :=
		`SELECT id, account_id, filename, uploaded_at, storage_key
		 FROM uploads
		 WHERE account_id = $1
		 ORDER BY seq DESC
		 LIMIT $2`

	rs, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.scanMetas(rs)
}

func (r *PostgresRepository) Get(ctx context.Context, accountID, id string) (*models.Upload, error) {
	query :=
		`SELECT id, account_id, filename, uploaded_at, storage_key,
		   row_count, total_count, incomplete_count, avg_flowrate, avg_pressure, avg_temperature, type_distribution
		 FROM uploads
		 WHERE id = $1 AND account_id = $2`

	u := &models.Upload{}
	var sc summaryColumns
	dest := append([]any{&u.ID, &u.AccountID, &u.Filename, &u.UploadedAt, &u.StorageKey}, sc.dest()...)

	if err := r.db.QueryRowContext(ctx, query, id, accountID).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.UploadedAt = u.UploadedAt.UTC()

	s, err := sc.summary()
	if err != nil {
		return nil, err
	}
	u.Summary = s

	rows, err := selectRows(ctx, r.db,
		`SELECT position, equipment_name, equipment_type, flowrate, pressure, temperature
		 FROM upload_rows
		 WHERE upload_id = $1
		 ORDER BY position`, u.ID)
	if err != nil {
		return nil, err
	}
	u.Rows = rows

	return u, nil
}

// EvictBeyond relies on ON DELETE CASCADE to drop the rows.
func (r *PostgresRepository) EvictBeyond(ctx context.Context, accountID string, keep int) ([]models.UploadMeta, error) {
	query :=
		`DELETE FROM uploads
		 WHERE id IN (
		   SELECT id FROM uploads
		   WHERE account_id = $1
		   ORDER BY seq DESC
		   OFFSET $2
		 )
		 RETURNING id, account_id, filename, uploaded_at, storage_key`

	rs, err := r.db.QueryContext(ctx, query, accountID, keep)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.scanMetas(rs)
}

func (r *PostgresRepository) scanMetas(rs *sql.Rows) ([]models.UploadMeta, error) {
	defer rs.Close()

	out := []models.UploadMeta{}
	for rs.Next() {
		var m models.UploadMeta
		if err := rs.Scan(&m.ID, &m.AccountID, &m.Filename, &m.UploadedAt, &m.StorageKey); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.UploadedAt = m.UploadedAt.UTC()
		out = append(out, m)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
