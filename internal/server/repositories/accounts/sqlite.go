package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/dbx"
	"github.com/dmitrijs2005/equipview/internal/server/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository keeps timestamps as Unix microseconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, username, password_hash, email, first_name, last_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Username, a.PasswordHash, a.Email, a.FirstName, a.LastName, a.CreatedAt.UnixMicro())
	if err != nil {
		var sqlErr *sqlite.Error
		if errors.As(err, &sqlErr) && sqlErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

const sqliteSelectAccount = `SELECT id, username, password_hash, email, first_name, last_name, created_at
		 FROM accounts`

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.get(ctx, sqliteSelectAccount+` WHERE username = ?`, username)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.get(ctx, sqliteSelectAccount+` WHERE id = ?`, id)
}

func (r *SQLiteRepository) get(ctx context.Context, query string, arg any) (*models.Account, error) {
	a := &models.Account{}
	var created int64
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.Email, &a.FirstName, &a.LastName, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	a.CreatedAt = time.UnixMicro(created).UTC()
	return a, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, id string, u models.ProfileUpdate) (*models.Account, error) {
	query :=
		`UPDATE accounts SET
		   email = COALESCE(?, email),
		   first_name = COALESCE(?, first_name),
		   last_name = COALESCE(?, last_name)
		 WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		dbx.NullString(u.Email), dbx.NullString(u.FirstName), dbx.NullString(u.LastName), id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := expectOne(res); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// Lock only checks the account exists. SQLite serialises writers at the
// database level and the server keeps a single connection.
func (r *SQLiteRepository) Lock(ctx context.Context, id string) error {
	var got string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM accounts WHERE id = ?`, id).Scan(&got)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
