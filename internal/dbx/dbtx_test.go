package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func evictOldest(ctx context.Context, tx DBTX) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM uploads WHERE id = $1`, "u1")
	return err
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM uploads`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, WithTx(context.Background(), db, nil, evictOldest))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM uploads`).WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := WithTx(context.Background(), db, nil, evictOldest)
	assert.EqualError(t, err, "locked")
}

func TestWithTx_RollbackFailureIsJoined(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM uploads`).WillReturnError(errors.New("locked"))
	mock.ExpectRollback().WillReturnError(sql.ErrConnDone)

	err := WithTx(context.Background(), db, nil, evictOldest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "half-written history", func() {
		_ = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
			panic("half-written history")
		})
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.False(t, called)
}

func TestWithTx_CommitError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM uploads`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(sql.ErrTxDone)

	assert.ErrorIs(t, WithTx(context.Background(), db, nil, evictOldest), sql.ErrTxDone)
}

func TestNullConversions(t *testing.T) {
	f := 2.5
	require.Equal(t, sql.NullFloat64{Float64: 2.5, Valid: true}, NullFloat64(&f))
	require.False(t, NullFloat64(nil).Valid)
	require.Nil(t, FloatPtr(sql.NullFloat64{}))
	require.Equal(t, 2.5, *FloatPtr(NullFloat64(&f)))

	s := "Pump"
	require.Equal(t, sql.NullString{String: "Pump", Valid: true}, NullString(&s))
	require.False(t, NullString(nil).Valid)
	require.Nil(t, StringPtr(sql.NullString{}))
	require.Equal(t, "Pump", *StringPtr(NullString(&s)))
}
