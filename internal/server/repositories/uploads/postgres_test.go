package uploads

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/equipment"
	"github.com/dmitrijs2005/equipview/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func str(s string) *string   { return &s }
func num(f float64) *float64 { return &f }
func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

var metaCols = []string{"id", "account_id", "filename", "uploaded_at", "storage_key"}

func sampleUpload() *models.Upload {
	rows := []equipment.Row{
		{Position: 1, Name: str("P1"), Type: str("Pump"), Flowrate: num(10), Pressure: num(2), Temperature: num(50)},
		{Position: 2, Name: str("V1"), Type: str("Valve"), Pressure: num(3), Temperature: num(60)},
	}
	return &models.Upload{
		UploadMeta: models.UploadMeta{
			ID: "u1", AccountID: "a1", Filename: "plant.csv",
			UploadedAt: time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC), StorageKey: "k",
		},
		Summary: equipment.Summarize(rows),
		Rows:    rows,
	}
}

func TestPostgresInsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := sampleUpload()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+uploads\s*\(id,.*type_distribution\)\s*VALUES\s*\(\$1,.*\$12\)$`).
		WithArgs("u1", "a1", "plant.csv", u.UploadedAt, "k", 2, 1, 1, 10.0, 2.0, 50.0, `{"Pump":1}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^INSERT INTO upload_rows \(.*\) VALUES \(\$1, .*\$8\), \(\$9, .*\$16\)$`).
		WithArgs(
			"u1", 1, "P1", "Pump", 10.0, 2.0, 50.0, true,
			"u1", 2, "V1", "Valve", nil, 3.0, 60.0, false,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	must(t, repo.Insert(context.Background(), u))
	must(t, mock.ExpectationsWereMet())
}

func TestPostgresInsert_BatchesRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := sampleUpload()
	u.Rows = make([]equipment.Row, rowBatch+1)
	for i := range u.Rows {
		u.Rows[i] = equipment.Row{Position: i + 1}
	}

	mock.ExpectExec(`INSERT\s+INTO\s+uploads`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`\$800\)$`).WillReturnResult(sqlmock.NewResult(0, rowBatch))
	mock.ExpectExec(`VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\)$`).WillReturnResult(sqlmock.NewResult(0, 1))

	must(t, repo.Insert(context.Background(), u))
	must(t, mock.ExpectationsWereMet())
}

func TestPostgresInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+uploads`).WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), sampleUpload())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgresList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*account_id,\s*filename,\s*uploaded_at,\s*storage_key\s+FROM\s+uploads\s+WHERE\s+account_id\s*=\s*\$1\s+ORDER\s+BY\s+seq\s+DESC\s+LIMIT\s+\$2$`).
		WithArgs("a1", common.HistoryLimit).
		WillReturnRows(sqlmock.NewRows(metaCols).
			AddRow("u2", "a1", "b.csv", ts, "").
			AddRow("u1", "a1", "a.csv", ts, "k1"))

	got, err := repo.List(context.Background(), "a1", common.HistoryLimit)
	must(t, err)
	if len(got) != 2 || got[0].ID != "u2" || got[1].StorageKey != "k1" {
		t.Fatalf("unexpected list: %+v", got)
	}
	if got[0].UploadedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamps")
	}
}

func TestPostgresGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`(?s)FROM\s+uploads\s+WHERE\s+id\s*=\s*\$1\s+AND\s+account_id\s*=\s*\$2$`).
		WithArgs("u1", "a1").
		WillReturnRows(sqlmock.NewRows(append(metaCols,
			"row_count", "total_count", "incomplete_count", "avg_flowrate", "avg_pressure", "avg_temperature", "type_distribution")).
			AddRow("u1", "a1", "plant.csv", ts, "k", 2, 1, 1, 10.0, 2.0, 50.0, []byte(`{"Pump":1}`)))
	mock.ExpectQuery(`(?s)FROM\s+upload_rows\s+WHERE\s+upload_id\s*=\s*\$1\s+ORDER\s+BY\s+position$`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"position", "equipment_name", "equipment_type", "flowrate", "pressure", "temperature"}).
			AddRow(1, "P1", "Pump", 10.0, 2.0, 50.0).
			AddRow(2, "V1", "Valve", nil, 3.0, 60.0))

	u, err := repo.Get(context.Background(), "a1", "u1")
	must(t, err)

	if u.Summary.TotalCount != 1 || *u.Summary.Averages.Flowrate != 10 || u.Summary.TypeDistribution["Pump"] != 1 {
		t.Fatalf("unexpected summary: %+v", u.Summary)
	}
	if len(u.Rows) != 2 || !u.Rows[0].Complete() || u.Rows[1].Complete() || u.Rows[1].Flowrate != nil {
		t.Fatalf("unexpected rows: %+v", u.Rows)
	}
}

func TestPostgresGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+uploads`).WithArgs("u1", "other").WillReturnError(sql.ErrNoRows)

	if _, err := repo.Get(context.Background(), "other", "u1"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresEvictBeyond(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)^DELETE\s+FROM\s+uploads\s+WHERE\s+id\s+IN\s*\(.*ORDER\s+BY\s+seq\s+DESC\s+OFFSET\s+\$2\s*\)\s*RETURNING\s+id,`).
		WithArgs("a1", 5).
		WillReturnRows(sqlmock.NewRows(metaCols).AddRow("old", "a1", "old.csv", ts, "uploads/old.csv"))

	got, err := repo.EvictBeyond(context.Background(), "a1", 5)
	must(t, err)
	if len(got) != 1 || got[0].ID != "old" || got[0].StorageKey != "uploads/old.csv" {
		t.Fatalf("unexpected evicted: %+v", got)
	}
}

func TestInsertRowsQuery(t *testing.T) {
	q := insertRowsQuery(2, pgPlaceholder)
	if !strings.HasSuffix(q, "VALUES ($1, $2, $3, $4, $5, $6, $7, $8), ($9, $10, $11, $12, $13, $14, $15, $16)") {
		t.Fatalf("unexpected query: %s", q)
	}
	q = insertRowsQuery(1, sqlitePlaceholder)
	if !strings.HasSuffix(q, "VALUES (?, ?, ?, ?, ?, ?, ?, ?)") {
		t.Fatalf("unexpected query: %s", q)
	}
}
