package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/equipview/internal/logging"
	"github.com/dmitrijs2005/equipview/internal/server/history"
	"github.com/dmitrijs2005/equipview/internal/server/metrics"
	"github.com/dmitrijs2005/equipview/internal/server/models"
	"github.com/dmitrijs2005/equipview/internal/server/objectstore"
	"github.com/dmitrijs2005/equipview/internal/server/repositories/repomanager"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Equipment Name,Type,Flowrate,Pressure,Temperature\n" +
	"P1,Pump,10,2,50\n" +
	"V1,Valve,,3,60\n" +
	"P2,Pump,20,4,70\n"

type env struct {
	db      *sql.DB
	rm      repomanager.RepositoryManager
	history *history.Store
	objects *objectstore.FSStore
	metrics *metrics.Metrics
	uploads *UploadService
	users   *AccountService
	alice   *models.Account
	bob     *models.Account
}

func newEnv(t *testing.T) *env {
	t.Helper()
	goose.SetLogger(goose.NopLogger())
	ctx := context.Background()
	dir := t.TempDir()

	db, rm, err := repomanager.Open(ctx, repomanager.SQLitePrefix+filepath.Join(dir, "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, rm.RunMigrations(ctx, db))

	objects, err := objectstore.NewFSStore(filepath.Join(dir, "objects"))
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	h := history.NewStore(db, rm, logging.Nop{}, history.WithObjectDeleter(objects), history.WithMetrics(m))

	e := &env{
		db:      db,
		rm:      rm,
		history: h,
		objects: objects,
		metrics: m,
		uploads: NewUploadService(h, objects, m, logging.Nop{}),
		users:   NewAccountService(db, rm, 4, logging.Nop{}),
	}
	e.alice, err = e.users.Create(ctx, NewAccount{Username: "alice", Password: "alice-pw", Email: "a@example.com"})
	require.NoError(t, err)
	e.bob, err = e.users.Create(ctx, NewAccount{Username: "bob", Password: "bob-pw"})
	require.NoError(t, err)
	return e
}

// fakeHistory fails every call with err.
type fakeHistory struct {
	err error
}

func (f fakeHistory) Append(context.Context, string, *models.Upload) (*models.Upload, error) {
	return nil, f.err
}
func (f fakeHistory) List(context.Context, string) ([]models.UploadMeta, error) { return nil, f.err }
func (f fakeHistory) Get(context.Context, string, string) (*models.Upload, error) {
	return nil, f.err
}

// recordingStore remembers keys and optionally presigns.
type recordingStore struct {
	put     []string
	deleted []string
	putErr  error
}

func (s *recordingStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	_, _ = io.Copy(io.Discard, r)
	s.put = append(s.put, key)
	return nil
}

func (s *recordingStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not used")
}

func (s *recordingStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

type presigningStore struct {
	recordingStore
}

func (s *presigningStore) PresignGet(_ context.Context, key, filename string) (string, error) {
	return "https://bucket.example/" + key + "?name=" + filename, nil
}
