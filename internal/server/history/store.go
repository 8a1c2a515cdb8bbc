// Package history keeps the bounded, per-account window of recent uploads.
//
// Appending a record and evicting everything past the window happen in one
// transaction while holding the account's lock, so concurrent uploads of the
// same account can never leave more than the window size behind.
package history

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/dbx"
	"github.com/dmitrijs2005/equipview/internal/logging"
	"github.com/dmitrijs2005/equipview/internal/server/metrics"
	"github.com/dmitrijs2005/equipview/internal/server/models"
	"github.com/dmitrijs2005/equipview/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/equipview/internal/timex"
	"github.com/google/uuid"
)

// ObjectDeleter removes archived source files of evicted uploads.
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

type Store struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	objects     ObjectDeleter
	metrics     *metrics.Metrics
	logger      logging.Logger
	clock       timex.Clock
	limit       int
	locks       *keyLock
	newID       func() string
}

type Option func(*Store)

func WithClock(c timex.Clock) Option { return func(s *Store) { s.clock = c } }

func WithLimit(n int) Option { return func(s *Store) { s.limit = n } }

func WithObjectDeleter(d ObjectDeleter) Option { return func(s *Store) { s.objects = d } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Store) { s.metrics = m } }

func NewStore(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		db:          db,
		repomanager: rm,
		logger:      logger,
		clock:       timex.SystemClock{},
		limit:       common.HistoryLimit,
		locks:       newKeyLock(),
		newID:       uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Append stores u as the newest entry of the account's history and evicts
// whatever falls outside the window. The id, account and timestamp of u are
// assigned here; the caller's value is not modified.
func (s *Store) Append(ctx context.Context, accountID string, u *models.Upload) (*models.Upload, error) {
	if accountID == "" || u == nil {
		return nil, common.ErrInvalidInput
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	rec := *u
	rec.ID = s.newID()
	rec.AccountID = accountID
	rec.UploadedAt = s.clock.Now()

	var evicted []models.UploadMeta
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Accounts(tx).Lock(ctx, accountID); err != nil {
			return err
		}

		repo := s.repomanager.Uploads(tx)
		if err := repo.Insert(ctx, &rec); err != nil {
			return err
		}

		var err error
		evicted, err = repo.EvictBeyond(ctx, accountID, s.limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Evicted(len(evicted))
	s.deleteObjects(ctx, evicted)

	return &rec, nil
}

func (s *Store) deleteObjects(ctx context.Context, evicted []models.UploadMeta) {
	log := logging.FromContext(ctx, s.logger)
	for _, m := range evicted {
		log.Info(ctx, "upload evicted", "upload_id", m.ID, "account_id", m.AccountID)
		if m.StorageKey == "" || s.objects == nil {
			continue
		}
		if err := s.objects.Delete(ctx, m.StorageKey); err != nil {
			log.Warn(ctx, "delete archived file", "key", m.StorageKey, "error", err)
		}
	}
}

// List returns the account's window, newest first.
func (s *Store) List(ctx context.Context, accountID string) ([]models.UploadMeta, error) {
	return s.repomanager.Uploads(s.db).List(ctx, accountID, s.limit)
}

// Get returns common.ErrNotFound for malformed ids, unknown ids and ids of
// other accounts alike.
func (s *Store) Get(ctx context.Context, accountID, id string) (*models.Upload, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return s.repomanager.Uploads(s.db).Get(ctx, accountID, parsed.String())
}
