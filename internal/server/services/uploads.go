// Package services contains server-side business logic. UploadService runs
// the ingest pipeline and serves the read-only views of stored uploads;
// AccountService handles profile and password changes.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/equipment"
	"github.com/dmitrijs2005/equipview/internal/logging"
	"github.com/dmitrijs2005/equipview/internal/server/metrics"
	"github.com/dmitrijs2005/equipview/internal/server/models"
	"github.com/dmitrijs2005/equipview/internal/server/objectstore"
	"github.com/dmitrijs2005/equipview/internal/server/report"
	"github.com/dmitrijs2005/equipview/internal/timex"
)

const csvContentType = "text/csv"

// History is the subset of history.Store the upload service relies on.
type History interface {
	Append(ctx context.Context, accountID string, u *models.Upload) (*models.Upload, error)
	List(ctx context.Context, accountID string) ([]models.UploadMeta, error)
	Get(ctx context.Context, accountID, id string) (*models.Upload, error)
}

// UploadResult is what a successful upload returns to the caller.
type UploadResult struct {
	Upload   *models.Upload
	Warnings []equipment.RowWarning
}

// Document is a rendered report ready to be served.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Source is an archived raw file. Exactly one of URL and Body is set.
type Source struct {
	Filename string
	URL      string
	Body     io.ReadCloser
}

type UploadService struct {
	history History
	objects objectstore.Store
	metrics *metrics.Metrics
	logger  logging.Logger
	clock   timex.Clock
}

// NewUploadService wires the pipeline. objects may be nil, in which case raw
// files are not archived and Source always reports common.ErrNotFound.
func NewUploadService(h History, objects objectstore.Store, m *metrics.Metrics, logger logging.Logger) *UploadService {
	return &UploadService{
		history: h,
		objects: objects,
		metrics: m,
		logger:  logger,
		clock:   timex.SystemClock{},
	}
}

// Upload validates, summarizes, archives and stores one CSV file. Schema and
// parse failures are returned before anything is written.
func (s *UploadService) Upload(ctx context.Context, accountID, filename string, data []byte) (*UploadResult, error) {
	log := logging.FromContext(ctx, s.logger)

	name, err := cleanFilename(filename)
	if err != nil {
		s.metrics.UploadRejected(metrics.ResultInvalid)
		return nil, err
	}

	rows, err := equipment.Ingest(bytes.NewReader(data))
	if err != nil {
		var se *equipment.SchemaError
		switch {
		case errors.As(err, &se):
			s.metrics.UploadRejected(metrics.ResultSchema)
		case errors.Is(err, equipment.ErrMalformedCSV):
			s.metrics.UploadRejected(metrics.ResultMalformed)
		default:
			s.metrics.UploadRejected(metrics.ResultError)
		}
		return nil, err
	}

	summary := equipment.Summarize(rows)

	key, err := s.archive(ctx, accountID, data)
	if err != nil {
		s.metrics.UploadRejected(metrics.ResultError)
		return nil, err
	}

	stored, err := s.history.Append(ctx, accountID, &models.Upload{
		UploadMeta: models.UploadMeta{Filename: name, StorageKey: key},
		Summary:    summary,
		Rows:       rows,
	})
	if err != nil {
		s.metrics.UploadRejected(metrics.ResultError)
		s.discard(ctx, key)
		return nil, fmt.Errorf("store upload: %w", err)
	}

	s.metrics.UploadStored(summary.TotalCount, summary.IncompleteCount)
	log.Info(ctx, "upload stored",
		"upload_id", stored.ID,
		"filename", stored.Filename,
		"rows", summary.RowCount,
		"incomplete", summary.IncompleteCount)

	return &UploadResult{Upload: stored, Warnings: equipment.Warnings(rows)}, nil
}

func (s *UploadService) archive(ctx context.Context, accountID string, data []byte) (string, error) {
	if s.objects == nil {
		return "", nil
	}
	key := objectstore.NewUploadKey(accountID, s.clock.Now())
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), csvContentType); err != nil {
		return "", fmt.Errorf("archive upload: %w", err)
	}
	return key, nil
}

func (s *UploadService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		logging.FromContext(ctx, s.logger).Warn(ctx, "discard archived file", "key", key, "error", err)
	}
}

// History lists the account's recent uploads, newest first.
func (s *UploadService) History(ctx context.Context, accountID string) ([]models.UploadMeta, error) {
	return s.history.List(ctx, accountID)
}

// Detail returns one stored upload with its rows.
func (s *UploadService) Detail(ctx context.Context, accountID, id string) (*models.Upload, error) {
	return s.history.Get(ctx, accountID, id)
}

// Report renders a stored upload. It never recomputes the summary.
func (s *UploadService) Report(ctx context.Context, accountID, id string, f report.Format) (*Document, error) {
	u, err := s.history.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, u, f); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	s.metrics.ReportRendered(string(f))

	return &Document{
		Filename:    report.Filename(u.ID, f),
		ContentType: f.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

// Source returns the archived raw file of an upload, as a presigned URL when
// the store can produce one.
func (s *UploadService) Source(ctx context.Context, accountID, id string) (*Source, error) {
	u, err := s.history.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if u.StorageKey == "" || s.objects == nil {
		return nil, common.ErrNotFound
	}

	if p, ok := s.objects.(objectstore.Presigner); ok {
		url, err := p.PresignGet(ctx, u.StorageKey, u.Filename)
		if err != nil {
			return nil, fmt.Errorf("presign source: %w", err)
		}
		return &Source{Filename: u.Filename, URL: url}, nil
	}

	body, err := s.objects.Get(ctx, u.StorageKey)
	if err != nil {
		return nil, err
	}
	return &Source{Filename: u.Filename, Body: body}, nil
}

// cleanFilename keeps the base name and requires a .csv extension.
func cleanFilename(name string) (string, error) {
	name = strings.TrimSpace(equipment.CleanText(name))
	if name == "" {
		return "", fmt.Errorf("%w: no file provided", common.ErrInvalidInput)
	}
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return "", fmt.Errorf("%w: only CSV files are allowed", common.ErrInvalidInput)
	}
	return name, nil
}
