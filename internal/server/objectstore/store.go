// Package objectstore archives raw uploaded files. Two backends exist: an
// S3-compatible bucket and a local directory.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	// Put stores size bytes from r under key. S3 needs r to be seekable when
	// the endpoint is plain HTTP, so callers pass a *bytes.Reader.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get returns common.ErrNotFound for unknown keys.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}

// Presigner is implemented by stores able to hand out time-limited download
// URLs, letting the server redirect instead of proxying the bytes.
type Presigner interface {
	PresignGet(ctx context.Context, key, filename string) (string, error)
}

// NewUploadKey returns a fresh key for an archived upload of the account.
func NewUploadKey(accountID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("uploads/%s/%d/%d/%d/%s.csv", accountID, t.Year(), t.Month(), t.Day(), uuid.New())
}
