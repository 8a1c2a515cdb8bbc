// Package uploads persists upload history entries together with their
// summaries and classified rows.
package uploads

import (
	"context"

	"github.com/dmitrijs2005/equipview/internal/server/models"
)

type Repository interface {
	// Insert stores the upload, its summary and all rows.
	Insert(ctx context.Context, u *models.Upload) error
	// List returns at most limit uploads of the account, newest first.
	List(ctx context.Context, accountID string, limit int) ([]models.UploadMeta, error)
	// Get returns common.ErrNotFound unless the upload exists and belongs to
	// the account.
	Get(ctx context.Context, accountID, id string) (*models.Upload, error)
	// EvictBeyond deletes every upload of the account except the newest keep
	// and returns what it deleted.
	EvictBeyond(ctx context.Context, accountID string, keep int) ([]models.UploadMeta, error)
}
