// Package accounts stores the accounts the access gate checks credentials
// against.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/equipview/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id string, u models.ProfileUpdate) (*models.Account, error)
	UpdatePassword(ctx context.Context, id string, hash []byte) error
	// Lock serialises writers of one account's history for the rest of the
	// enclosing transaction.
	Lock(ctx context.Context, id string) error
}
