package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/dbx"
	"github.com/dmitrijs2005/equipview/internal/logging"
	"github.com/dmitrijs2005/equipview/internal/server/auth"
	"github.com/dmitrijs2005/equipview/internal/server/models"
	"github.com/dmitrijs2005/equipview/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/equipview/internal/timex"
	"github.com/google/uuid"
)

// AccountService manages accounts outside the upload pipeline: out-of-band
// creation, profile edits and password changes.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	bcryptCost  int
	logger      logging.Logger
	clock       timex.Clock
}

func NewAccountService(db *sql.DB, rm repomanager.RepositoryManager, bcryptCost int, logger logging.Logger) *AccountService {
	return &AccountService{db: db, repomanager: rm, bcryptCost: bcryptCost, logger: logger, clock: timex.SystemClock{}}
}

// NewAccount describes an account to create.
type NewAccount struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// Create stores a new account. A taken username yields common.ErrAlreadyExists.
func (s *AccountService) Create(ctx context.Context, in NewAccount) (*models.Account, error) {
	if in.Username == "" {
		return nil, fmt.Errorf("%w: empty username", common.ErrInvalidInput)
	}
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	a, err := s.repomanager.Accounts(s.db).Create(ctx, &models.Account{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx, s.logger).Info(ctx, "account created", "account_id", a.ID, "username", a.Username)
	return a, nil
}

// Details returns the account profile.
func (s *AccountService) Details(ctx context.Context, accountID string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
}

// UpdateDetails changes the fields set in u and keeps the others.
func (s *AccountService) UpdateDetails(ctx context.Context, accountID string, u models.ProfileUpdate) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).UpdateProfile(ctx, accountID, u)
}

// ChangePassword replaces the password after checking the old one. Requests
// that follow must present the new password.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password must not be empty", common.ErrInvalidInput)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)
		a, err := repo.GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if !auth.CheckPassword(a.PasswordHash, oldPassword) {
			return common.ErrIncorrectPassword
		}
		hash, err := auth.HashPassword(newPassword, s.bcryptCost)
		if err != nil {
			return err
		}
		if err := repo.UpdatePassword(ctx, accountID, hash); err != nil {
			return err
		}
		logging.FromContext(ctx, s.logger).Info(ctx, "password changed", "account_id", accountID)
		return nil
	})
}
