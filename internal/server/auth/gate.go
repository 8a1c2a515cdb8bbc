// Package auth implements the access gate: every request carries a
// username/password credential which is checked against the account store
// before anything else runs. There are no sessions or tokens.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/server/metrics"
	"github.com/dmitrijs2005/equipview/internal/server/models"
	"github.com/dmitrijs2005/equipview/internal/server/repositories/repomanager"
)

// Credential is what a client presents on each request.
type Credential struct {
	Username string
	Password string
}

// CredentialFromRequest reads HTTP Basic credentials.
func CredentialFromRequest(r *http.Request) (Credential, bool) {
	u, p, ok := r.BasicAuth()
	if !ok {
		return Credential{}, false
	}
	return Credential{Username: u, Password: p}, true
}

type Gate struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	metrics     *metrics.Metrics
	dummyHash   []byte
}

// NewGate prepares a gate. cost should match the cost used for stored
// hashes so that unknown usernames take as long as wrong passwords.
func NewGate(db *sql.DB, rm repomanager.RepositoryManager, cost int, m *metrics.Metrics) (*Gate, error) {
	pw, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := HashPassword(pw, cost)
	if err != nil {
		return nil, err
	}
	return &Gate{db: db, repomanager: rm, metrics: m, dummyHash: dummy}, nil
}

// Authorize resolves c to an account or returns common.ErrUnauthorized.
// Store failures are returned as is.
func (g *Gate) Authorize(ctx context.Context, c Credential) (*models.Account, error) {
	if c.Username == "" || c.Password == "" {
		g.metrics.AuthFailed()
		return nil, common.ErrUnauthorized
	}

	a, err := g.repomanager.Accounts(g.db).GetByUsername(ctx, c.Username)
	if errors.Is(err, common.ErrNotFound) {
		CheckPassword(g.dummyHash, c.Password)
		g.metrics.AuthFailed()
		return nil, common.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !CheckPassword(a.PasswordHash, c.Password) {
		g.metrics.AuthFailed()
		return nil, common.ErrUnauthorized
	}
	return a, nil
}

type ctxKey struct{}

// WithAccount stores the resolved account in ctx.
func WithAccount(ctx context.Context, a *models.Account) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// AccountFromContext returns the account stored by WithAccount.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	a, ok := ctx.Value(ctxKey{}).(*models.Account)
	return a, ok && a != nil
}
