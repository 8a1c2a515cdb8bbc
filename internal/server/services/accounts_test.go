package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/server/auth"
	"github.com/dmitrijs2005/equipview/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestAccountService_Create(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.NotEmpty(t, e.alice.ID)
	assert.False(t, e.alice.CreatedAt.IsZero())
	assert.True(t, auth.CheckPassword(e.alice.PasswordHash, "alice-pw"))

	_, err := e.users.Create(ctx, NewAccount{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = e.users.Create(ctx, NewAccount{Username: "", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = e.users.Create(ctx, NewAccount{Username: "carol"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestAccountService_UpdateDetailsKeepsAbsentFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a, err := e.users.UpdateDetails(ctx, e.alice.ID, models.ProfileUpdate{FirstName: strp("Alice")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", a.FirstName)
	assert.Equal(t, "a@example.com", a.Email)

	a, err = e.users.Details(ctx, e.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", a.FirstName)

	_, err = e.users.UpdateDetails(ctx, "missing", models.ProfileUpdate{Email: strp("x")})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAccountService_ChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gate, err := auth.NewGate(e.db, e.rm, 4, nil)
	require.NoError(t, err)

	err = e.users.ChangePassword(ctx, e.alice.ID, "wrong", "new-pw")
	assert.ErrorIs(t, err, common.ErrIncorrectPassword)

	err = e.users.ChangePassword(ctx, e.alice.ID, "alice-pw", "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	require.NoError(t, e.users.ChangePassword(ctx, e.alice.ID, "alice-pw", "new-pw"))

	_, err = gate.Authorize(ctx, auth.Credential{Username: "alice", Password: "alice-pw"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	a, err := gate.Authorize(ctx, auth.Credential{Username: "alice", Password: "new-pw"})
	require.NoError(t, err)
	assert.Equal(t, e.alice.ID, a.ID)
}
