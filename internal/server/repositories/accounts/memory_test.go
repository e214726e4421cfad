package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSteppingStore() *MemoryStore {
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := newSteppingStore()

	in := &models.Account{Email: "alice@example.com", PasswordHash: "h", Role: models.RoleUser, IsActive: true}
	created, err := s.Create(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, in.ID, "input must not be mutated")

	_, err = s.Create(ctx, &models.Account{Email: "alice@example.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	byEmail, err := s.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byEmail.Role = models.RoleAdmin
	again, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, again.Role, "returned records are copies")

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = s.FindByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	s := newSteppingStore()
	a, err := s.Create(ctx, &models.Account{Email: "a@example.com", Role: models.RoleUser, IsActive: true})
	require.NoError(t, err)

	role := models.RoleAdmin
	active := false
	require.NoError(t, s.Update(ctx, a.ID, models.AccountPatch{Role: &role, IsActive: &active}))

	got, err := s.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.False(t, got.IsActive)
	assert.True(t, got.UpdatedAt.After(a.UpdatedAt))

	assert.ErrorIs(t, s.Update(ctx, "missing", models.AccountPatch{Role: &role}), common.ErrorNotFound)

	token := "tok"
	assert.Error(t, s.Update(ctx, a.ID, models.AccountPatch{ResetPasswordToken: &token}))
}

func TestMemoryStore_ConsumeResetTicket(t *testing.T) {
	ctx := context.Background()
	s := newSteppingStore()
	a, err := s.Create(ctx, &models.Account{Email: "a@example.com", PasswordHash: "old"})
	require.NoError(t, err)

	token := "abc"
	expires := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Update(ctx, a.ID, models.AccountPatch{ResetPasswordToken: &token, ResetPasswordExpires: &expires}))

	_, err = s.ConsumeResetTicket(ctx, "abc", "new", expires)
	assert.ErrorIs(t, err, common.ErrorNotFound, "ticket is unusable at its expiry instant")

	got, err := s.ConsumeResetTicket(ctx, "abc", "new", expires.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)
	assert.Nil(t, got.ResetPasswordToken)
	assert.Nil(t, got.ResetPasswordExpires)

	_, err = s.ConsumeResetTicket(ctx, "abc", "again", expires.Add(-time.Second))
	assert.ErrorIs(t, err, common.ErrorNotFound, "ticket is single use")
}

func TestMemoryStore_ListByRole(t *testing.T) {
	ctx := context.Background()
	s := newSteppingStore()

	for _, e := range []string{"a1@corp.com", "a2@corp.com", "a3@other.com"} {
		_, err := s.Create(ctx, &models.Account{Email: e, Role: models.RoleAdmin, IsActive: true})
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, &models.Account{Email: "user@corp.com", Role: models.RoleUser, IsActive: true})
	require.NoError(t, err)

	list, total, err := s.ListByRole(ctx, models.RoleAdmin, models.AdminFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, "a3@other.com", list[0].Email, "newest first")

	list, total, err = s.ListByRole(ctx, models.RoleAdmin, models.AdminFilter{Search: "CORP"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = s.ListByRole(ctx, models.RoleAdmin, models.AdminFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, "a1@corp.com", list[0].Email)

	inactive := false
	list, total, err = s.ListByRole(ctx, models.RoleAdmin, models.AdminFilter{IsActive: &inactive})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	list, total, err = s.ListByRole(ctx, models.RoleAdmin, models.AdminFilter{Page: 100_000_000_000_000_000, Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, list)
}
