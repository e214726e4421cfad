package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.register(t, "  Alice@Example.com ", "secret1")

	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.True(t, res.User.IsActive)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	stored, err := f.manager.Store().FindByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	require.NotNil(t, stored.EmailVerificationToken)
	assert.NotEmpty(t, *stored.EmailVerificationToken)

	claims, err := f.issuer.ValidateAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestRegister_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "secret1")

	tests := []struct {
		name    string
		in      RegisterInput
		kind    error
		message string
	}{
		{"duplicate email", RegisterInput{Email: "alice@example.com", Password: "secret2"}, common.ErrConflict, common.MsgUserExists},
		{"duplicate after normalization", RegisterInput{Email: "ALICE@example.com", Password: "secret2"}, common.ErrConflict, common.MsgUserExists},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "secret1"}, common.ErrValidation, ""},
		{"short password", RegisterInput{Email: "bob@example.com", Password: "12345"}, common.ErrValidation, ""},
		{"long password", RegisterInput{Email: "bob@example.com", Password: strings.Repeat("x", 73)}, common.ErrValidation, ""},
		{"unknown role", RegisterInput{Email: "bob@example.com", Password: "secret1", Role: "root"}, common.ErrValidation, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			if tt.message != "" {
				assert.Equal(t, tt.message, common.Message(err, ""))
			}
		})
	}
}

func TestRegister_ExplicitAdmin(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Register(context.Background(), RegisterInput{
		Email: "root@example.com", Password: "secret1", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
}

func TestRegister_HashFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.hasher = failingHasher{}

	_, err := f.svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrValidation)
}

func TestEmailIsCaseInsensitiveKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice@example.com", "secret1")

	_, err := f.svc.Register(ctx, RegisterInput{Email: "Alice@Example.com", Password: "secret2"})
	require.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, common.MsgUserExists, common.Message(err, ""))

	_, err = f.manager.Store().FindByEmail(ctx, "Alice@Example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound, "only the normalized form is stored")

	res, err := f.svc.Login(ctx, "ALICE@EXAMPLE.COM", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	require.NoError(t, f.svc.ForgotPassword(ctx, " Alice@example.COM "))
	assert.Equal(t, reg.User.ID, f.notifier.account.ID)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice@example.com", "secret1")

	res, err := f.svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEmpty(t, res.AccessToken)

	_, err = f.svc.Login(ctx, "alice@example.com", "wrong!!")
	require.ErrorIs(t, err, common.ErrUnauthorized)
	wrongPassword := common.Message(err, "")

	_, err = f.svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, common.ErrUnauthorized)
	unknownEmail := common.Message(err, "")

	assert.Equal(t, common.MsgInvalidCredentials, wrongPassword)
	assert.Equal(t, wrongPassword, unknownEmail, "unknown email must look like a wrong password")
}

func TestLogin_Deactivated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice@example.com", "secret1")

	inactive := false
	require.NoError(t, f.manager.Store().Update(ctx, reg.User.ID, models.AccountPatch{IsActive: &inactive}))

	_, err := f.svc.Login(ctx, "alice@example.com", "secret1")
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Equal(t, common.MsgAccountDeactivated, common.Message(err, ""))
}

func TestValidateCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice@example.com", "secret1")
	f.register(t, "carol@example.com", "secret1")

	inactive := false
	carol, err := f.manager.Store().FindByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	require.NoError(t, f.manager.Store().Update(ctx, carol.ID, models.AccountPatch{IsActive: &inactive}))

	acc, ok, err := f.svc.ValidateCredentials(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, reg.User.ID, acc.ID)

	for _, tc := range []struct{ email, password string }{
		{"nobody@example.com", "secret1"},
		{"alice@example.com", "wrong!!"},
		{"carol@example.com", "secret1"},
	} {
		acc, ok, err := f.svc.ValidateCredentials(ctx, tc.email, tc.password)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, acc)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice@example.com", "secret1")

	require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
	require.Equal(t, 1, f.notifier.calls)
	assert.Len(t, f.notifier.token, 64)
	assert.Equal(t, testNow.Add(time.Hour), f.notifier.expires)

	stored, err := f.manager.Store().FindByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasPendingReset(f.clock.Now()))

	require.NoError(t, f.svc.ResetPassword(ctx, f.notifier.token, "newsecret"))

	_, err = f.svc.Login(ctx, "alice@example.com", "secret1")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = f.svc.Login(ctx, "alice@example.com", "newsecret")
	assert.NoError(t, err)

	err = f.svc.ResetPassword(ctx, f.notifier.token, "another1")
	require.ErrorIs(t, err, common.ErrBadRequest, "ticket must not be reusable")
	assert.Equal(t, common.MsgInvalidResetToken, common.Message(err, ""))
}

func TestForgotPassword_OverwritesPreviousTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "secret1")

	require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
	first := f.notifier.token
	require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
	second := f.notifier.token
	require.NotEqual(t, first, second)

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, first, "newsecret"), common.ErrBadRequest)
	assert.NoError(t, f.svc.ResetPassword(ctx, second, "newsecret"))
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ForgotPassword(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, common.MsgUserNotFound, common.Message(err, ""))
	assert.Zero(t, f.notifier.calls)
}

func TestForgotPassword_DeliveryFailureIsNotReported(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "secret1")
	f.notifier.err = errors.New("smtp down")

	assert.NoError(t, f.svc.ForgotPassword(context.Background(), "alice@example.com"))
}

func TestResetPassword_Expiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "secret1")
	require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))

	f.clock.Advance(time.Hour)

	err := f.svc.ResetPassword(ctx, f.notifier.token, "newsecret")
	require.ErrorIs(t, err, common.ErrBadRequest, "ticket expires at exactly now + TTL")

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "", "newsecret"), common.ErrBadRequest)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "whatever", "123"), common.ErrValidation)
}

func TestAuthenticateExternal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ext := models.ExternalIdentity{
		Provider: ProviderGoogle, Subject: "g-1", Email: "Dana@Example.com",
		Name: "Dana", AvatarURL: "https://example.com/dana.png",
	}

	created, err := f.svc.AuthenticateExternal(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", created.User.Email)
	assert.Equal(t, "Dana", created.User.Name)
	assert.Equal(t, "https://example.com/dana.png", created.User.AvatarURL)
	assert.Equal(t, models.RoleUser, created.User.Role)
	assert.Equal(t, "Google user created and logged in successfully", created.Message)

	again, err := f.svc.AuthenticateExternal(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, again.User.ID, "second sign-in reuses the account")
	assert.Equal(t, "Google login successful", again.Message)

	stored, err := f.manager.Store().FindByID(ctx, created.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)

	_, ok, err := f.svc.ValidateCredentials(ctx, "dana@example.com", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthenticateExternal_ExistingLocalAccount(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "alice@example.com", "secret1")

	res, err := f.svc.AuthenticateExternal(context.Background(), models.ExternalIdentity{
		Provider: ProviderGoogle, Email: "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice@example.com", "secret1")

	res, err := f.svc.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	_, err = f.svc.Refresh(ctx, reg.AccessToken)
	assert.ErrorIs(t, err, common.ErrUnauthorized, "access token is not a refresh token")

	inactive := false
	require.NoError(t, f.manager.Store().Update(ctx, reg.User.ID, models.AccountPatch{IsActive: &inactive}))
	_, err = f.svc.Refresh(ctx, reg.RefreshToken)
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Equal(t, common.MsgUserNotFoundOrInact, common.Message(err, ""))
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice@example.com", "secret1")

	p, err := f.svc.Profile(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", p.Email)

	_, err = f.svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
