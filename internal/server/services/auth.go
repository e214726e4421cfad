// Package services implements the account flows of gestcard on top of the
// credential store and the security primitives in package auth.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/server/auth"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/dmitrijs2005/gestcard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gestcard/internal/timex"
	"github.com/google/uuid"
)

const resetTokenBytes = 32

// TokenService issues token pairs and validates refresh tokens.
type TokenService interface {
	IssuePair(id auth.Identity) (*auth.TokenPair, error)
	ValidateRefresh(token string) (*auth.Claims, error)
}

// AuthResult is returned by every flow that signs a caller in.
type AuthResult struct {
	Message string               `json:"message,omitempty"`
	User    models.PublicAccount `json:"user"`
	auth.TokenPair
}

// RegisterInput carries a registration request. An empty Role means
// models.RoleUser.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     models.Role
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	tokens      TokenService
	notifier    ResetNotifier
	clock       timex.Clock
	resetTTL    time.Duration
	logger      logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher, tokens TokenService,
	notifier ResetNotifier, clock timex.Clock, resetTTL time.Duration, l logging.Logger) *AuthService {
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		notifier:    notifier,
		clock:       clock,
		resetTTL:    resetTTL,
		logger:      l.With("module", "auth_service"),
	}
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if auth.IsPasswordTooLong(err) {
			return "", common.Validation("password must be at most %d bytes long", MaxPasswordBytes)
		}
		return "", err
	}
	return hash, nil
}

func (s *AuthService) signIn(a *models.Account, message string) (*AuthResult, error) {
	pair, err := s.tokens.IssuePair(auth.IdentityOf(a))
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &AuthResult{Message: message, User: a.Public(), TokenPair: *pair}, nil
}

// Register creates an active account. The caller decides whether a
// non-default role may be requested.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := ValidateRole(in.Role); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	repo := s.repomanager.Accounts(s.db)

	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return nil, common.Conflict(common.MsgUserExists)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	verification := uuid.NewString()
	created, err := repo.Create(ctx, &models.Account{
		Email:                  email,
		PasswordHash:           hash,
		Role:                   role,
		IsActive:               true,
		Name:                   in.Name,
		EmailVerificationToken: &verification,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict(common.MsgUserExists)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info(ctx, "account registered", "account_id", created.ID, "role", created.Role)

	return s.signIn(created, "User registered successfully")
}

// Login fails with the same message for an unknown email and a wrong
// password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthorized(common.MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !account.IsActive {
		return nil, common.Unauthorized(common.MsgAccountDeactivated)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		s.logger.Info(ctx, "login rejected", "account_id", account.ID)
		return nil, common.Unauthorized(common.MsgInvalidCredentials)
	}

	return s.signIn(account, "Login successful")
}

// ValidateCredentials reports a match as (account, true, nil). Unknown
// email, inactive account and wrong password all yield (nil, false, nil);
// only infrastructure failures return an error.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*models.PublicAccount, bool, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("lookup account: %w", err)
	}

	if !account.IsActive || !s.hasher.Verify(password, account.PasswordHash) {
		return nil, false, nil
	}

	public := account.Public()
	return &public, true, nil
}

// ForgotPassword replaces any previous reset ticket with a new one. Delivery
// failures are logged and do not change the outcome.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NotFound(common.MsgUserNotFound)
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	token, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	expires := s.clock.Now().Add(s.resetTTL)

	err = repo.Update(ctx, account.ID, models.AccountPatch{
		ResetPasswordToken:   &token,
		ResetPasswordExpires: &expires,
	})
	if err != nil {
		return fmt.Errorf("store reset ticket: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyReset(ctx, account, token, expires); err != nil {
			s.logger.Warn(ctx, "reset ticket delivery failed", "account_id", account.ID, "error", err)
		}
	}

	return nil
}

// ResetPassword consumes a live reset ticket. The password write and the
// ticket removal happen in one statement, so a ticket works at most once.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return common.BadRequest(common.MsgInvalidResetToken)
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.ConsumeResetTicket(ctx, token, hash, s.clock.Now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.BadRequest(common.MsgInvalidResetToken)
		}
		return fmt.Errorf("consume reset ticket: %w", err)
	}

	s.logger.Info(ctx, "password reset", "account_id", account.ID)

	return nil
}

// AuthenticateExternal signs in an identity vouched for by a federated
// provider, creating the account on first use. Created accounts get a
// random password that is never disclosed, so local login cannot succeed
// for them.
func (s *AuthService) AuthenticateExternal(ctx context.Context, ext models.ExternalIdentity) (*AuthResult, error) {
	email := NormalizeEmail(ext.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !account.IsActive {
			return nil, common.Unauthorized(common.MsgAccountDeactivated)
		}
		return s.signIn(account, "Google login successful")
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	secret, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	created, err := repo.Create(ctx, &models.Account{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
		Name:         ext.Name,
		AvatarURL:    ext.AvatarURL,
	})
	if err != nil {
		if !errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("create account: %w", err)
		}
		// Lost a race with a concurrent first sign-in for the same email.
		account, err = repo.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("lookup account: %w", err)
		}
		return s.signIn(account, "Google login successful")
	}

	s.logger.Info(ctx, "external account created", "account_id", created.ID, "provider", ext.Provider)

	return s.signIn(created, "Google user created and logged in successfully")
}

// Refresh exchanges a valid refresh token for a new pair. The account must
// still exist and be active.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, common.Unauthorized(common.MsgInvalidToken)
	}

	account, err := s.repomanager.Accounts(s.db).FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthorized(common.MsgUserNotFoundOrInact)
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if !account.IsActive {
		return nil, common.Unauthorized(common.MsgUserNotFoundOrInact)
	}

	return s.signIn(account, "Token refreshed successfully")
}

// Profile returns the current public view of an account.
func (s *AuthService) Profile(ctx context.Context, accountID string) (*models.PublicAccount, error) {
	account, err := s.repomanager.Accounts(s.db).FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(common.MsgUserNotFound)
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	public := account.Public()
	return &public, nil
}
