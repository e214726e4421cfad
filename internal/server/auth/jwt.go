// Package auth holds the security primitives of gestcard: password hashing,
// bearer token issuance and validation, and the per-request access guard.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/dmitrijs2005/gestcard/internal/timex"
	"github.com/golang-jwt/jwt/v5"
)

// TokenType tells access and refresh tokens apart.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the bearer token payload. Subject holds the account id.
type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Type  TokenType   `json:"typ"`
}

// Identity is what a token asserts about its subject.
type Identity struct {
	Subject string
	Email   string
	Role    models.Role
}

// IdentityOf builds the token identity for an account.
func IdentityOf(a *models.Account) Identity {
	return Identity{Subject: a.ID, Email: a.Email, Role: a.Role}
}

// TokenPair bundles a short-lived access token and a longer-lived refresh
// token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenConfig is the immutable signing setup loaded at startup.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies HS256 tokens. It is safe for concurrent use.
type TokenIssuer struct {
	cfg   TokenConfig
	clock timex.Clock
}

func NewTokenIssuer(cfg TokenConfig, clock timex.Clock) (*TokenIssuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token secrets must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &TokenIssuer{cfg: cfg, clock: clock}, nil
}

// IssueAccess signs an access token that expires AccessTTL after issue.
func (t *TokenIssuer) IssueAccess(id Identity) (string, error) {
	return t.issue(id, TokenTypeAccess, t.cfg.AccessSecret, t.cfg.AccessTTL)
}

// IssueRefresh signs a refresh token with the refresh secret.
func (t *TokenIssuer) IssueRefresh(id Identity) (string, error) {
	return t.issue(id, TokenTypeRefresh, t.cfg.RefreshSecret, t.cfg.RefreshTTL)
}

func (t *TokenIssuer) IssuePair(id Identity) (*TokenPair, error) {
	access, err := t.IssueAccess(id)
	if err != nil {
		return nil, err
	}
	refresh, err := t.IssueRefresh(id)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *TokenIssuer) issue(id Identity, typ TokenType, secret []byte, ttl time.Duration) (string, error) {
	// NumericDate has second precision; truncating first keeps exp-iat == ttl.
	issuedAt := t.clock.Now().Truncate(jwt.TimePrecision)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		Email: id.Email,
		Role:  id.Role,
		Type:  typ,
	})

	s, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// ValidateAccess verifies signature, expiry and token type. Every failure
// matches common.ErrInvalidToken.
func (t *TokenIssuer) ValidateAccess(token string) (*Claims, error) {
	return t.validate(token, TokenTypeAccess, t.cfg.AccessSecret)
}

// ValidateRefresh is ValidateAccess for refresh tokens.
func (t *TokenIssuer) ValidateRefresh(token string) (*Claims, error) {
	return t.validate(token, TokenTypeRefresh, t.cfg.RefreshSecret)
}

func (t *TokenIssuer) validate(tokenString string, typ TokenType, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: unexpected token type %q", common.ErrInvalidToken, claims.Type)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}
	return claims, nil
}

// Decode parses the payload without checking the signature or expiry.
// The result is for diagnostics only and must never grant access.
func Decode(tokenString string) (*Claims, bool) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// IsExpired reports whether the token's exp claim is not after now.
// Undecodable tokens and tokens without exp count as expired.
func (t *TokenIssuer) IsExpired(tokenString string) bool {
	claims, ok := Decode(tokenString)
	if !ok || claims.ExpiresAt == nil {
		return true
	}
	return !t.clock.Now().Before(claims.ExpiresAt.Time)
}
