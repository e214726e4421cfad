package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
)

// AccessValidator verifies access tokens.
type AccessValidator interface {
	ValidateAccess(token string) (*Claims, error)
}

// AccountFinder loads the current state of an account.
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

// Guard authenticates bearer tokens and enforces route policies. It keeps no
// per-request state and is safe for concurrent use.
type Guard struct {
	tokens   AccessValidator
	accounts AccountFinder
	logger   logging.Logger
}

func NewGuard(tokens AccessValidator, accounts AccountFinder, l logging.Logger) *Guard {
	return &Guard{tokens: tokens, accounts: accounts, logger: l.With("module", "access_guard")}
}

// ExtractBearer pulls the token out of an Authorization header value.
func ExtractBearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", common.Unauthorized(common.MsgMissingToken)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", common.Unauthorized(common.MsgMissingToken)
	}
	return token, nil
}

// AuthenticateRequest validates the token and re-fetches its subject. The
// embedded role and email are never trusted as current.
func (g *Guard) AuthenticateRequest(ctx context.Context, bearerToken string) (*models.Account, error) {
	claims, err := g.tokens.ValidateAccess(bearerToken)
	if err != nil {
		g.logger.Debug(ctx, "token rejected", "error", err)
		return nil, common.Unauthorized(common.MsgInvalidToken)
	}

	account, err := g.accounts.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthorized(common.MsgUserNotFoundOrInact)
		}
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	if !account.IsActive {
		return nil, common.Unauthorized(common.MsgUserNotFoundOrInact)
	}

	return account, nil
}

// AuthorizeRoles succeeds when required is empty or contains the account's
// role. The error names the required roles and nothing about the account.
func AuthorizeRoles(account *models.Account, required []models.Role) error {
	if len(required) == 0 {
		return nil
	}
	if account != nil && slices.Contains(required, account.Role) {
		return nil
	}

	names := make([]string, len(required))
	for i, r := range required {
		names[i] = string(r)
	}
	return common.Forbidden("Insufficient permissions. Required roles: %s", strings.Join(names, ", "))
}

// Check runs the whole pipeline for one request. Public routes return a nil
// account and no error.
func (g *Guard) Check(ctx context.Context, policy RoutePolicy, authorizationHeader string) (*models.Account, error) {
	if policy.Public {
		return nil, nil
	}

	token, err := ExtractBearer(authorizationHeader)
	if err != nil {
		return nil, err
	}

	account, err := g.AuthenticateRequest(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := AuthorizeRoles(account, policy.Roles); err != nil {
		g.logger.Info(ctx, "access denied", "account_id", account.ID, "role", account.Role)
		return nil, err
	}

	return account, nil
}

type ctxKey struct{}

// ContextWithAccount attaches the resolved account to ctx.
func ContextWithAccount(ctx context.Context, a *models.Account) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// AccountFromContext returns the account attached by the guard, if any.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	a, ok := ctx.Value(ctxKey{}).(*models.Account)
	return a, ok && a != nil
}
