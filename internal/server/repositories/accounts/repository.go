// Package accounts is the credential store: persisted Account records with
// a unique email.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/server/models"
)

// Repository is the persistence contract used by the auth core.
//
// Lookups return common.ErrorNotFound when no row matches; Create returns
// common.ErrorAlreadyExists when the email is taken.
type Repository interface {
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)

	// LockByID is FindByID that also holds a row lock until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id string) (*models.Account, error)

	Update(ctx context.Context, id string, patch models.AccountPatch) error

	// ConsumeResetTicket sets passwordHash and clears the reset ticket on the
	// account whose ticket equals token and expires strictly after now, in a
	// single statement. Returns common.ErrorNotFound when no such ticket
	// exists.
	ConsumeResetTicket(ctx context.Context, token, passwordHash string, now time.Time) (*models.Account, error)

	// ListByRole pages through accounts with the given role, newest first.
	ListByRole(ctx context.Context, role models.Role, f models.AdminFilter) ([]*models.Account, int, error)
}
