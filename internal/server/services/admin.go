package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/dbx"
	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/dmitrijs2005/gestcard/internal/server/repositories/repomanager"
)

const (
	msgAdminNotFound    = "Admin not found"
	msgAlreadyAdmin     = "User is already an admin"
	msgAdminActivated   = "Admin activated successfully"
	msgAdminDeactivated = "Admin deactivated successfully"
	msgPromotedToAdmin  = "User promoted to admin successfully"
)

// AdminService manages administrator accounts. Mutations lock the target row
// so the role check and the write observe the same state.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *AdminService {
	return &AdminService{db: db, repomanager: m, logger: l.With("module", "admin_service")}
}

func (s *AdminService) ListAdmins(ctx context.Context, f models.AdminFilter) (*models.AccountPage, error) {
	f = f.Normalize()

	list, total, err := s.repomanager.Accounts(s.db).ListByRole(ctx, models.RoleAdmin, f)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	data := make([]models.PublicAccount, len(list))
	for i, a := range list {
		data[i] = a.Public()
	}

	page := models.NewAccountPage(data, total, f)
	return &page, nil
}

// UpdateAdminStatus activates or deactivates an administrator and returns
// the confirmation message.
func (s *AdminService) UpdateAdminStatus(ctx context.Context, adminID string, isActive bool) (string, error) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.LockByID(ctx, adminID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NotFound(msgAdminNotFound)
			}
			return fmt.Errorf("lock account: %w", err)
		}
		if account.Role != models.RoleAdmin {
			return common.NotFound(msgAdminNotFound)
		}

		return repo.Update(ctx, account.ID, models.AccountPatch{IsActive: &isActive})
	})
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "admin status changed", "account_id", adminID, "is_active", isActive)

	if isActive {
		return msgAdminActivated, nil
	}
	return msgAdminDeactivated, nil
}

// PromoteToAdmin grants the admin role. Tokens issued before the promotion
// pick up the new role on their next request, since the guard re-reads the
// account.
func (s *AdminService) PromoteToAdmin(ctx context.Context, userID string) (string, error) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.LockByID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NotFound(common.MsgUserNotFound)
			}
			return fmt.Errorf("lock account: %w", err)
		}
		if account.Role == models.RoleAdmin {
			return common.BadRequest(msgAlreadyAdmin)
		}

		role := models.RoleAdmin
		return repo.Update(ctx, account.ID, models.AccountPatch{Role: &role})
	})
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "account promoted", "account_id", userID)

	return msgPromotedToAdmin, nil
}
