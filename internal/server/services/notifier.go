package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
)

// ResetNotifier delivers a freshly issued reset ticket to the account owner.
type ResetNotifier interface {
	NotifyReset(ctx context.Context, account *models.Account, token string, expires time.Time) error
}

// LogNotifier only records that a ticket was issued. The token itself is
// never written out.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{logger: l.With("module", "reset_notifier")}
}

func (n *LogNotifier) NotifyReset(ctx context.Context, account *models.Account, _ string, expires time.Time) error {
	n.logger.Info(ctx, "password reset ticket issued", "account_id", account.ID, "expires_at", expires.UTC())
	return nil
}
