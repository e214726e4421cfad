// Package repomanager hands out repositories bound to a DBTX, so services can
// run the same repository code on a pool or inside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gestcard/internal/dbx"
	"github.com/dmitrijs2005/gestcard/internal/server/repositories/accounts"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
}
