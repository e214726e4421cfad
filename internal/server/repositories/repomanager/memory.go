package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gestcard/internal/dbx"
	"github.com/dmitrijs2005/gestcard/internal/server/repositories/accounts"
)

// InMemoryRepositoryManager serves one shared MemoryStore regardless of the
// DBTX it is given. There is nothing to migrate.
type InMemoryRepositoryManager struct {
	store *accounts.MemoryStore
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: accounts.NewMemoryStore()}
}

func (m *InMemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository {
	return m.store
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

// Store exposes the backing store for seeding.
func (m *InMemoryRepositoryManager) Store() *accounts.MemoryStore {
	return m.store
}
