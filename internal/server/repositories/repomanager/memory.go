package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
)

// InMemoryRepositoryManager hands out the same process-local repositories for
// every DBTX. Writes are not undone when a surrounding transaction rolls back.
type InMemoryRepositoryManager struct {
	UsersRepo         *users.MemoryRepository
	RefreshTokensRepo *refreshtokens.MemoryRepository
	TasksRepo         *tasks.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		UsersRepo:         users.NewMemoryRepository(),
		RefreshTokensRepo: refreshtokens.NewMemoryRepository(),
		TasksRepo:         tasks.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.UsersRepo
}

func (m *InMemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.RefreshTokensRepo
}

func (m *InMemoryRepositoryManager) Tasks(dbx.DBTX) tasks.Repository {
	return m.TasksRepo
}
