// Package tasks stores users' to-do items.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	// GetByID returns the task or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error)
	ListAll(ctx context.Context) ([]*models.Task, error)
	// Update persists title, description and completion of task.
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	// Delete removes the task; a missing row yields common.ErrorNotFound.
	Delete(ctx context.Context, id int64) error
}
