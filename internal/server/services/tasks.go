package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// TaskService manages to-do items. A task is visible to its owner and to
// admins; for anyone else it does not exist.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *TaskService {
	return &TaskService{db: db, repomanager: m, log: log.With("component", "tasks")}
}

// TaskInput holds the fields of a new task.
type TaskInput struct {
	Title       string
	Description *string
	IsCompleted bool
}

func (s *TaskService) Create(ctx context.Context, owner *models.User, in TaskInput) (*models.Task, error) {
	task, err := s.repomanager.Tasks(s.db).Create(ctx, &models.Task{
		Title:       in.Title,
		Description: in.Description,
		IsCompleted: in.IsCompleted,
		OwnerID:     owner.ID,
	})
	if err != nil {
		return nil, s.internal(ctx, "create task", err)
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, user *models.User, id int64) (*models.Task, error) {
	return s.visible(ctx, s.db, user, id)
}

// ListMine returns the caller's own tasks.
func (s *TaskService) ListMine(ctx context.Context, user *models.User) ([]*models.Task, error) {
	list, err := s.repomanager.Tasks(s.db).ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, s.internal(ctx, "list tasks", err)
	}
	return list, nil
}

// ListAll returns every task; admins only.
func (s *TaskService) ListAll(ctx context.Context, user *models.User) ([]*models.Task, error) {
	if !user.IsAdmin() {
		return nil, common.ErrorForbidden
	}
	list, err := s.repomanager.Tasks(s.db).ListAll(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list all tasks", err)
	}
	return list, nil
}

func (s *TaskService) Update(ctx context.Context, user *models.User, id int64, patch models.TaskPatch) (*models.Task, error) {
	var updated *models.Task
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		task, err := s.visible(ctx, tx, user, id)
		if err != nil {
			return err
		}
		patch.Apply(task)
		updated, err = s.repomanager.Tasks(tx).Update(ctx, task)
		return err
	})
	if err != nil {
		return nil, s.classify(ctx, "update task", err)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, user *models.User, id int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.visible(ctx, tx, user, id); err != nil {
			return err
		}
		return s.repomanager.Tasks(tx).Delete(ctx, id)
	})
	if err != nil {
		return s.classify(ctx, "delete task", err)
	}
	return nil
}

func (s *TaskService) visible(ctx context.Context, db dbx.DBTX, user *models.User, id int64) (*models.Task, error) {
	task, err := s.repomanager.Tasks(db).GetByID(ctx, id)
	if err != nil {
		return nil, s.classify(ctx, "get task", err)
	}
	if task.OwnerID != user.ID && !user.IsAdmin() {
		return nil, common.ErrorNotFound
	}
	return task, nil
}

func (s *TaskService) classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorNotFound
	case errors.Is(err, common.ErrorInternal):
		return common.ErrorInternal
	}
	return s.internal(ctx, op, err)
}

func (s *TaskService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op, "error", err)
	return common.ErrorInternal
}
