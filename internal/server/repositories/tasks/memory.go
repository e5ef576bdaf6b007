package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// MemoryRepository is a process-local Repository.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Task
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int64]*models.Task)}
}

func (r *MemoryRepository) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now().UTC()
	task.ID = r.nextID
	task.CreatedAt = now
	task.UpdatedAt = now

	cp := *task
	r.byID[cp.ID] = &cp
	return task, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) filter(keep func(*models.Task) bool) []*models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.Task, 0)
	for _, t := range r.byID {
		if keep(t) {
			cp := *t
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID int64) ([]*models.Task, error) {
	return r.filter(func(t *models.Task) bool { return t.OwnerID == ownerID }), nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]*models.Task, error) {
	return r.filter(func(*models.Task) bool { return true }), nil
}

func (r *MemoryRepository) Update(_ context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[task.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	stored.Title = task.Title
	stored.Description = task.Description
	stored.IsCompleted = task.IsCompleted
	stored.UpdatedAt = time.Now().UTC()

	cp := *stored
	return &cp, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}
