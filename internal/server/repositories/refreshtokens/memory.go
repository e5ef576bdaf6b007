package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// MemoryRepository is a process-local Repository. Revoke is atomic under the
// mutex, which gives the same single-winner guarantee as the conditional
// UPDATE in PostgresRepository.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	byJTI  map[string]*models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byJTI: make(map[string]*models.RefreshToken)}
}

func (r *MemoryRepository) Create(_ context.Context, userID int64, jti string, expiresAt time.Time) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byJTI[jti]; ok {
		return nil, common.ErrorAlreadyExists
	}

	r.nextID++
	t := &models.RefreshToken{
		ID:        r.nextID,
		UserID:    userID,
		JTI:       jti,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	r.byJTI[jti] = t

	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) FindByJTI(_ context.Context, jti string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byJTI[jti]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) Revoke(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byJTI[jti]
	if !ok || t.Revoked {
		return false, nil
	}
	t.Revoked = true
	return true, nil
}

func (r *MemoryRepository) RevokeAllForUser(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, t := range r.byJTI {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}
