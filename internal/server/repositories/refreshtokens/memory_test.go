package refreshtokens

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	exp := time.Now().Add(time.Hour)

	rec, err := r.Create(ctx, 1, "a", exp)
	require.NoError(t, err)
	assert.False(t, rec.Revoked)

	_, err = r.Create(ctx, 1, "a", exp)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = r.FindByJTI(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	ok, err := r.Revoke(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Revoke(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "second revoke must not flip")

	ok, err = r.Revoke(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.FindByJTI(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Revoked)
}

func TestMemoryRepository_RevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	exp := time.Now().Add(time.Hour)

	for _, jti := range []string{"a", "b", "c"} {
		_, err := r.Create(ctx, 1, jti, exp)
		require.NoError(t, err)
	}
	_, err := r.Create(ctx, 2, "other", exp)
	require.NoError(t, err)

	_, err = r.Revoke(ctx, "a")
	require.NoError(t, err)

	n, err := r.RevokeAllForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	other, err := r.FindByJTI(ctx, "other")
	require.NoError(t, err)
	assert.False(t, other.Revoked)
}

func TestMemoryRepository_ConcurrentRevokeSingleWinner(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	_, err := r.Create(ctx, 1, "x", time.Now().Add(time.Hour))
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := r.Revoke(ctx, "x"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
