package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// newTxDB returns a database whose only job is to hand out transactions for
// dbx.WithTx; the in-memory repositories ignore it.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestCodec(t *testing.T) *auth.Codec {
	t.Helper()
	c, err := auth.NewCodec(auth.Settings{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Algorithm:     "HS256",
		AccessTTL:     30 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return c
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) ObserveAuth(op, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, op+":"+outcome)
}

func (o *recordingObserver) Events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

type harness struct {
	db    *sql.DB
	rm    *repomanager.InMemoryRepositoryManager
	codec *auth.Codec
	obs   *recordingObserver
	auth  *AuthService
	tasks *TaskService
	users *UserService
}

func newHarness(t *testing.T, opts ...AuthOption) *harness {
	t.Helper()
	h := &harness{
		db:    newTxDB(t),
		rm:    repomanager.NewInMemoryRepositoryManager(),
		codec: newTestCodec(t),
		obs:   &recordingObserver{},
	}
	opts = append([]AuthOption{WithObserver(h.obs)}, opts...)
	h.auth = NewAuthService(h.db, h.rm, cryptox.NewPasswordHasher(bcrypt.MinCost), h.codec, logging.Nop{}, opts...)
	h.tasks = NewTaskService(h.db, h.rm, logging.Nop{})
	h.users = NewUserService(h.db, h.rm, logging.Nop{})
	return h
}

// signup registers email and returns the pair and the stored user.
func (h *harness) signup(t *testing.T, email string) (*TokenPair, *models.User) {
	t.Helper()
	pair, err := h.auth.Signup(context.Background(), email, "secret1", nil)
	require.NoError(t, err)
	u, err := h.rm.UsersRepo.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return pair, u
}

// --- fakes for transaction-boundary tests ---

type fakeUsersRepo struct {
	getByEmail func(ctx context.Context, email string) (*models.User, error)
	getByID    func(ctx context.Context, id int64) (*models.User, error)
	create     func(ctx context.Context, u *models.User) (*models.User, error)
	list       func(ctx context.Context) ([]*models.User, error)
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return f.create(ctx, u)
}
func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.getByEmail(ctx, email)
}
func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return f.getByID(ctx, id)
}
func (f *fakeUsersRepo) List(ctx context.Context) ([]*models.User, error) {
	return f.list(ctx)
}

type fakeRefreshRepo struct {
	create    func(ctx context.Context, userID int64, jti string, exp time.Time) (*models.RefreshToken, error)
	find      func(ctx context.Context, jti string) (*models.RefreshToken, error)
	revoke    func(ctx context.Context, jti string) (bool, error)
	revokeAll func(ctx context.Context, userID int64) (int64, error)
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID int64, jti string, exp time.Time) (*models.RefreshToken, error) {
	return f.create(ctx, userID, jti, exp)
}
func (f *fakeRefreshRepo) FindByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	return f.find(ctx, jti)
}
func (f *fakeRefreshRepo) Revoke(ctx context.Context, jti string) (bool, error) {
	return f.revoke(ctx, jti)
}
func (f *fakeRefreshRepo) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	return f.revokeAll(ctx, userID)
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	t tasks.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Tasks(dbx.DBTX) tasks.Repository                 { return m.t }
