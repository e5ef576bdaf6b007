package rest

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

type testEnv struct {
	cfg     *config.Config
	rm      *repomanager.InMemoryRepositoryManager
	metrics *metrics.Metrics
	server  *Server
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	codec, err := auth.NewCodec(auth.Settings{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		Algorithm:     cfg.SigningAlgorithm,
		AccessTTL:     cfg.AccessTokenValidityDuration,
		RefreshTTL:    cfg.RefreshTokenValidityDuration,
	})
	require.NoError(t, err)

	rm := repomanager.NewInMemoryRepositoryManager()
	m := metrics.New()
	log := logging.Nop{}

	as := services.NewAuthService(db, rm, cryptox.NewPasswordHasher(cfg.BcryptCost), codec, log, services.WithObserver(m))
	ts := services.NewTaskService(db, rm, log)
	us := services.NewUserService(db, rm, log)

	s := NewServer(cfg, log, as, ts, us, m)
	return &testEnv{cfg: cfg, rm: rm, metrics: m, server: s, handler: s.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// signup registers a user through the API and returns its tokens.
func (e *testEnv) signup(t *testing.T, email string) tokenResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/signup", map[string]any{"email": email, "password": "secret1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[tokenResponse](t, rec)
}

func (e *testEnv) makeAdmin(t *testing.T, email string) {
	t.Helper()
	u, err := e.rm.UsersRepo.GetByEmail(t.Context(), email)
	require.NoError(t, err)
	require.NoError(t, e.rm.UsersRepo.SetRole(u.ID, models.RoleAdmin))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorBody](t, rec).Detail
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
