// Package rest exposes the task tracker over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type Server struct {
	config  *config.Config
	logger  logging.Logger
	auth    *services.AuthService
	tasks   *services.TaskService
	users   *services.UserService
	metrics *metrics.Metrics
	engine  *gin.Engine
}

func NewServer(c *config.Config, l logging.Logger, as *services.AuthService, ts *services.TaskService,
	us *services.UserService, m *metrics.Metrics) *Server {
	if c.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:  c,
		logger:  l.With("module", "http_server"),
		auth:    as,
		tasks:   ts,
		users:   us,
		metrics: m,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), accessLog(s.logger, s.metrics), recovery(s.logger), corsMiddleware(s.config.CORSAllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Detail: "Not Found"})
	})

	r.GET("/", s.health)
	r.GET(s.config.MetricsPath, gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", s.signup)
	authGroup.POST("/login", s.login)
	authGroup.POST("/refresh", s.refresh)
	authGroup.POST("/logout", s.logout)

	usersGroup := api.Group("/users", s.Authenticated())
	usersGroup.GET("/me", s.me)
	usersGroup.GET("/", s.RequireAdmin(), s.listUsers)

	tasksGroup := api.Group("/tasks", s.Authenticated())
	tasksGroup.POST("/", s.createTask)
	tasksGroup.GET("/", s.listMyTasks)
	tasksGroup.GET("/all", s.RequireAdmin(), s.listAllTasks)
	tasksGroup.GET("/:id", s.getTask)
	tasksGroup.PATCH("/:id", s.updateTask)
	tasksGroup.DELETE("/:id", s.deleteTask)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "app": s.config.AppName})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully within
// the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.EndpointAddrHTTP,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-done
}
