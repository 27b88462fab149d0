// Package web provides the HTTP server of the todo panel: router setup,
// middleware, background jobs and graceful shutdown.
package web

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/todopanel/todo-panel/config"
	"github.com/todopanel/todo-panel/logger"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/util/random"
	"github.com/todopanel/todo-panel/web/controller"
	"github.com/todopanel/todo-panel/web/entity"
	"github.com/todopanel/todo-panel/web/job"
	"github.com/todopanel/todo-panel/web/middleware"
	"github.com/todopanel/todo-panel/web/service"
)

const shutdownTimeout = 10 * time.Second

// Server is the todo panel web server with its services and scheduled jobs.
type Server struct {
	cfg *config.Config

	httpServer *http.Server
	listener   net.Listener

	api      *controller.APIController
	services controller.Services
	limiter  *middleware.RateLimiter

	cron *cron.Cron

	// ctx is the parent of background job contexts and is cancelled on Stop.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer wires the services on db. When cfg carries no JWT secret a
// random one is generated and stored back into cfg, so servers rebuilt from
// the same cfg keep accepting issued tokens until the process exits.
func NewServer(cfg *config.Config, db *gorm.DB) *Server {
	if cfg.JWTSecret == "" {
		logger.Warning("TODO_JWT_SECRET is not set, using a random secret; tokens will not survive a process restart")
		cfg.JWTSecret = random.Secret()
	}

	users := service.NewUserService(db)
	audit := service.NewAuditLogService(db)
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg: cfg,
		services: controller.Services{
			Auth:  service.NewAuthService(db, users, cfg.JWTSecret),
			Todos: service.NewTodoService(db, audit),
			Admin: service.NewUserAdminService(db, users, audit),
			Audit: audit,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler builds the gin engine serving the API.
func (s *Server) Handler() (http.Handler, error) {
	return s.initRouter()
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if s.cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	// Client IPs key the login limiter, so forwarded headers are only
	// honored from configured proxies.
	if err := engine.SetTrustedProxies(s.cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		middleware.Recovery(),
		middleware.RequestContext(),
		middleware.RequestLogger(),
	)
	if len(s.cfg.CORSOrigins) > 0 {
		engine.Use(middleware.CORS(s.cfg.CORSOrigins))
	}
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	if s.limiter == nil {
		s.limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: s.cfg.LoginRatePerMinute,
			BurstSize:         s.cfg.LoginBurst,
		})
	}
	s.api = controller.NewAPIController(&engine.RouterGroup, s.services, s.limiter.Middleware())

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Message: "Not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, entity.ErrorResponse{Message: "Method not allowed"})
	})
	engine.HandleMethodNotAllowed = true

	return engine, nil
}

// startTask schedules background jobs.
func (s *Server) startTask() {
	if s.cfg.AuditRetentionDays <= 0 {
		logger.Info("Audit log cleanup disabled")
		return
	}
	if _, err := s.cron.AddJob("@daily", job.NewAuditCleanupJob(s.ctx, s.services.Audit, s.cfg.AuditRetentionDays)); err != nil {
		logger.Warning("Add AuditCleanupJob error", err)
	}
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New(cron.WithLocation(time.Local))
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(s.cfg.Listen, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts the server down, waiting for in-flight requests, and stops
// the scheduled jobs.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
		if errors.Is(err2, net.ErrClosed) {
			err2 = nil
		}
	}
	return common.Combine(err1, err2)
}

// Addr returns the listening address once started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
