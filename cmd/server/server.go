package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/3Eeeecho/go-divelog/internal/config"
	"github.com/3Eeeecho/go-divelog/internal/handlers"
	"github.com/3Eeeecho/go-divelog/internal/pkg/cache"
	"github.com/3Eeeecho/go-divelog/internal/pkg/clock"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/3Eeeecho/go-divelog/internal/pkg/metrics"
	"github.com/3Eeeecho/go-divelog/internal/pkg/notify"
	"github.com/3Eeeecho/go-divelog/internal/pkg/worker"
	"github.com/3Eeeecho/go-divelog/internal/repositories"
	"github.com/3Eeeecho/go-divelog/internal/router"
	"github.com/3Eeeecho/go-divelog/internal/services"
	"github.com/3Eeeecho/go-divelog/internal/services/access"
	"github.com/3Eeeecho/go-divelog/internal/services/admin"
	"github.com/3Eeeecho/go-divelog/internal/services/dive"
	"github.com/3Eeeecho/go-divelog/internal/services/share"
	"github.com/3Eeeecho/go-divelog/internal/setup"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg         *config.Config
	router      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	natsConn    *nats.Conn
	shares      share.ShareService
}

// NewServer builds every dependency of the HTTP server. Redis and NATS are
// optional; without them shares are not cached and no notifications are sent.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := setup.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient, err := setup.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		setup.CloseDB(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	natsConn, err := setup.InitNATS(&cfg.NATS)
	if err != nil {
		setup.CloseRedis(redisClient)
		setup.CloseDB(db)
		return nil, fmt.Errorf("failed to initialize NATS: %w", err)
	}

	clk := clock.Real()

	shareCache := cache.NopShareCache()
	if redisClient != nil {
		shareCache = cache.NewShareCache(cache.NewRedisCache(redisClient), cfg.Redis.ShareTTL, clk)
	}
	notifier := notify.Nop()
	if natsConn != nil {
		notifier = notify.NewNATSNotifier(natsConn, cfg.NATS.Subject)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// repositories
	userRepo := repositories.NewUserRepository(db)
	diveRepo := repositories.NewDiveRepository(db)
	shareRepo := repositories.NewShareRepository(db)
	tm := services.NewTransactionManager(db)

	// services
	shareService := share.NewShareService(shareRepo, diveRepo, userRepo, tm, &cfg.Share, share.ShareServiceDeps{
		Clock:    clk,
		Cache:    shareCache,
		Notifier: notifier,
		Metrics:  m,
	})
	diveService := dive.NewDiveService(diveRepo, shareRepo, tm, shareCache)
	gateway := access.NewGateway(diveRepo, shareService)
	authService := admin.NewAuthService(userRepo, &cfg.JWT)
	userService := admin.NewUserService(userRepo)

	// handlers
	engine := router.InitRouter(cfg, router.Handlers{
		Auth:  handlers.NewAuthHandler(authService),
		User:  handlers.NewUserHandler(userService),
		Dive:  handlers.NewDiveHandler(diveService),
		Share: handlers.NewShareHandler(shareService, gateway, &cfg.Share),
	}, router.Deps{
		UserRepo: userRepo,
		Gateway:  gateway,
		Metrics:  m,
		Gatherer: reg,
	})

	return &Server{
		cfg:         cfg,
		router:      engine,
		httpServer:  &http.Server{Addr: ":" + cfg.Server.Port, Handler: engine},
		db:          db,
		redisClient: redisClient,
		natsConn:    natsConn,
		shares:      shareService,
	}, nil
}

// Shares exposes the share service for one-off maintenance commands.
func (s *Server) Shares() share.ShareService { return s.shares }

// Run starts the HTTP server and the background workers, then blocks until
// stopChan fires or ctx is cancelled and shuts everything down.
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) error {
	defer s.Close()

	workers, err := worker.StartAllWorkers(s.cfg, s.shares)
	if err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server is running", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-stopChan:
	case <-ctx.Done():
	case err = <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if shutdownErr := s.httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("Server forced to shutdown", zap.Error(shutdownErr))
	}
	workers.StopAll(shutdownCtx)
	logger.Info("Server exited gracefully")
	return err
}

// Close releases NATS, Redis and the database.
func (s *Server) Close() {
	setup.CloseNATS(s.natsConn)
	setup.CloseRedis(s.redisClient)
	setup.CloseDB(s.db)
}
