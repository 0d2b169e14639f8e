package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/statusbeacon/engine/internal/api"
	"github.com/statusbeacon/engine/internal/api/middleware"
	"github.com/statusbeacon/engine/internal/config"
	"github.com/statusbeacon/engine/internal/db"
	monitoringengine "github.com/statusbeacon/engine/internal/monitoring/engine"
	"github.com/statusbeacon/engine/internal/monitoring/monitorfile"
)

// Application wires the monitoring engine to its persistence layer and a
// thin read-only HTTP surface, and owns the process lifecycle.
type Application struct {
	config     *config.Config
	configPath string
	db         *db.Database

	redisClient *redis.Client

	engine     *monitoringengine.Engine
	httpServer *http.Server

	reloadSignal chan os.Signal
}

// NewApplication creates a new application instance and opens its database.
func NewApplication(cfg *config.Config, configPath string) (*Application, error) {
	database, err := db.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Application{
		config:     cfg,
		configPath: configPath,
		db:         database,
	}, nil
}

// Initialize constructs the engine, loads the monitor list, starts the
// engine's scheduler and aggregator, and wires the HTTP surface. Run then
// serves HTTP.
func (a *Application) Initialize(ctx context.Context) error {
	logrus.Info("Initializing uptime monitoring engine...")

	if a.config.Redis.Host != "" {
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr(),
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			logrus.Warnf("Redis unavailable (%v); falling back to in-process incident lock", err)
			a.redisClient = nil
		}
	}

	a.engine = monitoringengine.New(a.db.DB, a.redisClient, a.config.Monitoring)

	if err := a.reloadMonitors(ctx); err != nil {
		return fmt.Errorf("initial monitor list load failed: %w", err)
	}

	a.engine.Start(ctx)
	logrus.Info("Uptime monitoring engine started")

	routerConfig := &middleware.RouterConfig{
		DebugMode:      a.config.Server.Debug,
		EnableGzip:     true,
		EnableCORS:     true,
		TrustedProxies: nil,
	}
	router := middleware.NewRouter(routerConfig)

	api.SetupRoutes(router, a.engine)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return nil
}

// reloadMonitors loads the configured monitor-list file and applies it
// through the engine's reload contract. A parse/validation failure leaves
// the engine's prior configuration untouched.
func (a *Application) reloadMonitors(ctx context.Context) error {
	path := a.config.Monitoring.MonitorsFile
	monitors, windows, err := monitorfile.Load(path)
	if err != nil {
		return fmt.Errorf("loading monitor file %s: %w", path, err)
	}

	if err := a.engine.Reload(ctx, monitors, windows); err != nil {
		return fmt.Errorf("reloading engine with %d monitors: %w", len(monitors), err)
	}

	logrus.Infof("Loaded %d monitors from %s", len(monitors), path)
	return nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, reloading the
// monitor list whenever SIGHUP arrives.
func (a *Application) Run(ctx context.Context) error {
	go func() {
		logrus.Infof("Starting HTTP server on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	a.reloadSignal = make(chan os.Signal, 1)
	signal.Notify(a.reloadSignal, syscall.SIGHUP)
	go func() {
		for range a.reloadSignal {
			logrus.Info("SIGHUP received, reloading monitor list")
			if err := a.reloadMonitors(ctx); err != nil {
				logrus.Errorf("Monitor list reload failed, keeping prior configuration: %v", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	signal.Stop(a.reloadSignal)
	close(a.reloadSignal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	a.engine.Stop(10 * time.Second)
	logrus.Info("Uptime monitoring engine stopped")

	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}

	if err := a.db.Close(); err != nil {
		logrus.Errorf("Failed to close database: %v", err)
	}

	logrus.Info("Server exited")
	return nil
}
