package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prayerbook/internal/config"
	http_controllers "github.com/mrlokans/prayerbook/internal/http"
	"github.com/mrlokans/prayerbook/internal/logger"
)

// manualTriggerRPS limits manual sync and paypal refresh requests.
const (
	manualTriggerRPS   = 0.2
	manualTriggerBurst = 2
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	logger.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server exiting")
	return nil
}

// Run builds the application, starts the sync engine and its background
// workers, and serves the HTTP API until interrupted.
func Run(cfg *config.Config, version string) error {
	logger.Info("starting prayerbook", "version", version)
	if cfg.Remote.URL == "" {
		logger.Warn("REMOTE_URL is not set, syncing will fail until it is configured")
	}

	app, err := Build(cfg, BuildOptions{WithTasks: true, WithScheduler: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("error closing application", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.Orchestrator.Start(ctx)

	if app.Scheduler != nil {
		if err := app.Scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start version check scheduler: %w", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:     app.DB,
		Queries:      app.Query,
		SyncEngine:   app.Orchestrator,
		SyncState:    app.KV,
		SyncRuns:     app.SyncRepo,
		Events:       app.Hub,
		TriggerRPS:   manualTriggerRPS,
		TriggerBurst: manualTriggerBurst,
		Version:      version,
	}
	if app.Scheduler != nil {
		routerCfg.Scheduler = app.Scheduler
	}
	if app.Tasks != nil {
		routerCfg.TaskClient = app.Tasks
		go app.Tasks.Start(ctx)
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if app.Tasks != nil {
			app.Tasks.Stop(ctx)
		}
		cancel()
	}

	return Serve(router, cfg, onShutdown)
}
