package entrypoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mrlokans/prayerbook/internal/config"
	"github.com/mrlokans/prayerbook/internal/connectivity"
	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/database/categories"
	"github.com/mrlokans/prayerbook/internal/database/favourites"
	"github.com/mrlokans/prayerbook/internal/database/prayers"
	dbsync "github.com/mrlokans/prayerbook/internal/database/sync"
	"github.com/mrlokans/prayerbook/internal/database/usercategories"
	"github.com/mrlokans/prayerbook/internal/logger"
	"github.com/mrlokans/prayerbook/internal/notices"
	"github.com/mrlokans/prayerbook/internal/query"
	"github.com/mrlokans/prayerbook/internal/remote"
	"github.com/mrlokans/prayerbook/internal/scheduler"
	"github.com/mrlokans/prayerbook/internal/settingsstore"
	"github.com/mrlokans/prayerbook/internal/syncer"
	"github.com/mrlokans/prayerbook/internal/tasks"
)

const recentEvents = 50

// App holds every long-lived component, wired together.
type App struct {
	Config       *config.Config
	DB           *database.Database
	KV           *settingsstore.SettingsStore
	Hub          *notices.Hub
	SyncRepo     *dbsync.Repository
	Probe        *connectivity.Probe
	Orchestrator *syncer.Orchestrator
	Query        *query.Service
	Scheduler    *scheduler.VersionCheckScheduler
	Tasks        *tasks.Client

	log     *log.Logger
	closers []func() error
}

// BuildOptions selects the optional background machinery.
type BuildOptions struct {
	// WithTasks opens the task queue database when tasks are enabled in config.
	WithTasks bool
	// WithScheduler creates the periodic version check when enabled in config.
	WithScheduler bool
}

// Build opens the stores and wires the sync engine and the query façade.
// Nothing is started; Close releases whatever was opened.
func Build(cfg *config.Config, opts BuildOptions) (_ *App, err error) {
	app := &App{Config: cfg, log: logger.With("app")}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	app.DB, err = database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.closers = append(app.closers, app.DB.Close)

	app.KV, err = settingsstore.Open(database.SiblingPath(cfg.Database.Path, "kv"))
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, app.KV.Close)

	app.Hub = notices.NewHub(recentEvents)
	app.SyncRepo = dbsync.NewRepository(app.DB.DB, cfg.Sync.PruneMissing)

	if n, ferr := app.SyncRepo.FailStaleRuns(context.Background()); ferr != nil {
		app.log.Warn("failed to close stale sync runs", "err", ferr)
	} else if n > 0 {
		app.log.Info("closed interrupted sync runs", "count", n)
	}

	prayerRepo := prayers.NewRepository(app.DB.DB)

	client := remote.NewClient(remote.Options{
		BaseURL:           cfg.Remote.URL,
		APIKey:            cfg.Remote.APIKey,
		Timeout:           cfg.Remote.Timeout,
		RequestsPerSecond: cfg.Remote.RequestsPerSecond,
		Burst:             cfg.Remote.Burst,
	})

	app.Probe = connectivity.NewProbe(cfg.Connectivity.ProbeURL, cfg.Connectivity.Timeout, cfg.Connectivity.PollInterval)

	deps := syncer.Deps{
		Schema:   app.DB,
		Prayers:  prayerRepo,
		Store:    app.SyncRepo,
		Runs:     app.SyncRepo,
		Remote:   client,
		Probe:    app.Probe,
		KV:       app.KV,
		Notifier: app.Hub,
		Events:   app.Hub,
	}
	if endpoint := cfg.Remote.RealtimeEndpoint(); endpoint != "" {
		deps.Realtime = remote.NewRealtime(endpoint, cfg.Remote.APIKey)
	}
	app.Orchestrator = syncer.New(deps, syncer.Options{
		Debounce:        cfg.Sync.Debounce,
		RealtimeEnabled: cfg.Sync.RealtimeEnabled,
	})

	app.Query = query.NewService(query.Deps{
		Categories:     categories.NewRepository(app.DB.DB),
		Prayers:        prayerRepo,
		Favorites:      favourites.NewRepository(app.DB.DB),
		UserCategories: usercategories.NewRepository(app.DB.DB),
		PayPalCache:    app.KV,
		PayPalTable:    app.SyncRepo,
		Notifier:       app.Hub,
	}, query.Options{
		DefaultLanguage:  cfg.Query.DefaultLanguage,
		FallbackLanguage: cfg.Query.FallbackLanguage,
		PageSize:         cfg.Query.LatestPageSize,
	})

	if opts.WithScheduler && cfg.Sync.ScheduleEnabled {
		if err := scheduler.ValidateCronSchedule(cfg.Sync.Schedule); err != nil {
			return nil, fmt.Errorf("invalid sync schedule %q: %w", cfg.Sync.Schedule, err)
		}
		app.Scheduler = scheduler.NewVersionCheckScheduler(app.Orchestrator, cfg.Sync.Schedule)
	}

	if opts.WithTasks && cfg.Tasks.Enabled {
		app.Tasks, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		app.Tasks.Register(
			tasks.NewFullSyncQueue(app.Orchestrator),
			tasks.NewRefreshPayPalQueue(app.Orchestrator),
		)
		app.closers = append(app.closers, app.Tasks.Close)
	}

	return app, nil
}

// Close stops the sync engine and releases the stores in reverse order.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Orchestrator != nil {
		a.Orchestrator.Stop()
	}
	if a.Probe != nil {
		a.Probe.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
