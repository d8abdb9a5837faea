package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/dori/teamboard/internal/api"
	"github.com/dori/teamboard/internal/config"
	"github.com/dori/teamboard/internal/db"
	"github.com/dori/teamboard/internal/eventbus"
	"github.com/dori/teamboard/internal/logging"
	"github.com/dori/teamboard/internal/notify"
	"github.com/dori/teamboard/internal/service"
	"github.com/dori/teamboard/internal/store"
)

// App holds the application state and dependencies
type App struct {
	Config   *config.Config
	Log      *logrus.Logger
	DB       *db.DB
	Store    *store.Store
	Bus      *eventbus.Bus
	Loader   *service.Loader
	Mutator  *service.Mutator
	Notifier *notify.Notifier
	// Offline is set when no API is used; loads keep the cached data.
	Offline bool

	lockFile  *flock.Flock
	logCloser io.Closer
}

// Options tune New
type Options struct {
	// Offline skips the API client and serves only the cache.
	Offline bool
	// Lock takes the single-instance lock on the data directory.
	Lock bool
	// LogOutput overrides the log file, mainly for tests.
	LogOutput io.Writer
	// Backend replaces the API client, mainly for tests.
	Backend service.Backend
}

// New creates a new application instance
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !opts.Offline && opts.Backend == nil {
		if err := cfg.RequireAPI(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	log, closer, err := logging.New(logging.Options{
		File:   cfg.LogFile,
		Level:  cfg.LogrusLevel(),
		Output: opts.LogOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	a := &App{
		Config:    cfg,
		Log:       log,
		Offline:   opts.Offline,
		logCloser: closer,
	}

	if opts.Lock {
		if err := a.acquireLock(); err != nil {
			a.closeLog()
			return nil, err
		}
	}

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		a.releaseLock()
		a.closeLog()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database

	backend := opts.Backend
	switch {
	case backend != nil:
	case opts.Offline:
		backend = service.Offline{}
	default:
		client, err := api.New(api.Options{
			BaseURL:         cfg.APIURL,
			Token:           cfg.APIToken,
			Timeout:         cfg.HTTPTimeout,
			Retries:         cfg.Retries,
			BreakerFailures: cfg.BreakerFailures,
			BreakerCooldown: cfg.BreakerCooldown,
			Log:             log,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		backend = client
	}

	a.Notifier = notify.NewNotifier(log)
	a.Notifier.SetEnabled(cfg.Notify)
	a.Bus = eventbus.New(log)
	a.Store = store.New(a.Bus)
	a.Loader = service.NewLoader(service.LoaderOptions{
		Backend:     backend,
		Store:       a.Store,
		Cache:       a.DB,
		Bus:         a.Bus,
		Log:         log,
		Concurrency: cfg.FetchConcurrency,
	})
	a.Mutator = service.NewMutator(backend, a.Store, a.Loader, a.Notifier, log)

	log.WithFields(logrus.Fields{
		"data_dir": cfg.DataDir,
		"offline":  opts.Offline,
	}).Info("teamboard started")
	return a, nil
}

// Start seeds the store from the cache and, unless offline, fetches every
// section. The returned report is empty when offline.
func (a *App) Start(ctx context.Context) (service.Report, error) {
	if _, err := a.Loader.Warm(ctx); err != nil {
		a.Log.WithError(err).Warn("cache unreadable, starting empty")
	}
	if a.Offline {
		return service.Report{}, nil
	}
	report := a.Loader.Load(ctx)
	return report, report.Err()
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	a.lockFile = flock.New(a.Config.LockPath())

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of teamboard is already running")
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
		a.lockFile = nil
	}
}

func (a *App) closeLog() {
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		a.DB = nil
	}

	a.releaseLock()
	a.closeLog()

	return errors.Join(errs...)
}
