package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"pantrypos/internal/config"
	"pantrypos/internal/db"
	"pantrypos/internal/db/mock"
	"pantrypos/internal/inventory"
	applog "pantrypos/internal/log"
	"pantrypos/internal/server"
	"pantrypos/internal/store/memory"
	"pantrypos/internal/store/snapshot"
	"pantrypos/internal/store/xlsx"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	setLogFormatFunc    = applog.SetFormat
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}
	if err := setLogFormatFunc(cfg.Logging.Format); err != nil {
		applog.Error(ctx, "invalid log format", "format", cfg.Logging.Format, "error", err)
		return 1
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		applog.Error(ctx, "failed to open inventory store", "backend", cfg.Store.Backend, "error", err)
		return 1
	}

	service, err := inventory.NewService(store, inventory.Config{
		VATRate:          cfg.Inventory.VATRate,
		CriticalFraction: cfg.Inventory.CriticalFraction,
	})
	if err != nil {
		applog.Error(ctx, "failed to build inventory service", "error", err)
		return 1
	}

	srv, err := newServerFunc(server.Config{
		Addr: cfg.Server.Addr,
		Session: server.SessionConfig{
			Lifetime:     cfg.Session.Lifetime,
			CookieName:   cfg.Session.CookieName,
			CookieDomain: cfg.Session.CookieDomain,
			CookieSecure: cfg.Session.CookieSecure,
		},
		Service: service,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	signals, stop := subscribeShutdownSig()
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	applog.Info(ctx, "pantrypos started", "addr", cfg.Server.Addr, "backend", cfg.Store.Backend)

	select {
	case err := <-errCh:
		if err != nil {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-signals:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "context cancelled, shutting down http server")
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	return 0
}

// openStore opens the configured backend. With DATABASE_USE_MOCK set, the sql
// backend runs on an in-memory sqlite database and every backend is seeded
// with demo data when empty.
func openStore(ctx context.Context, cfg config.Config) (inventory.Store, error) {
	var (
		store inventory.Store
		err   error
	)
	switch cfg.Store.Backend {
	case config.BackendXLSX:
		store, err = xlsx.Open(cfg.Store.Path)
	case config.BackendSnapshot:
		store, err = snapshot.Open(cfg.Store.Path)
	case config.BackendMemory:
		store = memory.New()
	case config.BackendSQL:
		var database *gorm.DB
		if cfg.Database.UseMock {
			applog.Info(ctx, "using mock database")
			database, err = newMockDatabaseFunc(ctx)
		} else {
			database, err = configureDatabase(cfg.Database)
		}
		if err != nil {
			return nil, err
		}
		return db.NewStore(database)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Database.UseMock {
		if err := mock.Seed(ctx, store); err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}
	return store, nil
}
