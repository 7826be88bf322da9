package app

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"simplist/internal/digest"
	"simplist/pkg/config"
	"simplist/pkg/httpx"
	"simplist/pkg/logger"
	"simplist/pkg/notify"
	"simplist/pkg/store"
	"simplist/pkg/submissions"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg       *config.Config
	addr      string
	dbPath    string
	sources   string
	version   string
	commit    string
	buildDate string

	store    *store.Pebble
	svc      *submissions.Service
	notifier notify.Notifier
	srv      *httpx.Server
}

// New initializes resources that do not require a running context (DB,
// notifier, service). It does not start the digest scheduler or the HTTP
// server; call Run to start those and block until shutdown.
func New(cfg *config.Config, addr, dbPath, sources, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	// validate effective config early and fail fast
	if err := validateConfig(cfg, dbPath); err != nil {
		return nil, err
	}

	var opts []store.Option
	if cfg.Storage.PageSize > 0 {
		opts = append(opts, store.WithPageSize(cfg.Storage.PageSize))
	}
	st, err := store.Open(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dbPath, err)
	}

	notifier := notify.New(cfg.Notify)
	svc := submissions.NewService(st, notify.NewGate(notifier))

	return &App{
		cfg:       cfg,
		addr:      addr,
		dbPath:    dbPath,
		sources:   sources,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		store:     st,
		svc:       svc,
		notifier:  notifier,
	}, nil
}

// Run starts the digest scheduler (if enabled) and the HTTP server, and
// blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	stopDigest, err := digest.Start(ctx, a.cfg.Digest, a.svc, a.notifier)
	if err != nil {
		return err
	}
	defer stopDigest()

	a.printBanner()

	errCh, err := a.startHTTP()
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errCh:
		_ = a.store.Close()
		return err
	}
}

// shutdown drains the HTTP server and closes the store.
func (a *App) shutdown() error {
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.srv != nil {
		if err := a.srv.Shutdown(sctx); err != nil {
			logger.Error("http_shutdown_failed", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
		return err
	}
	logger.Info("shutdown_complete")
	return nil
}
