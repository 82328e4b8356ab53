// Package server initializes and runs the upmon server: it selects a store
// backend, wires the user, token, and check services, and serves the JSON
// API until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/upmonhq/upmon/internal/logging"
	"github.com/upmonhq/upmon/internal/server/checks"
	"github.com/upmonhq/upmon/internal/server/config"
	"github.com/upmonhq/upmon/internal/server/hashing"
	"github.com/upmonhq/upmon/internal/server/httpapi"
	"github.com/upmonhq/upmon/internal/server/ownerlock"
	"github.com/upmonhq/upmon/internal/server/tokens"
	"github.com/upmonhq/upmon/internal/server/users"
	"github.com/upmonhq/upmon/internal/store"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	userService  *users.Service
	tokenService *tokens.Service
	checkService *checks.Service
	closeStore   func() error
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	st, closeStore, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	hasher, err := newHasher(cfg)
	if err != nil {
		return nil, err
	}

	locks := ownerlock.New()
	ts := tokens.NewService(st, hasher, logger, cfg.TokenValidity)
	us := users.NewService(st, hasher, ts, locks, logger)
	cs := checks.NewService(st, ts, locks, logger, cfg.MaxChecks)

	return &App{
		config:       cfg,
		logger:       logger,
		userService:  us,
		tokenService: ts,
		checkService: cs,
		closeStore:   closeStore,
	}, nil
}

func newStore(cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.StoreBackend {
	case config.StoreFile:
		s, err := store.NewFile(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.StorePostgres:
		s, err := store.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := s.RunMigrations(context.Background()); err != nil {
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return s, s.Close, nil
	case config.StoreMemory:
		return store.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newHasher(cfg *config.Config) (hashing.Hasher, error) {
	switch cfg.Hasher {
	case config.HasherHMAC:
		return hashing.NewHMAC(cfg.HashingSecret), nil
	case config.HasherPBKDF2:
		return hashing.NewPBKDF2(cfg.HashingSecret, 0), nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", cfg.Hasher)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the API until the context is canceled or a signal arrives,
// then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	handler := httpapi.NewHandler(app.userService, app.tokenService, app.checkService)
	router := httpapi.NewRouter(handler, app.logger)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server",
			"addr", app.config.EndpointAddrHTTP,
			"store", app.config.StoreBackend,
			"max_checks", app.config.MaxChecks,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if app.closeStore != nil {
		return app.closeStore()
	}
	return nil
}
