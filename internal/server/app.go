// Package server initializes and runs the development server: in-memory
// stores, the passkey relying party, and the REST endpoint, with graceful
// shutdown on OS signals.
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

	"github.com/dkurilov/boardpass/internal/logging"
	"github.com/dkurilov/boardpass/internal/server/board"
	"github.com/dkurilov/boardpass/internal/server/config"
	"github.com/dkurilov/boardpass/internal/server/passkey"
	"github.com/dkurilov/boardpass/internal/server/rest"
	"github.com/dkurilov/boardpass/internal/server/users"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	rest   *rest.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	userStore := users.NewStore()
	rp, err := passkey.New(passkey.Config{
		RPID:          c.RPID,
		RPOrigin:      c.RPOrigin,
		RPDisplayName: c.RPDisplayName,
	}, userStore)
	if err != nil {
		return nil, fmt.Errorf("passkey init error: %w", err)
	}

	restServer := rest.NewServer(logger, userStore, rp, board.NewStore(),
		[]byte(c.SecretKey), c.TokenValidityDuration)

	return &App{config: c, logger: logger, rest: restServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until the context is cancelled or a signal arrives, then shuts
// down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.rest.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
