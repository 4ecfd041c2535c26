package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/ytexport/internal/repositories"
	"github.com/desertthunder/ytexport/internal/session"
	"github.com/desertthunder/ytexport/internal/shared"
	"github.com/desertthunder/ytexport/internal/web"
	"github.com/urfave/cli/v3"
)

const sessionCleanupInterval = 10 * time.Minute

// Serve runs the web application until the context is cancelled, then shuts down gracefully.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	store, closeStore, err := r.sessionStore()
	if err != nil {
		return err
	}
	defer closeStore()

	app, err := web.NewApp(r.config, spotify, r.youtubeService(), store, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create web app: %w", err)
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Addr()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	cleanupCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go app.CleanupSessions(cleanupCtx, sessionCleanupInterval)

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting web server", "addr", addr, "sessions", r.config.Session.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down web server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// sessionStore opens the configured session backend. The returned func releases it.
func (r *Runner) sessionStore() (session.Store, func(), error) {
	switch r.config.Session.Backend {
	case "", "memory":
		return session.NewMemoryStore(), func() {}, nil
	case "sqlite":
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, nil, err
		}
		r.logger.Info("storing sessions in sqlite", "path", r.config.Database.Path)
		return repositories.NewSessionRepository(db), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown session backend %q", shared.ErrInvalidConfig, r.config.Session.Backend)
	}
}
