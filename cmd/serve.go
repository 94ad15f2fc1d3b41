package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/tallyho/internal/repositories"
	"github.com/desertthunder/tallyho/internal/web"
	"github.com/urfave/cli/v3"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

// Serve bootstraps the application and serves HTTP until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if port := int(cmd.Int("port")); port > 0 {
		config.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := web.Bootstrap(ctx, config, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer rt.Close()

	if repo, ok := rt.Sessions.(*repositories.SessionRepository); ok {
		go r.purgeLoop(ctx, repo)
	}

	srv := &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           rt.App.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", srv.Addr, "session_backend", config.Session.Backend)
		errc <- srv.ListenAndServe()
	}()

	if cmd.Bool("open") {
		url := config.Server.BaseURL
		if url == "" {
			url = fmt.Sprintf("http://localhost:%d", config.Server.Port)
		}
		if err := r.openBrowser(url); err != nil {
			r.logger.Warn("could not open browser", "url", url, "error", err)
		}
	}

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (r *Runner) purgeLoop(ctx context.Context, repo *repositories.SessionRepository) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				r.logger.Error("failed to purge sessions", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Debug("purged expired sessions", "count", n)
			}
		}
	}
}
