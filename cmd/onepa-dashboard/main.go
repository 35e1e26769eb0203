package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/onepa-availability/internal/config"
	"github.com/Sternrassler/onepa-availability/internal/dashboard"
	"github.com/Sternrassler/onepa-availability/pkg/client"
	"github.com/Sternrassler/onepa-availability/pkg/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Setup(cfg.Logging())

	srv, err := newHTTPServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build dashboard")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, srv, cfg.ShutdownTimeout); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// newHTTPServer wires the client and dashboard into an http.Server. The write
// timeout leaves room for a full fetch budget.
func newHTTPServer(cfg config.Config) (*http.Server, error) {
	onepaClient, err := client.New(cfg.Client)
	if err != nil {
		return nil, err
	}

	dash, err := dashboard.New(dashboard.Config{
		Client:         onepaClient,
		AllowedOrigins: cfg.AllowedOrigins,
		Location:       cfg.Location,
	})
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           dash,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Client.FetchTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	logger := logging.NewLogger("onepa-dashboard")

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Starting onePA dashboard")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}
