package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/api/router"
	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/SafeMPC/mint-service/internal/util/command"
	"github.com/rs/zerolog/log"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
)

const (
	migrateFlag            = "migrate"
	registerTimeout        = 10 * time.Second
	serverShutdownDeadline = 30 * time.Second
)

func newServer() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the HTTP server",
		Long: `Starts the HTTP server serving the NFT claim API.

Requires PostgreSQL and Redis. Set --migrate to apply pending migrations before serving.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyMigrations, err := cmd.Flags().GetBool(migrateFlag)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), applyMigrations)
		},
	}

	cmd.Flags().Bool(migrateFlag, false, "Apply pending database migrations before starting")

	return cmd
}

func runServer(ctx context.Context, applyMigrations bool) error {
	cfg := config.DefaultServiceConfigFromEnv()
	command.SetupLogger(cfg.Logger)

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	if applyMigrations {
		n, err := storage.Migrate(s.DB, migrate.Up)
		if err != nil {
			log.Error().Err(err).Msg("Failed to apply migrations")
			return err
		}
		log.Info().Int("applied", n).Msg("Applied migrations")
	}

	router.Init(s)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	registerCtx, cancel := context.WithTimeout(ctx, registerTimeout)
	if err := s.RegisterService(registerCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to register service in Consul")
	}
	cancel()

	log.Info().Str("address", cfg.Echo.ListenAddress).Msg("Server started")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr != nil {
			log.Error().Err(runErr).Msg("Server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownDeadline)
	defer cancel()

	if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
		log.Error().Errs("shutdownErrors", errs).Msg("Failed to gracefully shut down server")
	}

	return runErr
}
