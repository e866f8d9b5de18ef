package db

import (
	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/SafeMPC/mint-service/internal/util/command"
	"github.com/rs/zerolog/log"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
)

const (
	downFlag   = "down"
	statusFlag = "status"
)

func newMigrate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Executes all pending database migrations",
		Long: `Executes all pending database migrations embedded in the binary.

Use --down to roll back all applied migrations, --status to only print the number of pending ones.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			down, err := cmd.Flags().GetBool(downFlag)
			if err != nil {
				return err
			}
			status, err := cmd.Flags().GetBool(statusFlag)
			if err != nil {
				return err
			}
			return migrateCmdFunc(down, status)
		},
	}

	cmd.Flags().Bool(downFlag, false, "Roll back applied migrations")
	cmd.Flags().Bool(statusFlag, false, "Print pending migrations and exit")

	return cmd
}

func migrateCmdFunc(down bool, status bool) error {
	cfg := config.DefaultServiceConfigFromEnv()
	command.SetupLogger(cfg.Logger)

	db, err := storage.NewDB(cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to database")
		return err
	}
	defer db.Close()

	if status {
		pending, err := storage.PendingMigrations(db)
		if err != nil {
			log.Error().Err(err).Msg("Failed to plan migrations")
			return err
		}
		log.Info().Int("pending", pending).Msg("Migration status")
		return nil
	}

	direction := migrate.Up
	if down {
		direction = migrate.Down
	}

	n, err := storage.Migrate(db, direction)
	if err != nil {
		log.Error().Err(err).Msg("Error while applying migrations")
		return err
	}

	log.Info().Int("applied", n).Bool("down", down).Msg("Applied migrations")
	return nil
}
