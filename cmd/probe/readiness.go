package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const readinessTimeout = 5 * time.Second

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Checks database and Redis connectivity",
		Long:  "Exits with a non-zero code when PostgreSQL or Redis is unreachable or migrations are pending.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}
			return runReadiness(cmd.Context(), config.DefaultServiceConfigFromEnv(), verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Print each check")

	return cmd
}

func runReadiness(ctx context.Context, cfg config.Server, verbose bool) error {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	report := func(name string, err error) {
		if !verbose {
			return
		}
		if err != nil {
			fmt.Printf("%s: %v\n", name, err)
			return
		}
		fmt.Printf("%s: ok\n", name)
	}

	db, err := storage.NewDB(cfg.Database)
	report("database", err)
	if err != nil {
		return err
	}
	defer db.Close()

	pending, err := storage.PendingMigrations(db)
	if err == nil && pending > 0 {
		err = errors.Errorf("%d migrations pending", pending)
	}
	report("migrations", err)
	if err != nil {
		return err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	err = client.Ping(ctx).Err()
	report("redis", err)
	if err != nil {
		return errors.Wrap(err, "redis unreachable")
	}

	return nil
}
