package db

import (
	"context"
	"database/sql"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/SafeMPC/mint-service/internal/util/command"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	sessionFlag  = "session"
	contractFlag = "contract"
	supplyFlag   = "supply"
	userFlag     = "user"
	walletFlag   = "wallet"
)

type seedOptions struct {
	CollectionID string
	SessionID    string
	ContractID   string
	TotalSupply  int64
	UserID       string
	Wallet       string
}

func newSeed() *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed <collection-id>",
		Short: "Inserts or updates a collection (and optionally a user) for local development",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.CollectionID = args[0]
			return seedCmdFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.SessionID, sessionFlag, "", "Session id the collection is claimable for")
	cmd.Flags().StringVar(&opts.ContractID, contractFlag, "", "NFT contract address (C...)")
	cmd.Flags().Int64Var(&opts.TotalSupply, supplyFlag, 100, "Total supply of the collection")
	cmd.Flags().StringVar(&opts.UserID, userFlag, "", "Optional user id to upsert")
	cmd.Flags().StringVar(&opts.Wallet, walletFlag, "", "Wallet address (G...) linked to --user")
	_ = cmd.MarkFlagRequired(sessionFlag)
	_ = cmd.MarkFlagRequired(contractFlag)

	return cmd
}

func seedCmdFunc(ctx context.Context, opts seedOptions) error {
	cfg := config.DefaultServiceConfigFromEnv()
	command.SetupLogger(cfg.Logger)

	if opts.TotalSupply < 0 {
		return errors.New("supply must not be negative")
	}

	db, err := storage.NewDB(cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to database")
		return err
	}
	defer db.Close()

	if err := seed(ctx, db, opts); err != nil {
		log.Error().Err(err).Msg("Failed to seed database")
		return err
	}

	log.Info().
		Str("collection_id", opts.CollectionID).
		Str("session_id", opts.SessionID).
		Int64("total_supply", opts.TotalSupply).
		Msg("Seeded collection")
	return nil
}

func seed(ctx context.Context, db *sql.DB, opts seedOptions) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO collections (id, session_id, contract_id, total_supply)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET session_id = EXCLUDED.session_id,
			contract_id = EXCLUDED.contract_id,
			total_supply = GREATEST(EXCLUDED.total_supply, collections.minted_amount),
			updated_at = NOW()`,
		opts.CollectionID, opts.SessionID, opts.ContractID, opts.TotalSupply,
	); err != nil {
		return errors.Wrap(err, "failed to upsert collection")
	}

	if opts.UserID != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, wallet_address)
			VALUES ($1, NULLIF($2, ''))
			ON CONFLICT (id) DO UPDATE
			SET wallet_address = EXCLUDED.wallet_address,
				updated_at = NOW()`,
			opts.UserID, opts.Wallet,
		); err != nil {
			return errors.Wrap(err, "failed to upsert user")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit seed")
}
