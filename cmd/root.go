package cmd

import (
	"fmt"
	"os"

	"github.com/SafeMPC/mint-service/cmd/db"
	"github.com/SafeMPC/mint-service/cmd/probe"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "mint-service",
	Short:         "Passkey-authorized NFT mint service for Soroban",
	Long:          "Serves the NFT claim API: builds and simulates the mint invocation, reserves supply, submits the transaction and rolls back on failure.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(
		newServer(),
		db.New(),
		probe.New(),
	)
}

// Execute 执行根命令
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
