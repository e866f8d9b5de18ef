package command_test

import (
	"context"
	"testing"

	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/util/command"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubcommandGroup(t *testing.T) {
	cmd := command.NewSubcommandGroup("db",
		&cobra.Command{Use: "migrate"},
		&cobra.Command{Use: "seed"},
	)

	assert.Equal(t, "db <subcommand>", cmd.Use)
	require.Len(t, cmd.Commands(), 2)

	names := []string{cmd.Commands()[0].Name(), cmd.Commands()[1].Name()}
	assert.ElementsMatch(t, []string{"migrate", "seed"}, names)
}

func TestWithServerInitFailure(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Logger.PrettyPrintConsole = false
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 1

	called := false
	err := command.WithServer(context.Background(), cfg, func(ctx context.Context, s *api.Server) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
}
