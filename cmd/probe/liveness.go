package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const livenessTimeout = 3 * time.Second

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Checks that the local HTTP server answers /-/healthy",
		Long:  "Exits with a non-zero code when the server is unreachable or not alive. Intended as container liveness probe.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}
			return runLiveness(cmd.Context(), config.DefaultServiceConfigFromEnv(), verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Print probe result")

	return cmd
}

func runLiveness(ctx context.Context, cfg config.Server, verbose bool) error {
	url, err := localURL(cfg.Echo.ListenAddress, "/-/healthy")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, livenessTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "server unreachable")
	}
	defer res.Body.Close()

	if verbose {
		fmt.Printf("liveness %s: %d\n", url, res.StatusCode)
	}
	if res.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d", res.StatusCode)
	}
	return nil
}

func localURL(listenAddress string, path string) (string, error) {
	host, port, err := net.SplitHostPort(listenAddress)
	if err != nil {
		return "", errors.Wrapf(err, "invalid listen address %s", listenAddress)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(host, port), path), nil
}
