package probe

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/config"
	"github/chapool/zksync-wallet/internal/provider"
)

var errNotReady = errors.New("not ready")

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Runs readiness probes",
		Long:  `Checks that the configured zkSync node answers within the readiness timeout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}

			return runReadiness(cmd.Context(), flags.CLIConfig(), verbose)
		},
	}
	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

func runReadiness(ctx context.Context, cfg config.Server, verbose bool) error {
	if err := probeNode(ctx, cfg.Node, cfg.Management.ReadinessTimeout); err != nil {
		log.Error().Err(err).Str("node", cfg.Node.RPCURL).Msg("Readiness probe failed")
		return errNotReady
	}

	if verbose {
		log.Info().Str("node", cfg.Node.RPCURL).Msg("Readiness probe succeeded")
	}

	return nil
}

func probeNode(ctx context.Context, cfg config.Node, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := provider.NewRPCClient(ctx, cfg.RPCURL, provider.WithTimeout(timeout))
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.Tokens(ctx)
	return err
}
