package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/config"
)

var errNotHealthy = errors.New("not healthy")

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Runs liveness probes",
		Long: `Checks that the configured writeable paths can be written to and that the
zkSync node answers within the liveness timeout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}

			return runLiveness(cmd.Context(), flags.CLIConfig(), verbose)
		},
	}
	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

func runLiveness(ctx context.Context, cfg config.Server, verbose bool) error {
	healthy := true

	for _, dir := range cfg.Management.ProbeWriteablePathsAbs {
		if err := probeWriteable(dir, cfg.Management.ProbeWriteableTouchfile); err != nil {
			log.Error().Err(err).Str("path", dir).Msg("Path is not writeable")
			healthy = false
		} else if verbose {
			log.Info().Str("path", dir).Msg("Path is writeable")
		}
	}

	if err := probeNode(ctx, cfg.Node, cfg.Management.LivenessTimeout); err != nil {
		log.Error().Err(err).Str("node", cfg.Node.RPCURL).Msg("Node is not reachable")
		healthy = false
	} else if verbose {
		log.Info().Str("node", cfg.Node.RPCURL).Msg("Node is reachable")
	}

	if !healthy {
		return errNotHealthy
	}

	return nil
}

func probeWriteable(dir string, touchfile string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	path := filepath.Join(dir, touchfile)
	now := time.Now()

	if err := os.WriteFile(path, []byte(now.Format(time.RFC3339)), 0o600); err != nil {
		return err
	}

	return os.Chtimes(path, now, now)
}
