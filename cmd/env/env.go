package env

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the env",
		Long: `Prints the resolved configuration as JSON.

Secrets (keys, passwords, seeds) are omitted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := flags.ServerConfig()

			if err := flags.PrintJSON(cmd.OutOrStdout(), cfg); err != nil {
				log.Error().Err(err).Msg("Failed to print config")
				return err
			}

			return nil
		},
	}
}
