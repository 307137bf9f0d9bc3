package account

import (
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/util/command"
)

func newInfo() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Prints the account as seen by the node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := flags.CLIConfig()
			command.ConfigureLogger(cfg.Logger)

			w, client, err := openWallet(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := w.AccountInfo(ctx)
			if err != nil {
				return err
			}

			return flags.PrintJSON(cmd.OutOrStdout(), info)
		},
	}
	cmd.Flags().String(addressFlag, "", "Account address, defaults to the signer's")

	return cmd
}
