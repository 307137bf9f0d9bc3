package transfer

import (
	"context"

	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/util/command"
)

func newPrepare() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Prints a natively signed transfer and its confirmation message",
		Long: `Prepares a transfer without submitting it. The output can be signed
elsewhere and passed to "transfer submit".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithServer(cmd.Context(), flags.CLIConfig(), func(ctx context.Context, s *api.Server) error {
				req, err := transferRequest(ctx, cmd, s.Wallet)
				if err != nil {
					return err
				}

				prepared, err := s.Wallet.PrepareTransfer(ctx, req)
				if err != nil {
					return err
				}

				return flags.PrintJSON(cmd.OutOrStdout(), prepared)
			})
		},
	}
	addRequestFlags(cmd)

	return cmd
}
