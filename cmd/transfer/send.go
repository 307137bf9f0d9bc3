package transfer

import (
	"context"

	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/util/command"
	"github/chapool/zksync-wallet/internal/zksync"
)

type sendOutput struct {
	Hash  zksync.TxHash          `json:"hash"`
	State *zksync.OperationState `json:"state,omitempty"`
}

func newSend() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Prepares, signs and submits a transfer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithServer(cmd.Context(), flags.CLIConfig(), func(ctx context.Context, s *api.Server) error {
				req, err := transferRequest(ctx, cmd, s.Wallet)
				if err != nil {
					return err
				}

				hash, err := s.Wallet.Transfer(ctx, req)
				if err != nil {
					return err
				}

				out := sendOutput{Hash: hash}

				rawStage, _ := cmd.Flags().GetString("wait")
				if rawStage != "" {
					stage, err := zksync.ParseFinalityStage(rawStage)
					if err != nil {
						return err
					}

					waitCtx, cancel := context.WithTimeout(ctx, flags.WaitTimeout(cmd))
					defer cancel()

					state, err := s.Wallet.WaitForTransaction(waitCtx, hash, stage, s.Config.Wallet.PollInterval)
					if err != nil {
						return err
					}
					out.State = &state
				}

				return flags.PrintJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	addRequestFlags(cmd)
	cmd.Flags().String("wait", "", `Wait for "committed" or "verified"`)
	cmd.Flags().Duration("timeout", 0, "Bound for --wait, five minutes when unset")

	return cmd
}
