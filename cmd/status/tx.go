package status

import (
	"context"

	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/wallet"
	"github/chapool/zksync-wallet/internal/zksync"
)

func newTx() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx <hash>",
		Short: "Prints the finality of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := zksync.ParseTxHash(args[0])
			if err != nil {
				return err
			}

			interval := flags.ServerConfig().Wallet.PollInterval

			return runQuery(cmd, func(ctx context.Context, w *wallet.Wallet, stage zksync.FinalityStage, wait bool) (zksync.OperationState, error) {
				if wait {
					return w.WaitForTransaction(ctx, hash, stage, interval)
				}
				return w.TransactionState(ctx, hash)
			})
		},
	}
	addWaitFlags(cmd)

	return cmd
}
