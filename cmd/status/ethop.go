package status

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/wallet"
	"github/chapool/zksync-wallet/internal/zksync"
)

func newEthOp() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ethop <serial id>",
		Short: "Prints the finality of a priority operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serialID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return errors.Wrap(err, "invalid serial id")
			}

			interval := flags.ServerConfig().Wallet.PollInterval

			return runQuery(cmd, func(ctx context.Context, w *wallet.Wallet, stage zksync.FinalityStage, wait bool) (zksync.OperationState, error) {
				if wait {
					return w.WaitForEthOp(ctx, serialID, stage, interval)
				}
				return w.EthOpState(ctx, serialID)
			})
		},
	}
	addWaitFlags(cmd)

	return cmd
}
