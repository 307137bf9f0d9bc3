package status

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/provider"
	"github/chapool/zksync-wallet/internal/util/command"
	"github/chapool/zksync-wallet/internal/wallet"
	"github/chapool/zksync-wallet/internal/zksync"
)

const (
	waitFlag    = "wait"
	timeoutFlag = "timeout"
)

type stateOutput struct {
	zksync.OperationState
	Stage string `json:"stage,omitempty"`
}

func New() *cobra.Command {
	return command.NewSubcommandGroup("status",
		newTx(),
		newEthOp(),
	)
}

func addWaitFlags(cmd *cobra.Command) {
	cmd.Flags().String(waitFlag, "", `Poll until "committed" or "verified"`)
	cmd.Flags().Duration(timeoutFlag, 0, "Bound for --wait, five minutes when unset")
}

// query is the state lookup of one operation: a single read, or a poll
// until stage when wait is set.
type query func(ctx context.Context, w *wallet.Wallet, stage zksync.FinalityStage, wait bool) (zksync.OperationState, error)

func runQuery(cmd *cobra.Command, q query) error {
	ctx := cmd.Context()
	cfg := flags.CLIConfig()
	command.ConfigureLogger(cfg.Logger)

	rawStage, err := cmd.Flags().GetString(waitFlag)
	if err != nil {
		return err
	}

	stage := zksync.StageCommitted
	wait := rawStage != ""
	if wait {
		stage, err = zksync.ParseFinalityStage(rawStage)
		if err != nil {
			return err
		}

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.WaitTimeout(cmd))
		defer cancel()
	}

	client, err := provider.NewRPCClient(ctx, cfg.Node.RPCURL, provider.WithTimeout(cfg.Node.Timeout))
	if err != nil {
		return errors.Wrap(err, "failed to create node client")
	}
	defer client.Close()

	// status lookups need no account
	w := wallet.FromPublicAddress(client, common.Address{})

	state, err := q(ctx, w, stage, wait)
	if err != nil {
		return err
	}

	out := stateOutput{OperationState: state}
	switch {
	case state.Reached(zksync.StageVerified):
		out.Stage = zksync.StageVerified.String()
	case state.Reached(zksync.StageCommitted):
		out.Stage = zksync.StageCommitted.String()
	}

	return flags.PrintJSON(cmd.OutOrStdout(), out)
}
