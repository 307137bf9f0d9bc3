package account

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/internal/config"
	"github/chapool/zksync-wallet/internal/provider"
	"github/chapool/zksync-wallet/internal/util/command"
	"github/chapool/zksync-wallet/internal/wallet"
)

const addressFlag = "address"

func New() *cobra.Command {
	return command.NewSubcommandGroup("account",
		newInfo(),
		newBalance(),
	)
}

// openWallet returns a read-only wallet for --address, or for the
// configured signer's address when the flag is empty. The returned client
// has to be closed by the caller.
func openWallet(ctx context.Context, cmd *cobra.Command, cfg config.Server) (*wallet.Wallet, *provider.RPCClient, error) {
	raw, err := cmd.Flags().GetString(addressFlag)
	if err != nil {
		return nil, nil, err
	}

	var addr common.Address
	if raw != "" {
		if !common.IsHexAddress(raw) {
			return nil, nil, errors.Errorf("invalid address %q", raw)
		}
		addr = common.HexToAddress(raw)
	} else {
		s, err := wallet.InitializeSigner(ctx, cfg.Signer)
		if err != nil {
			return nil, nil, errors.Wrap(err, "no --address given and no signer configured")
		}
		addr, err = s.Address(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	client, err := provider.NewRPCClient(ctx, cfg.Node.RPCURL, provider.WithTimeout(cfg.Node.Timeout))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create node client")
	}

	return wallet.FromPublicAddress(client, addr), client, nil
}
