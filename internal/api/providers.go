package api

import (
	"context"

	"github.com/pkg/errors"
	"github/chapool/zksync-wallet/internal/config"
	"github/chapool/zksync-wallet/internal/metrics"
	"github/chapool/zksync-wallet/internal/provider"
	"github/chapool/zksync-wallet/internal/wallet"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirement for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

// NewProvider dials the zkSync node and reports every call to the metrics
// service.
func NewProvider(cfg config.Server, m *metrics.Service) (*provider.RPCClient, error) {
	client, err := provider.NewRPCClient(context.Background(), cfg.Node.RPCURL,
		provider.WithTimeout(cfg.Node.Timeout),
		provider.WithObserver(m),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create node client")
	}

	return client, nil
}

func NewWallet(cfg config.Server, prov *provider.RPCClient) (*wallet.Wallet, error) {
	w, err := wallet.InitializeWallet(context.Background(), cfg, prov)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize wallet")
	}

	return w, nil
}
