//go:build wireinject

package api

import (
	"github.com/google/wire"
	"github/chapool/zksync-wallet/internal/config"
	"github/chapool/zksync-wallet/internal/metrics"
	"github/chapool/zksync-wallet/internal/provider"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	NewWallet,
	metrics.New,
)

// InitNewServer returns a new Server instance.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, NewProvider)
	return new(Server), nil
}

// InitNewServerWithProvider returns a new Server instance on top of the
// given node client. All the other components are initialized via go wire
// according to the configuration.
func InitNewServerWithProvider(
	_ config.Server,
	_ *provider.RPCClient,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
