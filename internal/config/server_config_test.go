package config_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestServiceConfigFromEnv(t *testing.T) {
	t.Setenv("ZKSYNC_RPC_URL", "http://node:3030")
	t.Setenv("ZKSYNC_CHAIN_ID", "4")
	t.Setenv("ZKSYNC_TRUST_LOCAL_NONCE", "true")
	t.Setenv("ZKSYNC_POLL_INTERVAL", "250ms")
	t.Setenv("ZKSYNC_SIGNER_PRIVATE_KEY", "secret")

	cfg := config.DefaultServiceConfigFromEnv()
	assert.Equal(t, "http://node:3030", cfg.Node.RPCURL)
	assert.Equal(t, uint64(4), cfg.Node.ChainID)
	assert.True(t, cfg.Wallet.TrustLocalNonce)
	assert.Equal(t, 250*time.Millisecond, cfg.Wallet.PollInterval)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
}
