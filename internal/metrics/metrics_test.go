package metrics_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/metrics"
	"github/chapool/zksync-wallet/internal/provider"
)

func TestObserveCall(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)

	m.ObserveCall(provider.MethodTxSubmit, provider.OutcomeSuccess, 20*time.Millisecond)
	m.ObserveCall(provider.MethodTxSubmit, provider.OutcomeRejected, 10*time.Millisecond)
	m.ObserveCall(provider.MethodTxFee, provider.OutcomeSuccess, time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry(), "zksync_wallet_rpc_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = testutil.GatherAndCount(m.Registry(), "zksync_wallet_rpc_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestObserveTransfer(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)

	m.ObserveTransfer("submit", nil)
	m.ObserveTransfer("submit", &provider.RemoteError{Method: provider.MethodTxSubmit, Code: provider.CodeNonceMismatch})
	m.ObserveTransfer("prepare", errors.New("unknown token"))
	m.ObserveTransfer("prepare", errors.Wrap(&provider.TransportError{Method: provider.MethodAccountInfo, Err: errors.New("refused")}, "sync"))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	outcomes := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "zksync_wallet_transfers_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" {
					outcomes[label.GetValue()] = true
				}
			}
		}
	}

	assert.Equal(t, map[string]bool{
		provider.OutcomeSuccess:   true,
		provider.OutcomeRejected:  true,
		metrics.OutcomeLocal:      true,
		provider.OutcomeTransport: true,
	}, outcomes)
}
