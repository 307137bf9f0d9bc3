package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/test"
)

func TestGetReady(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/-/ready", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Equal(t, "Ready.", res.Body.String())
	})
}

func TestGetReadyMissingComponent(t *testing.T) {
	tests := []struct {
		name   string
		remove func(s *api.Server) func()
	}{
		{"wallet", func(s *api.Server) func() {
			w := s.Wallet
			s.Wallet = nil
			return func() { s.Wallet = w }
		}},
		{"metrics", func(s *api.Server) func() {
			m := s.Metrics
			s.Metrics = nil
			return func() { s.Metrics = m }
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.WithTestServer(t, func(s *api.Server) {
				restore := tt.remove(s)
				defer restore()

				res := test.PerformRequest(t, s, "GET", "/-/ready", nil, nil)
				require.Equal(t, 521, res.Result().StatusCode)
				assert.Equal(t, "Not ready.", res.Body.String())
			})
		})
	}
}

func TestGetReadyDoesNotCallNode(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.Node) {
		node.Close()

		// readiness only checks wiring, the node is probed by /-/healthy
		res := test.PerformRequest(t, s, "GET", "/-/ready", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		res = test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		require.Equal(t, 521, res.Result().StatusCode)
	})
}
