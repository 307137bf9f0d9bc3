package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/api/router"
	"github/chapool/zksync-wallet/internal/config"
)

// InitialEther is what the development account holds on a test server's
// node.
var InitialEther = new(big.Int).Mul(big.NewInt(10), big.NewInt(1_000_000_000_000_000_000))

// ServerConfig returns the env based config pointed at node, signing with
// the development key.
func ServerConfig(node *Node) config.Server {
	cfg := config.DefaultServiceConfigFromEnv()

	cfg.Logger.PrettyPrintConsole = false
	cfg.Node.RPCURL = node.URL()
	cfg.Node.Timeout = 5 * time.Second
	cfg.Node.ChainID = 1
	cfg.Signer = config.Signer{Kind: "local", PrivateKey: EthPrivateKeyHex}
	cfg.Wallet.NativeSeed = ""
	cfg.Wallet.TrustLocalNonce = false
	cfg.Wallet.PollInterval = 5 * time.Millisecond
	cfg.Management.LivenessTimeout = 2 * time.Second

	return cfg
}

// WithTestServer runs closure against a fully initialized server backed by
// a fresh fake node on which the development account holds InitialEther.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerAndNode(t, func(s *api.Server, _ *Node) {
		closure(s)
	})
}

// WithTestServerAndNode is WithTestServer exposing the fake node.
func WithTestServerAndNode(t *testing.T, closure func(s *api.Server, node *Node)) {
	t.Helper()

	node := NewNode(t)
	_, addr := EthKey(t)
	node.Deposit(addr, "ETH", InitialEther)

	s, err := api.InitNewServer(ServerConfig(node))
	if err != nil {
		t.Fatalf("failed to init server: %v", err)
	}

	if err := router.Init(s); err != nil {
		t.Fatalf("failed to init router: %v", err)
	}

	closure(s, node)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		t.Fatalf("failed to shutdown server: %v", errs)
	}
}

// PerformRequest runs a request through the server's echo instance. body
// is sent as JSON unless it already is a reader.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body any, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, values := range headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

// ParseResponseAndValidate decodes a JSON response body into v.
func ParseResponseAndValidate(t *testing.T, res *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.NewDecoder(res.Result().Body).Decode(v); err != nil {
		t.Fatalf("failed to parse response body %q: %v", res.Body.String(), err)
	}
}
