package test

import (
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/labstack/echo/v4"
)

// HostSigner is an in-process host-chain signing endpoint serving
// eth_accounts, personal_sign and eth_signTransaction.
type HostSigner struct {
	t      *testing.T
	server *httptest.Server

	mu          sync.Mutex
	address     common.Address
	key         *ecdsa.PrivateKey
	reject      bool
	bareTxHex   bool
	noAccounts  bool
	hold        chan struct{}
	calls       map[string]int
	lastMessage []byte
}

// NewHostSigner serves signatures made with key for its address.
func NewHostSigner(t *testing.T, key *ecdsa.PrivateKey) *HostSigner {
	t.Helper()

	h := &HostSigner{
		t:       t,
		address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
		calls:   make(map[string]int),
	}

	e := echo.New()
	e.HideBanner = true
	e.POST("/", h.handle)

	h.server = httptest.NewServer(e)
	t.Cleanup(h.server.Close)

	return h
}

func (h *HostSigner) URL() string {
	return h.server.URL
}

func (h *HostSigner) Close() {
	h.server.Close()
}

func (h *HostSigner) Address() common.Address {
	return h.address
}

// SignWith keeps advertising the original address but signs with key.
func (h *HostSigner) SignWith(key *ecdsa.PrivateKey) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.key = key
}

// Reject makes every signing request fail with a JSON-RPC error.
func (h *HostSigner) Reject(reject bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.reject = reject
}

// ReturnBareTxHex answers eth_signTransaction with a hex string instead of
// the {raw, tx} object.
func (h *HostSigner) ReturnBareTxHex(bare bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.bareTxHex = bare
}

// HideAccounts makes eth_accounts return an empty list.
func (h *HostSigner) HideAccounts() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.noAccounts = true
}

// HoldAccounts makes eth_accounts answer only once release is called or
// the request is abandoned.
func (h *HostSigner) HoldAccounts() (release func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	hold := make(chan struct{})
	h.hold = hold

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			h.hold = nil
			h.mu.Unlock()
			close(hold)
		})
	}
}

func (h *HostSigner) Calls(method string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.calls[method]
}

// LastMessage returns the payload of the latest personal_sign request.
func (h *HostSigner) LastMessage() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.lastMessage
}

func (h *HostSigner) handle(c echo.Context) error {
	var req rpcRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	h.mu.Lock()
	h.calls[req.Method]++
	hold := h.hold
	h.mu.Unlock()

	if req.Method == "eth_accounts" && hold != nil {
		select {
		case <-hold:
		case <-c.Request().Context().Done():
			return c.NoContent(http.StatusServiceUnavailable)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	result, rpcErr := h.dispatch(req)
	return c.JSON(http.StatusOK, rpcResponse{Version: "2.0", ID: req.ID, Result: result, Error: rpcErr})
}

func (h *HostSigner) dispatch(req rpcRequest) (any, *rpcError) {
	if req.Method == "eth_accounts" {
		if h.noAccounts {
			return []common.Address{}, nil
		}
		return []common.Address{h.address}, nil
	}

	if h.reject {
		return nil, &rpcError{Code: 4001, Message: "User denied the request"}
	}

	switch req.Method {
	case "personal_sign":
		return h.personalSign(req.Params)
	case "eth_signTransaction":
		return h.signTransaction(req.Params)
	default:
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	}
}

func (h *HostSigner) personalSign(params []json.RawMessage) (any, *rpcError) {
	var (
		msg  hexutil.Bytes
		from common.Address
	)
	if err := decodeParams(params, &msg, &from); err != nil {
		return nil, err
	}
	if from != h.address {
		return nil, &rpcError{Code: -32000, Message: "unknown account"}
	}

	h.lastMessage = msg

	sig, err := crypto.Sign(accounts.TextHash(msg), h.key)
	if err != nil {
		return nil, &rpcError{Code: -32000, Message: err.Error()}
	}
	sig[crypto.RecoveryIDOffset] += 27

	return hexutil.Bytes(sig), nil
}

type hostTxArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

func (h *HostSigner) signTransaction(params []json.RawMessage) (any, *rpcError) {
	var args hostTxArgs
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}
	if args.From != h.address || args.ChainID == nil {
		return nil, &rpcError{Code: -32000, Message: "invalid transaction arguments"}
	}

	chainID := args.ChainID.ToInt()
	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}

	var inner types.TxData
	if args.MaxFeePerGas != nil {
		tip := new(big.Int)
		if args.MaxPriorityFeePerGas != nil {
			tip = args.MaxPriorityFeePerGas.ToInt()
		}
		inner = &types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     uint64(args.Nonce),
			GasTipCap: tip,
			GasFeeCap: args.MaxFeePerGas.ToInt(),
			Gas:       uint64(args.Gas),
			To:        args.To,
			Value:     value,
			Data:      args.Data,
		}
	} else {
		if args.GasPrice == nil {
			return nil, &rpcError{Code: -32000, Message: "missing gas price"}
		}
		inner = &types.LegacyTx{
			Nonce:    uint64(args.Nonce),
			GasPrice: args.GasPrice.ToInt(),
			Gas:      uint64(args.Gas),
			To:       args.To,
			Value:    value,
			Data:     args.Data,
		}
	}

	signed, err := types.SignNewTx(h.key, types.NewLondonSigner(chainID), inner)
	if err != nil {
		return nil, &rpcError{Code: -32000, Message: err.Error()}
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, &rpcError{Code: -32000, Message: err.Error()}
	}

	if h.bareTxHex {
		return hexutil.Bytes(raw), nil
	}

	return map[string]any{"raw": hexutil.Bytes(raw), "tx": signed}, nil
}
