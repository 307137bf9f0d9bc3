package signer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/zksync-wallet/internal/zksync"
)

// JSONRPCSigner delegates signing to a node or wallet exposing
// eth_accounts, personal_sign and eth_signTransaction. The key never
// leaves the remote side. Every returned signature is checked against the
// signer's address.
type JSONRPCSigner struct {
	client *gethrpc.Client
	logger zerolog.Logger

	mu      sync.Mutex
	address *common.Address
}

var _ Signer = (*JSONRPCSigner)(nil)

type JSONRPCOption func(*jsonRPCOptions)

type jsonRPCOptions struct {
	address    *common.Address
	httpClient *http.Client
}

// WithAddress pins the signing account instead of asking eth_accounts.
func WithAddress(addr common.Address) JSONRPCOption {
	return func(o *jsonRPCOptions) {
		o.address = &addr
	}
}

func WithSignerHTTPClient(c *http.Client) JSONRPCOption {
	return func(o *jsonRPCOptions) {
		o.httpClient = c
	}
}

func NewJSONRPCSigner(ctx context.Context, url string, opts ...JSONRPCOption) (*JSONRPCSigner, error) {
	if url == "" {
		return nil, errors.New("signer url is required")
	}

	options := jsonRPCOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	var clientOpts []gethrpc.ClientOption
	if options.httpClient != nil {
		clientOpts = append(clientOpts, gethrpc.WithHTTPClient(options.httpClient))
	}

	client, err := gethrpc.DialOptions(ctx, url, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteSignerUnavailable, err)
	}

	return &JSONRPCSigner{
		client:  client,
		address: options.address,
		logger:  log.With().Str("component", "signer").Str("kind", string(KindJSONRPC)).Logger(),
	}, nil
}

func (s *JSONRPCSigner) Close() {
	s.client.Close()
}

func (s *JSONRPCSigner) Kind() Kind {
	return KindJSONRPC
}

// Address returns the pinned address or the first account the remote
// reports. The answer is cached.
func (s *JSONRPCSigner) Address(ctx context.Context) (common.Address, error) {
	s.mu.Lock()
	cached := s.address
	s.mu.Unlock()

	if cached != nil {
		return *cached, nil
	}

	// not under s.mu, a slow remote must not block other callers
	var accounts []common.Address
	if err := s.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return common.Address{}, remoteFailure("eth_accounts", err)
	}
	if len(accounts) == 0 {
		return common.Address{}, fmt.Errorf("%w: %w: no accounts exposed", ErrRemoteSignerRejected, ErrDefineAddress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.address == nil {
		addr := accounts[0]
		s.address = &addr
		s.logger.Debug().Str("address", addr.Hex()).Msg("Resolved remote signer address")
	}

	return *s.address, nil
}

func (s *JSONRPCSigner) SignMessage(ctx context.Context, msg []byte) (zksync.PackedEthSignature, error) {
	addr, err := s.Address(ctx)
	if err != nil {
		return zksync.PackedEthSignature{}, err
	}

	var raw hexutil.Bytes
	if err := s.client.CallContext(ctx, &raw, "personal_sign", hexutil.Bytes(msg), addr); err != nil {
		return zksync.PackedEthSignature{}, remoteFailure("personal_sign", err)
	}

	sig, err := zksync.NewPackedEthSignature(raw)
	if err != nil {
		return zksync.PackedEthSignature{}, fmt.Errorf("%w: %w", ErrRemoteSignerRejected, err)
	}

	if err := checkMessageSignature(sig, msg, addr); err != nil {
		s.logger.Warn().Err(err).Msg("Remote signer returned a foreign signature")
		return zksync.PackedEthSignature{}, fmt.Errorf("%w: %w", ErrRemoteSignerRejected, err)
	}

	return sig, nil
}

type txArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

func newTxArgs(from common.Address, tx *RawTransaction) txArgs {
	args := txArgs{
		From:    from,
		To:      tx.To,
		Gas:     hexutil.Uint64(tx.Gas),
		Nonce:   hexutil.Uint64(tx.Nonce),
		Data:    tx.Data,
		ChainID: (*hexutil.Big)(tx.ChainID),
		Value:   (*hexutil.Big)(tx.Transaction().Value()),
	}

	if tx.IsDynamicFee() {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap)
		if tx.GasTipCap != nil {
			args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap)
		}
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice)
	}

	return args
}

// signTransactionResult accepts both the {raw, tx} object and a bare hex
// string.
type signTransactionResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

func (r *signTransactionResult) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Raw)
	}

	type plain signTransactionResult
	return json.Unmarshal(data, (*plain)(r))
}

func (s *JSONRPCSigner) SignTransaction(ctx context.Context, tx *RawTransaction) ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	addr, err := s.Address(ctx)
	if err != nil {
		return nil, err
	}

	var res signTransactionResult
	if err := s.client.CallContext(ctx, &res, "eth_signTransaction", newTxArgs(addr, tx)); err != nil {
		return nil, remoteFailure("eth_signTransaction", err)
	}

	if err := checkSender(res.Raw, tx.ChainID, addr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteSignerRejected, err)
	}

	return res.Raw, nil
}

func (s *JSONRPCSigner) sealed() {}

// remoteFailure separates explicit refusals from an unreachable signer.
func remoteFailure(method string, err error) error {
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%w: %s: %w", ErrRemoteSignerRejected, method, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, gethrpc.ErrNoResult) {
		return fmt.Errorf("%w: %s: %w", ErrRemoteSignerRejected, method, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrRemoteSignerUnavailable, method, err)
}
