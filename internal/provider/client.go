package provider

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/zksync-wallet/internal/zksync"
)

const (
	MethodTxFee           = "get_tx_fee"
	MethodTxSubmit        = "tx_submit"
	MethodAccountInfo     = "account_info"
	MethodEthOpInfo       = "ethop_info"
	MethodTxInfo          = "tx_info"
	MethodTokens          = "tokens"
	MethodContractAddress = "contract_address"
	MethodOngoingDeposits = "get_ongoing_deposits"
)

// Call outcomes reported to an Observer.
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
	OutcomeProtocol  = "protocol_error"
)

var errIncompleteFinality = errors.New("executed operation without block info")

// Observer receives one notification per remote call.
type Observer interface {
	ObserveCall(method string, outcome string, duration time.Duration)
}

// RPCClient is a JSON-RPC 2.0 client for a zkSync node. It holds no
// account state and is safe for concurrent use.
type RPCClient struct {
	url      string
	client   *gethrpc.Client
	timeout  time.Duration
	observer Observer
	logger   zerolog.Logger
}

type Option func(*rpcOptions)

type rpcOptions struct {
	timeout    time.Duration
	httpClient *http.Client
	observer   Observer
}

// WithTimeout bounds every call; zero leaves calls bounded by the caller's
// context only.
func WithTimeout(d time.Duration) Option {
	return func(o *rpcOptions) {
		o.timeout = d
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *rpcOptions) {
		o.httpClient = c
	}
}

func WithObserver(obs Observer) Option {
	return func(o *rpcOptions) {
		o.observer = obs
	}
}

// NewRPCClient creates a client for the node at url. HTTP endpoints are not
// contacted until the first call.
func NewRPCClient(ctx context.Context, url string, opts ...Option) (*RPCClient, error) {
	if url == "" {
		return nil, errors.New("rpc url is required")
	}

	options := rpcOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	var clientOpts []gethrpc.ClientOption
	if options.httpClient != nil {
		clientOpts = append(clientOpts, gethrpc.WithHTTPClient(options.httpClient))
	}

	client, err := gethrpc.DialOptions(ctx, url, clientOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial zksync node at %s", url)
	}

	return &RPCClient{
		url:      url,
		client:   client,
		timeout:  options.timeout,
		observer: options.observer,
		logger:   log.With().Str("component", "provider").Str("url", url).Logger(),
	}, nil
}

func (c *RPCClient) Close() {
	c.client.Close()
}

func (c *RPCClient) URL() string {
	return c.url
}

// TxFee returns the total fee the node currently requires for a
// transaction of txType touching address in the given token.
func (c *RPCClient) TxFee(ctx context.Context, txType string, address common.Address, tokenSymbol string) (*big.Int, error) {
	var fee Fee
	if err := c.call(ctx, &fee, MethodTxFee, txType, address, tokenSymbol); err != nil {
		return nil, err
	}

	if fee.TotalFee == nil {
		return nil, c.protocolError(MethodTxFee, errors.New("missing totalFee"))
	}

	return fee.TotalFee.Int(), nil
}

// SubmitTx sends a signed transaction with an optional host-chain signature
// and returns the hash the node assigned.
func (c *RPCClient) SubmitTx(ctx context.Context, tx zksync.Tx, ethSignature *zksync.PackedEthSignature) (zksync.TxHash, error) {
	var hash zksync.TxHash

	var sig *zksync.TxEthSignature
	if ethSignature != nil {
		sig = zksync.NewTxEthSignature(*ethSignature)
	}

	if err := c.call(ctx, &hash, MethodTxSubmit, tx, sig); err != nil {
		return zksync.TxHash{}, err
	}

	return hash, nil
}

func (c *RPCClient) AccountInfo(ctx context.Context, address common.Address) (*AccountInfo, error) {
	var info *AccountInfo
	if err := c.call(ctx, &info, MethodAccountInfo, address); err != nil {
		return nil, err
	}

	if info == nil {
		return nil, c.protocolError(MethodAccountInfo, gethrpc.ErrNoResult)
	}

	return info, nil
}

func (c *RPCClient) EthOpInfo(ctx context.Context, serialID uint64) (*EthOpInfo, error) {
	var info *EthOpInfo
	if err := c.call(ctx, &info, MethodEthOpInfo, serialID); err != nil {
		return nil, err
	}

	if info == nil {
		return nil, c.protocolError(MethodEthOpInfo, gethrpc.ErrNoResult)
	}

	if info.Executed && info.Block == nil {
		return nil, c.protocolError(MethodEthOpInfo, errIncompleteFinality)
	}

	return info, nil
}

// EthOpState returns the finality of a priority operation. Verified
// implies executed.
func (c *RPCClient) EthOpState(ctx context.Context, serialID uint64) (zksync.OperationState, error) {
	info, err := c.EthOpInfo(ctx, serialID)
	if err != nil {
		return zksync.OperationState{}, err
	}

	return info.State(), nil
}

func (c *RPCClient) TxInfo(ctx context.Context, hash zksync.TxHash) (*TransactionInfo, error) {
	var info *TransactionInfo
	if err := c.call(ctx, &info, MethodTxInfo, hash); err != nil {
		return nil, err
	}

	if info == nil {
		return nil, c.protocolError(MethodTxInfo, gethrpc.ErrNoResult)
	}

	if info.Executed && info.Block == nil {
		return nil, c.protocolError(MethodTxInfo, errIncompleteFinality)
	}

	return info, nil
}

// TransactionState returns the finality of a submitted transaction.
func (c *RPCClient) TransactionState(ctx context.Context, hash zksync.TxHash) (zksync.OperationState, error) {
	info, err := c.TxInfo(ctx, hash)
	if err != nil {
		return zksync.OperationState{}, err
	}

	return info.State(), nil
}

// Tokens returns the token catalogue keyed by symbol.
func (c *RPCClient) Tokens(ctx context.Context) (map[string]zksync.Token, error) {
	var tokens map[string]zksync.Token
	if err := c.call(ctx, &tokens, MethodTokens); err != nil {
		return nil, err
	}

	if tokens == nil {
		return nil, c.protocolError(MethodTokens, gethrpc.ErrNoResult)
	}

	return tokens, nil
}

func (c *RPCClient) ContractAddress(ctx context.Context) (*ContractAddress, error) {
	var addr ContractAddress
	if err := c.call(ctx, &addr, MethodContractAddress); err != nil {
		return nil, err
	}

	return &addr, nil
}

func (c *RPCClient) OngoingDeposits(ctx context.Context, address common.Address) (*OngoingDeposits, error) {
	var deposits OngoingDeposits
	if err := c.call(ctx, &deposits, MethodOngoingDeposits, address); err != nil {
		return nil, err
	}

	return &deposits, nil
}

func (c *RPCClient) call(ctx context.Context, result any, method string, params ...any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()

	var raw json.RawMessage
	err := c.client.CallContext(ctx, &raw, method, params...)
	if err == nil {
		c.logger.Debug().Str("method", method).RawJSON("result", raw).Msg("Remote call succeeded")

		if decodeErr := json.Unmarshal(raw, result); decodeErr != nil {
			err = &ProtocolError{Method: method, Err: decodeErr}
		}
	} else {
		err = classify(method, err)
	}

	c.observe(method, err, time.Since(start))

	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) {
			c.logger.Warn().
				Str("method", method).
				Int("code", int(remoteErr.Code)).
				Str("message", remoteErr.Message).
				Msg("Remote call rejected")
		} else {
			c.logger.Debug().Err(err).Str("method", method).Msg("Remote call failed")
		}

		return err
	}

	return nil
}

func (c *RPCClient) protocolError(method string, err error) error {
	pErr := &ProtocolError{Method: method, Err: err}
	c.logger.Debug().Err(pErr).Msg("Unexpected result shape")
	return pErr
}

func (c *RPCClient) observe(method string, err error, d time.Duration) {
	if c.observer == nil {
		return
	}

	c.observer.ObserveCall(method, Outcome(err), d)
}

// Outcome names the error class of err for metrics and logs.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return OutcomeRejected
	}

	var protocolErr *ProtocolError
	if errors.As(err, &protocolErr) {
		return OutcomeProtocol
	}

	return OutcomeTransport
}

// classify maps an error of the underlying JSON-RPC client onto the three
// failure classes.
func classify(method string, err error) error {
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		remoteErr := &RemoteError{
			Method:  method,
			Code:    ErrorCode(rpcErr.ErrorCode()),
			Message: rpcErr.Error(),
		}

		var dataErr gethrpc.DataError
		if errors.As(err, &dataErr) {
			remoteErr.Data = dataErr.ErrorData()
		}

		return remoteErr
	}

	var httpErr gethrpc.HTTPError
	if errors.As(err, &httpErr) {
		return &TransportError{Method: method, StatusCode: httpErr.StatusCode, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, gethrpc.ErrNoResult) {
		return &ProtocolError{Method: method, Err: err}
	}

	return &TransportError{Method: method, Err: err}
}
