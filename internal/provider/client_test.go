package provider_test

import (
	"math/big"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/account"
	"github/chapool/zksync-wallet/internal/provider"
	"github/chapool/zksync-wallet/internal/test"
	"github/chapool/zksync-wallet/internal/zksync"
)

var otherAddress = common.HexToAddress("0x2b5ad5c4795c026514f8317c7a215e218dccd6cf")

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (o *recordingObserver) ObserveCall(method string, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.outcomes == nil {
		o.outcomes = make(map[string][]string)
	}
	o.outcomes[method] = append(o.outcomes[method], outcome)
}

func newClient(t *testing.T, url string, opts ...provider.Option) *provider.RPCClient {
	t.Helper()

	client, err := provider.NewRPCClient(t.Context(), url, opts...)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestNewRPCClientRequiresURL(t *testing.T) {
	_, err := provider.NewRPCClient(t.Context(), "")
	require.Error(t, err)
}

func TestTxFee(t *testing.T) {
	node := test.NewNode(t)
	node.SetFee("GNT", big.NewInt(24_000_000_000_000_000))
	client := newClient(t, node.URL())

	fee, err := client.TxFee(t.Context(), zksync.TransferTxType, otherAddress, "GNT")
	require.NoError(t, err)
	assert.Equal(t, "24000000000000000", fee.String())
}

func TestTxFeeMissingTotalIsProtocolError(t *testing.T) {
	node := test.NewNode(t)
	node.FailNextWithBody(provider.MethodTxFee, `{"jsonrpc":"2.0","id":1,"result":{"feeType":"Transfer"}}`)
	client := newClient(t, node.URL())

	_, err := client.TxFee(t.Context(), zksync.TransferTxType, otherAddress, "ETH")
	var protocolErr *provider.ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, provider.MethodTxFee, protocolErr.Method)
	assert.False(t, provider.IsRetryable(err))
}

func TestResultOfWrongShapeIsProtocolError(t *testing.T) {
	node := test.NewNode(t)
	node.FailNextWithBody(provider.MethodTxFee, `{"jsonrpc":"2.0","id":1,"result":"oops"}`)
	client := newClient(t, node.URL())

	_, err := client.TxFee(t.Context(), zksync.TransferTxType, otherAddress, "ETH")
	var protocolErr *provider.ProtocolError
	require.ErrorAs(t, err, &protocolErr)
}

func TestEnvelopeWithoutResultIsProtocolError(t *testing.T) {
	node := test.NewNode(t)
	node.FailNextWithBody(provider.MethodAccountInfo, `{"jsonrpc":"2.0","id":1}`)
	client := newClient(t, node.URL())

	_, err := client.AccountInfo(t.Context(), otherAddress)
	var protocolErr *provider.ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, provider.OutcomeProtocol, provider.Outcome(err))
}

func TestUndecodableBodyIsProtocolError(t *testing.T) {
	node := test.NewNode(t)
	node.FailNextWithBody(provider.MethodTokens, `this is not json`)
	client := newClient(t, node.URL())

	_, err := client.Tokens(t.Context())
	var protocolErr *provider.ProtocolError
	require.ErrorAs(t, err, &protocolErr)
}

func TestRemoteRejection(t *testing.T) {
	node := test.NewNode(t)
	node.FailNext(provider.MethodAccountInfo, provider.CodeNonceMismatch, "Nonce mismatch")
	client := newClient(t, node.URL())

	_, err := client.AccountInfo(t.Context(), otherAddress)
	require.Error(t, err)

	var remoteErr *provider.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, provider.CodeNonceMismatch, remoteErr.Code)
	assert.Equal(t, "Nonce mismatch", remoteErr.Message)
	assert.ErrorIs(t, err, provider.ErrNonceMismatch)
	assert.NotErrorIs(t, err, provider.ErrFeeTooLow)
	assert.True(t, provider.IsRetryable(err))
	assert.Equal(t, provider.OutcomeRejected, provider.Outcome(err))
}

func TestRemoteRejectionCodes(t *testing.T) {
	tests := []struct {
		code      provider.ErrorCode
		sentinel  error
		retryable bool
	}{
		{provider.CodeIncorrectTx, provider.ErrIncorrectTx, false},
		{provider.CodeFeeTooLow, provider.ErrFeeTooLow, true},
		{provider.CodeMissingEthSignature, provider.ErrMissingEthSignature, false},
		{provider.CodeEIP1271SignatureVerificationFail, provider.ErrEIP1271SignatureVerificationFail, false},
		{provider.CodeIncorrectEthSignature, provider.ErrIncorrectEthSignature, false},
		{provider.CodeChangePkNotAuthorized, provider.ErrChangePkNotAuthorized, false},
		{provider.CodeOther, provider.ErrOther, false},
		{provider.CodeAccountCloseDisabled, provider.ErrAccountCloseDisabled, false},
		{provider.CodeOperationsLimitReached, provider.ErrOperationsLimitReached, true},
	}

	node := test.NewNode(t)
	client := newClient(t, node.URL())

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			node.FailNext(provider.MethodContractAddress, tt.code, "rejected")

			_, err := client.ContractAddress(t.Context())
			require.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.retryable, provider.IsRetryable(err))
		})
	}
}

func TestUnknownCodeStillRemoteError(t *testing.T) {
	node := test.NewNode(t)
	node.FailNext(provider.MethodTokens, 999, "something new")
	client := newClient(t, node.URL())

	_, err := client.Tokens(t.Context())
	var remoteErr *provider.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, provider.ErrorCode(999), remoteErr.Code)
	assert.False(t, provider.IsRetryable(err))
}

func TestNonSuccessStatusIsTransportError(t *testing.T) {
	node := test.NewNode(t)
	node.FailNextWithStatus(provider.MethodTxInfo, http.StatusBadGateway)
	client := newClient(t, node.URL())

	_, err := client.TxInfo(t.Context(), zksync.TxHash{1})
	var transportErr *provider.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	assert.True(t, provider.IsRetryable(err))
}

func TestUnreachableNodeIsTransportError(t *testing.T) {
	node := test.NewNode(t)
	url := node.URL()
	node.Close()

	client := newClient(t, url)

	_, err := client.Tokens(t.Context())
	var transportErr *provider.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Zero(t, transportErr.StatusCode)
	assert.Equal(t, provider.OutcomeTransport, provider.Outcome(err))
}

func TestAccountInfo(t *testing.T) {
	node := test.NewNode(t)
	id := node.Deposit(otherAddress, "ETH", big.NewInt(5000))
	client := newClient(t, node.URL())

	info, err := client.AccountInfo(t.Context(), otherAddress)
	require.NoError(t, err)
	require.NotNil(t, info.ID)
	assert.Equal(t, id, *info.ID)
	assert.Equal(t, otherAddress, info.Address)
	assert.Equal(t, "5000", info.Committed.Balance("ETH").String())
	assert.Equal(t, "0", info.Committed.Balance("GNT").String())
	assert.Equal(t, zksync.Nonce(0), info.Committed.Nonce)

	unknown, err := client.AccountInfo(t.Context(), common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Nil(t, unknown.ID)
	assert.Empty(t, unknown.Committed.Balances)
}

func TestTokensAndContracts(t *testing.T) {
	node := test.NewNode(t)
	client := newClient(t, node.URL())

	tokens, err := client.Tokens(t.Context())
	require.NoError(t, err)
	require.Contains(t, tokens, "USDC")
	assert.Equal(t, uint8(6), tokens["USDC"].Decimals)
	assert.Equal(t, zksync.TokenID(2), tokens["USDC"].ID)

	contracts, err := client.ContractAddress(t.Context())
	require.NoError(t, err)
	assert.NotEmpty(t, contracts.MainContract)

	deposits, err := client.OngoingDeposits(t.Context(), otherAddress)
	require.NoError(t, err)
	assert.Equal(t, otherAddress, deposits.Address)
	assert.Empty(t, deposits.Deposits)
	assert.Nil(t, deposits.EstimatedDepositsApprovalBlock)
}

func TestOngoingDepositsDecoding(t *testing.T) {
	node := test.NewNode(t)
	node.FailNextWithBody(provider.MethodOngoingDeposits, `{"jsonrpc":"2.0","id":1,"result":{
		"address":"0x2b5ad5c4795c026514f8317c7a215e218dccd6cf",
		"deposits":[{"receivedOnBlock":10,"tokenId":3,"amount":500,"ethTxHash":"0xabc"}],
		"confirmationsForEthEvent":12,
		"estimatedDepositsApprovalBlock":22}}`)
	client := newClient(t, node.URL())

	deposits, err := client.OngoingDeposits(t.Context(), otherAddress)
	require.NoError(t, err)

	assert.Equal(t, otherAddress, deposits.Address)
	assert.Equal(t, uint64(12), deposits.ConfirmationsForEthEvent)
	require.NotNil(t, deposits.EstimatedDepositsApprovalBlock)
	assert.Equal(t, uint64(22), *deposits.EstimatedDepositsApprovalBlock)

	require.Len(t, deposits.Deposits, 1)
	deposit := deposits.Deposits[0]
	assert.Equal(t, uint64(10), deposit.ReceivedOnBlock)
	assert.Equal(t, zksync.TokenID(3), deposit.TokenID)
	assert.Equal(t, "500", deposit.Amount.String())
	assert.Equal(t, "0xabc", deposit.EthTxHash)
}

func TestEthOpState(t *testing.T) {
	node := test.NewNode(t)
	node.SetEthOp(1, true, false)
	node.SetEthOp(2, true, true)
	client := newClient(t, node.URL())

	state, err := client.EthOpState(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, zksync.OperationState{Executed: true}, state)

	state, err = client.EthOpState(t.Context(), 2)
	require.NoError(t, err)
	assert.Equal(t, zksync.OperationState{Executed: true, Verified: true}, state)

	state, err = client.EthOpState(t.Context(), 3)
	require.NoError(t, err)
	assert.Equal(t, zksync.OperationState{}, state)
}

func TestExecutedWithoutBlockIsProtocolError(t *testing.T) {
	node := test.NewNode(t)
	node.FailNextWithBody(provider.MethodTxInfo, `{"jsonrpc":"2.0","id":1,"result":{"executed":true,"block":null}}`)
	client := newClient(t, node.URL())

	_, err := client.TransactionState(t.Context(), zksync.TxHash{2})
	var protocolErr *provider.ProtocolError
	require.ErrorAs(t, err, &protocolErr)
}

func TestSubmitAndTrackTransfer(t *testing.T) {
	key, from := test.EthKey(t)
	node := test.NewNode(t)
	id := node.Deposit(from, "ETH", big.NewInt(10_000_000_000))

	acc, err := account.FromSeed(test.NativeSeed(3), from)
	require.NoError(t, err)
	acc.SetAccountID(id)

	observer := &recordingObserver{}
	client := newClient(t, node.URL(), provider.WithObserver(observer), provider.WithTimeout(5*time.Second))

	tx, msg, err := acc.SignTransfer(account.TransferRequest{
		TokenID:        0,
		TokenSymbol:    "ETH",
		Decimals:       18,
		Amount:         big.NewInt(1_000_000_000),
		Fee:            test.DefaultFee,
		To:             otherAddress,
		IncrementNonce: true,
	})
	require.NoError(t, err)

	sig := test.SignEthMessage(t, key, []byte(msg))
	hash, err := client.SubmitTx(t.Context(), tx, &sig)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), hash)

	state, err := client.TransactionState(t.Context(), hash)
	require.NoError(t, err)
	assert.Equal(t, zksync.OperationState{}, state)

	node.Commit(hash)
	info, err := client.TxInfo(t.Context(), hash)
	require.NoError(t, err)
	assert.True(t, info.Executed)
	assert.False(t, info.Failed())
	assert.Equal(t, zksync.OperationState{Executed: true}, info.State())

	node.Verify(hash)
	state, err = client.TransactionState(t.Context(), hash)
	require.NoError(t, err)
	assert.Equal(t, zksync.OperationState{Executed: true, Verified: true}, state)

	// the same transaction again carries a stale nonce
	_, err = client.SubmitTx(t.Context(), tx, &sig)
	require.ErrorIs(t, err, provider.ErrNonceMismatch)

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.Equal(t, []string{provider.OutcomeSuccess, provider.OutcomeRejected}, observer.outcomes[provider.MethodTxSubmit])
}

func TestSubmitWithoutEthSignature(t *testing.T) {
	_, from := test.EthKey(t)
	node := test.NewNode(t)
	id := node.Deposit(from, "ETH", big.NewInt(10_000_000_000))

	acc, err := account.FromSeed(test.NativeSeed(4), from)
	require.NoError(t, err)
	acc.SetAccountID(id)

	tx, _, err := acc.SignTransfer(account.TransferRequest{
		TokenSymbol: "ETH",
		Decimals:    18,
		Amount:      big.NewInt(1000),
		Fee:         test.DefaultFee,
		To:          otherAddress,
	})
	require.NoError(t, err)

	client := newClient(t, node.URL())
	_, err = client.SubmitTx(t.Context(), tx, nil)
	require.ErrorIs(t, err, provider.ErrMissingEthSignature)
	assert.False(t, provider.IsRetryable(err))
}
