package transfers_test

import (
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/api/handlers/transfers"
	"github/chapool/zksync-wallet/internal/api/httperrors"
	"github/chapool/zksync-wallet/internal/test"
	"github/chapool/zksync-wallet/internal/zksync"
)

var recipient = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func prepare(t *testing.T, s *api.Server, payload transfers.PostPrepareTransferPayload) transfers.PreparedTransferResponse {
	t.Helper()

	res := test.PerformRequest(t, s, "POST", "/api/v1/transfers", payload, nil)
	require.Equal(t, http.StatusOK, res.Result().StatusCode, res.Body.String())

	var prepared transfers.PreparedTransferResponse
	test.ParseResponseAndValidate(t, res, &prepared)

	return prepared
}

func TestPostPrepareTransfer(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.Node) {
		prepared := prepare(t, s, transfers.PostPrepareTransferPayload{
			To:     recipient.Hex(),
			Token:  "ETH",
			Amount: "1.5",
			Units:  true,
		})

		require.NotNil(t, prepared.PreparedTransfer)
		require.NotNil(t, prepared.Tx)
		assert.False(t, prepared.Submitted)
		assert.Equal(t, "1500000000000000000", prepared.Tx.Amount.String())
		assert.Equal(t, test.DefaultFee.String(), prepared.Tx.Fee.String())
		assert.Equal(t, zksync.Nonce(0), prepared.Tx.Nonce)
		assert.Equal(t, prepared.Tx.Hash(), prepared.Hash)
		assert.Contains(t, prepared.EthSignMessage, "Transfer 1.5 ETH")
		require.NoError(t, prepared.Consistent())

		assert.Empty(t, node.Submitted())
	})
}

func TestPostPrepareTransferAndSubmit(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.Node) {
		prepared := prepare(t, s, transfers.PostPrepareTransferPayload{
			To:     recipient.Hex(),
			Token:  "ETH",
			Amount: "1000000000",
			Submit: true,
		})

		assert.True(t, prepared.Submitted)
		require.Len(t, node.Submitted(), 1)
		assert.Equal(t, node.Submitted()[0].Hash(), prepared.Hash)

		res := test.PerformRequest(t, s, "GET", "/api/v1/accounts/"+recipient.Hex()+"/balances/ETH", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Contains(t, res.Body.String(), `"amount":"1000000000"`)
	})
}

func TestPostSubmitTransferWithClientSignature(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.Node) {
		prepared := prepare(t, s, transfers.PostPrepareTransferPayload{
			To:     recipient.Hex(),
			Token:  "ETH",
			Amount: "1000000000",
		})

		key, _ := test.EthKey(t)
		sig := test.SignEthMessage(t, key, []byte(prepared.EthSignMessage))

		res := test.PerformRequest(t, s, "POST", "/api/v1/transfers/submit", transfers.PostSubmitTransferPayload{
			PreparedTransfer: *prepared.PreparedTransfer,
			EthSignature:     &sig,
		}, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode, res.Body.String())

		var submitted transfers.SubmitTransferResponse
		test.ParseResponseAndValidate(t, res, &submitted)
		assert.Equal(t, prepared.Hash, submitted.Hash)
		require.Len(t, node.Submitted(), 1)
	})
}

func TestPostSubmitTransferWithServerSignature(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.Node) {
		prepared := prepare(t, s, transfers.PostPrepareTransferPayload{
			To:     recipient.Hex(),
			Token:  "ETH",
			Amount: "1000000000",
		})

		res := test.PerformRequest(t, s, "POST", "/api/v1/transfers/submit", transfers.PostSubmitTransferPayload{
			PreparedTransfer: *prepared.PreparedTransfer,
		}, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode, res.Body.String())
		require.Len(t, node.Submitted(), 1)
	})
}

func TestPostSubmitTransferMismatch(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.Node) {
		prepared := prepare(t, s, transfers.PostPrepareTransferPayload{
			To:     recipient.Hex(),
			Token:  "ETH",
			Amount: "1000000000",
		})

		// the message now claims a different amount than the signed tx
		tampered := *prepared.PreparedTransfer
		tampered.EthSignMessage = "Transfer 9.0 ETH\nTo: " + recipient.Hex()

		res := test.PerformRequest(t, s, "POST", "/api/v1/transfers/submit", transfers.PostSubmitTransferPayload{
			PreparedTransfer: tampered,
		}, nil)
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode, res.Body.String())

		var httpErr httperrors.HTTPError
		test.ParseResponseAndValidate(t, res, &httpErr)
		assert.Equal(t, httperrors.TypeTransferMismatch, httpErr.Type)
		assert.Empty(t, node.Submitted())
	})
}

func TestPostSubmitTransferWrongEthSignature(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.Node) {
		prepared := prepare(t, s, transfers.PostPrepareTransferPayload{
			To:     recipient.Hex(),
			Token:  "ETH",
			Amount: "1000000000",
		})

		other, _ := test.NewEthKey(t)
		sig := test.SignEthMessage(t, other, []byte(prepared.EthSignMessage))

		res := test.PerformRequest(t, s, "POST", "/api/v1/transfers/submit", transfers.PostSubmitTransferPayload{
			PreparedTransfer: *prepared.PreparedTransfer,
			EthSignature:     &sig,
		}, nil)
		require.Equal(t, http.StatusUnprocessableEntity, res.Result().StatusCode, res.Body.String())

		var httpErr httperrors.HTTPError
		test.ParseResponseAndValidate(t, res, &httpErr)
		assert.Equal(t, httperrors.TypeRemoteRejected, httpErr.Type)
		assert.Equal(t, "submit", httpErr.Step)
		require.NotNil(t, httpErr.RemoteCode)
		assert.Empty(t, node.Submitted())
	})
}

func TestPostSubmitTransferNonceMismatch(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.Node) {
		prepared := prepare(t, s, transfers.PostPrepareTransferPayload{
			To:     recipient.Hex(),
			Token:  "ETH",
			Amount: "1000000000",
		})

		_, addr := test.EthKey(t)
		node.SetNonce(addr, 3)

		res := test.PerformRequest(t, s, "POST", "/api/v1/transfers/submit", transfers.PostSubmitTransferPayload{
			PreparedTransfer: *prepared.PreparedTransfer,
		}, nil)
		require.Equal(t, http.StatusConflict, res.Result().StatusCode, res.Body.String())

		var httpErr httperrors.HTTPError
		test.ParseResponseAndValidate(t, res, &httpErr)
		assert.Equal(t, httperrors.TypeNonceMismatch, httpErr.Type)

		// preparing again picks up the node's nonce
		again := prepare(t, s, transfers.PostPrepareTransferPayload{
			To:     recipient.Hex(),
			Token:  "ETH",
			Amount: "1000000000",
			Submit: true,
		})
		assert.Equal(t, zksync.Nonce(3), again.Tx.Nonce)
		assert.True(t, again.Submitted)
	})
}

func TestPostPrepareTransferErrors(t *testing.T) {
	test.WithTestServerAndNode(t, func(s *api.Server, node *test.Node) {
		tests := []struct {
			name    string
			payload transfers.PostPrepareTransferPayload
			status  int
			errType string
		}{
			{"invalid recipient", transfers.PostPrepareTransferPayload{To: "nope", Token: "ETH", Amount: "1"}, http.StatusBadRequest, httperrors.TypeBadRequest},
			{"missing token", transfers.PostPrepareTransferPayload{To: recipient.Hex(), Amount: "1"}, http.StatusBadRequest, httperrors.TypeBadRequest},
			{"invalid amount", transfers.PostPrepareTransferPayload{To: recipient.Hex(), Token: "ETH", Amount: "1.5"}, http.StatusBadRequest, httperrors.TypeBadRequest},
			{"unknown token", transfers.PostPrepareTransferPayload{To: recipient.Hex(), Token: "DOGE", Amount: "1"}, http.StatusNotFound, httperrors.TypeUnknownToken},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				res := test.PerformRequest(t, s, "POST", "/api/v1/transfers", tt.payload, nil)
				require.Equal(t, tt.status, res.Result().StatusCode, res.Body.String())

				var httpErr httperrors.HTTPError
				test.ParseResponseAndValidate(t, res, &httpErr)
				assert.Equal(t, tt.errType, httpErr.Type)
			})
		}

		node.RemoveFee("ETH")
		res := test.PerformRequest(t, s, "POST", "/api/v1/transfers", transfers.PostPrepareTransferPayload{
			To: recipient.Hex(), Token: "ETH", Amount: "1",
		}, nil)
		require.Equal(t, http.StatusUnprocessableEntity, res.Result().StatusCode, res.Body.String())

		var httpErr httperrors.HTTPError
		test.ParseResponseAndValidate(t, res, &httpErr)
		assert.Equal(t, httperrors.TypeFeeUnavailable, httpErr.Type)
		assert.Equal(t, "resolve_fee", httpErr.Step)
	})
}
