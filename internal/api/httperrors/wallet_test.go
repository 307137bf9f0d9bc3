package httperrors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/api/httperrors"
	"github/chapool/zksync-wallet/internal/provider"
	"github/chapool/zksync-wallet/internal/wallet"
	"github/chapool/zksync-wallet/internal/wallet/signer"
	"github/chapool/zksync-wallet/internal/zksync"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		errType string
	}{
		{"account", wallet.ErrAccountNotRegistered, http.StatusNotFound, httperrors.TypeAccountNotRegistered},
		{"token", fmt.Errorf("%w: DOGE", wallet.ErrUnknownToken), http.StatusNotFound, httperrors.TypeUnknownToken},
		{"fee", wallet.ErrFeeUnavailable, http.StatusUnprocessableEntity, httperrors.TypeFeeUnavailable},
		{"read only", wallet.ErrReadOnly, http.StatusConflict, httperrors.TypeReadOnly},
		{"no signer", wallet.ErrNoEthSigner, http.StatusConflict, httperrors.TypeReadOnly},
		{"mismatch", wallet.ErrTransferMismatch, http.StatusBadRequest, httperrors.TypeTransferMismatch},
		{"native signature", zksync.ErrInvalidSignature, http.StatusBadRequest, httperrors.TypeTransferMismatch},
		{"failed", wallet.ErrTransactionFailed, http.StatusUnprocessableEntity, httperrors.TypeTransactionFailed},
		{"nonce", &provider.RemoteError{Method: provider.MethodTxSubmit, Code: provider.CodeNonceMismatch}, http.StatusConflict, httperrors.TypeNonceMismatch},
		{"remote", &provider.RemoteError{Method: provider.MethodTxSubmit, Code: provider.CodeFeeTooLow}, http.StatusUnprocessableEntity, httperrors.TypeRemoteRejected},
		{"protocol", &provider.ProtocolError{Method: provider.MethodTokens, Err: errors.New("bad shape")}, http.StatusBadGateway, httperrors.TypeNodeProtocol},
		{"transport", &provider.TransportError{Method: provider.MethodTokens, StatusCode: 503, Err: errors.New("down")}, http.StatusBadGateway, httperrors.TypeNodeUnavailable},
		{"signer unavailable", fmt.Errorf("%w: dial", signer.ErrRemoteSignerUnavailable), http.StatusServiceUnavailable, httperrors.TypeSignerUnavailable},
		{"signer rejected", signer.ErrRemoteSignerRejected, http.StatusBadGateway, httperrors.TypeSignerRejected},
		{"deadline", &provider.TransportError{Method: provider.MethodTxInfo, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, httperrors.TypeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := httperrors.FromError(tt.err)
			require.NotNil(t, httpErr)
			assert.Equal(t, tt.status, httpErr.Code)
			assert.Equal(t, tt.errType, httpErr.Type)
		})
	}
}

func TestFromErrorStepAndRemoteCode(t *testing.T) {
	err := &wallet.StepError{
		Step: wallet.StepSubmit,
		Err:  &provider.RemoteError{Method: provider.MethodTxSubmit, Code: provider.CodeIncorrectEthSignature, Message: "Eth signature is incorrect"},
	}

	httpErr := httperrors.FromError(err)
	require.NotNil(t, httpErr)
	assert.Equal(t, "submit", httpErr.Step)
	require.NotNil(t, httpErr.RemoteCode)
	assert.Equal(t, int(provider.CodeIncorrectEthSignature), *httpErr.RemoteCode)
	assert.Equal(t, "Eth signature is incorrect", httpErr.Detail)
}

func TestFromErrorPassthroughAndUnknown(t *testing.T) {
	assert.Nil(t, httperrors.FromError(nil))
	assert.Nil(t, httperrors.FromError(errors.New("boom")))
	assert.Same(t, httperrors.ErrBadRequestInvalidAmount, httperrors.FromError(fmt.Errorf("wrapped: %w", httperrors.ErrBadRequestInvalidAmount)))
}
