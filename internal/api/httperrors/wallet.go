package httperrors

import (
	"context"
	"errors"
	"net/http"

	"github/chapool/zksync-wallet/internal/provider"
	"github/chapool/zksync-wallet/internal/wallet"
	"github/chapool/zksync-wallet/internal/wallet/signer"
	"github/chapool/zksync-wallet/internal/zksync"
)

// FromError maps wallet, node and signer failures to an HTTPError. It
// returns nil for errors without a public mapping.
func FromError(err error) *HTTPError {
	if err == nil {
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	mapped := fromError(err)
	if mapped == nil {
		return nil
	}

	if step, ok := wallet.FailedStep(err); ok {
		mapped.Step = string(step)
	}

	var remoteErr *provider.RemoteError
	if errors.As(err, &remoteErr) {
		code := int(remoteErr.Code)
		mapped.RemoteCode = &code
	}

	return mapped
}

//nolint:cyclop // flat mapping table
func fromError(err error) *HTTPError {
	switch {
	case errors.Is(err, wallet.ErrAccountNotRegistered):
		return NewHTTPError(http.StatusNotFound, TypeAccountNotRegistered, "Account is not registered on the network.")
	case errors.Is(err, wallet.ErrUnknownToken):
		return NewHTTPErrorWithDetail(http.StatusNotFound, TypeUnknownToken, "Unknown token.", err.Error())
	case errors.Is(err, wallet.ErrFeeUnavailable):
		return NewHTTPErrorWithDetail(http.StatusUnprocessableEntity, TypeFeeUnavailable, "Fee could not be determined.", err.Error())
	case errors.Is(err, wallet.ErrReadOnly), errors.Is(err, wallet.ErrNoEthSigner):
		return NewHTTPError(http.StatusConflict, TypeReadOnly, "Wallet cannot sign.")
	case errors.Is(err, wallet.ErrTransferMismatch), errors.Is(err, zksync.ErrInvalidSignature), errors.Is(err, zksync.ErrMissingSignature):
		return NewHTTPError(http.StatusBadRequest, TypeTransferMismatch, "Transfer does not match its signatures.")
	case errors.Is(err, zksync.ErrNotPackable):
		return NewHTTPErrorWithDetail(http.StatusBadRequest, TypeBadRequest, "Amount or fee is not representable.", err.Error())
	case errors.Is(err, wallet.ErrTransactionFailed):
		return NewHTTPErrorWithDetail(http.StatusUnprocessableEntity, TypeTransactionFailed, "Transaction failed.", err.Error())
	case errors.Is(err, provider.ErrNonceMismatch):
		return NewHTTPError(http.StatusConflict, TypeNonceMismatch, "Nonce mismatch, prepare the transfer again.")
	case errors.Is(err, signer.ErrRemoteSignerUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, TypeSignerUnavailable, "Signer is unavailable.")
	case errors.Is(err, signer.ErrRemoteSignerRejected):
		return NewHTTPError(http.StatusBadGateway, TypeSignerRejected, "Signer rejected the request.")
	case errors.Is(err, context.DeadlineExceeded):
		return NewHTTPError(http.StatusGatewayTimeout, TypeTimeout, "Timed out.")
	}

	var (
		remoteErr    *provider.RemoteError
		protocolErr  *provider.ProtocolError
		transportErr *provider.TransportError
	)

	switch {
	case errors.As(err, &remoteErr):
		return NewHTTPErrorWithDetail(http.StatusUnprocessableEntity, TypeRemoteRejected, "Node rejected the request.", remoteErr.Message)
	case errors.As(err, &protocolErr):
		return NewHTTPError(http.StatusBadGateway, TypeNodeProtocol, "Node sent an unexpected response.")
	case errors.As(err, &transportErr):
		return NewHTTPError(http.StatusBadGateway, TypeNodeUnavailable, "Node is unavailable.")
	}

	return nil
}
