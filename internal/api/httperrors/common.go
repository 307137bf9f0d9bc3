package httperrors

import (
	"fmt"
	"net/http"
)

// Public error types. Clients switch on these, the titles are for humans.
const (
	TypeGeneric              = "generic"
	TypeBadRequest           = "bad_request"
	TypeAccountNotRegistered = "account_not_registered"
	TypeUnknownToken         = "unknown_token"
	TypeFeeUnavailable       = "fee_unavailable"
	TypeReadOnly             = "read_only"
	TypeTransferMismatch     = "transfer_mismatch"
	TypeNonceMismatch        = "nonce_mismatch"
	TypeRemoteRejected       = "remote_rejected"
	TypeNodeUnavailable      = "node_unavailable"
	TypeNodeProtocol         = "node_protocol_error"
	TypeSignerUnavailable    = "signer_unavailable"
	TypeSignerRejected       = "signer_rejected"
	TypeTransactionFailed    = "transaction_failed"
	TypeTimeout              = "timeout"
)

// HTTPError is the JSON body of every error response.
type HTTPError struct {
	Code  int    `json:"status"`
	Type  string `json:"type"`
	Title string `json:"title"`
	// Detail carries the underlying error message where it is safe to
	// expose.
	Detail string `json:"detail,omitempty"`
	// Step names the failed transfer pipeline step.
	Step string `json:"step,omitempty"`
	// RemoteCode is the node's error code for rejected calls.
	RemoteCode *int `json:"remoteCode,omitempty"`
}

func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{
		Code:  code,
		Type:  errorType,
		Title: title,
	}
}

func NewHTTPErrorWithDetail(code int, errorType string, title string, detail string) *HTTPError {
	return &HTTPError{
		Code:   code,
		Type:   errorType,
		Title:  title,
		Detail: detail,
	}
}

func (e *HTTPError) Error() string {
	var errorMsg string
	if len(e.Detail) > 0 {
		errorMsg = fmt.Sprintf("HTTPError %d (%s): %s - %s", e.Code, e.Type, e.Title, e.Detail)
	} else {
		errorMsg = fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
	}

	return errorMsg
}

var (
	ErrBadRequestInvalidAddress = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Invalid account address.")
	ErrBadRequestInvalidTxHash  = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Invalid transaction hash.")
	ErrBadRequestInvalidSerial  = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Invalid priority operation serial id.")
	ErrBadRequestInvalidAmount  = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Invalid amount.")
	ErrBadRequestInvalidStage   = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Invalid balance state.")
	ErrBadRequestInvalidBody    = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Invalid request body.")
)
