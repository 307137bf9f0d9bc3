package provider

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode is a numeric failure code reported by the node.
type ErrorCode int

const (
	CodeNonceMismatch                    ErrorCode = 101
	CodeIncorrectTx                      ErrorCode = 103
	CodeFeeTooLow                        ErrorCode = 104
	CodeMissingEthSignature              ErrorCode = 200
	CodeEIP1271SignatureVerificationFail ErrorCode = 201
	CodeIncorrectEthSignature            ErrorCode = 202
	CodeChangePkNotAuthorized            ErrorCode = 203
	CodeOther                            ErrorCode = 300
	CodeAccountCloseDisabled             ErrorCode = 301
	CodeOperationsLimitReached           ErrorCode = 302
)

var (
	ErrNonceMismatch                    = errors.New("nonce mismatch")
	ErrIncorrectTx                      = errors.New("incorrect transaction")
	ErrFeeTooLow                        = errors.New("fee too low")
	ErrMissingEthSignature              = errors.New("missing ethereum signature")
	ErrEIP1271SignatureVerificationFail = errors.New("eip1271 signature verification failed")
	ErrIncorrectEthSignature            = errors.New("incorrect ethereum signature")
	ErrChangePkNotAuthorized            = errors.New("change pubkey not authorized")
	ErrOther                            = errors.New("rejected by node")
	ErrAccountCloseDisabled             = errors.New("account close disabled")
	ErrOperationsLimitReached           = errors.New("operations limit reached")
)

var codeErrors = map[ErrorCode]error{
	CodeNonceMismatch:                    ErrNonceMismatch,
	CodeIncorrectTx:                      ErrIncorrectTx,
	CodeFeeTooLow:                        ErrFeeTooLow,
	CodeMissingEthSignature:              ErrMissingEthSignature,
	CodeEIP1271SignatureVerificationFail: ErrEIP1271SignatureVerificationFail,
	CodeIncorrectEthSignature:            ErrIncorrectEthSignature,
	CodeChangePkNotAuthorized:            ErrChangePkNotAuthorized,
	CodeOther:                            ErrOther,
	CodeAccountCloseDisabled:             ErrAccountCloseDisabled,
	CodeOperationsLimitReached:           ErrOperationsLimitReached,
}

func (c ErrorCode) String() string {
	if err, ok := codeErrors[c]; ok {
		return err.Error()
	}
	return fmt.Sprintf("error code %d", int(c))
}

// RemoteError is a failure envelope returned by the node. errors.Is matches
// it against the per-code sentinels, e.g. ErrNonceMismatch.
type RemoteError struct {
	Method  string
	Code    ErrorCode
	Message string
	Data    any
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s rejected by node: code %d: %s", e.Method, int(e.Code), e.Message)
}

func (e *RemoteError) Is(target error) bool {
	sentinel, ok := codeErrors[e.Code]
	return ok && sentinel == target
}

// Retryable reports whether resubmitting after a resync or re-estimate can
// succeed. Signature failures require re-signing and are never retryable.
func (e *RemoteError) Retryable() bool {
	switch e.Code {
	case CodeNonceMismatch, CodeFeeTooLow, CodeOperationsLimitReached:
		return true
	default:
		return false
	}
}

// TransportError is a connection failure or a non-success HTTP status.
// These are retryable.
type TransportError struct {
	Method     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: transport failure (status %d): %v", e.Method, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: transport failure: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is a malformed envelope or an unexpected result shape. It
// points at a version mismatch and is not retryable.
type ProtocolError struct {
	Method string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unexpected response: %v", e.Method, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsRetryable classifies any error returned by the client.
func IsRetryable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Retryable()
	}
	return false
}
