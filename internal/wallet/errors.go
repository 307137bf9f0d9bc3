package wallet

import (
	"fmt"

	"github.com/pkg/errors"
	"github/chapool/zksync-wallet/internal/account"
)

// Step names a stage of the transfer pipeline.
type Step string

const (
	StepSync         Step = "sync"
	StepResolveToken Step = "resolve_token"
	StepResolveFee   Step = "resolve_fee"
	StepNativeSign   Step = "native_sign"
	StepHostSign     Step = "host_sign"
	StepSubmit       Step = "submit"
	StepPoll         Step = "poll"
)

var (
	ErrAccountNotRegistered = errors.New("account is not registered")
	ErrUnknownToken         = errors.New("unknown token")
	ErrFeeUnavailable       = errors.New("fee unavailable")
	ErrMissingAccountID     = account.ErrMissingAccountID
	ErrReadOnly             = errors.New("wallet is read-only")
	ErrNoEthSigner          = errors.New("no host-chain signer configured")
	ErrTransferMismatch     = errors.New("transfer no longer matches its confirmation message")
	ErrTransactionFailed    = errors.New("transaction failed")
)

// StepError tags a failure with the pipeline step that produced it. The
// underlying error is kept intact for errors.Is and errors.As.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepError(step Step, err error) error {
	return &StepError{Step: step, Err: err}
}

// FailedStep returns the step err was tagged with, if any.
func FailedStep(err error) (Step, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}
	return "", false
}
