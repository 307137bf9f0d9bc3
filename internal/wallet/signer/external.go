package signer

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/zksync-wallet/internal/zksync"
)

// External is implemented by callers bringing their own signing backend,
// e.g. a hardware wallet or a KMS. Returned errors that wrap neither
// ErrRemoteSignerUnavailable nor ErrRemoteSignerRejected are reported as
// rejections.
type External interface {
	Address(ctx context.Context) (common.Address, error)
	SignMessage(ctx context.Context, msg []byte) ([]byte, error)
	SignTransaction(ctx context.Context, tx *RawTransaction) ([]byte, error)
}

// ExternalSigner adapts an External backend. The address is cached once
// the backend has reported it.
type ExternalSigner struct {
	backend External

	mu      sync.Mutex
	address *common.Address
}

var _ Signer = (*ExternalSigner)(nil)

// NewExternalSigner asks the backend for its address right away. A backend
// that cannot tell its address yet still yields a signer; Address asks
// again on each call until it succeeds.
func NewExternalSigner(ctx context.Context, backend External) *ExternalSigner {
	s := &ExternalSigner{backend: backend}

	if _, err := s.Address(ctx); err != nil {
		log.Debug().Err(err).Msg("External signer address not available yet")
	}

	return s
}

func (s *ExternalSigner) Kind() Kind {
	return KindExternal
}

// Address fails with ErrDefineAddress joined with the normalized backend
// error.
func (s *ExternalSigner) Address(ctx context.Context) (common.Address, error) {
	s.mu.Lock()
	cached := s.address
	s.mu.Unlock()

	if cached != nil {
		return *cached, nil
	}

	addr, err := s.backend.Address(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrDefineAddress, normalizeExternal(ctx, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.address == nil {
		s.address = &addr
	}
	return *s.address, nil
}

func (s *ExternalSigner) SignMessage(ctx context.Context, msg []byte) (zksync.PackedEthSignature, error) {
	addr, err := s.Address(ctx)
	if err != nil {
		return zksync.PackedEthSignature{}, err
	}

	raw, err := s.backend.SignMessage(ctx, msg)
	if err != nil {
		return zksync.PackedEthSignature{}, normalizeExternal(ctx, err)
	}

	sig, err := zksync.NewPackedEthSignature(raw)
	if err != nil {
		return zksync.PackedEthSignature{}, fmt.Errorf("%w: %w", ErrRemoteSignerRejected, err)
	}

	if err := checkMessageSignature(sig, msg, addr); err != nil {
		return zksync.PackedEthSignature{}, fmt.Errorf("%w: %w", ErrRemoteSignerRejected, err)
	}

	return sig, nil
}

func (s *ExternalSigner) SignTransaction(ctx context.Context, tx *RawTransaction) ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	addr, err := s.Address(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.backend.SignTransaction(ctx, tx)
	if err != nil {
		return nil, normalizeExternal(ctx, err)
	}

	if err := checkSender(raw, tx.ChainID, addr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteSignerRejected, err)
	}

	return raw, nil
}

func (s *ExternalSigner) sealed() {}

func normalizeExternal(ctx context.Context, err error) error {
	if errors.Is(err, ErrRemoteSignerUnavailable) || errors.Is(err, ErrRemoteSignerRejected) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrRemoteSignerUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrRemoteSignerRejected, err)
}
