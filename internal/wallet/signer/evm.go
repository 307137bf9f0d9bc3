package signer

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/zksync-wallet/internal/zksync"
)

// PrivateKeySigner signs with a key held in process memory.
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Signer = (*PrivateKeySigner)(nil)

func NewPrivateKeySigner(key *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// PrivateKeySignerFromBytes accepts a raw 32 byte secp256k1 key.
func PrivateKeySignerFromBytes(raw []byte) (*PrivateKeySigner, error) {
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert private key to ECDSA")
	}
	return NewPrivateKeySigner(key), nil
}

// PrivateKeySignerFromHex accepts a hex key with or without 0x prefix.
func PrivateKeySignerFromHex(s string) (*PrivateKeySigner, error) {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return NewPrivateKeySigner(key), nil
}

func (s *PrivateKeySigner) Kind() Kind {
	return KindLocal
}

func (s *PrivateKeySigner) Address(_ context.Context) (common.Address, error) {
	return s.address, nil
}

func (s *PrivateKeySigner) SignMessage(_ context.Context, msg []byte) (zksync.PackedEthSignature, error) {
	raw, err := crypto.Sign(accounts.TextHash(msg), s.key)
	if err != nil {
		return zksync.PackedEthSignature{}, errors.Wrap(err, "failed to sign message")
	}

	return zksync.NewPackedEthSignature(raw)
}

func (s *PrivateKeySigner) SignTransaction(_ context.Context, raw *RawTransaction) ([]byte, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	signedTx, err := types.SignTx(raw.Transaction(), raw.TxSigner(), s.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	txBytes, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal transaction")
	}

	return txBytes, nil
}

func (s *PrivateKeySigner) sealed() {}
