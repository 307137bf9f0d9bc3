package zksync

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	EthSignatureLength = crypto.SignatureLength

	ethSignatureType = "EthereumSignature"
	recoveryIDOffset = 27
)

// PackedEthSignature is a 65-byte r || s || v host-chain signature with v in
// {27, 28}.
type PackedEthSignature [EthSignatureLength]byte

// NewPackedEthSignature normalizes a raw 65-byte signature, accepting v in
// either {0, 1} or {27, 28}.
func NewPackedEthSignature(raw []byte) (PackedEthSignature, error) {
	var sig PackedEthSignature
	if len(raw) != EthSignatureLength {
		return sig, errors.Errorf("signature must be %d bytes, got %d", EthSignatureLength, len(raw))
	}
	copy(sig[:], raw)
	if sig[crypto.RecoveryIDOffset] < recoveryIDOffset {
		sig[crypto.RecoveryIDOffset] += recoveryIDOffset
	}
	return sig, nil
}

// ParsePackedEthSignature decodes a 0x-prefixed hex signature.
func ParsePackedEthSignature(s string) (PackedEthSignature, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return PackedEthSignature{}, errors.Wrap(err, "invalid signature encoding")
	}
	return NewPackedEthSignature(raw)
}

func (s PackedEthSignature) String() string {
	return hexutil.Encode(s[:])
}

// SignedMessageAddress recovers the address that produced this personal
// signature over msg.
func (s PackedEthSignature) SignedMessageAddress(msg []byte) (common.Address, error) {
	sig := make([]byte, EthSignatureLength)
	copy(sig, s[:])
	if sig[crypto.RecoveryIDOffset] >= recoveryIDOffset {
		sig[crypto.RecoveryIDOffset] -= recoveryIDOffset
	}

	pub, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover signer")
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// IsSignedBy reports whether the signature over msg recovers to addr.
func (s PackedEthSignature) IsSignedBy(msg []byte, addr common.Address) bool {
	recovered, err := s.SignedMessageAddress(msg)
	return err == nil && recovered == addr
}

// TxEthSignature is the tagged form the network expects next to a
// transaction.
type TxEthSignature struct {
	Type      string             `json:"type"`
	Signature PackedEthSignature `json:"signature"`
}

// NewTxEthSignature wraps a personal signature.
func NewTxEthSignature(sig PackedEthSignature) *TxEthSignature {
	return &TxEthSignature{Type: ethSignatureType, Signature: sig}
}

func (s PackedEthSignature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PackedEthSignature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParsePackedEthSignature(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
