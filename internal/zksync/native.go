package zksync

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	// NativeScalarLength is the size of a raw native private key.
	NativeScalarLength = fr.Bytes

	nativePrivateKeyLength = 3 * fr.Bytes
	nativeNonceDomain      = "zksync-native-nonce"
)

var ErrInvalidScalar = errors.New("value is not a valid native scalar")

// IsValidNativeScalar reports whether raw, read big-endian, is a non-zero
// element of the native curve's scalar field.
func IsValidNativeScalar(raw []byte) bool {
	if len(raw) != NativeScalarLength {
		return false
	}
	curve := twistededwards.GetEdwardsCurve()
	s := new(big.Int).SetBytes(raw)
	return s.Sign() > 0 && s.Cmp(&curve.Order) < 0
}

// NativePrivateKey signs transactions under the rollup's EdDSA scheme.
type NativePrivateKey struct {
	scalar [NativeScalarLength]byte
	key    *eddsa.PrivateKey
}

// NewNativePrivateKey builds a key from a raw big-endian scalar.
func NewNativePrivateKey(raw []byte) (*NativePrivateKey, error) {
	if !IsValidNativeScalar(raw) {
		return nil, ErrInvalidScalar
	}

	curve := twistededwards.GetEdwardsCurve()
	var pub twistededwards.PointAffine
	pub.ScalarMultiplication(&curve.Base, new(big.Int).SetBytes(raw))
	pubBytes := pub.Bytes()

	randSrc := sha256.Sum256(append([]byte(nativeNonceDomain), raw...))

	buf := make([]byte, 0, nativePrivateKeyLength)
	buf = append(buf, pubBytes[:]...)
	buf = append(buf, raw...)
	buf = append(buf, randSrc[:]...)

	key := new(eddsa.PrivateKey)
	if _, err := key.SetBytes(buf); err != nil {
		return nil, errors.Wrap(err, "failed to load native private key")
	}

	k := &NativePrivateKey{key: key}
	copy(k.scalar[:], raw)
	return k, nil
}

// Bytes returns a copy of the raw scalar.
func (k *NativePrivateKey) Bytes() []byte {
	out := make([]byte, NativeScalarLength)
	copy(out, k.scalar[:])
	return out
}

// PublicKey returns the compressed public key.
func (k *NativePrivateKey) PublicKey() []byte {
	return k.key.PublicKey.Bytes()
}

// PubKeyHash returns the hash that binds this key to an account.
func (k *NativePrivateKey) PubKeyHash() PubKeyHash {
	return PubKeyHashFromPublicKey(k.PublicKey())
}

// Sign produces a native signature over msg.
func (k *NativePrivateKey) Sign(msg []byte) (*NativeSignature, error) {
	sig, err := k.key.Sign(hashToField(msg), mimc.NewMiMC())
	if err != nil {
		return nil, errors.Wrap(err, "failed to produce native signature")
	}
	return &NativeSignature{
		PubKey:    k.PublicKey(),
		Signature: sig,
	}, nil
}

// PubKeyHashFromPublicKey derives the pub key hash of a compressed native
// public key.
func PubKeyHashFromPublicKey(pub []byte) PubKeyHash {
	var h PubKeyHash
	copy(h[:], crypto.Keccak256(pub)[:PubKeyHashLength])
	return h
}

// NativeSignature is a native signature together with the signer's public
// key.
type NativeSignature struct {
	PubKey    []byte
	Signature []byte
}

// Verify checks the signature against msg.
func (s *NativeSignature) Verify(msg []byte) (bool, error) {
	var pub eddsa.PublicKey
	if _, err := pub.SetBytes(s.PubKey); err != nil {
		return false, errors.Wrap(err, "invalid native public key")
	}
	return pub.Verify(s.Signature, hashToField(msg), mimc.NewMiMC())
}

// PubKeyHash returns the pub key hash of the signing key.
func (s *NativeSignature) PubKeyHash() PubKeyHash {
	return PubKeyHashFromPublicKey(s.PubKey)
}

type nativeSignatureJSON struct {
	PubKey    string `json:"pubKey"`
	Signature string `json:"signature"`
}

func (s NativeSignature) MarshalJSON() ([]byte, error) {
	return json.Marshal(nativeSignatureJSON{
		PubKey:    hex.EncodeToString(s.PubKey),
		Signature: hex.EncodeToString(s.Signature),
	})
}

func (s *NativeSignature) UnmarshalJSON(data []byte) error {
	var raw nativeSignatureJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pub, err := hex.DecodeString(raw.PubKey)
	if err != nil {
		return errors.Wrap(err, "invalid native public key encoding")
	}
	sig, err := hex.DecodeString(raw.Signature)
	if err != nil {
		return errors.Wrap(err, "invalid native signature encoding")
	}
	s.PubKey = pub
	s.Signature = sig
	return nil
}

// hashToField maps an arbitrary message onto a single canonical field
// element, the only message shape the MiMC transcript accepts.
func hashToField(msg []byte) []byte {
	digest := sha256.Sum256(msg)
	var e fr.Element
	e.SetBytes(digest[:])
	out := e.Bytes()
	return out[:]
}
