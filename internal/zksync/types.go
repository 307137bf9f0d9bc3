package zksync

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// AccountID is the numeric slot the network assigns to a registered account.
type AccountID uint32

// Nonce is the per-account sequence number of submitted transactions.
type Nonce uint32

// TokenID is the network-internal identifier of a token.
type TokenID uint16

// Token is a single entry of the network's token catalogue.
type Token struct {
	ID       TokenID        `json:"id"`
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

const (
	pubKeyHashPrefix = "sync:"
	txHashPrefix     = "sync-tx:"

	PubKeyHashLength = 20
	TxHashLength     = 32
)

// FormatAddress renders an address as lowercase 0x-prefixed hex, the form
// the network and the confirmation messages use.
func FormatAddress(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// PubKeyHash binds a native public key to an account.
type PubKeyHash [PubKeyHashLength]byte

func (h PubKeyHash) String() string {
	return pubKeyHashPrefix + hex.EncodeToString(h[:])
}

func (h PubKeyHash) IsZero() bool {
	return h == PubKeyHash{}
}

// ParsePubKeyHash parses the "sync:<hex>" representation.
func ParsePubKeyHash(s string) (PubKeyHash, error) {
	var h PubKeyHash
	raw, err := decodePrefixedHex(s, pubKeyHashPrefix, PubKeyHashLength)
	if err != nil {
		return h, errors.Wrap(err, "invalid pub key hash")
	}
	copy(h[:], raw)
	return h, nil
}

func (h PubKeyHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *PubKeyHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePubKeyHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// TxHash identifies a submitted transaction.
type TxHash [TxHashLength]byte

func (h TxHash) String() string {
	return txHashPrefix + hex.EncodeToString(h[:])
}

// ParseTxHash accepts both the "sync-tx:<hex>" form and bare hex.
func ParseTxHash(s string) (TxHash, error) {
	var h TxHash
	raw, err := decodePrefixedHex(s, txHashPrefix, TxHashLength)
	if err != nil {
		return h, errors.Wrap(err, "invalid tx hash")
	}
	copy(h[:], raw)
	return h, nil
}

func (h TxHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *TxHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTxHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func decodePrefixedHex(s string, prefix string, length int) ([]byte, error) {
	s = strings.TrimPrefix(s, prefix)
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != length {
		return nil, fmt.Errorf("expected %d bytes, got %d", length, len(raw))
	}
	return raw, nil
}

// OperationState is the finality status of a transaction or priority
// operation. Verified implies Executed.
type OperationState struct {
	Executed bool `json:"executed"`
	Verified bool `json:"verified"`
}

// NewOperationState normalizes a raw pair so that verified never holds
// without executed.
func NewOperationState(executed bool, verified bool) OperationState {
	return OperationState{
		Executed: executed,
		Verified: executed && verified,
	}
}

// FinalityStage names the two successive confirmation stages.
type FinalityStage int

const (
	StageCommitted FinalityStage = iota
	StageVerified
)

func (s FinalityStage) String() string {
	switch s {
	case StageCommitted:
		return "committed"
	case StageVerified:
		return "verified"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ParseFinalityStage accepts "committed" (alias "executed") and "verified".
func ParseFinalityStage(s string) (FinalityStage, error) {
	switch strings.ToLower(s) {
	case "committed", "executed":
		return StageCommitted, nil
	case "verified":
		return StageVerified, nil
	default:
		return 0, fmt.Errorf("unknown finality stage: %s", s)
	}
}

// Reached reports whether the state has reached the given stage.
func (s OperationState) Reached(stage FinalityStage) bool {
	if stage == StageVerified {
		return s.Verified
	}
	return s.Executed
}
