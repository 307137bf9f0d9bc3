package zksync

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const (
	TransferTxType   = "Transfer"
	transferOpCode   = 0x05
	transferBytesLen = 1 + 4 + common.AddressLength*2 + 2 + 5 + 2 + 4
)

var (
	ErrMissingSignature = errors.New("transaction is not signed")
	ErrInvalidSignature = errors.New("native signature does not match transaction")
)

// Tx is a signed transaction accepted by the network.
type Tx interface {
	TxType() string
	Hash() TxHash
	VerifySignature() error
}

// Transfer moves tokens between two accounts inside the rollup.
type Transfer struct {
	AccountID AccountID
	From      common.Address
	To        common.Address
	Token     TokenID
	Amount    *big.Int
	Fee       *big.Int
	Nonce     Nonce
	Signature *NativeSignature
}

var _ Tx = (*Transfer)(nil)

// NewSignedTransfer builds a transfer and signs it with key. The signature
// commits to every field passed in.
//
//nolint:revive // the argument list mirrors the signed tuple
func NewSignedTransfer(
	key *NativePrivateKey,
	accountID AccountID,
	from common.Address,
	to common.Address,
	token TokenID,
	amount *big.Int,
	fee *big.Int,
	nonce Nonce,
) (*Transfer, error) {
	tx := &Transfer{
		AccountID: accountID,
		From:      from,
		To:        to,
		Token:     token,
		Amount:    new(big.Int).Set(amount),
		Fee:       new(big.Int).Set(fee),
		Nonce:     nonce,
	}

	msg, err := tx.Bytes()
	if err != nil {
		return nil, err
	}

	sig, err := key.Sign(msg)
	if err != nil {
		return nil, err
	}
	tx.Signature = sig

	return tx, nil
}

func (t *Transfer) TxType() string {
	return TransferTxType
}

// Bytes is the canonical encoding the native signature covers.
func (t *Transfer) Bytes() ([]byte, error) {
	amount, err := PackAmount(t.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "invalid transfer amount")
	}
	fee, err := PackFee(t.Fee)
	if err != nil {
		return nil, errors.Wrap(err, "invalid transfer fee")
	}

	out := make([]byte, 0, transferBytesLen)
	out = append(out, transferOpCode)
	out = binary.BigEndian.AppendUint32(out, uint32(t.AccountID))
	out = append(out, t.From.Bytes()...)
	out = append(out, t.To.Bytes()...)
	out = binary.BigEndian.AppendUint16(out, uint16(t.Token))
	out = append(out, amount...)
	out = append(out, fee...)
	out = binary.BigEndian.AppendUint32(out, uint32(t.Nonce))
	return out, nil
}

// Hash identifies the transaction. Unencodable transfers hash their zero
// value; they are rejected before submission anyway.
func (t *Transfer) Hash() TxHash {
	msg, err := t.Bytes()
	if err != nil {
		return TxHash{}
	}
	return sha256.Sum256(msg)
}

// VerifySignature checks that the attached native signature still commits to
// the current field values.
func (t *Transfer) VerifySignature() error {
	if t.Signature == nil {
		return ErrMissingSignature
	}

	msg, err := t.Bytes()
	if err != nil {
		return err
	}

	ok, err := t.Signature.Verify(msg)
	if err != nil {
		return errors.Wrap(ErrInvalidSignature, err.Error())
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

// EthSignMessage renders the confirmation message a host-chain signer has to
// sign for this transfer. decimals must match the token's registered
// precision.
func (t *Transfer) EthSignMessage(tokenSymbol string, decimals uint8) string {
	return fmt.Sprintf(
		"Transfer %s %s\nTo: %s\nNonce: %d\nFee: %s %s\nAccount Id: %d",
		FormatUnits(t.Amount, decimals),
		tokenSymbol,
		FormatAddress(t.To),
		t.Nonce,
		FormatUnits(t.Fee, decimals),
		tokenSymbol,
		t.AccountID,
	)
}

type transferJSON struct {
	Type      string           `json:"type"`
	AccountID AccountID        `json:"accountId"`
	From      string           `json:"from"`
	To        string           `json:"to"`
	Token     TokenID          `json:"token"`
	Amount    string           `json:"amount"`
	Fee       string           `json:"fee"`
	Nonce     Nonce            `json:"nonce"`
	Signature *NativeSignature `json:"signature,omitempty"`
}

func (t Transfer) MarshalJSON() ([]byte, error) {
	return json.Marshal(transferJSON{
		Type:      TransferTxType,
		AccountID: t.AccountID,
		From:      FormatAddress(t.From),
		To:        FormatAddress(t.To),
		Token:     t.Token,
		Amount:    bigString(t.Amount),
		Fee:       bigString(t.Fee),
		Nonce:     t.Nonce,
		Signature: t.Signature,
	})
}

func (t *Transfer) UnmarshalJSON(data []byte) error {
	var raw transferJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type != "" && raw.Type != TransferTxType {
		return errors.Errorf("unexpected transaction type %q", raw.Type)
	}
	if !common.IsHexAddress(raw.From) || !common.IsHexAddress(raw.To) {
		return errors.New("invalid transfer address")
	}

	amount, err := ParseBigInt(raw.Amount)
	if err != nil {
		return errors.Wrap(err, "invalid transfer amount")
	}
	fee, err := ParseBigInt(raw.Fee)
	if err != nil {
		return errors.Wrap(err, "invalid transfer fee")
	}

	*t = Transfer{
		AccountID: raw.AccountID,
		From:      common.HexToAddress(raw.From),
		To:        common.HexToAddress(raw.To),
		Token:     raw.Token,
		Amount:    amount,
		Fee:       fee,
		Nonce:     raw.Nonce,
		Signature: raw.Signature,
	}
	return nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// ParseBigInt parses a decimal integer string.
func ParseBigInt(s string) (*big.Int, error) {
	const base10 = 10
	v, ok := new(big.Int).SetString(s, base10)
	if !ok {
		return nil, errors.Errorf("%q is not a decimal integer", s)
	}
	return v, nil
}
