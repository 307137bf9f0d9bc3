package signer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github/chapool/zksync-wallet/internal/zksync"
)

var (
	// ErrRemoteSignerUnavailable means the signer could not be reached.
	ErrRemoteSignerUnavailable = errors.New("remote signer unavailable")
	// ErrRemoteSignerRejected means the signer refused the request or
	// answered with something unusable.
	ErrRemoteSignerRejected = errors.New("remote signer rejected request")
	// ErrDefineAddress means the signer's address could not be determined.
	ErrDefineAddress = errors.New("failed to determine signer address")
)

// Kind names a signer variant.
type Kind string

const (
	KindLocal    Kind = "local"
	KindJSONRPC  Kind = "jsonrpc"
	KindExternal Kind = "external"
)

// Signer produces host-chain signatures. The set of variants is closed:
// a local key, a JSON-RPC endpoint holding the key, or an External
// implementation supplied by the caller. Implementations are safe for
// concurrent use and may be shared between wallets.
type Signer interface {
	Kind() Kind

	// Address returns the host-chain address whose key signs.
	Address(ctx context.Context) (common.Address, error)

	// SignMessage returns a personal-message signature over msg.
	SignMessage(ctx context.Context, msg []byte) (zksync.PackedEthSignature, error)

	// SignTransaction returns the signed transaction in its binary
	// encoding.
	SignTransaction(ctx context.Context, tx *RawTransaction) ([]byte, error)

	sealed()
}

// RawTransaction is an unsigned host-chain transaction. Setting GasFeeCap
// selects a dynamic fee transaction, otherwise GasPrice is used with
// EIP-155 replay protection.
type RawTransaction struct {
	ChainID   *big.Int
	Nonce     uint64
	To        *common.Address
	Value     *big.Int
	Gas       uint64
	GasPrice  *big.Int
	GasTipCap *big.Int
	GasFeeCap *big.Int
	Data      []byte
}

func (r *RawTransaction) IsDynamicFee() bool {
	return r.GasFeeCap != nil
}

func (r *RawTransaction) Validate() error {
	if r == nil {
		return errors.New("transaction is nil")
	}
	if r.ChainID == nil || r.ChainID.Sign() <= 0 {
		return errors.New("chain id is required")
	}
	if !r.IsDynamicFee() && r.GasPrice == nil {
		return errors.New("gas price or fee cap is required")
	}
	return nil
}

// Transaction builds the go-ethereum representation.
func (r *RawTransaction) Transaction() *types.Transaction {
	value := r.Value
	if value == nil {
		value = new(big.Int)
	}

	if r.IsDynamicFee() {
		tip := r.GasTipCap
		if tip == nil {
			tip = new(big.Int)
		}
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   r.ChainID,
			Nonce:     r.Nonce,
			GasTipCap: tip,
			GasFeeCap: r.GasFeeCap,
			Gas:       r.Gas,
			To:        r.To,
			Value:     value,
			Data:      r.Data,
		})
	}

	return types.NewTx(&types.LegacyTx{
		Nonce:    r.Nonce,
		GasPrice: r.GasPrice,
		Gas:      r.Gas,
		To:       r.To,
		Value:    value,
		Data:     r.Data,
	})
}

// TxSigner returns the go-ethereum signer matching the transaction's
// chain.
func (r *RawTransaction) TxSigner() types.Signer {
	return types.NewLondonSigner(r.ChainID)
}

// checkSender decodes a signed transaction and makes sure it was signed by
// expected.
func checkSender(raw []byte, chainID *big.Int, expected common.Address) error {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return errors.Wrap(err, "undecodable signed transaction")
	}

	sender, err := types.Sender(types.NewLondonSigner(chainID), tx)
	if err != nil {
		return errors.Wrap(err, "failed to recover transaction sender")
	}
	if sender != expected {
		return errors.Errorf("transaction signed by %s, expected %s", sender.Hex(), expected.Hex())
	}

	return nil
}

// checkMessageSignature makes sure sig over msg recovers to expected.
func checkMessageSignature(sig zksync.PackedEthSignature, msg []byte, expected common.Address) error {
	recovered, err := sig.SignedMessageAddress(msg)
	if err != nil {
		return errors.Wrap(err, "unrecoverable signature")
	}
	if recovered != expected {
		return errors.Errorf("message signed by %s, expected %s", recovered.Hex(), expected.Hex())
	}
	return nil
}
