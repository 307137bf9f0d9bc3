package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/zksync-wallet/internal/provider"
	"github/chapool/zksync-wallet/internal/zksync"
)

// Provider is the part of the node client the wallet depends on.
type Provider interface {
	TxFee(ctx context.Context, txType string, address common.Address, tokenSymbol string) (*big.Int, error)
	SubmitTx(ctx context.Context, tx zksync.Tx, ethSignature *zksync.PackedEthSignature) (zksync.TxHash, error)
	AccountInfo(ctx context.Context, address common.Address) (*provider.AccountInfo, error)
	Tokens(ctx context.Context) (map[string]zksync.Token, error)
	TxInfo(ctx context.Context, hash zksync.TxHash) (*provider.TransactionInfo, error)
	EthOpInfo(ctx context.Context, serialID uint64) (*provider.EthOpInfo, error)
}

var _ Provider = (*provider.RPCClient)(nil)

// BalanceState selects which balance snapshot is read.
type BalanceState int

const (
	BalanceCommitted BalanceState = iota
	BalanceVerified
)

func (s BalanceState) String() string {
	if s == BalanceVerified {
		return "verified"
	}
	return "committed"
}

func ParseBalanceState(s string) (BalanceState, error) {
	switch strings.ToLower(s) {
	case "", "committed":
		return BalanceCommitted, nil
	case "verified":
		return BalanceVerified, nil
	default:
		return 0, fmt.Errorf("unknown balance state: %s", s)
	}
}

// TransferRequest describes a transfer to prepare. Token is a symbol or a
// token contract address. A nil Fee is estimated by the node; a nil Nonce
// uses and advances the cached nonce.
type TransferRequest struct {
	To     common.Address
	Token  string
	Amount *big.Int
	Fee    *big.Int
	Nonce  *zksync.Nonce
}

// PreparedTransfer is a natively signed transfer together with the
// confirmation message the host-chain signer has to sign.
type PreparedTransfer struct {
	Tx             *zksync.Transfer `json:"tx"`
	Token          zksync.Token     `json:"token"`
	EthSignMessage string           `json:"ethSignMessage"`
}

// Consistent re-renders the confirmation message from the transaction and
// checks both the native signature and the message still match it.
func (p *PreparedTransfer) Consistent() error {
	if err := p.Tx.VerifySignature(); err != nil {
		return err
	}
	if p.Tx.EthSignMessage(p.Token.Symbol, p.Token.Decimals) != p.EthSignMessage {
		return ErrTransferMismatch
	}
	return nil
}

// Balance is an amount of one token at one finality stage.
type Balance struct {
	Token  zksync.Token
	State  BalanceState
	Amount *big.Int
}

func (b Balance) Formatted() string {
	return zksync.FormatUnits(b.Amount, b.Token.Decimals)
}
