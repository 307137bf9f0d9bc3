package provider

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/zksync-wallet/internal/zksync"
)

// Fee is the result of get_tx_fee. Only TotalFee is binding for signing
// and it is required to be present.
type Fee struct {
	FeeType     string          `json:"feeType"`
	GasTxAmount zksync.BigUint  `json:"gasTxAmount"`
	GasPriceWei zksync.BigUint  `json:"gasPriceWei"`
	GasFee      zksync.BigUint  `json:"gasFee"`
	ZkpFee      zksync.BigUint  `json:"zkpFee"`
	TotalFee    *zksync.BigUint `json:"totalFee"`
}

// AccountState is the account as seen at one finality stage.
type AccountState struct {
	Balances   map[string]zksync.BigUint `json:"balances"`
	Nonce      zksync.Nonce              `json:"nonce"`
	PubKeyHash zksync.PubKeyHash         `json:"pubKeyHash"`
}

// Balance returns the balance for a token symbol; an absent token is zero.
func (s AccountState) Balance(symbol string) *big.Int {
	if v, ok := s.Balances[symbol]; ok {
		return v.Int()
	}
	return new(big.Int)
}

type DepositingFunds struct {
	Amount              zksync.BigUint `json:"amount"`
	ExpectedAcceptBlock int64          `json:"expectedAcceptBlock"`
}

type DepositingBalances struct {
	Balances map[string]DepositingFunds `json:"balances"`
}

// AccountInfo is the result of account_info. ID is nil until the account
// has been registered by a first deposit or transfer.
type AccountInfo struct {
	Address    common.Address     `json:"address"`
	ID         *zksync.AccountID  `json:"id"`
	Depositing DepositingBalances `json:"depositing"`
	Committed  AccountState       `json:"committed"`
	Verified   AccountState       `json:"verified"`
}

type BlockInfo struct {
	BlockNumber int64 `json:"blockNumber"`
	Committed   bool  `json:"committed"`
	Verified    bool  `json:"verified"`
}

// TransactionInfo is the result of tx_info.
type TransactionInfo struct {
	Executed   bool       `json:"executed"`
	Success    *bool      `json:"success"`
	FailReason *string    `json:"failReason"`
	Block      *BlockInfo `json:"block"`
}

// State reduces the result to its finality pair. A verified block without
// an executed flag is normalized away.
func (i *TransactionInfo) State() zksync.OperationState {
	verified := i.Block != nil && i.Block.Verified
	return zksync.NewOperationState(i.Executed, verified)
}

// Failed reports whether the transaction was executed and rejected.
func (i *TransactionInfo) Failed() bool {
	return i.Executed && i.Success != nil && !*i.Success
}

// EthOpInfo is the result of ethop_info for a priority operation.
type EthOpInfo struct {
	Executed bool       `json:"executed"`
	Block    *BlockInfo `json:"block"`
}

func (i *EthOpInfo) State() zksync.OperationState {
	verified := i.Block != nil && i.Block.Verified
	return zksync.NewOperationState(i.Executed, verified)
}

type ContractAddress struct {
	MainContract string `json:"mainContract"`
	GovContract  string `json:"govContract"`
}

type OngoingDeposit struct {
	ReceivedOnBlock uint64         `json:"receivedOnBlock"`
	TokenID         zksync.TokenID `json:"tokenId"`
	Amount          zksync.BigUint `json:"amount"`
	EthTxHash       string         `json:"ethTxHash"`
}

// OngoingDeposits lists the deposits to Address still waiting for host-chain
// confirmations. EstimatedDepositsApprovalBlock is nil when there are none.
type OngoingDeposits struct {
	Address                        common.Address   `json:"address"`
	Deposits                       []OngoingDeposit `json:"deposits"`
	ConfirmationsForEthEvent       uint64           `json:"confirmationsForEthEvent"`
	EstimatedDepositsApprovalBlock *uint64          `json:"estimatedDepositsApprovalBlock"`
}
