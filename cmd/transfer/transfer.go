package transfer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/internal/util/command"
	"github/chapool/zksync-wallet/internal/wallet"
	"github/chapool/zksync-wallet/internal/zksync"
)

const (
	toFlag        = "to"
	tokenFlag     = "token"
	amountFlag    = "amount"
	feeFlag       = "fee"
	nonceFlag     = "nonce"
	baseUnitsFlag = "base-units"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("transfer",
		newSend(),
		newPrepare(),
		newSubmit(),
	)
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().String(toFlag, "", "Recipient address")
	cmd.Flags().String(tokenFlag, "ETH", "Token symbol or address")
	cmd.Flags().String(amountFlag, "", `Amount in token units, e.g. "1.5"`)
	cmd.Flags().String(feeFlag, "", "Fee in token units, estimated by the node when empty")
	cmd.Flags().Int64(nonceFlag, -1, "Explicit nonce, the wallet's nonce when negative")
	cmd.Flags().Bool(baseUnitsFlag, false, "Amount and fee are given in base units")

	_ = cmd.MarkFlagRequired(toFlag)
	_ = cmd.MarkFlagRequired(amountFlag)
}

// transferRequest reads the request flags. Amounts are converted with the
// decimals of the resolved token.
func transferRequest(ctx context.Context, cmd *cobra.Command, w *wallet.Wallet) (wallet.TransferRequest, error) {
	fs := cmd.Flags()

	to, _ := fs.GetString(toFlag)
	if !common.IsHexAddress(to) {
		return wallet.TransferRequest{}, errors.Errorf("invalid recipient %q", to)
	}

	tokenRef, _ := fs.GetString(tokenFlag)
	token, err := w.ResolveToken(ctx, tokenRef)
	if err != nil {
		return wallet.TransferRequest{}, err
	}

	baseUnits, _ := fs.GetBool(baseUnitsFlag)

	rawAmount, _ := fs.GetString(amountFlag)
	amount, err := parseAmount(rawAmount, token.Decimals, baseUnits)
	if err != nil {
		return wallet.TransferRequest{}, errors.Wrap(err, "invalid amount")
	}

	req := wallet.TransferRequest{
		To:     common.HexToAddress(to),
		Token:  tokenRef,
		Amount: amount,
	}

	if rawFee, _ := fs.GetString(feeFlag); rawFee != "" {
		req.Fee, err = parseAmount(rawFee, token.Decimals, baseUnits)
		if err != nil {
			return wallet.TransferRequest{}, errors.Wrap(err, "invalid fee")
		}
	}

	if nonce, _ := fs.GetInt64(nonceFlag); nonce >= 0 {
		if nonce > int64(^uint32(0)) {
			return wallet.TransferRequest{}, errors.Errorf("nonce %d out of range", nonce)
		}
		n := zksync.Nonce(nonce)
		req.Nonce = &n
	}

	return req, nil
}

func parseAmount(s string, decimals uint8, baseUnits bool) (*big.Int, error) {
	if baseUnits {
		return zksync.ParseBigInt(s)
	}
	return zksync.ParseUnits(s, decimals)
}
