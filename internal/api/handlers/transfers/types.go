package transfers

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/zksync-wallet/internal/api/httperrors"
	"github/chapool/zksync-wallet/internal/wallet"
	"github/chapool/zksync-wallet/internal/zksync"
)

// PostPrepareTransferPayload describes a transfer from the server's
// wallet. Amount and Fee are either base units ("1500000") or, with
// Units set, decimal token units ("1.5"). An empty Fee is estimated by the
// node.
type PostPrepareTransferPayload struct {
	To     string        `json:"to"`
	Token  string        `json:"token"`
	Amount string        `json:"amount"`
	Fee    string        `json:"fee,omitempty"`
	Nonce  *zksync.Nonce `json:"nonce,omitempty"`
	Units  bool          `json:"units,omitempty"`
	// Submit signs with the server's host signer and submits right away.
	Submit bool `json:"submit,omitempty"`
}

func (p *PostPrepareTransferPayload) validate() error {
	if !common.IsHexAddress(p.To) {
		return httperrors.NewHTTPErrorWithDetail(httperrors.ErrBadRequestInvalidBody.Code, httperrors.TypeBadRequest, "Invalid request body.", "to must be a hex address")
	}
	if p.Token == "" {
		return httperrors.NewHTTPErrorWithDetail(httperrors.ErrBadRequestInvalidBody.Code, httperrors.TypeBadRequest, "Invalid request body.", "token is required")
	}
	if p.Amount == "" {
		return httperrors.ErrBadRequestInvalidAmount
	}
	return nil
}

func (p *PostPrepareTransferPayload) request(token zksync.Token) (wallet.TransferRequest, error) {
	amount, err := parseAmount(p.Amount, token.Decimals, p.Units)
	if err != nil {
		return wallet.TransferRequest{}, err
	}

	req := wallet.TransferRequest{
		To:     common.HexToAddress(p.To),
		Token:  p.Token,
		Amount: amount,
		Nonce:  p.Nonce,
	}

	if p.Fee != "" {
		fee, err := parseAmount(p.Fee, token.Decimals, p.Units)
		if err != nil {
			return wallet.TransferRequest{}, err
		}
		req.Fee = fee
	}

	return req, nil
}

func parseAmount(s string, decimals uint8, units bool) (*big.Int, error) {
	var (
		v   *big.Int
		err error
	)
	if units {
		v, err = zksync.ParseUnits(s, decimals)
	} else {
		v, err = zksync.ParseBigInt(s)
	}
	if err != nil || v.Sign() < 0 {
		return nil, httperrors.ErrBadRequestInvalidAmount
	}
	return v, nil
}

type PreparedTransferResponse struct {
	*wallet.PreparedTransfer
	Hash zksync.TxHash `json:"hash"`
	// Submitted is set when the transfer was submitted in the same request.
	Submitted bool `json:"submitted"`
}

// PostSubmitTransferPayload is a prepared transfer as returned by
// POST /api/v1/transfers, plus the host-chain signature over its
// ethSignMessage. Without a signature the server's host signer signs.
type PostSubmitTransferPayload struct {
	wallet.PreparedTransfer
	EthSignature *zksync.PackedEthSignature `json:"ethSignature,omitempty"`
}

type SubmitTransferResponse struct {
	Hash zksync.TxHash `json:"hash"`
}
