package transfers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/api/httperrors"
	"github/chapool/zksync-wallet/internal/util"
	"github/chapool/zksync-wallet/internal/wallet"
)

func PostSubmitTransferRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/transfers/submit", postSubmitTransferHandler(s))
}

// postSubmitTransferHandler submits a transfer prepared earlier. The token
// is looked up again so the confirmation message is checked against the
// catalogue rather than the client's copy.
func postSubmitTransferHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body PostSubmitTransferPayload
		if err := c.Bind(&body); err != nil {
			return httperrors.ErrBadRequestInvalidBody
		}
		if body.Tx == nil {
			return httperrors.NewHTTPErrorWithDetail(http.StatusBadRequest, httperrors.TypeBadRequest, "Invalid request body.", "tx is required")
		}

		token, err := s.Wallet.ResolveToken(ctx, body.Token.Symbol)
		if err != nil {
			return err
		}
		if token.ID != body.Tx.Token {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.TypeTransferMismatch, "Token does not match the transaction.")
		}

		prepared := &wallet.PreparedTransfer{Tx: body.Tx, Token: token, EthSignMessage: body.EthSignMessage}

		sig := body.EthSignature
		if sig == nil {
			signed, err := s.Wallet.SignTransfer(ctx, prepared)
			if err != nil {
				s.Metrics.ObserveTransfer("submit", err)
				return err
			}
			sig = &signed
		}

		hash, err := s.Wallet.SubmitTransfer(ctx, prepared, sig)
		s.Metrics.ObserveTransfer("submit", err)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to submit transfer")
			return err
		}

		return c.JSON(http.StatusOK, SubmitTransferResponse{Hash: hash})
	}
}
