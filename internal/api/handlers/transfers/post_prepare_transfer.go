package transfers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/api/httperrors"
	"github/chapool/zksync-wallet/internal/util"
)

func PostPrepareTransferRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/transfers", postPrepareTransferHandler(s))
}

func postPrepareTransferHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body PostPrepareTransferPayload
		if err := c.Bind(&body); err != nil {
			return httperrors.ErrBadRequestInvalidBody
		}
		if err := body.validate(); err != nil {
			return err
		}

		token, err := s.Wallet.ResolveToken(ctx, body.Token)
		if err != nil {
			return err
		}

		req, err := body.request(token)
		if err != nil {
			return err
		}

		prepared, err := s.Wallet.PrepareTransfer(ctx, req)
		s.Metrics.ObserveTransfer("prepare", err)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to prepare transfer")
			return err
		}

		res := PreparedTransferResponse{PreparedTransfer: prepared, Hash: prepared.Tx.Hash()}

		if !body.Submit {
			return c.JSON(http.StatusOK, res)
		}

		sig, err := s.Wallet.SignTransfer(ctx, prepared)
		if err != nil {
			s.Metrics.ObserveTransfer("submit", err)
			return err
		}

		hash, err := s.Wallet.SubmitTransfer(ctx, prepared, &sig)
		s.Metrics.ObserveTransfer("submit", err)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to submit transfer")
			return err
		}

		res.Hash = hash
		res.Submitted = true

		return c.JSON(http.StatusOK, res)
	}
}
