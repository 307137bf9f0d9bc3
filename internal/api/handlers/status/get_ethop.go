package status

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/api/httperrors"
	"github/chapool/zksync-wallet/internal/util"
	"github/chapool/zksync-wallet/internal/zksync"
)

func GetEthOpRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/ethops/:id", getEthOpHandler(s))
}

// getEthOpHandler is the priority operation counterpart of
// getTransactionHandler and accepts the same query parameters.
func getEthOpHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		serialID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			return httperrors.ErrBadRequestInvalidSerial
		}

		stage, wait, err := parseWait(c)
		if err != nil {
			return err
		}

		var state zksync.OperationState
		if wait {
			waitCtx, cancel := waitContext(ctx, c)
			defer cancel()
			state, err = s.Wallet.WaitForEthOp(waitCtx, serialID, stage, s.Config.Wallet.PollInterval)
		} else {
			state, err = s.Wallet.EthOpState(ctx, serialID)
		}
		if err != nil {
			log.Debug().Err(err).Uint64("serial_id", serialID).Msg("Failed to get priority operation state")
			return err
		}

		return c.JSON(http.StatusOK, newOperationStateResponse(state))
	}
}
