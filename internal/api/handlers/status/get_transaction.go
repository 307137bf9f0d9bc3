package status

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/api/httperrors"
	"github/chapool/zksync-wallet/internal/util"
	"github/chapool/zksync-wallet/internal/zksync"
)

// maxWait bounds ?timeout= so a request cannot hold a connection forever.
const maxWait = time.Minute

type OperationStateResponse struct {
	zksync.OperationState
	Stage string `json:"stage,omitempty"`
}

func GetTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/transactions/:hash", getTransactionHandler(s))
}

// getTransactionHandler returns the finality of a transaction. With
// ?wait=committed|verified it polls until that stage or ?timeout= (default
// and maximum one minute) elapses.
func getTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		hash, err := zksync.ParseTxHash(c.Param("hash"))
		if err != nil {
			return httperrors.ErrBadRequestInvalidTxHash
		}

		stage, wait, err := parseWait(c)
		if err != nil {
			return err
		}

		var state zksync.OperationState
		if wait {
			waitCtx, cancel := waitContext(ctx, c)
			defer cancel()
			state, err = s.Wallet.WaitForTransaction(waitCtx, hash, stage, s.Config.Wallet.PollInterval)
		} else {
			state, err = s.Wallet.TransactionState(ctx, hash)
		}
		if err != nil {
			log.Debug().Err(err).Str("tx_hash", hash.String()).Msg("Failed to get transaction state")
			return err
		}

		return c.JSON(http.StatusOK, newOperationStateResponse(state))
	}
}

func parseWait(c echo.Context) (zksync.FinalityStage, bool, error) {
	raw := c.QueryParam("wait")
	if raw == "" {
		return zksync.StageCommitted, false, nil
	}

	stage, err := zksync.ParseFinalityStage(raw)
	if err != nil {
		return 0, false, httperrors.NewHTTPErrorWithDetail(http.StatusBadRequest, httperrors.TypeBadRequest, "Invalid finality stage.", err.Error())
	}

	return stage, true, nil
}

func waitContext(ctx context.Context, c echo.Context) (context.Context, context.CancelFunc) {
	timeout := maxWait
	if raw := c.QueryParam("timeout"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 && d < maxWait {
			timeout = d
		}
	}
	return context.WithTimeout(ctx, timeout)
}

func newOperationStateResponse(state zksync.OperationState) OperationStateResponse {
	res := OperationStateResponse{OperationState: state}
	switch {
	case state.Reached(zksync.StageVerified):
		res.Stage = zksync.StageVerified.String()
	case state.Reached(zksync.StageCommitted):
		res.Stage = zksync.StageCommitted.String()
	}
	return res
}
