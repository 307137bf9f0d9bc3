package accounts

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/api/httperrors"
	"github/chapool/zksync-wallet/internal/util"
	"github/chapool/zksync-wallet/internal/wallet"
	"github/chapool/zksync-wallet/internal/zksync"
)

type BalanceResponse struct {
	Token     zksync.Token `json:"token"`
	State     string       `json:"state"`
	Amount    string       `json:"amount"`
	Formatted string       `json:"formatted"`
}

func GetBalanceRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/accounts/:address/balances/:token", getBalanceHandler(s))
}

// getBalanceHandler answers with the balance of a token at the finality
// given by ?state=committed|verified. Tokens the account never held have a
// zero balance.
func getBalanceHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		addr, err := parseAddressParam(c)
		if err != nil {
			return err
		}

		state, err := wallet.ParseBalanceState(c.QueryParam("state"))
		if err != nil {
			return httperrors.ErrBadRequestInvalidStage
		}

		balance, err := wallet.FromPublicAddress(s.Provider, addr).GetBalance(ctx, c.Param("token"), state)
		if err != nil {
			log.Debug().Err(err).Str("address", addr.Hex()).Msg("Failed to get balance")
			return err
		}

		return c.JSON(http.StatusOK, BalanceResponse{
			Token:     balance.Token,
			State:     balance.State.String(),
			Amount:    balance.Amount.String(),
			Formatted: balance.Formatted(),
		})
	}
}
