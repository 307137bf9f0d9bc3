package accounts

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/api/httperrors"
	"github/chapool/zksync-wallet/internal/util"
	"github/chapool/zksync-wallet/internal/wallet"
)

func GetAccountRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/accounts/:address", getAccountHandler(s))
}

func getAccountHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		addr, err := parseAddressParam(c)
		if err != nil {
			return err
		}

		info, err := wallet.FromPublicAddress(s.Provider, addr).AccountInfo(ctx)
		if err != nil {
			log.Debug().Err(err).Str("address", addr.Hex()).Msg("Failed to get account info")
			return err
		}

		return c.JSON(http.StatusOK, info)
	}
}

func parseAddressParam(c echo.Context) (common.Address, error) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		return common.Address{}, httperrors.ErrBadRequestInvalidAddress
	}
	return common.HexToAddress(raw), nil
}
