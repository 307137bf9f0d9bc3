package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/config"
)

func GetVersionRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/version", getVersionHandler(s))
}

func getVersionHandler(_ *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, config.GetFormattedBuildArgs())
	}
}
