package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/util"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// Health check
// Unlike /-/ready this reaches out to the zkSync node, so it fails while the
// node is down. The cause is only logged.
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if err := s.Healthy(ctx); err != nil {
			util.LogFromContext(ctx).Warn().Err(err).Msg("Health check failed")
			return c.String(521, "Not healthy.")
		}

		return c.String(http.StatusOK, "Healthy.")
	}
}
