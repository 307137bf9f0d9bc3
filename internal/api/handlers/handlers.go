package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/api/handlers/accounts"
	"github/chapool/zksync-wallet/internal/api/handlers/common"
	"github/chapool/zksync-wallet/internal/api/handlers/status"
	"github/chapool/zksync-wallet/internal/api/handlers/transfers"
)

func AttachAllRoutes(s *api.Server) {
	// attach our routes
	s.Router.Routes = append(s.Router.Routes, []*echo.Route{
		accounts.GetAccountRoute(s),
		accounts.GetBalanceRoute(s),
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		common.GetVersionRoute(s),
		status.GetEthOpRoute(s),
		status.GetTransactionRoute(s),
		transfers.PostPrepareTransferRoute(s),
		transfers.PostSubmitTransferRoute(s),
	}...)
}
