package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/api/httperrors"
	"github/chapool/zksync-wallet/internal/util"
)

type HTTPErrorHandlerConfig struct {
	HideInternalServerErrorDetails bool
}

// HTTPErrorHandlerWithConfig renders every handler error as an
// httperrors.HTTPError. Wallet, node and signer errors are mapped by
// httperrors.FromError.
func HTTPErrorHandlerWithConfig(config HTTPErrorHandlerConfig) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		log := util.LogFromContext(c.Request().Context())

		var (
			httpErr *httperrors.HTTPError
			echoErr *echo.HTTPError
		)

		if mapped := httperrors.FromError(err); mapped != nil {
			httpErr = mapped
		} else if errors.As(err, &echoErr) {
			title := http.StatusText(echoErr.Code)
			if msg, ok := echoErr.Message.(string); ok && msg != "" {
				title = msg
			}
			httpErr = httperrors.NewHTTPError(echoErr.Code, httperrors.TypeGeneric, title)
		} else {
			httpErr = httperrors.NewHTTPError(http.StatusInternalServerError, httperrors.TypeGeneric, http.StatusText(http.StatusInternalServerError))
			if !config.HideInternalServerErrorDetails {
				httpErr.Detail = err.Error()
			}
		}

		if httpErr.Code >= http.StatusInternalServerError {
			log.Error().Err(err).Int("status", httpErr.Code).Msg("Request failed")
		} else {
			log.Debug().Err(err).Int("status", httpErr.Code).Msg("Request rejected")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(httpErr.Code)
		} else {
			writeErr = c.JSON(httpErr.Code, httpErr)
		}
		if writeErr != nil {
			log.Error().Err(writeErr).AnErr("http_err", err).Msg("Failed to handle HTTP error")
		}
	}
}
