package httperrors

import (
	"net/http"

	"github.com/SafeMPC/mint-service/internal/types"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HTTPErrorHandler echo 全局错误处理
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	logger := zerolog.Ctx(c.Request().Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}

	var (
		code int
		body interface{}
	)
	switch e := err.(type) {
	case *HTTPError:
		code = int(*e.Status)
		body = e
		if code >= http.StatusInternalServerError {
			logger.Error().Err(err).Msg("Request failed")
		}
	case *HTTPValidationError:
		code = int(*e.Status)
		body = e
	case *echo.HTTPError:
		code = e.Code
		body = NewFromEcho(e)
	default:
		logger.Error().Err(err).Msg("Unhandled error")
		code = http.StatusInternalServerError
		body = NewHTTPError(code, types.PublicHTTPErrorTypeGeneric, http.StatusText(code))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, body)
	}
	if writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write error response")
	}
}
