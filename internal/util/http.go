package util

import (
	"net/http"

	"github.com/SafeMPC/mint-service/internal/api/httperrors"
	"github.com/SafeMPC/mint-service/internal/types"
	"github.com/go-openapi/runtime"
	"github.com/go-openapi/strfmt"
	"github.com/labstack/echo/v4"
)

// BindAndValidateBody 解析 JSON 请求体并按 swagger 规则校验
func BindAndValidateBody(c echo.Context, v runtime.Validatable) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		LogFromEchoContext(c).Debug().Err(err).Msg("Failed to bind request body")
		return httperrors.ErrBadRequestMalformedBody
	}

	if err := v.Validate(strfmt.Default); err != nil {
		LogFromEchoContext(c).Debug().Err(err).Msg("Request body failed validation")
		return httperrors.NewFromValidation(err)
	}

	return nil
}

// ValidateAndReturn 校验响应后输出 JSON
func ValidateAndReturn(c echo.Context, code int, v runtime.Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		LogFromEchoContext(c).Error().Err(err).Msg("Response failed validation")
		return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, http.StatusText(http.StatusInternalServerError))
	}
	return c.JSON(code, v)
}
