package middleware

import (
	"strings"

	"github.com/SafeMPC/mint-service/internal/api/httperrors"
	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const bearerPrefix = "Bearer "

// Auth 校验 Bearer JWT，并将鉴权结果写入请求 context
func Auth(manager *auth.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return httperrors.ErrUnauthorizedInvalidToken
			}

			result, err := manager.Validate(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
			if err != nil {
				zerolog.Ctx(c.Request().Context()).Debug().Err(err).Msg("Rejected bearer token")
				return httperrors.ErrUnauthorizedInvalidToken
			}

			ctx := auth.ContextWithResult(c.Request().Context(), result)
			if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
				ctx = l.With().Str("user_id", result.UserID).Logger().WithContext(ctx)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
