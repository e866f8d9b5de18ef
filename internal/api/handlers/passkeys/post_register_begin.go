package passkeys

import (
	"net/http"

	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/api/httperrors"
	"github.com/SafeMPC/mint-service/internal/auth"
	passkeytypes "github.com/SafeMPC/mint-service/internal/types/passkeys"
	"github.com/SafeMPC/mint-service/internal/util"
	"github.com/labstack/echo/v4"
)

func PostRegisterBeginRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Passkeys.POST("/register/begin", postRegisterBeginHandler(s))
}

func postRegisterBeginHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userID := auth.UserIDFromContext(ctx)
		if userID == "" {
			return httperrors.ErrUnauthorizedInvalidToken
		}

		options, err := s.Passkeys.BeginRegistration(ctx, userID)
		if err != nil {
			util.LogFromContext(ctx).Debug().Err(err).Msg("Failed to begin passkey registration")
			return httperrors.NewFromPasskeyError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &passkeytypes.PasskeyRegistrationOptions{
			Options: options,
		})
	}
}
