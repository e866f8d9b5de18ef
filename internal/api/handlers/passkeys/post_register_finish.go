package passkeys

import (
	"net/http"

	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/api/httperrors"
	"github.com/SafeMPC/mint-service/internal/auth"
	passkeytypes "github.com/SafeMPC/mint-service/internal/types/passkeys"
	"github.com/SafeMPC/mint-service/internal/util"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/labstack/echo/v4"
)

func PostRegisterFinishRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Passkeys.POST("/register/finish", postRegisterFinishHandler(s))
}

// 请求体为 navigator.credentials.create() 返回的 PublicKeyCredential JSON
func postRegisterFinishHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		userID := auth.UserIDFromContext(ctx)
		if userID == "" {
			return httperrors.ErrUnauthorizedInvalidToken
		}

		response, err := protocol.ParseCredentialCreationResponseBody(c.Request().Body)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to parse credential creation response")
			return httperrors.ErrBadRequestMalformedCredential
		}

		passkey, err := s.Passkeys.FinishRegistration(ctx, userID, response)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to finish passkey registration")
			return httperrors.NewFromPasskeyError(err)
		}

		createdAt := strfmt.DateTime(passkey.CreatedAt)
		return util.ValidateAndReturn(c, http.StatusCreated, &passkeytypes.PasskeyRegistrationResponse{
			CredentialID: swag.String(passkey.CredentialID),
			CreatedAt:    &createdAt,
		})
	}
}
