package nfts

import (
	"net/http"

	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/api/httperrors"
	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/SafeMPC/mint-service/internal/infra/mint"
	nfttypes "github.com/SafeMPC/mint-service/internal/types/nfts"
	"github.com/SafeMPC/mint-service/internal/util"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
)

// PostClaimRoute 注册路由
func PostClaimRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1NFTs.POST("/claim", postClaimHandler(s))
}

func postClaimHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		userID := auth.UserIDFromContext(ctx)
		if userID == "" {
			return httperrors.ErrUnauthorizedInvalidToken
		}

		var body nfttypes.PostClaimNFTPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		result, err := s.Mint.Claim(ctx, mint.ClaimRequest{
			UserID:    userID,
			Resource:  swag.StringValue(body.Resource),
			SessionID: swag.StringValue(body.SessionID),
		})
		if err != nil {
			log.Debug().Err(err).Str("session_id", swag.StringValue(body.SessionID)).Msg("Claim rejected")
			return httperrors.NewFromClaimError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &nfttypes.ClaimNFTResponse{
			TransactionHash: swag.String(result.TransactionHash),
			TokenID:         result.TokenID,
		})
	}
}
