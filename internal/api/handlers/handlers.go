package handlers

import (
	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/api/handlers/common"
	"github.com/SafeMPC/mint-service/internal/api/handlers/nfts"
	"github.com/SafeMPC/mint-service/internal/api/handlers/passkeys"
	"github.com/labstack/echo/v4"
)

func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = append(s.Router.Routes, []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		nfts.PostClaimRoute(s),
		passkeys.PostRegisterBeginRoute(s),
		passkeys.PostRegisterFinishRoute(s),
	}...)
}
