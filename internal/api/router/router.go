package router

import (
	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/api/handlers"
	"github.com/SafeMPC/mint-service/internal/api/httperrors"
	"github.com/SafeMPC/mint-service/internal/api/middleware"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Echo.Debug
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = httperrors.HTTPErrorHandler

	s.Echo.Pre(echoMiddleware.RemoveTrailingSlash())

	s.Echo.Use(echoMiddleware.Recover())
	s.Echo.Use(echoMiddleware.RequestID())
	s.Echo.Use(middleware.Logger(s.Config.Logger))

	if s.Registry != nil {
		s.Echo.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "mint",
			Subsystem:  "http",
			Registerer: s.Registry,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}))
	} else {
		log.Warn().Msg("No prometheus registry configured, /metrics is disabled")
	}

	s.Router = &api.Router{
		Routes:        nil,
		Root:          s.Echo.Group(""),
		Management:    s.Echo.Group("/-"),
		APIV1NFTs:     s.Echo.Group("/api/v1/nfts", middleware.Auth(s.JWT)),
		APIV1Passkeys: s.Echo.Group("/api/v1/passkeys", middleware.Auth(s.JWT)),
	}

	if s.Registry != nil {
		s.Router.Routes = append(s.Router.Routes,
			s.Router.Root.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
				Gatherer: s.Registry,
			})),
		)
	}

	handlers.AttachAllRoutes(s)
}
