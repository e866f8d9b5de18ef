package common

import (
	"net/http"
	"time"

	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/types"
	"github.com/SafeMPC/mint-service/internal/util"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
)

// GetHealthyRoute 存活检查：进程能响应即视为存活
func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		return util.ValidateAndReturn(c, http.StatusOK, &types.HealthStatus{
			Status:    swag.String("alive"),
			Timestamp: strfmt.DateTime(now(s)),
		})
	}
}

func now(s *api.Server) time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}
