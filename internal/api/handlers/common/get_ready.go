package common

import (
	"context"
	"net/http"
	"time"

	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/types"
	"github.com/SafeMPC/mint-service/internal/util"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
)

const readinessTimeout = 3 * time.Second

// GetReadyRoute 就绪检查：数据库与挑战存储均可达
func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return util.ValidateAndReturn(c, http.StatusServiceUnavailable, &types.HealthStatus{
				Status:    swag.String("not_ready"),
				Timestamp: strfmt.DateTime(now(s)),
			})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
		defer cancel()

		checks, healthy := s.CheckDependencies(ctx)

		status, code := "ready", http.StatusOK
		if !healthy {
			util.LogFromEchoContext(c).Warn().Interface("checks", checks).Msg("Readiness check failed")
			status, code = "not_ready", http.StatusServiceUnavailable
		}

		return util.ValidateAndReturn(c, code, &types.HealthStatus{
			Status:    swag.String(status),
			Checks:    checks,
			Timestamp: strfmt.DateTime(now(s)),
		})
	}
}
