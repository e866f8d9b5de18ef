package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Logger 为每个请求绑定带 request id 的 logger，并在结束时记录一行访问日志
func Logger(cfg config.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			var body []byte
			if cfg.LogRequestBody && req.Body != nil {
				body, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(body))
			}

			l := log.With().Str("id", id).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			if err := next(c); err != nil {
				c.Error(err)
			}

			event := l.WithLevel(cfg.RequestLevel).
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Str("ip", c.RealIP()).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("duration", time.Since(start))
			if len(body) > 0 {
				event = event.Bytes("body", body)
			}
			event.Msg("http_request")

			return nil
		}
	}
}
