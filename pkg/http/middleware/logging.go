package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/logger"
)

// RequestLogging logs one line per request. Server-side failures log at
// error, everything else at debug so steady-state traffic stays quiet.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if l == nil {
				return err
			}

			fields := []applogger.Field{
				applogger.String("method", c.Request().Method),
				applogger.String("path", c.Path()),
				applogger.Int("status", c.Response().Status),
				applogger.String("remote", c.RealIP()),
				applogger.Duration("duration_ms", time.Since(start)),
			}
			if c.Response().Status >= 500 {
				l.Error("http request failed", fields...)
			} else {
				l.Debug("http request", fields...)
			}
			return err
		}
	}
}
