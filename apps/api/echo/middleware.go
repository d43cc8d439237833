package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/scibridge/scibridge/services/metrics"
)

// metricsMiddleware counts every request by route pattern, so path parameters do not explode the label set.
func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if err := next(ctx); err != nil {
			ctx.Error(err)
		}
		path := ctx.Path()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequest(ctx.Request().Method, path, ctx.Response().Status)
		return nil
	}
}
