package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// authMiddleware enforces the configured bearer token on the API group.
// With no token configured the API is open; there are no built-in
// credentials.
func (c *Controller) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := c.Settings.WebServer.AuthToken
		if token == "" {
			return next(ctx)
		}

		header := ctx.Request().Header.Get(echo.HeaderAuthorization)
		supplied, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.recordAuth("missing")
			return ctx.JSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		}

		if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			c.recordAuth("rejected")
			return ctx.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		}

		c.recordAuth("success")
		return next(ctx)
	}
}

func (c *Controller) recordAuth(status string) {
	if c.metrics != nil {
		c.metrics.HTTP.RecordAuth(status)
	}
}
