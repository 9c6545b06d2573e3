package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Dylan-B-D/photo-gallery/internal/middleware"
)

// RegisterRoutes sets up the auth routes on the given Echo instance.
// All three routes are public -- the admin middleware is exported separately
// for the album routes to use.
//
// Login is rate-limited to 10 attempts per IP per minute to slow down
// brute-force attacks against the single admin account.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.POST("/api/login", h.Login, middleware.RateLimit(10, time.Minute))
	e.POST("/api/logout", h.Logout)
	e.GET("/api/verify", h.Verify)
}
