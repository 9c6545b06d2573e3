package album

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Dylan-B-D/photo-gallery/internal/auth"
	"github.com/Dylan-B-D/photo-gallery/internal/middleware"
)

// RegisterRoutes sets up the album and image routes. Reads are public;
// every mutating route requires an admin session. Uploads additionally get
// a per-IP rate limit since a batch occupies CPU for its whole transcode.
func RegisterRoutes(e *echo.Echo, h *Handler, authService auth.AuthService) {
	requireAdmin := auth.RequireAdmin(authService)

	e.GET("/api/albums", h.List)
	e.GET("/api/albums/:id", h.Get)

	e.POST("/api/albums", h.Create, requireAdmin)
	e.PUT("/api/albums/:id", h.Update, requireAdmin)
	e.DELETE("/api/albums/:id", h.Delete, requireAdmin)

	e.POST("/api/albums/:id/images", h.Upload, requireAdmin, middleware.RateLimit(10, time.Minute))
	e.DELETE("/api/images/:id", h.DeleteImage, requireAdmin)
}
