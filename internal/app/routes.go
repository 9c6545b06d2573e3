package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Dylan-B-D/photo-gallery/internal/album"
	"github.com/Dylan-B-D/photo-gallery/internal/auth"
	"github.com/Dylan-B-D/photo-gallery/internal/ingest"
)

// RegisterRoutes sets up all application routes. It constructs each
// package's repository, service and handler chain and delegates to its
// route registration function.
//
// This is the single place where all routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for Docker health monitoring. Verifies both
	// backing stores, not just process liveness.
	e.GET("/healthz", func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := a.DB.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
		}
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Stored images, served straight from the uploads tree. Filenames are
	// UUIDs and never change, so clients may cache forever.
	uploads := e.Group("/uploads", cacheForever)
	uploads.Static("/", a.Config.Upload.Path)

	// --- Auth ---
	authService := auth.NewAuthService(a.Config.Admin, a.Redis)
	authHandler := auth.NewHandler(authService, a.Config.Admin.SessionTTL, !a.Config.IsDevelopment())
	auth.RegisterRoutes(e, authHandler)

	// --- Albums and images ---
	files := ingest.NewStore(a.Config.Upload.Path)
	transcoder := ingest.NewTranscoder(0)
	repo := album.NewAlbumRepository(a.DB)
	ingestor := ingest.NewIngestor(files, transcoder, repo)
	albumService := album.NewAlbumService(repo, files, ingestor)
	album.RegisterRoutes(e, album.NewHandler(albumService), authService)
}

// cacheForever marks responses as immutable for client caching.
func cacheForever(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		return next(c)
	}
}
