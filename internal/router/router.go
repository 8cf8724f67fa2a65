package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"dromeport/internal/config"
	"dromeport/internal/handler/api"
	"dromeport/internal/job"
	"dromeport/internal/middleware"
	"dromeport/internal/pkg/metadata"
	"dromeport/internal/repository"
	"dromeport/internal/scheduler"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	cfg *config.Config,
	jobs *job.Manager,
	engine *scheduler.Engine,
	syncRepo *repository.SyncPlaylistRepository,
	logger *zap.Logger,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Handlers
	downloadHandler := api.NewDownloadHandler(jobs, cfg.Tools, logger)
	syncHandler := api.NewSyncHandler(syncRepo, engine, metadata.NewClient(), logger)
	toolsHandler := api.NewToolsHandler(cfg.Tools, logger)
	configHandler := api.NewConfigHandler(cfg)

	apiGroup := e.Group("/api")

	apiGroup.GET("/config", configHandler.Get)

	apiGroup.GET("/tools/versions", toolsHandler.Versions)
	apiGroup.GET("/tools/update", toolsHandler.Update)

	apiGroup.GET("/download", downloadHandler.List)
	apiGroup.GET("/download/stream", downloadHandler.Stream)
	apiGroup.GET("/download/:id/stream", downloadHandler.Attach)
	apiGroup.DELETE("/download/:id", downloadHandler.Cancel)

	apiGroup.GET("/sync/playlists", syncHandler.List)
	apiGroup.POST("/sync/playlists", syncHandler.Create)
	apiGroup.PUT("/sync/playlists/:id", syncHandler.Update)
	apiGroup.DELETE("/sync/playlists/:id", syncHandler.Delete)
	apiGroup.GET("/sync/playlists/:id/run", syncHandler.Run)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
