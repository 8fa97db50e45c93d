// Package server exposes projects and live previews over HTTP. It is the glue
// between the stored flat file mappings, the per-request virtual file system,
// the transformer, and the browser-side preview host.
package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and middleware
func SetupRouter(handler *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	e.Use(RequestLogger())

	// Health
	e.GET("/health", handler.HandleHealth)

	// Project CRUD
	e.POST("/api/projects", handler.HandleCreateProject)
	e.GET("/api/projects", handler.HandleListProjects)
	e.GET("/api/projects/:id", handler.HandleGetProject)
	e.DELETE("/api/projects/:id", handler.HandleDeleteProject)
	e.PUT("/api/projects/:id/files", handler.HandleSaveFiles)

	// Agent tool dispatch
	e.POST("/api/projects/:id/tools", handler.HandleToolUse)

	// Preview surface: the import map references module addresses under
	// /preview/:id/modules, so these routes must stay in step with the
	// transformer's ModuleBasePath
	e.GET("/api/projects/:id/preview", handler.HandlePreview)
	e.GET("/preview/:id/importmap.json", handler.HandleImportMap)
	e.GET("/preview/:id/styles.css", handler.HandleStyles)
	e.GET("/preview/:id/modules/*", handler.HandleModule)

	return e
}
