package server

import (
	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/wikigraph/internal/server/routes"
	"github.com/OFFIS-RIT/wikigraph/pkg/graph"
	"github.com/OFFIS-RIT/wikigraph/pkg/store"
)

func RegisterRoutes(e *echo.Echo, s store.Store, assigner *graph.Assigner) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	e.GET("/", routes.IndexHandler)
	e.GET("/article", routes.GetArticleHandler(s, assigner))
}
