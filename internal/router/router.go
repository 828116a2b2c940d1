package router // route registration for the catalog cache API

import (
	"github.com/labstack/echo/v4"

	"github.com/samajapp/catalog-sync/internal/handler"
	"github.com/samajapp/catalog-sync/internal/middleware"
)

// RegisterRoutes registers routes that need no other wiring. Currently it
// exposes only a health check used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterCatalog registers the public catalog read endpoints. cache is the
// Redis response-cache middleware (pass-through when Redis is absent). These
// routes never require authentication: the catalog is the same public data
// the organization's website shows.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	// Bounded snapshot of upcoming events, date descending, TBA first.
	g.GET("/events", h.GetEvents)
	// Per-event sub-resources. Each performs an on-demand refresh first and
	// serves cached rows either way.
	g.GET("/events/:id/ticket-types", h.GetTicketTypes)
	g.GET("/events/:id/slots", h.GetSlots)
	g.GET("/events/:id/programs", h.GetPrograms)
}

// RegisterSync registers the sync trigger endpoints. Both are rate limited;
// the forced full resync additionally requires an admin bearer token since
// it rewrites the entire cache.
func RegisterSync(e *echo.Echo, h *handler.SyncHandler, limit echo.MiddlewareFunc, jwtSecret string) {
	g := e.Group("/v1/sync", limit)
	g.POST("", h.Trigger)
	g.POST("/full", h.TriggerFull, middleware.RequireAdminToken(jwtSecret))
}
