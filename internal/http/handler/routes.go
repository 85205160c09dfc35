package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cachegate/internal/auth"
	"cachegate/internal/cache"
	"cachegate/internal/fetcher"
	"cachegate/internal/http/middleware"
	"cachegate/internal/metrics"
)

// RegisterRoutes attaches every HTTP route to app. The bucket object routes
// are the only ones gated behind middleware.Auth; /stats, /metrics, /health,
// and the documentation routes stay open, matching the original's router
// split between the protected and unprotected sub-routers.
func RegisterRoutes(app *fiber.App, f *fetcher.Fetcher, authState *auth.State, m *metrics.Metrics, c *cache.Cache) {
	objects := NewObjects(f)
	stats := NewStats(m, c)

	app.Get("/health", Health)
	app.Get("/stats", stats.Get)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))

	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("docs/openapi.yaml")
	})
	app.Get("/docs/*", swagger.HandlerDefault)

	// Auth is attached to each object route rather than to the group so it
	// sees the "*" path parameter. Head is registered before Get because
	// Get also registers a HEAD route for the same path.
	requireAuth := middleware.Auth(authState, m)
	protected := app.Group("/:bucketId")
	protected.Head("/*", requireAuth, objects.Head)
	protected.Get("/*", requireAuth, objects.Get)
	protected.Put("/*", requireAuth, objects.Put)
}
