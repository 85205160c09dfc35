package handler

import (
	"github.com/gofiber/fiber/v2"

	"cachegate/internal/cache"
	"cachegate/internal/metrics"
)

// Stats serves the JSON snapshot endpoint; Metrics also serves the
// Prometheus text exposition over the same counters via promhttp.
type Stats struct {
	metrics *metrics.Metrics
	cache   *cache.Cache
}

// NewStats builds the /stats handler over the shared metrics sink and cache.
func NewStats(m *metrics.Metrics, c *cache.Cache) *Stats {
	return &Stats{metrics: m, cache: c}
}

// Get handles GET /stats.
func (s *Stats) Get(c *fiber.Ctx) error {
	snapshot := s.metrics.Snapshot(s.cache.Len(), s.cache.SizeBytes())
	return c.Status(fiber.StatusOK).JSON(snapshot)
}
