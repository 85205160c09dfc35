package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"cachegate/internal/metrics"
)

// Metrics records the requests_total counter over method and final status,
// excluding /metrics itself so scraping never inflates its own count.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		err := c.Next()

		status := c.Response().StatusCode()
		if fiberErr, ok := err.(*fiber.Error); ok {
			status = fiberErr.Code
		}

		m.IncRequests(c.Method(), strconv.Itoa(status))
		return err
	}
}
