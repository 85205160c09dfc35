package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"cachegate/internal/auth"
	"cachegate/internal/metrics"
)

// Auth enforces presign-or-bearer authentication on the bucket object
// routes. It is mounted only on that route group, never globally, matching
// the original handler's layering: /stats, /metrics, and /health stay open.
func Auth(state *auth.State, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bucket := c.Params("bucketId")
		path := c.Params("*")
		sig := c.Query("sig")
		headers := http.Header{"Authorization": []string{c.Get(fiber.HeaderAuthorization)}}

		method, err := state.Authenticate(headers, sig, c.Method(), bucket, path, time.Now())
		if err != nil {
			label := string(method)
			if label == "" {
				label = "unknown"
			}
			m.IncAuthFailure(label)
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		c.Locals(AuthMethodLocalKey, string(method))
		c.Locals(BucketIDLocalKey, bucket)
		return c.Next()
	}
}
