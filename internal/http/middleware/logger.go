package middleware

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Local keys the object handlers (cache_outcome) and the Auth middleware
// (auth_method, bucket_id) fill in so Logger can report per-request outcome
// fields without the handler and the logger importing each other.
const (
	CacheOutcomeLocalKey = "cache_outcome"
	AuthMethodLocalKey   = "auth_method"
	BucketIDLocalKey     = "bucket_id"
)

// Logger writes one JSON object per request to stdout. Required fields:
// request_id (from RequestID), method, path, status, latency_ms; optional
// fields are included only when the handler populated them.
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout)
}

// LoggerWithWriter is Logger with an explicit sink, so tests can inspect the
// emitted records without touching stdout.
func LoggerWithWriter(w io.Writer) fiber.Handler {
	enc := json.NewEncoder(w)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := map[string]any{
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
			"request_id": localString(c, RequestIDLocalKey),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"latency_ms": float64(time.Since(start).Microseconds()) / 1000,
		}
		if v := localString(c, CacheOutcomeLocalKey); v != "" {
			fields["cache_outcome"] = v
		}
		if v := localString(c, AuthMethodLocalKey); v != "" {
			fields["auth_method"] = v
		}
		if v := localString(c, BucketIDLocalKey); v != "" {
			fields["bucket_id"] = v
		}

		_ = enc.Encode(fields)

		return err
	}
}

func localString(c *fiber.Ctx, key string) string {
	v, _ := c.Locals(key).(string)
	return v
}
