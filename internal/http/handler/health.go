package handler

import "github.com/gofiber/fiber/v2"

// Health is a liveness probe with no dependency checks: the cache, registry,
// and auth state are all in-memory and can't fail independently of the
// process itself.
func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("OK")
}
