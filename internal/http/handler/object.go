package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"cachegate/internal/fetcher"
	"cachegate/internal/http/middleware"
)

// Objects serves the bucket object routes: GET, HEAD, and PUT under
// /:bucketId/*.
type Objects struct {
	fetcher *fetcher.Fetcher
}

// NewObjects builds the object route handlers over the shared fetcher.
func NewObjects(f *fetcher.Fetcher) *Objects {
	return &Objects{fetcher: f}
}

// CacheStatusHeader reports whether the response body came from cache.
const CacheStatusHeader = "X-CG-Status"

func validatePath(path string) bool {
	return path != "" && !strings.HasPrefix(path, "/") && !strings.Contains(path, "..")
}

// Get handles GET /:bucketId/*, serving the object from cache when present
// and otherwise coalescing the upstream fetch through the singleflight
// coordinator.
func (o *Objects) Get(c *fiber.Ctx) error {
	bucketID := c.Params("bucketId")
	path := c.Params("*")
	if !validatePath(path) {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid object path")
	}

	_, alreadyCached := o.fetcher.CacheGet(bucketID, path)

	obj, err := o.fetcher.Fetch(c.UserContext(), bucketID, path)
	if err != nil {
		c.Locals(middleware.CacheOutcomeLocalKey, "miss")
		return storeError(c, err)
	}

	outcome := "miss"
	if alreadyCached {
		outcome = "hit"
	}
	c.Locals(middleware.CacheOutcomeLocalKey, outcome)

	c.Set(fiber.HeaderContentType, obj.ContentType)
	c.Set(CacheStatusHeader, cacheStatusValue(alreadyCached))
	return c.Status(fiber.StatusOK).Send(obj.Bytes)
}

// Head handles HEAD /:bucketId/*. A cache hit answers from the cached
// object's metadata without touching the store; a miss consults the store
// directly and, when ?prefetch=1 is set, kicks off an asynchronous warm
// without blocking the response.
func (o *Objects) Head(c *fiber.Ctx) error {
	bucketID := c.Params("bucketId")
	path := c.Params("*")
	if !validatePath(path) {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid object path")
	}

	if obj, ok := o.fetcher.CacheGet(bucketID, path); ok {
		c.Locals(middleware.CacheOutcomeLocalKey, "hit")
		c.Set(fiber.HeaderContentType, obj.ContentType)
		c.Set(fiber.HeaderContentLength, strconv.FormatUint(obj.Size, 10))
		c.Set(CacheStatusHeader, cacheStatusValue(true))
		c.Status(fiber.StatusOK)
		return nil
	}

	c.Locals(middleware.CacheOutcomeLocalKey, "miss")

	meta, err := o.fetcher.Head(c.UserContext(), bucketID, path)
	if err != nil {
		return storeError(c, err)
	}

	if parsePrefetch(c.Query("prefetch")) {
		o.fetcher.Prefetch(bucketID, path)
	}

	c.Set(fiber.HeaderContentType, meta.ContentType)
	c.Set(fiber.HeaderContentLength, strconv.FormatUint(meta.Size, 10))
	c.Set(CacheStatusHeader, cacheStatusValue(false))
	c.Status(fiber.StatusOK)
	return nil
}

// Put handles PUT /:bucketId/*, writing the request body to the store and,
// when it fits within the cache's per-object budget, inserting it directly
// so the next GET is a hit.
func (o *Objects) Put(c *fiber.Ctx) error {
	bucketID := c.Params("bucketId")
	path := c.Params("*")
	if !validatePath(path) {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid object path")
	}

	contentType := c.Get(fiber.HeaderContentType)
	body := c.Body()

	if err := o.fetcher.Put(c.UserContext(), bucketID, path, body, contentType); err != nil {
		return storeError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func cacheStatusValue(hit bool) string {
	if hit {
		return "hit=1"
	}
	return "hit=0"
}

func parsePrefetch(value string) bool {
	switch value {
	case "1", "true":
		return true
	case "0", "false", "":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return false
}
