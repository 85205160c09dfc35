package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"cachegate/internal/http/middleware"
	"cachegate/internal/store"
)

// errorPayload defines the standardized error response body. The message is
// always a fixed, generic string per error class; it never echoes internal
// detail about why a request failed, matching the auth package's refusal to
// let its error taxonomy leak to callers.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// storeError maps the store package's error taxonomy to the fixed status
// codes spec.md assigns them: not-found and unknown-bucket both surface as
// 404 (with distinct messages, "object not found" and "unknown bucket"),
// everything else upstream is a 502.
func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "object not found")
	case errors.Is(err, store.ErrUnknownBucket):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "unknown bucket")
	default:
		return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "upstream error")
	}
}

// ErrorHandler is the Fiber-level fallback for errors that escape handlers
// unmapped, such as fiber.NewError calls from middleware.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "unauthorized")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
