package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on
// endpoint. Session state is live data, so almost everything here is
// no-store; only the infrastructure endpoints allow short shared caching.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600" // Docs only change on deploy

		case strings.HasPrefix(path, "/v1/sessions/"):
			ttl = "no-store" // Live per-session state, never shared
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
