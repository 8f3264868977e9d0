package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/cheapstop/gateway/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Deprecated sessionless search, kept for the original client
	app.Use(DeprecationMiddleware([]DeprecatedRoute{{
		Path:        "/api/search",
		SunsetDate:  time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Alternative: "/v1/sessions/{id}/search",
	}}))

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Session API v1 — 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Post("/sessions", timeout.NewWithContext(CreateSessionHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id", timeout.NewWithContext(GetSessionHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/location/request", timeout.NewWithContext(RequestLocationHandler(deps), 15*time.Second))
	v1.Put("/sessions/:id/location/refine", timeout.NewWithContext(RefineLocationHandler(deps), 15*time.Second))
	v1.Put("/sessions/:id/location/profile", timeout.NewWithContext(SetAccuracyProfileHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/search", timeout.NewWithContext(SubmitSearchHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id/results", timeout.NewWithContext(SearchResultsHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/selection/:storeId", timeout.NewWithContext(ToggleSelectionHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/navigate/:storeId", timeout.NewWithContext(NavigateHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id/map", timeout.NewWithContext(MapViewHandler(deps), 15*time.Second))

	// Deprecated passthrough to the pricing backend (original client contract)
	app.Post("/api/search", timeout.NewWithContext(LegacySearchHandler(deps), 20*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
