package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cheapstop",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cheapstop",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cheapstop",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Session-domain metrics
	LocationAcquisitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cheapstop",
		Subsystem: "location",
		Name:      "acquisitions_total",
		Help:      "Location acquisitions by accuracy profile and outcome",
	}, []string{"profile", "outcome"})

	StaleResultsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cheapstop",
		Subsystem: "session",
		Name:      "stale_results_dropped_total",
		Help:      "Async results discarded because a newer request superseded them",
	}, []string{"operation"})

	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cheapstop",
		Subsystem: "search",
		Name:      "requests_total",
		Help:      "Basket searches by outcome",
	}, []string{"outcome"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cheapstop",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Round-trip latency of pricing service searches",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	SelectionToggles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cheapstop",
		Subsystem: "search",
		Name:      "selection_toggles_total",
		Help:      "Store selection toggle actions",
	})

	NavigationHandoffs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cheapstop",
		Subsystem: "navigation",
		Name:      "handoffs_total",
		Help:      "External navigation hand-offs published",
	})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cheapstop",
		Subsystem: "session",
		Name:      "active",
		Help:      "Sessions currently held in memory",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cheapstop",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cheapstop",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cheapstop",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
