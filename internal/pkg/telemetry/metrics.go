package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Search funnel
	MetricSearchLatency     = "search.round_trip_latency"
	MetricLocationFixAge    = "location.fix_age_seconds"
	MetricStaleDropRate     = "search.stale_drop_rate"
	MetricNavigationHandoff = "navigation.handoffs_per_session"

	// Availability
	MetricUptime = "service.uptime_percentage"
)
