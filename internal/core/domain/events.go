package domain

import "time"

// SearchEvent records a completed search interaction for analytics.
type SearchEvent struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Query       string    `json:"query"`
	OriginLat   float64   `json:"origin_lat"`
	OriginLng   float64   `json:"origin_lng"`
	RadiusMiles float64   `json:"radius_miles"`
	ResultCount int       `json:"result_count"`
	LatencyMs   int64     `json:"latency_ms"`
	Outcome     string    `json:"outcome"` // "succeeded" | "failed" | "superseded"
	CreatedAt   time.Time `json:"created_at"`
}
