package domain

import (
	"fmt"
	"time"
)

// AccuracyProfile names a tradeoff between location precision, acquisition
// latency, and power use.
type AccuracyProfile string

const (
	AccuracyHigh     AccuracyProfile = "high"
	AccuracyBalanced AccuracyProfile = "balanced"
	AccuracyLow      AccuracyProfile = "low"
)

// DefaultAccuracyProfile is used when a session does not pick one.
const DefaultAccuracyProfile = AccuracyHigh

// ParseAccuracyProfile validates a profile name.
func ParseAccuracyProfile(s string) (AccuracyProfile, error) {
	switch AccuracyProfile(s) {
	case AccuracyHigh, AccuracyBalanced, AccuracyLow:
		return AccuracyProfile(s), nil
	}
	return "", fmt.Errorf("unknown accuracy profile %q", s)
}

// AcquireOptions parameterize a single one-shot position request.
type AcquireOptions struct {
	HighAccuracy bool          `json:"high_accuracy"`
	Timeout      time.Duration `json:"timeout"`
	MaxCacheAge  time.Duration `json:"max_cache_age"`
}

// Options maps a profile to its fixed acquisition tuple. The mapping is static:
// changing the profile never touches an in-flight acquisition, only the next one.
func (p AccuracyProfile) Options() AcquireOptions {
	switch p {
	case AccuracyBalanced:
		return AcquireOptions{HighAccuracy: false, Timeout: 8 * time.Second, MaxCacheAge: 30 * time.Second}
	case AccuracyLow:
		return AcquireOptions{HighAccuracy: false, Timeout: 5 * time.Second, MaxCacheAge: 5 * time.Minute}
	default:
		return AcquireOptions{HighAccuracy: true, Timeout: 10 * time.Second, MaxCacheAge: 0}
	}
}

// RawPosition is an unnormalized sample from a location provider.
type RawPosition struct {
	Coordinate    Coordinate `json:"coordinate"`
	AccuracyMeter float64    `json:"accuracy_meters"`
	ObservedAt    time.Time  `json:"observed_at"`
}

// LocationPhase tags the location state machine.
type LocationPhase string

const (
	LocationIdle        LocationPhase = "idle"
	LocationAcquiring   LocationPhase = "acquiring"
	LocationAvailable   LocationPhase = "available"
	LocationDenied      LocationPhase = "denied"
	LocationUnsupported LocationPhase = "unsupported"
)

// LocationState is the tagged variant owned by the location controller.
// Origin is set only in the available phase, Reason only in denied/unsupported.
type LocationState struct {
	Phase   LocationPhase   `json:"phase"`
	Origin  *Coordinate     `json:"origin,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	Profile AccuracyProfile `json:"profile"`
}

// User-facing messages for the location error states, matching the shell's copy.
const (
	MsgLocationUnsupported = "Geolocation is not supported by your browser."
	MsgLocationDenied      = "Location access denied. Please allow location to search nearby stores."
)
