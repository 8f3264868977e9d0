package ports

import (
	"context"
	"errors"

	"github.com/cheapstop/gateway/internal/core/domain"
)

// Provider errors the location controller maps onto its Denied state.
// Anything else from a provider is treated as a generic acquisition failure.
var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrAcquireTimeout   = errors.New("location acquisition timed out")
)

// LocationProvider supplies one asynchronous, possibly-failing, possibly-
// imprecise coordinate sample on demand. There is no cancel primitive beyond
// the context: superseded results are dropped by the caller, not aborted here.
type LocationProvider interface {
	CurrentPosition(ctx context.Context, opts domain.AcquireOptions) (*domain.RawPosition, error)
}

// PricingService prices a free-text basket near an origin and returns a
// ranked store list. Contract only; ranking is the remote service's business.
type PricingService interface {
	SearchStores(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error)
}

// NavigationLauncher opens an external driving-directions view. Fire and
// forget: callers never wait for or inspect an outcome.
type NavigationLauncher interface {
	OpenRoute(ctx context.Context, sessionID string, req domain.NavigationRequest) error
}

// EventPublisher pushes session events to a message broker.
type EventPublisher interface {
	PublishSearchEvent(ctx context.Context, ev *domain.SearchEvent) error
	PublishSessionState(ctx context.Context, sessionID string, snapshot []byte) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
