package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cheapstop/gateway/internal/core/domain"
	"github.com/cheapstop/gateway/internal/core/ports"
	"github.com/cheapstop/gateway/internal/pkg/metrics"
)

const searchCacheTTLSeconds = 120

// OriginSource yields the current origin coordinate when one is available.
// *LocationController satisfies it.
type OriginSource interface {
	Origin() (domain.Coordinate, bool)
}

// SearchSession owns one basket-search request/response cycle and the
// currently highlighted store. Overlapping submissions follow the same
// generation-token, last-request-wins discipline as the location controller:
// a response is applied only if no newer submission has started since.
type SearchSession struct {
	mu        sync.Mutex
	sessionID string
	origin    OriginSource
	pricing   ports.PricingService
	publisher ports.EventPublisher     // optional
	cache     ports.CacheService       // optional
	launcher  ports.NavigationLauncher // optional

	radius   float64
	state    domain.SearchState
	selected string
	gen      uint64
	onChange func(domain.SearchState, string)
}

// NewSearchSession creates a session with no results. publisher, cache, and
// launcher may be nil; the core works without any of them.
func NewSearchSession(
	sessionID string,
	origin OriginSource,
	pricing ports.PricingService,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	launcher ports.NavigationLauncher,
) *SearchSession {
	return &SearchSession{
		sessionID: sessionID,
		origin:    origin,
		pricing:   pricing,
		publisher: publisher,
		cache:     cache,
		launcher:  launcher,
		radius:    domain.DefaultRadiusMiles,
		state:     domain.SearchState{Phase: domain.SearchNoResults},
	}
}

// SetOnChange registers a callback invoked (outside the lock) after every
// transition with the new state and the selected store id.
func (s *SearchSession) SetOnChange(fn func(domain.SearchState, string)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *SearchSession) notify(state domain.SearchState, selected string) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(state, selected)
	}
}

// State returns the current search state.
func (s *SearchSession) State() domain.SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectedID returns the selected store id, empty when nothing is selected.
func (s *SearchSession) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Selected resolves the selected store within the live result set.
func (s *SearchSession) Selected() (*domain.StoreResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" || s.state.Phase != domain.SearchSucceeded {
		return nil, false
	}
	for i := range s.state.Results.Stores {
		if s.state.Results.Stores[i].StoreID == s.selected {
			store := s.state.Results.Stores[i]
			return &store, true
		}
	}
	return nil, false
}

// SubmitSearch issues one pricing request for the given free-text items.
// Guarded no-op (returns false, state untouched) when no origin is available;
// the UI disables the search action in that case rather than surfacing an
// error. A submission while a prior one is pending supersedes it.
func (s *SearchSession) SubmitSearch(ctx context.Context, items string) bool {
	origin, ok := s.origin.Origin()
	if !ok {
		return false
	}

	query := domain.SearchQuery{Items: items, Origin: origin, RadiusMiles: s.radius}

	s.mu.Lock()
	s.gen++
	issued := s.gen
	s.selected = ""
	s.state = domain.SearchState{Phase: domain.SearchSearching}
	state := s.state
	s.mu.Unlock()
	s.notify(state, "")

	go s.runSearch(ctx, issued, query)
	return true
}

func (s *SearchSession) runSearch(ctx context.Context, issued uint64, query domain.SearchQuery) {
	started := time.Now()

	results, cached := s.cachedResults(ctx, query)
	var err error
	if !cached {
		results, err = s.pricing.SearchStores(ctx, query)
	}
	latency := time.Since(started)

	s.mu.Lock()
	if s.gen != issued {
		// A newer submission superseded this one; drop the response whether it
		// succeeded or failed.
		s.mu.Unlock()
		metrics.StaleResultsDropped.WithLabelValues("search").Inc()
		return
	}

	outcome := "succeeded"
	if err != nil {
		// A failure replaces any previously displayed result set: a stale best
		// pit stop is worse than an honest error banner.
		slog.Warn("basket search failed", "session_id", s.sessionID, "error", err)
		s.state = domain.SearchState{Phase: domain.SearchFailed, Message: domain.MsgSearchFailed}
		outcome = "failed"
	} else {
		s.state = domain.SearchState{Phase: domain.SearchSucceeded, Results: results}
	}
	state := s.state
	s.mu.Unlock()
	s.notify(state, "")

	metrics.SearchesTotal.WithLabelValues(outcome).Inc()
	metrics.SearchDuration.Observe(latency.Seconds())

	if err == nil && !cached {
		s.storeInCache(ctx, query, results)
	}
	s.publishSearchEvent(query, results, latency, outcome)
}

func (s *SearchSession) cachedResults(ctx context.Context, query domain.SearchQuery) (*domain.SearchResultSet, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, searchCacheKey(query))
	if err != nil {
		metrics.CacheMisses.WithLabelValues("search").Inc()
		return nil, false
	}
	var rs domain.SearchResultSet
	if err := json.Unmarshal(data, &rs); err != nil || rs.Validate() != nil {
		metrics.CacheMisses.WithLabelValues("search").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("search").Inc()
	return &rs, true
}

func (s *SearchSession) storeInCache(ctx context.Context, query domain.SearchQuery, rs *domain.SearchResultSet) {
	if s.cache == nil || rs == nil {
		return
	}
	if data, err := json.Marshal(rs); err == nil {
		_ = s.cache.Set(ctx, searchCacheKey(query), data, searchCacheTTLSeconds)
	}
}

// searchCacheKey identifies one query: identical items from the same
// (normalized) origin within the same radius share an entry.
func searchCacheKey(q domain.SearchQuery) string {
	return fmt.Sprintf("search:%s:%.6f:%.6f:%.0f", q.Items, q.Origin.Lat, q.Origin.Lng, q.RadiusMiles)
}

func (s *SearchSession) publishSearchEvent(query domain.SearchQuery, rs *domain.SearchResultSet, latency time.Duration, outcome string) {
	if s.publisher == nil {
		return
	}
	count := 0
	if rs != nil {
		count = len(rs.Stores)
	}
	ev := &domain.SearchEvent{
		ID:          uuid.NewString(),
		SessionID:   s.sessionID,
		Query:       query.Items,
		OriginLat:   query.Origin.Lat,
		OriginLng:   query.Origin.Lng,
		RadiusMiles: query.RadiusMiles,
		ResultCount: count,
		LatencyMs:   latency.Milliseconds(),
		Outcome:     outcome,
		CreatedAt:   time.Now().UTC(),
	}
	// Analytics only; a broker hiccup must not affect the session.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.publisher.PublishSearchEvent(ctx, ev); err != nil {
		slog.Debug("search event publish failed", "session_id", s.sessionID, "error", err)
	}
}

// ToggleSelect selects a store, or clears the selection when the store is
// already selected. Unknown ids are ignored: the selection is always a subset
// of the live result set.
func (s *SearchSession) ToggleSelect(storeID string) {
	s.mu.Lock()
	if s.state.Phase != domain.SearchSucceeded || !s.state.Results.Contains(storeID) {
		s.mu.Unlock()
		return
	}
	if s.selected == storeID {
		s.selected = ""
	} else {
		s.selected = storeID
	}
	state := s.state
	selected := s.selected
	s.mu.Unlock()
	s.notify(state, selected)
	metrics.SelectionToggles.Inc()
}

// Navigate builds the external navigation descriptor for a store in the live
// result set and hands it off fire-and-forget. The descriptor is returned so
// the API can echo the URL; the hand-off outcome is never awaited.
func (s *SearchSession) Navigate(storeID string) (domain.NavigationRequest, error) {
	origin, ok := s.origin.Origin()
	if !ok {
		return domain.NavigationRequest{}, fmt.Errorf("no origin available")
	}

	s.mu.Lock()
	var dest *domain.Coordinate
	if s.state.Phase == domain.SearchSucceeded {
		for i := range s.state.Results.Stores {
			if s.state.Results.Stores[i].StoreID == storeID {
				dest = &s.state.Results.Stores[i].Coordinate
				break
			}
		}
	}
	s.mu.Unlock()

	if dest == nil {
		return domain.NavigationRequest{}, fmt.Errorf("store %q not in current results", storeID)
	}

	req := domain.NewNavigationRequest(origin, *dest)
	if s.launcher != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.launcher.OpenRoute(ctx, s.sessionID, req); err != nil {
				slog.Debug("navigation hand-off failed", "session_id", s.sessionID, "error", err)
			}
		}()
	}
	metrics.NavigationHandoffs.Inc()
	return req, nil
}
