package usecases

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cheapstop/gateway/internal/core/domain"
	"github.com/cheapstop/gateway/internal/core/ports"
	"github.com/cheapstop/gateway/internal/pkg/metrics"
)

// Session bundles the two state machines that make up one shopper's visit.
// Nothing here is persisted; a session dies with the process or its TTL.
type Session struct {
	ID        string
	Location  *LocationController
	Search    *SearchSession
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Snapshot is the wire representation of a session's full state, pushed to
// subscribed clients on every transition and served by the state endpoint.
type Snapshot struct {
	SessionID   string               `json:"session_id"`
	Location    domain.LocationState `json:"location"`
	Search      domain.SearchState   `json:"search"`
	SelectedID  string               `json:"selected_store_id,omitempty"`
	BestPitStop *domain.StoreResult  `json:"best_pit_stop,omitempty"`
}

// Snapshot assembles the current combined state.
func (s *Session) Snapshot() Snapshot {
	search := s.Search.State()
	return Snapshot{
		SessionID:   s.ID,
		Location:    s.Location.State(),
		Search:      search,
		SelectedID:  s.Search.SelectedID(),
		BestPitStop: search.Results.BestPitStop(),
	}
}

// SessionManager owns the in-memory session registry. It wires each new
// session's state machines to their collaborators and evicts idle sessions.
type SessionManager struct {
	provider  ports.LocationProvider
	pricing   ports.PricingService
	publisher ports.EventPublisher
	cache     ports.CacheService
	launcher  ports.NavigationLauncher
	ttl       time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty registry. publisher, cache, and launcher
// may be nil; provider may be nil to model an unsupported platform.
func NewSessionManager(
	provider ports.LocationProvider,
	pricing ports.PricingService,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	launcher ports.NavigationLauncher,
	ttl time.Duration,
) *SessionManager {
	return &SessionManager{
		provider:  provider,
		pricing:   pricing,
		publisher: publisher,
		cache:     cache,
		launcher:  launcher,
		ttl:       ttl,
		sessions:  make(map[string]*Session),
	}
}

// Create registers a new session and returns it.
func (m *SessionManager) Create() *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Location:  NewLocationController(m.provider),
		CreatedAt: now,
		lastSeen:  now,
	}
	s.Search = NewSearchSession(s.ID, s.Location, m.pricing, m.publisher, m.cache, m.launcher)

	// Push a combined snapshot on every transition of either machine.
	s.Location.SetOnChange(func(domain.LocationState) { m.publishSnapshot(s) })
	s.Search.SetOnChange(func(domain.SearchState, string) { m.publishSnapshot(s) })

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()
	metrics.SessionsActive.Set(float64(count))

	return s
}

// Get returns a live session and refreshes its idle timer.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) publishSnapshot(s *Session) {
	if m.publisher == nil {
		return
	}
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.publisher.PublishSessionState(ctx, s.ID, data); err != nil {
		slog.Debug("session state publish failed", "session_id", s.ID, "error", err)
	}
}

// Run sweeps idle sessions until the context is canceled.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *SessionManager) evictIdle() {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()
	metrics.SessionsActive.Set(float64(count))
}
