package usecases_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cheapstop/gateway/internal/core/domain"
	"github.com/cheapstop/gateway/internal/core/usecases"
)

// --- Mocks ---

type mockOrigin struct {
	mu    sync.Mutex
	coord domain.Coordinate
	ok    bool
}

func (m *mockOrigin) Origin() (domain.Coordinate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coord, m.ok
}

func (m *mockOrigin) set(c domain.Coordinate, ok bool) {
	m.mu.Lock()
	m.coord = c
	m.ok = ok
	m.mu.Unlock()
}

type mockPricing struct {
	fn func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error)
}

func (m *mockPricing) SearchStores(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
	if m.fn != nil {
		return m.fn(ctx, q)
	}
	return &domain.SearchResultSet{}, nil
}

type mockLauncher struct {
	mu     sync.Mutex
	opened []domain.NavigationRequest
}

func (m *mockLauncher) OpenRoute(ctx context.Context, sessionID string, req domain.NavigationRequest) error {
	m.mu.Lock()
	m.opened = append(m.opened, req)
	m.mu.Unlock()
	return nil
}

func (m *mockLauncher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.opened)
}

func availableOrigin() *mockOrigin {
	return &mockOrigin{coord: domain.Coordinate{Lat: 37.7749, Lng: -122.4194}, ok: true}
}

func megaMartResults() *domain.SearchResultSet {
	return &domain.SearchResultSet{Stores: []domain.StoreResult{{
		StoreID:       "A",
		StoreName:     "MegaMart",
		Coordinate:    domain.Coordinate{Lat: 37.78, Lng: -122.42},
		DistanceMiles: 1.2,
		TotalPrice:    12.50,
		Items: []domain.BasketItem{
			{Name: "eggs", Price: 4.00},
			{Name: "milk", Price: 3.50},
		},
	}}}
}

func newSession(origin usecases.OriginSource, pricing *mockPricing) *usecases.SearchSession {
	return usecases.NewSearchSession("test-session", origin, pricing, nil, nil, nil)
}

// --- Tests ---

func TestSubmitSearch_NoOrigin_IsGuardedNoOp(t *testing.T) {
	origin := &mockOrigin{ok: false}
	called := false
	pricing := &mockPricing{fn: func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
		called = true
		return megaMartResults(), nil
	}}
	sess := newSession(origin, pricing)

	if sess.SubmitSearch(context.Background(), "eggs, milk") {
		t.Error("expected submit to report not-started")
	}
	if called {
		t.Error("pricing service must not be called without an origin")
	}
	if s := sess.State(); s.Phase != domain.SearchNoResults {
		t.Errorf("state must be unchanged, got %v", s.Phase)
	}
}

func TestSubmitSearch_Success(t *testing.T) {
	pricing := &mockPricing{fn: func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
		if q.Items != "eggs, milk" {
			t.Errorf("unexpected items %q", q.Items)
		}
		if q.RadiusMiles != 10 {
			t.Errorf("expected fixed 10 mile radius, got %v", q.RadiusMiles)
		}
		if q.Origin.Lat != 37.7749 {
			t.Errorf("unexpected origin %v", q.Origin)
		}
		return megaMartResults(), nil
	}}
	sess := newSession(availableOrigin(), pricing)

	if !sess.SubmitSearch(context.Background(), "eggs, milk") {
		t.Fatal("expected submit to start")
	}

	waitFor(t, func() bool { return sess.State().Phase == domain.SearchSucceeded })

	s := sess.State()
	if len(s.Results.Stores) != 1 || s.Results.Stores[0].StoreName != "MegaMart" {
		t.Fatalf("unexpected results %+v", s.Results)
	}
	if best := s.Results.BestPitStop(); best == nil || best.StoreID != "A" {
		t.Errorf("unexpected best pit stop %+v", best)
	}
	if sess.SelectedID() != "" {
		t.Error("a fresh result set must start with no selection")
	}
}

func TestSubmitSearch_TransportFailure(t *testing.T) {
	pricing := &mockPricing{fn: func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
		return nil, errors.New("status 502")
	}}
	sess := newSession(availableOrigin(), pricing)

	sess.SubmitSearch(context.Background(), "eggs")
	waitFor(t, func() bool { return sess.State().Phase == domain.SearchFailed })

	if s := sess.State(); s.Message != "Failed to search" {
		t.Errorf("unexpected message %q", s.Message)
	}
}

func TestSubmitSearch_FailureReplacesPreviousResults(t *testing.T) {
	var fail bool
	pricing := &mockPricing{fn: func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return megaMartResults(), nil
	}}
	sess := newSession(availableOrigin(), pricing)

	sess.SubmitSearch(context.Background(), "eggs")
	waitFor(t, func() bool { return sess.State().Phase == domain.SearchSucceeded })

	fail = true
	sess.SubmitSearch(context.Background(), "eggs!")
	waitFor(t, func() bool { return sess.State().Phase == domain.SearchFailed })

	if s := sess.State(); s.Results != nil {
		t.Error("a failure must replace the stale result set, not keep it")
	}
}

func TestSubmitSearch_LastRequestWins(t *testing.T) {
	releaseFirst := make(chan struct{})
	firstDone := make(chan struct{})
	var call int
	var mu sync.Mutex

	pricing := &mockPricing{fn: func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
		mu.Lock()
		call++
		n := call
		mu.Unlock()
		if n == 1 {
			<-releaseFirst
			defer close(firstDone)
			return &domain.SearchResultSet{Stores: []domain.StoreResult{{
				StoreID: "OLD", StoreName: "Old Store",
				Coordinate: domain.Coordinate{Lat: 1, Lng: 1},
			}}}, nil
		}
		return megaMartResults(), nil
	}}
	sess := newSession(availableOrigin(), pricing)

	sess.SubmitSearch(context.Background(), "first")
	sess.SubmitSearch(context.Background(), "second")

	waitFor(t, func() bool {
		s := sess.State()
		return s.Phase == domain.SearchSucceeded && s.Results.Contains("A")
	})

	// The superseded response arrives late; it must be dropped.
	close(releaseFirst)
	<-firstDone
	time.Sleep(20 * time.Millisecond)

	if s := sess.State(); !s.Results.Contains("A") || s.Results.Contains("OLD") {
		t.Errorf("stale search response overwrote the newer one: %+v", s.Results)
	}
}

func TestSubmitSearch_ClearsSelection(t *testing.T) {
	pricing := &mockPricing{fn: func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
		return megaMartResults(), nil
	}}
	sess := newSession(availableOrigin(), pricing)

	sess.SubmitSearch(context.Background(), "eggs")
	waitFor(t, func() bool { return sess.State().Phase == domain.SearchSucceeded })
	sess.ToggleSelect("A")
	if sess.SelectedID() != "A" {
		t.Fatal("selection not applied")
	}

	sess.SubmitSearch(context.Background(), "eggs")
	if sess.SelectedID() != "" {
		t.Error("a new search must clear the selection immediately")
	}
}

func TestToggleSelect_Involution(t *testing.T) {
	pricing := &mockPricing{fn: func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
		return megaMartResults(), nil
	}}
	sess := newSession(availableOrigin(), pricing)

	sess.SubmitSearch(context.Background(), "eggs")
	waitFor(t, func() bool { return sess.State().Phase == domain.SearchSucceeded })

	sess.ToggleSelect("A")
	if store, ok := sess.Selected(); !ok || store.StoreID != "A" {
		t.Fatalf("expected store A selected, got %+v ok=%v", store, ok)
	}

	sess.ToggleSelect("A")
	if _, ok := sess.Selected(); ok {
		t.Error("toggling the selected store must clear the selection")
	}

	// Unknown ids never touch the selection.
	sess.ToggleSelect("Z")
	if sess.SelectedID() != "" {
		t.Error("unknown store id must be a no-op")
	}
}

func TestToggleSelect_WithoutResults_IsNoOp(t *testing.T) {
	sess := newSession(availableOrigin(), &mockPricing{})
	sess.ToggleSelect("A")
	if sess.SelectedID() != "" {
		t.Error("selection must stay empty without results")
	}
}

func TestNavigate_BuildsDrivingHandoff(t *testing.T) {
	pricing := &mockPricing{fn: func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
		return megaMartResults(), nil
	}}
	launcher := &mockLauncher{}
	sess := usecases.NewSearchSession("s1", availableOrigin(), pricing, nil, nil, launcher)

	sess.SubmitSearch(context.Background(), "eggs")
	waitFor(t, func() bool { return sess.State().Phase == domain.SearchSucceeded })

	req, err := sess.Navigate("A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TravelMode != domain.TravelModeDriving {
		t.Errorf("unexpected travel mode %q", req.TravelMode)
	}
	u := req.URL()
	for _, want := range []string{"origin=37.7749%2C-122.4194", "destination=37.78%2C-122.42", "travelmode=driving"} {
		if !strings.Contains(u, want) {
			t.Errorf("url %q missing %q", u, want)
		}
	}

	// Hand-off is fire-and-forget but must reach the launcher.
	waitFor(t, func() bool { return launcher.count() == 1 })
}

func TestNavigate_UnknownStore(t *testing.T) {
	pricing := &mockPricing{fn: func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
		return megaMartResults(), nil
	}}
	sess := newSession(availableOrigin(), pricing)

	sess.SubmitSearch(context.Background(), "eggs")
	waitFor(t, func() bool { return sess.State().Phase == domain.SearchSucceeded })

	if _, err := sess.Navigate("Z"); err == nil {
		t.Error("expected error for a store outside the result set")
	}
}

func TestSessionManager_SnapshotAndEviction(t *testing.T) {
	pricing := &mockPricing{fn: func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
		return megaMartResults(), nil
	}}
	mgr := usecases.NewSessionManager(&mockProvider{}, pricing, nil, nil, nil, time.Minute)

	sess := mgr.Create()
	if _, ok := mgr.Get(sess.ID); !ok {
		t.Fatal("created session not retrievable")
	}

	snap := sess.Snapshot()
	if snap.SessionID != sess.ID || snap.Location.Phase != domain.LocationIdle {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Search.Phase != domain.SearchNoResults || snap.BestPitStop != nil {
		t.Errorf("unexpected search snapshot %+v", snap.Search)
	}

	if _, ok := mgr.Get("nope"); ok {
		t.Error("unknown session id must not resolve")
	}
	if mgr.Count() != 1 {
		t.Errorf("expected 1 session, got %d", mgr.Count())
	}
}
