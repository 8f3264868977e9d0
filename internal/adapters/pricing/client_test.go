package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cheapstop/gateway/internal/core/domain"
)

func testQuery() domain.SearchQuery {
	return domain.SearchQuery{
		Items:       "eggs, milk",
		Origin:      domain.Coordinate{Lat: 37.7749, Lng: -122.4194},
		RadiusMiles: 10,
	}
}

func TestSearchStores_MapsWireFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/search" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "eggs, milk" || req.Lat != 37.7749 || req.Lng != -122.4194 || req.RadiusMiles != 10 {
			t.Errorf("unexpected request body %+v", req)
		}

		json.NewEncoder(w).Encode(searchResponse{Stores: []wireStore{{
			StoreID:       "A",
			StoreName:     "MegaMart",
			Lat:           37.78,
			Lng:           -122.42,
			DistanceMiles: 1.2,
			TotalPrice:    12.50,
			Items:         []wireItem{{Name: "eggs", Price: 4.00}, {Name: "milk", Price: 3.50}},
		}}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	result, err := client.SearchStores(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Stores) != 1 {
		t.Fatalf("expected 1 store, got %d", len(result.Stores))
	}
	store := result.Stores[0]
	if store.StoreID != "A" || store.StoreName != "MegaMart" {
		t.Errorf("unexpected store %+v", store)
	}
	if store.Coordinate.Lat != 37.78 || store.Coordinate.Lng != -122.42 {
		t.Errorf("flat wire coordinates not mapped, got %+v", store.Coordinate)
	}
	if len(store.Items) != 2 || store.Items[0].Name != "eggs" {
		t.Errorf("unexpected items %+v", store.Items)
	}
}

func TestSearchStores_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream melted", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	if _, err := client.SearchStores(context.Background(), testQuery()); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestSearchStores_RejectsMalformedPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing store id", `{"stores":[{"storeName":"X","lat":1,"lng":1,"distanceMiles":1,"totalPrice":1}]}`},
		{"coordinate out of range", `{"stores":[{"storeId":"A","storeName":"X","lat":123,"lng":1,"distanceMiles":1,"totalPrice":1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, 5*time.Second)
			if _, err := client.SearchStores(context.Background(), testQuery()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSearchStores_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(srv.URL, 5*time.Second)
	if _, err := client.SearchStores(ctx, testQuery()); err == nil {
		t.Fatal("expected context deadline error")
	}
}
