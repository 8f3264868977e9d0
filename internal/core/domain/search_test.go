package domain

import (
	"strings"
	"testing"
)

func validSet() *SearchResultSet {
	return &SearchResultSet{Stores: []StoreResult{
		{
			StoreID:       "A",
			StoreName:     "MegaMart",
			Coordinate:    Coordinate{Lat: 37.78, Lng: -122.42},
			DistanceMiles: 1.2,
			TotalPrice:    12.50,
			Items:         []BasketItem{{Name: "eggs", Price: 4}, {Name: "milk", Price: 3.5}},
		},
		{
			StoreID:       "B",
			StoreName:     "ValueFoods",
			Coordinate:    Coordinate{Lat: 37.76, Lng: -122.41},
			DistanceMiles: 2.4,
			TotalPrice:    11.80,
		},
	}}
}

func TestResultSet_Validate(t *testing.T) {
	if err := validSet().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResultSet_Validate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SearchResultSet)
	}{
		{"missing store id", func(rs *SearchResultSet) { rs.Stores[0].StoreID = "" }},
		{"missing store name", func(rs *SearchResultSet) { rs.Stores[0].StoreName = "" }},
		{"negative distance", func(rs *SearchResultSet) { rs.Stores[0].DistanceMiles = -1 }},
		{"negative total", func(rs *SearchResultSet) { rs.Stores[0].TotalPrice = -0.01 }},
		{"negative item price", func(rs *SearchResultSet) { rs.Stores[0].Items[0].Price = -2 }},
		{"unnamed item", func(rs *SearchResultSet) { rs.Stores[0].Items[0].Name = "" }},
		{"coordinate out of range", func(rs *SearchResultSet) { rs.Stores[0].Coordinate.Lat = 95 }},
		{"duplicate store id", func(rs *SearchResultSet) { rs.Stores[1].StoreID = "A" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs := validSet()
			tc.mutate(rs)
			if err := rs.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestResultSet_BestPitStopAndContains(t *testing.T) {
	rs := validSet()
	if best := rs.BestPitStop(); best == nil || best.StoreID != "A" {
		t.Errorf("best pit stop must be the first ranked element, got %+v", best)
	}
	if !rs.Contains("B") || rs.Contains("Z") {
		t.Error("unexpected membership results")
	}

	var empty *SearchResultSet
	if empty.BestPitStop() != nil || empty.Contains("A") {
		t.Error("nil set must behave as empty")
	}
}

func TestNavigationRequest_URL(t *testing.T) {
	req := NewNavigationRequest(
		Coordinate{Lat: 37.7749, Lng: -122.4194},
		Coordinate{Lat: 37.78, Lng: -122.42},
	)
	u := req.URL()

	if !strings.HasPrefix(u, "https://www.google.com/maps/dir/?") {
		t.Errorf("unexpected base %q", u)
	}
	for _, want := range []string{
		"api=1",
		"origin=37.7749%2C-122.4194",
		"destination=37.78%2C-122.42",
		"travelmode=driving",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("url %q missing %q", u, want)
		}
	}
}

func TestBuildMapView(t *testing.T) {
	origin := Coordinate{Lat: 37.7749, Lng: -122.4194}
	dest := Coordinate{Lat: 37.78, Lng: -122.42}

	t.Run("empty", func(t *testing.T) {
		view := BuildMapView(nil, nil)
		if view.Center != DefaultMapCenter || view.Zoom != DefaultMapZoom {
			t.Errorf("unexpected default view %+v", view)
		}
		if len(view.Markers) != 0 || view.Fit != nil || view.Path != nil {
			t.Errorf("empty view must carry no markers, got %+v", view)
		}
	})

	t.Run("origin only", func(t *testing.T) {
		view := BuildMapView(&origin, nil)
		if view.Center != origin || len(view.Markers) != 1 || view.Markers[0].Kind != "origin" {
			t.Errorf("unexpected view %+v", view)
		}
		if view.Fit != nil {
			t.Error("single marker must not force a fit")
		}
	})

	t.Run("both endpoints", func(t *testing.T) {
		view := BuildMapView(&origin, &dest)
		if len(view.Markers) != 2 || len(view.Path) != 2 {
			t.Fatalf("unexpected view %+v", view)
		}
		if view.Fit == nil || view.Fit.MinLat != 37.7749 || view.Fit.MaxLat != 37.78 {
			t.Errorf("unexpected fit %+v", view.Fit)
		}
	})
}
