package geospatial

import (
	"math"
	"testing"
)

func TestHaversineMiles(t *testing.T) {
	// Downtown SF to the Ferry Building, roughly 1.2 miles.
	got := HaversineMiles(37.7749, -122.4194, 37.7955, -122.3937)
	if math.Abs(got-2.07) > 0.1 {
		t.Errorf("unexpected distance %.2f miles", got)
	}

	if d := HaversineMiles(37.7749, -122.4194, 37.7749, -122.4194); d != 0 {
		t.Errorf("zero distance expected, got %v", d)
	}
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	minLat, minLng, maxLat, maxLng := BoundingBox(37.7749, -122.4194, 5000)
	if minLat >= 37.7749 || maxLat <= 37.7749 {
		t.Errorf("lat bounds %v..%v do not bracket center", minLat, maxLat)
	}
	if minLng >= -122.4194 || maxLng <= -122.4194 {
		t.Errorf("lng bounds %v..%v do not bracket center", minLng, maxLng)
	}
}
