package domain

import (
	"errors"
	"fmt"
	"math"
)

// CoordinatePrecision is the number of decimal places every coordinate is
// rounded to (6 decimals ≈ 11 cm). Sensor samples and map clicks both funnel
// through the same normalization so downstream consumers cannot tell them apart.
const CoordinatePrecision = 6

// ErrInvalidCoordinate is returned when a latitude/longitude pair is outside
// the WGS 84 range.
var ErrInvalidCoordinate = errors.New("coordinate out of range")

// Coordinate represents a geographic coordinate (WGS 84).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCoordinate validates and normalizes a latitude/longitude pair.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c.Normalized(), nil
}

// Validate checks the WGS 84 range invariant.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return fmt.Errorf("%w: NaN", ErrInvalidCoordinate)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: lat %v not in [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: lng %v not in [-180, 180]", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

// Normalized returns the coordinate rounded to CoordinatePrecision decimals.
func (c Coordinate) Normalized() Coordinate {
	const scale = 1e6
	return Coordinate{
		Lat: math.Round(c.Lat*scale) / scale,
		Lng: math.Round(c.Lng*scale) / scale,
	}
}

// String renders "lat,lng" the way navigation URLs expect it.
func (c Coordinate) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lng)
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// BoundsAround returns the smallest box containing all given coordinates.
// ok is false when the slice is empty.
func BoundsAround(coords ...Coordinate) (b Bounds, ok bool) {
	if len(coords) == 0 {
		return Bounds{}, false
	}
	b = Bounds{
		MinLat: coords[0].Lat, MaxLat: coords[0].Lat,
		MinLng: coords[0].Lng, MaxLng: coords[0].Lng,
	}
	for _, c := range coords[1:] {
		b.MinLat = math.Min(b.MinLat, c.Lat)
		b.MaxLat = math.Max(b.MaxLat, c.Lat)
		b.MinLng = math.Min(b.MinLng, c.Lng)
		b.MaxLng = math.Max(b.MaxLng, c.Lng)
	}
	return b, true
}
