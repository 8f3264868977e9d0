package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DefaultRadiusMiles is the fixed search radius sent to the pricing service.
const DefaultRadiusMiles = 10.0

// SearchQuery is one basket search. Immutable once submitted.
type SearchQuery struct {
	Items       string     `json:"query"`
	Origin      Coordinate `json:"origin"`
	RadiusMiles float64    `json:"radiusMiles"`
}

// BasketItem is a single priced line item at a store.
type BasketItem struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// StoreResult is one candidate store with per-item prices.
type StoreResult struct {
	StoreID       string       `json:"storeId" validate:"required"`
	StoreName     string       `json:"storeName" validate:"required"`
	Coordinate    Coordinate   `json:"coordinate"`
	DistanceMiles float64      `json:"distanceMiles" validate:"gte=0"`
	TotalPrice    float64      `json:"totalPrice" validate:"gte=0"`
	Items         []BasketItem `json:"items" validate:"dive"`
}

// SearchResultSet is the ranked store list as returned by the pricing service.
// Ordering is the service's ranking; the gateway never re-sorts it.
type SearchResultSet struct {
	Stores []StoreResult `json:"stores"`
}

// BestPitStop is the top-ranked recommendation, nil for an empty set.
func (rs *SearchResultSet) BestPitStop() *StoreResult {
	if rs == nil || len(rs.Stores) == 0 {
		return nil
	}
	return &rs.Stores[0]
}

// Contains reports whether a store id is present in the set.
func (rs *SearchResultSet) Contains(storeID string) bool {
	if rs == nil {
		return false
	}
	for i := range rs.Stores {
		if rs.Stores[i].StoreID == storeID {
			return true
		}
	}
	return false
}

var validate = validator.New()

// Validate fails on a structurally invalid result set instead of letting
// partial data through: missing ids/names, negative prices or distances,
// out-of-range coordinates, and duplicate store ids all reject the set.
func (rs *SearchResultSet) Validate() error {
	if rs == nil {
		return fmt.Errorf("result set is nil")
	}
	seen := make(map[string]struct{}, len(rs.Stores))
	for i := range rs.Stores {
		s := &rs.Stores[i]
		if err := validate.Struct(s); err != nil {
			return fmt.Errorf("store %d: %w", i, err)
		}
		if err := s.Coordinate.Validate(); err != nil {
			return fmt.Errorf("store %q: %w", s.StoreID, err)
		}
		if _, dup := seen[s.StoreID]; dup {
			return fmt.Errorf("duplicate store id %q", s.StoreID)
		}
		seen[s.StoreID] = struct{}{}
	}
	return nil
}

// Normalize rounds every store coordinate to the shared precision.
func (rs *SearchResultSet) Normalize() {
	for i := range rs.Stores {
		rs.Stores[i].Coordinate = rs.Stores[i].Coordinate.Normalized()
	}
}

// SearchPhase tags the search session state machine.
type SearchPhase string

const (
	SearchNoResults SearchPhase = "no_results"
	SearchSearching SearchPhase = "searching"
	SearchSucceeded SearchPhase = "succeeded"
	SearchFailed    SearchPhase = "failed"
)

// SearchState is the tagged variant owned by the search session. Results is
// set only in the succeeded phase, Message only in the failed phase.
type SearchState struct {
	Phase   SearchPhase      `json:"phase"`
	Results *SearchResultSet `json:"results,omitempty"`
	Message string           `json:"message,omitempty"`
}

// MsgSearchFailed is the short diagnostic shown for any transport or
// structural search failure.
const MsgSearchFailed = "Failed to search"
