// Package pricing is the HTTP client for the store pricing backend.
// It speaks the backend's flat lat/lng wire format and maps it onto
// the domain result types.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cheapstop/gateway/internal/core/domain"
)

const searchPath = "/api/search"

var tracer = otel.Tracer("cheapstop/pricing")

// Client implements ports.PricingService against the pricing backend.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Wire types. The backend sends store coordinates flattened, not nested.

type searchRequest struct {
	Query       string  `json:"query"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	RadiusMiles float64 `json:"radiusMiles"`
}

type wireItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type wireStore struct {
	StoreID       string     `json:"storeId"`
	StoreName     string     `json:"storeName"`
	Lat           float64    `json:"lat"`
	Lng           float64    `json:"lng"`
	DistanceMiles float64    `json:"distanceMiles"`
	TotalPrice    float64    `json:"totalPrice"`
	Items         []wireItem `json:"items"`
}

type searchResponse struct {
	Stores []wireStore `json:"stores"`
}

// SearchStores runs a basket search against the backend. Any non-2xx
// status is a single opaque transport failure; callers do not branch
// on individual status codes.
func (c *Client) SearchStores(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
	ctx, span := tracer.Start(ctx, "pricing.SearchStores")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("search.radius_miles", q.RadiusMiles),
	)

	body, err := json.Marshal(searchRequest{
		Query:       q.Items,
		Lat:         q.Origin.Lat,
		Lng:         q.Origin.Lng,
		RadiusMiles: q.RadiusMiles,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("POST %s: %w", searchPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("pricing backend HTTP %d", resp.StatusCode)
	}

	var wire searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	result := toDomain(wire)
	if err := result.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("invalid search response: %w", err)
	}
	result.Normalize()

	span.SetAttributes(attribute.Int("search.result_count", len(result.Stores)))
	return result, nil
}

func toDomain(wire searchResponse) *domain.SearchResultSet {
	stores := make([]domain.StoreResult, 0, len(wire.Stores))
	for _, s := range wire.Stores {
		items := make([]domain.BasketItem, 0, len(s.Items))
		for _, it := range s.Items {
			items = append(items, domain.BasketItem{Name: it.Name, Price: it.Price})
		}
		stores = append(stores, domain.StoreResult{
			StoreID:       s.StoreID,
			StoreName:     s.StoreName,
			Coordinate:    domain.Coordinate{Lat: s.Lat, Lng: s.Lng},
			DistanceMiles: s.DistanceMiles,
			TotalPrice:    s.TotalPrice,
			Items:         items,
		})
	}
	return &domain.SearchResultSet{Stores: stores}
}
