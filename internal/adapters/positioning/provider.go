// Package positioning resolves a session's origin against a device
// positioning service over HTTP.
package positioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cheapstop/gateway/internal/core/domain"
	"github.com/cheapstop/gateway/internal/core/ports"
)

const positionPath = "/v1/position"

// Provider implements ports.LocationProvider. It keeps the last good
// sample so low-accuracy profiles can be answered from cache within
// their MaxCacheAge window without touching the network.
type Provider struct {
	baseURL string
	httpc   *http.Client

	mu   sync.Mutex
	last *domain.RawPosition
}

func NewProvider(baseURL string) *Provider {
	return &Provider{
		baseURL: baseURL,
		// Per-request deadlines come from the caller's context; the
		// client timeout is only a backstop.
		httpc: &http.Client{Timeout: 30 * time.Second},
	}
}

type positionResponse struct {
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	AccuracyMeters float64 `json:"accuracyMeters"`
}

// CurrentPosition fetches one position sample. A cached sample newer
// than opts.MaxCacheAge is returned as-is; high-accuracy requests set
// MaxCacheAge to zero and always hit the service.
func (p *Provider) CurrentPosition(ctx context.Context, opts domain.AcquireOptions) (*domain.RawPosition, error) {
	if cached := p.cached(opts.MaxCacheAge); cached != nil {
		return cached, nil
	}

	url := p.baseURL + positionPath + "?highAccuracy=" + strconv.FormatBool(opts.HighAccuracy)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build position request: %w", err)
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ports.ErrAcquireTimeout
		}
		return nil, fmt.Errorf("GET %s: %w", positionPath, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return nil, ports.ErrPermissionDenied
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("positioning service HTTP %d", resp.StatusCode)
	}

	var wire positionResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode position: %w", err)
	}

	sample := &domain.RawPosition{
		Coordinate:    domain.Coordinate{Lat: wire.Lat, Lng: wire.Lng},
		AccuracyMeter: wire.AccuracyMeters,
		ObservedAt:    time.Now(),
	}

	p.mu.Lock()
	p.last = sample
	p.mu.Unlock()

	return sample, nil
}

func (p *Provider) cached(maxAge time.Duration) *domain.RawPosition {
	if maxAge <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || time.Since(p.last.ObservedAt) > maxAge {
		return nil
	}
	sample := *p.last
	return &sample
}
