package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cheapstop/gateway/internal/core/domain"
	"github.com/cheapstop/gateway/internal/core/ports"
	"github.com/cheapstop/gateway/internal/pkg/metrics"
)

// LocationController owns the lifecycle of acquiring, holding, and manually
// refining the origin coordinate. It is the only writer of its LocationState.
//
// Overlapping acquisitions follow last-request-wins: every request bumps a
// generation token, and a provider callback is applied only if its token still
// matches. A refine also bumps the token, so a late sensor sample can never
// clobber a manual correction.
type LocationController struct {
	mu       sync.Mutex
	provider ports.LocationProvider

	profile  domain.AccuracyProfile
	state    domain.LocationState
	gen      uint64
	onChange func(domain.LocationState)
}

// NewLocationController creates a controller in the Idle state. A nil provider
// models a platform without a location capability.
func NewLocationController(provider ports.LocationProvider) *LocationController {
	c := &LocationController{
		provider: provider,
		profile:  domain.DefaultAccuracyProfile,
		state: domain.LocationState{
			Phase:   domain.LocationIdle,
			Profile: domain.DefaultAccuracyProfile,
		},
	}
	return c
}

// SetOnChange registers a callback invoked (outside the lock) after every
// state transition. Used to push snapshots to subscribed clients.
func (c *LocationController) SetOnChange(fn func(domain.LocationState)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *LocationController) notify(s domain.LocationState) {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// State returns a copy of the current location state.
func (c *LocationController) State() domain.LocationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if c.state.Origin != nil {
		origin := *c.state.Origin
		s.Origin = &origin
	}
	return s
}

// Origin returns the current origin coordinate when one is available.
func (c *LocationController) Origin() (domain.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != domain.LocationAvailable || c.state.Origin == nil {
		return domain.Coordinate{}, false
	}
	return *c.state.Origin, true
}

// Profile returns the accuracy profile the next acquisition will use.
func (c *LocationController) Profile() domain.AccuracyProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// SetAccuracyProfile updates the profile for future acquisitions. Pure state
// update: it neither re-acquires nor touches an in-flight request.
func (c *LocationController) SetAccuracyProfile(p domain.AccuracyProfile) {
	c.mu.Lock()
	c.profile = p
	c.state.Profile = p
	s := c.state
	c.mu.Unlock()
	c.notify(s)
}

// RequestLocation starts one asynchronous position acquisition using the
// options derived from the current profile, snapshotted at issue time.
// Without a provider the platform is Unsupported, which is terminal: the
// returned error carries the user-facing message and no retry will help.
// Failures land in Denied(reason); the caller must request again explicitly.
func (c *LocationController) RequestLocation(ctx context.Context) error {
	c.mu.Lock()

	if c.provider == nil {
		c.gen++ // supersede anything still in flight
		c.state = domain.LocationState{
			Phase:   domain.LocationUnsupported,
			Reason:  domain.MsgLocationUnsupported,
			Profile: c.profile,
		}
		s := c.state
		c.mu.Unlock()
		c.notify(s)
		metrics.LocationAcquisitions.WithLabelValues(string(s.Profile), "unsupported").Inc()
		return errors.New(domain.MsgLocationUnsupported)
	}

	c.gen++
	issued := c.gen
	profile := c.profile
	opts := profile.Options()
	c.state = domain.LocationState{Phase: domain.LocationAcquiring, Profile: profile}
	s := c.state
	c.mu.Unlock()
	c.notify(s)

	go c.acquire(ctx, issued, profile, opts)
	return nil
}

func (c *LocationController) acquire(ctx context.Context, issued uint64, profile domain.AccuracyProfile, opts domain.AcquireOptions) {
	acqCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	pos, err := c.provider.CurrentPosition(acqCtx, opts)

	c.mu.Lock()
	if c.gen != issued {
		// A newer request or a manual refine superseded this sample.
		c.mu.Unlock()
		metrics.StaleResultsDropped.WithLabelValues("location").Inc()
		return
	}

	if err == nil {
		if coord, cerr := domain.NewCoordinate(pos.Coordinate.Lat, pos.Coordinate.Lng); cerr == nil {
			c.state = domain.LocationState{
				Phase:   domain.LocationAvailable,
				Origin:  &coord,
				Profile: c.profile,
			}
			s := c.state
			c.mu.Unlock()
			c.notify(s)
			metrics.LocationAcquisitions.WithLabelValues(string(profile), "available").Inc()
			return
		}
		err = domain.ErrInvalidCoordinate
	}

	slog.Debug("location acquisition failed", "profile", profile, "error", err)
	c.state = domain.LocationState{
		Phase:   domain.LocationDenied,
		Reason:  domain.MsgLocationDenied,
		Profile: c.profile,
	}
	s := c.state
	c.mu.Unlock()
	c.notify(s)
	metrics.LocationAcquisitions.WithLabelValues(string(profile), "denied").Inc()
}

// RefineOrigin unconditionally overwrites the state to Available with a
// user-picked coordinate, from any prior state, bypassing the provider. It
// also supersedes any in-flight acquisition so a late sample is discarded.
func (c *LocationController) RefineOrigin(lat, lng float64) (domain.Coordinate, error) {
	coord, err := domain.NewCoordinate(lat, lng)
	if err != nil {
		return domain.Coordinate{}, err
	}

	c.mu.Lock()
	c.gen++
	c.state = domain.LocationState{
		Phase:   domain.LocationAvailable,
		Origin:  &coord,
		Profile: c.profile,
	}
	s := c.state
	c.mu.Unlock()
	c.notify(s)
	return coord, nil
}
