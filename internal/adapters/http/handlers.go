package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/cheapstop/gateway/internal/core/domain"
	"github.com/cheapstop/gateway/internal/core/usecases"
)

// session resolves the :id path parameter against the registry. The second
// return value is a ready-to-send error response when resolution fails.
func session(c *fiber.Ctx, deps *Dependencies) (*usecases.Session, error) {
	id := c.Params("id")
	if id == "" {
		return nil, errBadRequest(c, "session id is required")
	}
	s, ok := deps.Sessions.Get(id)
	if !ok {
		return nil, errNotFound(c, "session not found or expired")
	}
	return s, nil
}

// CreateSessionHandler registers a new shopper session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := deps.Sessions.Create()
		return c.Status(201).JSON(s.Snapshot())
	}
}

// GetSessionHandler returns the combined state snapshot of a session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, errResp := session(c, deps)
		if s == nil {
			return errResp
		}
		return c.JSON(s.Snapshot())
	}
}

// RequestLocationHandler starts one asynchronous origin acquisition.
// The response is the immediate state (Acquiring, or Unsupported when the
// platform has no positioning capability); clients observe the resolution
// via the snapshot endpoint or the WebSocket push.
func RequestLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, errResp := session(c, deps)
		if s == nil {
			return errResp
		}

		// The acquisition outlives this request, so it must not inherit the
		// request context. The profile's own timeout bounds it.
		err := s.Location.RequestLocation(context.Background())
		state := s.Location.State()
		if err != nil {
			// Unsupported platform: terminal, surfaced with the state itself.
			return c.Status(200).JSON(fiber.Map{"location": state})
		}
		return c.Status(202).JSON(fiber.Map{"location": state})
	}
}

type refineRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RefineLocationHandler overrides the origin with a user-picked coordinate
// (a map click), valid from any prior location state.
func RefineLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, errResp := session(c, deps)
		if s == nil {
			return errResp
		}

		var req refineRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		coord, err := s.Location.RefineOrigin(req.Lat, req.Lng)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{
			"origin":   coord,
			"location": s.Location.State(),
		})
	}
}

type profileRequest struct {
	Profile string `json:"profile"`
}

// SetAccuracyProfileHandler changes the accuracy profile for future
// acquisitions. It never re-acquires.
func SetAccuracyProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, errResp := session(c, deps)
		if s == nil {
			return errResp
		}

		var req profileRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		profile, err := domain.ParseAccuracyProfile(req.Profile)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		s.Location.SetAccuracyProfile(profile)
		return c.JSON(fiber.Map{"location": s.Location.State()})
	}
}

type searchRequest struct {
	Query string `json:"query"`
}

// SubmitSearchHandler starts one basket search. Requires an available origin;
// without one the submission is refused so the client can re-enable its
// location flow, mirroring the disabled search button in the UI.
func SubmitSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, errResp := session(c, deps)
		if s == nil {
			return errResp
		}

		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}
		if len(req.Query) > 500 {
			return errBadRequest(c, "query too long (max 500 characters)")
		}

		// Like acquisitions, the search outlives this request.
		if !s.Search.SubmitSearch(context.Background(), req.Query) {
			return errConflict(c, "no origin available; request or refine a location first")
		}
		return c.Status(202).JSON(fiber.Map{"search": s.Search.State()})
	}
}

// SearchResultsHandler returns the current result set as a paginated store
// list, first element being the top-ranked recommendation.
func SearchResultsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, errResp := session(c, deps)
		if s == nil {
			return errResp
		}

		state := s.Search.State()
		var stores []domain.StoreResult
		if state.Results != nil {
			stores = state.Results.Stores
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		total := len(stores)
		stores = pageWindow(stores, offset, limit)

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(fiber.Map{
			"phase":      state.Phase,
			"message":    state.Message,
			"data":       stores,
			"pagination": pg,
		})
	}
}

// ToggleSelectionHandler toggles the highlighted store. Applying it twice is
// a no-op pair; unknown store ids leave the selection untouched.
func ToggleSelectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, errResp := session(c, deps)
		if s == nil {
			return errResp
		}

		storeID := c.Params("storeId")
		if storeID == "" {
			return errBadRequest(c, "store id is required")
		}

		s.Search.ToggleSelect(storeID)

		resp := fiber.Map{"selected_store_id": s.Search.SelectedID()}
		if store, ok := s.Search.Selected(); ok {
			resp["store"] = store
		}
		return c.JSON(resp)
	}
}

// NavigateHandler builds the external driving-directions hand-off for a store
// in the live result set. The URL is echoed so browser clients can open it;
// attached device surfaces receive it via the session's push channel.
func NavigateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, errResp := session(c, deps)
		if s == nil {
			return errResp
		}

		storeID := c.Params("storeId")
		if storeID == "" {
			return errBadRequest(c, "store id is required")
		}

		req, err := s.Search.Navigate(storeID)
		if err != nil {
			return errConflict(c, err.Error())
		}
		return c.JSON(fiber.Map{
			"url":         req.URL(),
			"travel_mode": req.TravelMode,
		})
	}
}

// MapViewHandler returns the marker/path/fit description for the session's
// map: origin, selected store, connecting line, and a fit covering both.
func MapViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, errResp := session(c, deps)
		if s == nil {
			return errResp
		}

		var origin *domain.Coordinate
		if o, ok := s.Location.Origin(); ok {
			origin = &o
		}
		var dest *domain.Coordinate
		if store, ok := s.Search.Selected(); ok {
			dest = &store.Coordinate
		}

		return c.JSON(domain.BuildMapView(origin, dest))
	}
}

// LegacySearchHandler is the deprecated sessionless passthrough kept for the
// original client: one stateless POST straight to the pricing backend.
func LegacySearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Query       string  `json:"query"`
			Lat         float64 `json:"lat"`
			Lng         float64 `json:"lng"`
			RadiusMiles float64 `json:"radiusMiles"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		origin, err := domain.NewCoordinate(req.Lat, req.Lng)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := req.RadiusMiles
		if radius <= 0 {
			radius = domain.DefaultRadiusMiles
		}

		results, err := deps.Pricing.SearchStores(c.UserContext(), domain.SearchQuery{
			Items:       req.Query,
			Origin:      origin,
			RadiusMiles: radius,
		})
		if err != nil {
			return errBadGateway(c, "Failed to search")
		}
		return c.JSON(results)
	}
}
