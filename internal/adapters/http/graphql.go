package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/cheapstop/gateway/internal/core/domain"
	"github.com/cheapstop/gateway/internal/core/usecases"
)

// storeMap flattens a StoreResult for GraphQL, matching the REST wire shape.
func storeMap(s *domain.StoreResult) map[string]interface{} {
	if s == nil {
		return nil
	}
	items := make([]map[string]interface{}, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, map[string]interface{}{"name": it.Name, "price": it.Price})
	}
	return map[string]interface{}{
		"storeId":       s.StoreID,
		"storeName":     s.StoreName,
		"lat":           s.Coordinate.Lat,
		"lng":           s.Coordinate.Lng,
		"distanceMiles": s.DistanceMiles,
		"totalPrice":    s.TotalPrice,
		"items":         items,
	}
}

func sessionMap(s *usecases.Session) map[string]interface{} {
	snap := s.Snapshot()

	loc := map[string]interface{}{
		"phase":   string(snap.Location.Phase),
		"reason":  snap.Location.Reason,
		"profile": string(snap.Location.Profile),
	}
	if snap.Location.Origin != nil {
		loc["lat"] = snap.Location.Origin.Lat
		loc["lng"] = snap.Location.Origin.Lng
	}

	var stores []map[string]interface{}
	if snap.Search.Results != nil {
		for i := range snap.Search.Results.Stores {
			stores = append(stores, storeMap(&snap.Search.Results.Stores[i]))
		}
	}

	return map[string]interface{}{
		"sessionId":       snap.SessionID,
		"location":        loc,
		"searchPhase":     string(snap.Search.Phase),
		"searchMessage":   snap.Search.Message,
		"stores":          stores,
		"selectedStoreId": snap.SelectedID,
		"bestPitStop":     storeMap(snap.BestPitStop),
	}
}

// buildSchema creates the GraphQL schema wired to the session registry.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	itemType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BasketItem",
		Fields: graphql.Fields{
			"name":  &graphql.Field{Type: graphql.String},
			"price": &graphql.Field{Type: graphql.Float},
		},
	})

	storeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Store",
		Fields: graphql.Fields{
			"storeId":       &graphql.Field{Type: graphql.String},
			"storeName":     &graphql.Field{Type: graphql.String},
			"lat":           &graphql.Field{Type: graphql.Float},
			"lng":           &graphql.Field{Type: graphql.Float},
			"distanceMiles": &graphql.Field{Type: graphql.Float},
			"totalPrice":    &graphql.Field{Type: graphql.Float},
			"items":         &graphql.Field{Type: graphql.NewList(itemType)},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LocationState",
		Fields: graphql.Fields{
			"phase":   &graphql.Field{Type: graphql.String},
			"lat":     &graphql.Field{Type: graphql.Float},
			"lng":     &graphql.Field{Type: graphql.Float},
			"reason":  &graphql.Field{Type: graphql.String},
			"profile": &graphql.Field{Type: graphql.String},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"sessionId":       &graphql.Field{Type: graphql.String},
			"location":        &graphql.Field{Type: locationType},
			"searchPhase":     &graphql.Field{Type: graphql.String},
			"searchMessage":   &graphql.Field{Type: graphql.String},
			"stores":          &graphql.Field{Type: graphql.NewList(storeType)},
			"selectedStoreId": &graphql.Field{Type: graphql.String},
			"bestPitStop":     &graphql.Field{Type: storeType},
		},
	})

	navigationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NavigationPreview",
		Fields: graphql.Fields{
			"url":        &graphql.Field{Type: graphql.String},
			"travelMode": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Full combined state of one shopper session",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					s, ok := deps.Sessions.Get(id)
					if !ok {
						return nil, fmt.Errorf("session %s not found", id)
					}
					return sessionMap(s), nil
				},
			},
			"navigationPreview": &graphql.Field{
				Type:        navigationType,
				Description: "Directions URL for a store without triggering a hand-off",
				Args: graphql.FieldConfigArgument{
					"sessionId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"storeId":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sessionID := p.Args["sessionId"].(string)
					storeID := p.Args["storeId"].(string)

					s, ok := deps.Sessions.Get(sessionID)
					if !ok {
						return nil, fmt.Errorf("session %s not found", sessionID)
					}
					origin, ok := s.Location.Origin()
					if !ok {
						return nil, fmt.Errorf("no origin available")
					}
					state := s.Search.State()
					if state.Results == nil || !state.Results.Contains(storeID) {
						return nil, fmt.Errorf("store %s not in current results", storeID)
					}
					for i := range state.Results.Stores {
						if state.Results.Stores[i].StoreID == storeID {
							req := domain.NewNavigationRequest(origin, state.Results.Stores[i].Coordinate)
							return map[string]interface{}{
								"url":        req.URL(),
								"travelMode": req.TravelMode,
							}, nil
						}
					}
					return nil, fmt.Errorf("store %s not in current results", storeID)
				},
			},
			"sessionCount": &graphql.Field{
				Type:        graphql.Int,
				Description: "Number of live sessions",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.Count(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
