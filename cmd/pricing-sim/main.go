// Command pricing-sim is a development stand-in for the store pricing
// backend. It answers the same POST /api/search contract the gateway
// speaks, with deterministic synthetic stores scattered around the
// request origin, so the session flow can be exercised without the real
// pricing service.
package main

import (
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cheapstop/gateway/internal/pkg/geospatial"
)

type searchRequest struct {
	Query       string  `json:"query"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	RadiusMiles float64 `json:"radiusMiles"`
}

type item struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type store struct {
	StoreID       string  `json:"storeId"`
	StoreName     string  `json:"storeName"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	DistanceMiles float64 `json:"distanceMiles"`
	TotalPrice    float64 `json:"totalPrice"`
	Items         []item  `json:"items"`
}

var chains = []string{
	"MegaMart", "ValueBarn", "FreshFields", "Cornerstone Grocer",
	"PennyWise Foods", "GreenCart Market", "Discount Depot", "Harvest House",
}

func main() {
	app := fiber.New(fiber.Config{AppName: "CheapStop Pricing Simulator"})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Post("/api/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if strings.TrimSpace(req.Query) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
		}
		if req.RadiusMiles <= 0 {
			req.RadiusMiles = 10
		}

		items := parseBasket(req.Query)
		stores := synthesize(req.Lat, req.Lng, req.RadiusMiles, items)

		return c.JSON(fiber.Map{"stores": stores})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	log.Printf("pricing simulator listening on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

// parseBasket splits a free-text query into basket item names.
func parseBasket(query string) []string {
	var names []string
	for _, part := range strings.Split(query, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// synthesize places one store per chain on a deterministic ring inside the
// search radius and prices the basket with a per-chain markup, so repeated
// identical requests produce identical results.
func synthesize(lat, lng, radiusMiles float64, basket []string) []store {
	stores := make([]store, 0, len(chains))

	for i, chain := range chains {
		seed := hash32(fmt.Sprintf("%s|%.4f|%.4f", chain, lat, lng))

		// Angle and distance derived from the seed keep the layout stable
		// for a given origin.
		angle := float64(seed%360) * math.Pi / 180
		frac := 0.2 + float64(seed%71)/100.0 // 0.2..0.9 of the radius
		distMeters := radiusMiles * frac / 0.621371 * 1000

		dLat := distMeters / 111320.0 * math.Cos(angle)
		dLng := distMeters / (111320.0 * math.Cos(lat*math.Pi/180)) * math.Sin(angle)
		sLat, sLng := lat+dLat, lng+dLng

		markup := 0.85 + float64((seed/7)%31)/100.0 // 0.85..1.15

		var total float64
		priced := make([]item, 0, len(basket))
		for _, name := range basket {
			base := 1.0 + float64(hash32(strings.ToLower(name))%900)/100.0 // 1.00..9.99
			price := math.Round(base*markup*100) / 100
			priced = append(priced, item{Name: name, Price: price})
			total += price
		}

		stores = append(stores, store{
			StoreID:       fmt.Sprintf("sim-%02d", i+1),
			StoreName:     chain,
			Lat:           sLat,
			Lng:           sLng,
			DistanceMiles: math.Round(geospatial.HaversineMiles(lat, lng, sLat, sLng)*100) / 100,
			TotalPrice:    math.Round(total*100) / 100,
			Items:         priced,
		})
	}

	// Cheapest basket first, matching the real backend's ranking.
	sort.Slice(stores, func(a, b int) bool {
		if stores[a].TotalPrice != stores[b].TotalPrice {
			return stores[a].TotalPrice < stores[b].TotalPrice
		}
		return stores[a].DistanceMiles < stores[b].DistanceMiles
	})

	return stores
}

func hash32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
