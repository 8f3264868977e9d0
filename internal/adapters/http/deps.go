package http

import (
	"github.com/nats-io/nats.go"

	"github.com/cheapstop/gateway/internal/adapters/valkey"
	"github.com/cheapstop/gateway/internal/core/ports"
	"github.com/cheapstop/gateway/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions *usecases.SessionManager
	Pricing  ports.PricingService
	NATS     *nats.Conn
	Cache    *valkey.Cache
}
