package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"

	"github.com/gurukitchen/hostess-api/internal/infrastructure/auth"
	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/handlers"
	v1 "github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/routes/v1"
)

// Provider holds all route providers.
type Provider struct {
	V1            *v1.Routes
	handlers      *handlers.Provider
	authValidator *auth.Validator
}

// NewProvider creates a new route provider.
func NewProvider(handlerProvider *handlers.Provider, authValidator *auth.Validator) *Provider {
	return &Provider{
		V1:            v1.NewRoutes(handlerProvider),
		handlers:      handlerProvider,
		authValidator: authValidator,
	}
}

// Register registers all routes on the engine.
func (p *Provider) Register(engine *gin.Engine) {
	// Apply auth middleware only to API routes
	if p.authValidator != nil {
		p.V1.Register(engine, p.authValidator.Middleware())
	} else {
		p.V1.Register(engine, nil)
	}

	// The call websocket stays outside the v1 group so the voice gateway
	// can connect without a bearer token.
	engine.GET("/ws/call", p.handlers.Call.Serve)
}

// RouteProvider provides the route provider for wire.
var RouteProvider = wire.NewSet(
	NewProvider,
)
