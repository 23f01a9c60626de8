package interfaces

import (
	"github.com/google/wire"

	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver"
	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/handlers"
	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/routes"
)

// InterfacesProvider provides all interface dependencies.
var InterfacesProvider = wire.NewSet(
	handlers.HandlerProvider,
	routes.RouteProvider,
	httpserver.New,
)
