package domain

import (
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
)

// ProvideEngine provides the slot-filling engine on the wall clock.
func ProvideEngine(log zerolog.Logger) *conversation.Engine {
	return conversation.NewEngine(time.Now, log)
}

// ServiceProvider provides all domain services.
var ServiceProvider = wire.NewSet(
	ProvideEngine,
	conversation.NewResolver,
	conversation.NewCommitter,
	conversation.NewOrchestrator,
)
