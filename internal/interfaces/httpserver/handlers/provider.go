package handlers

import (
	"github.com/google/wire"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/llm"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/speech"
)

// Provider holds all HTTP handlers.
type Provider struct {
	Conversation *ConversationHandler
	Call         *CallHandler
}

// NewProvider creates a new handler provider.
func NewProvider(conversation *ConversationHandler, call *CallHandler) *Provider {
	return &Provider{
		Conversation: conversation,
		Call:         call,
	}
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	NewConversationHandler,
	NewCallHandler,
	NewProvider,
	wire.Bind(new(TurnOrchestrator), new(*conversation.Orchestrator)),
	wire.Bind(new(ReplyPhraser), new(*llm.Phraser)),
	wire.Bind(new(SpeechTranscriber), new(*speech.Transcriber)),
	wire.Bind(new(SpeechSynthesizer), new(*speech.Synthesizer)),
)
