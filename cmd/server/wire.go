//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gurukitchen/hostess-api/internal/config"
	"github.com/gurukitchen/hostess-api/internal/domain"
	"github.com/gurukitchen/hostess-api/internal/domain/booking"
	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/auth"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/database"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/llm"
	bookingrepo "github.com/gurukitchen/hostess-api/internal/infrastructure/repository/booking"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/speech"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/store"
	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver"
	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/handlers"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	ProvideDB,
	ProvideBookingStore,
	ProvideSessionStore,
	ProvideTurnLocker,
	ProvideLLMProvider,
	ProvideExtractor,
	ProvidePhraser,
	ProvideTranscriber,
	ProvideSynthesizer,
	ProvideAuthValidator,

	// Domain providers
	domain.ServiceProvider,

	// Interface providers
	handlers.HandlerProvider,
	httpserver.New,

	// Application
	NewApplication,
)

// ProvideDB provides the bookings database connection.
func ProvideDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdle,
		MaxOpenConns:    cfg.DBMaxOpen,
		ConnMaxLifetime: cfg.DBMaxLifetime,
		LogLevel:        cfg.LogLevel,
	})
}

// ProvideBookingStore provides the postgres booking store.
func ProvideBookingStore(db *gorm.DB) booking.Store {
	return bookingrepo.NewRepository(db)
}

// ProvideSessionStore provides the in-memory session store. Redis
// selection stays in main, where the sweeper and locker choices follow it.
func ProvideSessionStore(log zerolog.Logger) conversation.SessionStore {
	return store.NewMemoryStore(log)
}

// ProvideTurnLocker provides the in-process turn locker.
func ProvideTurnLocker() conversation.TurnLocker {
	return store.NewMemoryLocker()
}

// ProvideLLMProvider provides the rotating LLM client pool.
func ProvideLLMProvider(cfg *config.Config, log zerolog.Logger) (*llm.Provider, error) {
	return llm.NewProvider(cfg.LLMBaseURL, cfg.LLMAPIKeys, log)
}

// ProvideExtractor provides the utterance extractor.
func ProvideExtractor(cfg *config.Config, provider *llm.Provider, log zerolog.Logger) conversation.Extractor {
	return llm.NewExtractor(provider, cfg.ExtractionModel, log)
}

// ProvidePhraser provides the reply phraser.
func ProvidePhraser(cfg *config.Config, provider *llm.Provider, log zerolog.Logger) *llm.Phraser {
	return llm.NewPhraser(provider, cfg.PhrasingModel, log)
}

// ProvideTranscriber provides the speech transcriber.
func ProvideTranscriber(cfg *config.Config, provider *llm.Provider, log zerolog.Logger) *speech.Transcriber {
	return speech.NewTranscriber(provider, cfg.TranscriptionModel, log)
}

// ProvideSynthesizer provides the speech synthesizer.
func ProvideSynthesizer(cfg *config.Config, provider *llm.Provider, log zerolog.Logger) *speech.Synthesizer {
	return speech.NewSynthesizer(
		provider,
		cfg.SynthesisModel,
		cfg.SynthesisVoice,
		cfg.SynthesisBudget,
		speech.FallbackConfig{URL: cfg.FallbackTTSURL, Voice: cfg.FallbackTTSVoice},
		log,
	)
}

// ProvideAuthValidator provides an auth validator.
func ProvideAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
) (*Application, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
