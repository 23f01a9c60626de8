// @title           Hostess API
// @version         1.0
// @description     Conversational booking service for Guru Kitchen.
// @description     Drives multi-turn reservation dialogues over text, audio and websocket calls.

// @host      localhost:8190
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/config"
	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/auth"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/database"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/llm"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/logger"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/observability"
	bookingrepo "github.com/gurukitchen/hostess-api/internal/infrastructure/repository/booking"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/speech"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/store"
	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver"
	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/handlers"
)

// seedTimes are the bookable dinner slots for freshly created databases.
var seedTimes = []string{
	"12:00", "12:30", "13:00", "13:30", "14:00",
	"18:00", "18:30", "19:00", "19:30", "20:00", "20:30", "21:00", "21:30", "22:00",
}

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

// Start runs the application until the context is cancelled.
func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup observability
	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	// Initialize auth validator
	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth validator")
	}

	// Connect the bookings database and migrate the schema
	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdle,
		MaxOpenConns:    cfg.DBMaxOpen,
		ConnMaxLifetime: cfg.DBMaxLifetime,
		LogLevel:        cfg.LogLevel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	bookingStore := bookingrepo.NewRepository(db)
	if cfg.SeedSlots {
		seedTimeSlots(ctx, bookingStore, cfg, log)
	}

	// Session store and turn locker. Redis when configured, otherwise
	// in-memory with a background sweep replacing Redis expiry.
	var (
		sessions conversation.SessionStore
		locker   conversation.TurnLocker
	)
	if cfg.RedisURL != "" {
		redisStore, err := store.NewRedisStore(cfg.RedisURL, cfg.SessionTTL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer redisStore.Close()
		sessions = redisStore
		locker = store.NewRedisLocker(redisStore.Client(), cfg.TurnLockExpiry, log)
	} else {
		memStore := store.NewMemoryStore(log)
		sessions = memStore
		locker = store.NewMemoryLocker()

		sweeper := store.NewSweeper(memStore, cfg.SessionTTL, cfg.SweepInterval, log)
		go func() {
			if err := sweeper.Run(ctx); err != nil {
				log.Error().Err(err).Msg("session sweeper stopped with error")
			}
		}()
	}

	// LLM provider and the pipelines built on it
	llmProvider, err := llm.NewProvider(cfg.LLMBaseURL, cfg.LLMAPIKeys, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}
	extractor := llm.NewExtractor(llmProvider, cfg.ExtractionModel, log)
	phraser := llm.NewPhraser(llmProvider, cfg.PhrasingModel, log)
	transcriber := speech.NewTranscriber(llmProvider, cfg.TranscriptionModel, log)
	synthesizer := speech.NewSynthesizer(
		llmProvider,
		cfg.SynthesisModel,
		cfg.SynthesisVoice,
		cfg.SynthesisBudget,
		speech.FallbackConfig{URL: cfg.FallbackTTSURL, Voice: cfg.FallbackTTSVoice},
		log,
	)

	// Conversation core
	resolver := conversation.NewResolver(sessions, log)
	engine := conversation.NewEngine(time.Now, log)
	committer := conversation.NewCommitter(bookingStore, sessions, log)
	orchestrator := conversation.NewOrchestrator(sessions, bookingStore, extractor, resolver, engine, committer, locker, log)

	// HTTP server
	conversationHandler := handlers.NewConversationHandler(orchestrator, phraser, transcriber, synthesizer, log)
	callHandler := handlers.NewCallHandler(conversationHandler, log)
	handlerProvider := handlers.NewProvider(conversationHandler, callHandler)
	httpServer := httpserver.New(cfg, log, handlerProvider, authValidator)

	app := NewApplication(httpServer, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// seedTimeSlots makes sure the next SeedDays days have bookable slots.
// Existing slots are left untouched.
func seedTimeSlots(ctx context.Context, repo *bookingrepo.Repository, cfg *config.Config, log zerolog.Logger) {
	dates := make([]string, 0, cfg.SeedDays)
	for i := 0; i < cfg.SeedDays; i++ {
		dates = append(dates, time.Now().AddDate(0, 0, i).Format("2006-01-02"))
	}
	if err := repo.SeedSlots(ctx, dates, seedTimes, cfg.SeedTableCapacity); err != nil {
		log.Error().Err(err).Msg("failed to seed time slots")
		return
	}
	log.Info().Int("days", cfg.SeedDays).Int("capacity", cfg.SeedTableCapacity).Msg("time slots seeded")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
