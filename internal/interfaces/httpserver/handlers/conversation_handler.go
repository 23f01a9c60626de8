package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/metrics"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/speech"
	"github.com/gurukitchen/hostess-api/internal/utils/idgen"
)

// TurnOrchestrator drives one dialogue turn through the conversation core.
type TurnOrchestrator interface {
	HandleTurn(ctx context.Context, utterance, sessionKey, verifiedPhone string) (*conversation.TurnResult, error)
}

// ReplyPhraser renders a response intent as hostess speech.
type ReplyPhraser interface {
	Phrase(ctx context.Context, intent conversation.Intent, collected map[conversation.Field]string, history []string) string
}

// SpeechTranscriber turns an utterance clip into text.
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// SpeechSynthesizer turns a reply into audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ConversationHandler drives dialogue turns: orchestration, reply phrasing
// and the speech pipeline for audio turns.
type ConversationHandler struct {
	orchestrator TurnOrchestrator
	phraser      ReplyPhraser
	transcriber  SpeechTranscriber
	synthesizer  SpeechSynthesizer
	log          zerolog.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(
	orchestrator TurnOrchestrator,
	phraser ReplyPhraser,
	transcriber SpeechTranscriber,
	synthesizer SpeechSynthesizer,
	log zerolog.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		orchestrator: orchestrator,
		phraser:      phraser,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		log:          log.With().Str("component", "conversation-handler").Logger(),
	}
}

// AudioTurn is the result of one spoken turn.
type AudioTurn struct {
	Transcript string
	Reply      string
	Result     *conversation.TurnResult
	// Audio is nil when synthesis was unavailable and the client should
	// fall back to the text reply.
	Audio []byte
}

// StartCall opens a new call: a fresh session token, a phrased greeting and
// the spoken greeting when synthesis is available. No state is persisted
// until the first turn arrives.
func (h *ConversationHandler) StartCall(ctx context.Context) (string, string, []byte, error) {
	sessionKey, err := idgen.GenerateSessionToken()
	if err != nil {
		return "", "", nil, fmt.Errorf("mint session token: %w", err)
	}
	greeting := h.phraser.Phrase(ctx, conversation.IntentWelcome, nil, nil)

	audio, err := h.synthesizer.Synthesize(ctx, greeting)
	if err != nil {
		if !errors.Is(err, speech.ErrUnavailable) {
			h.log.Warn().Err(err).Msg("greeting synthesis failed, serving text only")
		}
		audio = nil
	}

	h.log.Info().Str("session_key", sessionKey).Msg("call started")
	return sessionKey, greeting, audio, nil
}

// Turn processes one text utterance and phrases the reply.
func (h *ConversationHandler) Turn(ctx context.Context, sessionKey, message, phone string) (string, *conversation.TurnResult, error) {
	start := time.Now()

	result, err := h.orchestrator.HandleTurn(ctx, message, sessionKey, phone)
	if err != nil {
		return "", nil, err
	}

	reply := h.phraser.Phrase(ctx, result.Intent, result.Collected, result.History)

	metrics.RecordTurn(string(result.Intent), start)
	if result.Migrated {
		metrics.SessionMigrations.Inc()
	}
	if result.Booking != nil && (result.Intent == conversation.IntentConfirmBooking || result.Intent == conversation.IntentForceComplete) {
		metrics.RecordBooking(result.Forced)
	}
	return reply, result, nil
}

// ProcessAudio transcribes a spoken utterance, runs the turn and
// synthesizes the reply. Synthesis failures degrade to a text-only turn
// rather than failing the request.
func (h *ConversationHandler) ProcessAudio(ctx context.Context, audio io.Reader, filename, sessionKey, phone string) (*AudioTurn, error) {
	transcript, err := h.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, err
	}

	reply, result, err := h.Turn(ctx, sessionKey, transcript, phone)
	if err != nil {
		return nil, err
	}

	out := &AudioTurn{Transcript: transcript, Reply: reply, Result: result}

	synthStart := time.Now()
	speechBytes, err := h.synthesizer.Synthesize(ctx, reply)
	if err != nil {
		if !errors.Is(err, speech.ErrUnavailable) {
			h.log.Warn().Err(err).Msg("reply synthesis failed, serving text only")
		}
		return out, nil
	}
	metrics.SynthesisDuration.Observe(time.Since(synthStart).Seconds())
	out.Audio = speechBytes
	return out, nil
}
