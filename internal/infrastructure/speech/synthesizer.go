package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/gurukitchen/hostess-api/internal/infrastructure/llm"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/metrics"
)

// ErrUnavailable is returned when the token budget is exhausted and no
// fallback synthesizer is configured. Callers fall back to text-only
// responses.
var ErrUnavailable = errors.New("speech synthesis unavailable")

// Synthesizer turns hostess replies into audio. The primary path is the
// OpenAI-compatible TTS endpoint behind a token-bucket budget; when the
// budget runs dry it switches to the fallback HTTP provider if one is
// configured.
type Synthesizer struct {
	provider      *llm.Provider
	model         string
	voice         string
	budget        *rate.Limiter
	fallback      *resty.Client
	fallbackVoice string
	log           zerolog.Logger
}

// FallbackConfig points at a plain HTTP text-to-speech endpoint that takes
// {"text": ..., "voice": ...} and answers with raw audio.
type FallbackConfig struct {
	URL   string
	Voice string
}

// NewSynthesizer creates a speech synthesizer. charsPerMinute bounds how
// much primary-provider synthesis is allowed; zero disables the budget.
func NewSynthesizer(provider *llm.Provider, model, voice string, charsPerMinute int, fallback FallbackConfig, log zerolog.Logger) *Synthesizer {
	s := &Synthesizer{
		provider: provider,
		model:    model,
		voice:    voice,
		log:      log.With().Str("component", "synthesizer").Logger(),
	}
	if charsPerMinute > 0 {
		s.budget = rate.NewLimiter(rate.Limit(float64(charsPerMinute)/60.0), charsPerMinute)
	}
	if fallback.URL != "" {
		s.fallback = resty.New().
			SetBaseURL(fallback.URL).
			SetTimeout(20 * time.Second)
		s.fallbackVoice = fallback.Voice
	}
	return s
}

// Synthesize returns the audio bytes for text. The budget is consumed per
// character; when it cannot cover the text the fallback provider is used,
// and ErrUnavailable is returned when there is none.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}

	if s.budget == nil || s.budget.AllowN(time.Now(), len(text)) {
		audio, err := s.synthesizePrimary(ctx, text)
		if err == nil {
			return audio, nil
		}
		s.log.Warn().Err(err).Msg("primary synthesis failed")
	} else {
		s.log.Warn().Int("chars", len(text)).Msg("synthesis budget exhausted")
	}

	if s.fallback == nil {
		return nil, ErrUnavailable
	}
	return s.synthesizeFallback(ctx, text)
}

func (s *Synthesizer) synthesizePrimary(ctx context.Context, text string) ([]byte, error) {
	var audio []byte
	err := s.provider.Do(ctx, func(ctx context.Context, client *openai.Client) error {
		resp, err := client.CreateSpeech(ctx, openai.CreateSpeechRequest{
			Model: openai.SpeechModel(s.model),
			Input: text,
			Voice: openai.SpeechVoice(s.voice),
		})
		if err != nil {
			return err
		}
		defer resp.Close()
		audio, err = io.ReadAll(resp)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("primary synthesis: %w", err)
	}
	return audio, nil
}

func (s *Synthesizer) synthesizeFallback(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.fallback.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text, "voice": s.fallbackVoice}).
		Post("")
	if err != nil {
		return nil, fmt.Errorf("fallback synthesis: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fallback synthesis: %s", resp.Status())
	}
	metrics.SynthesisFallbacks.Inc()
	s.log.Debug().Int("bytes", len(resp.Body())).Msg("fallback synthesis served")
	return resp.Body(), nil
}
