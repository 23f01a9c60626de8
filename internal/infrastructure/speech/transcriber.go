package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/gurukitchen/hostess-api/internal/infrastructure/llm"
)

// Transcriber converts caller audio into text with a Whisper-family model.
type Transcriber struct {
	provider *llm.Provider
	model    string
	log      zerolog.Logger
}

// NewTranscriber creates a speech-to-text transcriber.
func NewTranscriber(provider *llm.Provider, model string, log zerolog.Logger) *Transcriber {
	return &Transcriber{
		provider: provider,
		model:    model,
		log:      log.With().Str("component", "transcriber").Logger(),
	}
}

// Transcribe returns the spoken text of one audio clip. filename carries
// the extension the decoder needs (wav, mp3, webm).
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	// Buffered so a key-failover retry can replay the clip.
	clip, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	var text string
	err = t.provider.Do(ctx, func(ctx context.Context, client *openai.Client) error {
		resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    t.model,
			Reader:   bytes.NewReader(clip),
			FilePath: filename,
		})
		if err != nil {
			return err
		}
		text = strings.TrimSpace(resp.Text)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return text, nil
}
