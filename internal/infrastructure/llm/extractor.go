package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/metrics"
)

const extractionSystemPrompt = `You extract restaurant reservation details from one caller utterance.
Return a JSON object with exactly these keys, using null for anything the utterance does not mention:
  "name": the caller's name as spoken
  "phone": the phone number, digits and separators as spoken
  "party_size": the number of guests as an integer
  "date": the requested date in YYYY-MM-DD, resolving relative dates against today's date given below
  "time": the requested time in 24-hour HH:MM
  "special_requests": any seating or occasion requests, verbatim
Never invent values. Today's date is %s.`

// Extractor parses one utterance into a structured partial record with a
// JSON-mode chat completion.
type Extractor struct {
	provider *Provider
	model    string
	now      func() string
	log      zerolog.Logger
}

// NewExtractor creates an utterance extractor using the given model.
func NewExtractor(provider *Provider, model string, log zerolog.Logger) *Extractor {
	return &Extractor{
		provider: provider,
		model:    model,
		now:      todayISO,
		log:      log.With().Str("component", "utterance-extractor").Logger(),
	}
}

// rawExtraction tolerates the shapes models actually produce: party_size
// may arrive as a number or a quoted string, other fields as any scalar.
type rawExtraction struct {
	Name            *string         `json:"name"`
	Phone           json.RawMessage `json:"phone"`
	PartySize       json.RawMessage `json:"party_size"`
	Date            *string         `json:"date"`
	Time            *string         `json:"time"`
	SpecialRequests *string         `json:"special_requests"`
}

// Extract runs the extraction completion and coerces the model's JSON into
// the domain record. Fields the model omitted or nulled stay nil.
func (e *Extractor) Extract(ctx context.Context, utterance string) (conversation.ExtractedRecord, error) {
	if strings.TrimSpace(utterance) == "" {
		return conversation.ExtractedRecord{}, nil
	}

	start := time.Now()
	defer func() {
		metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	}()

	var content string
	err := e.provider.Do(ctx, func(ctx context.Context, client *openai.Client) error {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       e.model,
			Temperature: 0.1,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(extractionSystemPrompt, e.now())},
				{Role: openai.ChatMessageRoleUser, Content: utterance},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return conversation.ExtractedRecord{}, fmt.Errorf("extraction completion: %w", err)
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		e.log.Warn().Err(err).Str("content", content).Msg("extraction output is not valid JSON")
		return conversation.ExtractedRecord{}, fmt.Errorf("parse extraction output: %w", err)
	}

	rec := conversation.ExtractedRecord{
		Name:            cleanString(raw.Name),
		Phone:           coerceString(raw.Phone),
		PartySize:       coerceInt(raw.PartySize),
		Date:            cleanString(raw.Date),
		Time:            cleanString(raw.Time),
		SpecialRequests: cleanString(raw.SpecialRequests),
	}
	return rec, nil
}

func todayISO() string {
	return time.Now().Format("2006-01-02")
}

func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return nil
	}
	return &trimmed
}

// coerceString accepts a JSON string or number and returns it as a string.
func coerceString(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return cleanString(&s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		v := n.String()
		return &v
	}
	return nil
}

// coerceInt accepts a JSON number or a numeric string.
func coerceInt(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, convErr := strconv.Atoi(strings.TrimSpace(s)); convErr == nil {
			return &v
		}
	}
	return nil
}
