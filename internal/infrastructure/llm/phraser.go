package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
)

const phrasingSystemPrompt = `You are Riya, the warm and efficient phone hostess of Guru Kitchen.
Speak in one or two short sentences, as if on a phone call. No emoji, no lists, no stage directions.
You are given the goal of this turn and what is already known about the reservation; phrase the goal naturally.
Never ask for more than one detail at once, and never repeat details the caller just gave unless confirming the booking.`

// canned per-intent fallbacks, used verbatim when the phrasing completion
// fails so the call never goes silent.
var cannedPhrases = map[conversation.Intent]string{
	conversation.IntentWelcome:        "Hi, this is Riya at Guru Kitchen! I'd be happy to book a table for you. Could I start with your name?",
	conversation.IntentWelcomeBack:    "Welcome back to Guru Kitchen! I can see your upcoming reservation with us. Is there anything you'd like to change?",
	conversation.IntentAskName:        "Could I have your name for the reservation, please?",
	conversation.IntentAskPhone:       "What's the best phone number to reach you on?",
	conversation.IntentAskPartySize:   "How many people will be joining us?",
	conversation.IntentAskDate:        "What date would you like to come in?",
	conversation.IntentAskTime:        "And what time works best for you?",
	conversation.IntentConfirmBooking: "Wonderful, your table is booked! We look forward to seeing you at Guru Kitchen.",
	conversation.IntentForceComplete:  "I've gone ahead and booked that with our usual defaults for the details I was missing. We look forward to seeing you!",
	conversation.IntentUnavailable:    "I'm sorry, that time is fully booked. Could you pick a different time?",
	conversation.IntentNeedValidPhone: "I wasn't able to get a working phone number, and I can't hold a table without one. Please call back with your number handy.",
	conversation.IntentTrouble:        "I'm having a little trouble with our system right now. Could you give me that once more?",
}

// turn goals handed to the model per intent.
var intentGoals = map[conversation.Intent]string{
	conversation.IntentWelcome:        "Greet the caller and offer to book a table.",
	conversation.IntentWelcomeBack:    "Recognize the returning caller and mention their upcoming reservation.",
	conversation.IntentAskName:        "Ask for the caller's name.",
	conversation.IntentAskPhone:       "Ask for a contact phone number.",
	conversation.IntentAskPartySize:   "Ask how many guests are coming.",
	conversation.IntentAskDate:        "Ask what date they want.",
	conversation.IntentAskTime:        "Ask what time they want.",
	conversation.IntentConfirmBooking: "Confirm the completed booking, restating its details.",
	conversation.IntentForceComplete:  "Confirm the booking while noting some details were filled with sensible defaults.",
	conversation.IntentUnavailable:    "Apologize that the requested time is full and ask for another time.",
	conversation.IntentNeedValidPhone: "Apologize that no working phone number could be taken and explain a table cannot be held without one.",
	conversation.IntentTrouble:        "Apologize for a brief technical hiccup and ask the caller to repeat.",
}

// Phraser turns a response intent plus conversation context into the
// hostess's next line.
type Phraser struct {
	provider *Provider
	model    string
	log      zerolog.Logger
}

// NewPhraser creates a reply phraser using the given model.
func NewPhraser(provider *Provider, model string, log zerolog.Logger) *Phraser {
	return &Phraser{
		provider: provider,
		model:    model,
		log:      log.With().Str("component", "reply-phraser").Logger(),
	}
}

// Phrase produces the hostess's reply for one turn. It degrades to a
// canned per-intent phrase when the completion fails.
func (p *Phraser) Phrase(ctx context.Context, intent conversation.Intent, collected map[conversation.Field]string, history []string) string {
	goal, ok := intentGoals[intent]
	if !ok {
		goal = intentGoals[conversation.IntentTrouble]
	}

	var reply string
	err := p.provider.Do(ctx, func(ctx context.Context, client *openai.Client) error {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.model,
			Temperature: 0.7,
			MaxTokens:   120,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: phrasingSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: buildPhrasingContext(goal, collected, history)},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return fmt.Errorf("empty completion")
		}
		reply = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		p.log.Warn().Err(err).Str("intent", string(intent)).Msg("phrasing failed, using canned reply")
		return Canned(intent)
	}
	return reply
}

// Canned returns the fixed fallback phrase for an intent.
func Canned(intent conversation.Intent) string {
	if phrase, ok := cannedPhrases[intent]; ok {
		return phrase
	}
	return cannedPhrases[conversation.IntentTrouble]
}

func buildPhrasingContext(goal string, collected map[conversation.Field]string, history []string) string {
	var b strings.Builder
	b.WriteString("Goal of this turn: ")
	b.WriteString(goal)
	b.WriteString("\n\nKnown reservation details:\n")
	if len(collected) == 0 {
		b.WriteString("  (nothing yet)\n")
	}
	fields := make([]conversation.Field, 0, len(conversation.FlowOrder)+1)
	fields = append(fields, conversation.FlowOrder...)
	fields = append(fields, conversation.FieldSpecialRequests)
	for _, f := range fields {
		if v, ok := collected[f]; ok && v != "" {
			fmt.Fprintf(&b, "  %s: %s\n", f, v)
		}
	}
	if len(history) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, line := range history {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
