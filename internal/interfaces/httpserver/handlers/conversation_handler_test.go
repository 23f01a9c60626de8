package handlers

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/speech"
)

type fakeOrchestrator struct {
	result *conversation.TurnResult
	err    error

	gotUtterance string
	gotSession   string
	gotPhone     string
}

func (f *fakeOrchestrator) HandleTurn(_ context.Context, utterance, sessionKey, verifiedPhone string) (*conversation.TurnResult, error) {
	f.gotUtterance = utterance
	f.gotSession = sessionKey
	f.gotPhone = verifiedPhone
	return f.result, f.err
}

type fakePhraser struct {
	reply     string
	gotIntent conversation.Intent
}

func (f *fakePhraser) Phrase(_ context.Context, intent conversation.Intent, _ map[conversation.Field]string, _ []string) string {
	f.gotIntent = intent
	return f.reply
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ io.Reader, _ string) (string, error) {
	return f.transcript, f.err
}

type fakeSynthesizer struct {
	audio []byte
	err   error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return f.audio, f.err
}

func newTestHandler(o TurnOrchestrator, p ReplyPhraser, tr SpeechTranscriber, s SpeechSynthesizer) *ConversationHandler {
	return NewConversationHandler(o, p, tr, s, zerolog.Nop())
}

func TestTurnPhrasesOrchestratorResult(t *testing.T) {
	orch := &fakeOrchestrator{
		result: &conversation.TurnResult{
			Intent:        conversation.IntentAskPartySize,
			SessionKey:    "a1b2c3d4",
			VerifiedPhone: "9876543210",
		},
	}
	phraser := &fakePhraser{reply: "How many guests?"}
	h := newTestHandler(orch, phraser, &fakeTranscriber{}, &fakeSynthesizer{})

	reply, result, err := h.Turn(context.Background(), "a1b2c3d4", "my number is 98765 43210", "")
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if reply != "How many guests?" {
		t.Errorf("reply = %q", reply)
	}
	if result.Intent != conversation.IntentAskPartySize {
		t.Errorf("intent = %q", result.Intent)
	}
	if phraser.gotIntent != conversation.IntentAskPartySize {
		t.Errorf("phrased intent = %q", phraser.gotIntent)
	}
	if orch.gotUtterance != "my number is 98765 43210" || orch.gotSession != "a1b2c3d4" || orch.gotPhone != "" {
		t.Errorf("orchestrator got (%q, %q, %q)", orch.gotUtterance, orch.gotSession, orch.gotPhone)
	}
}

func TestTurnPropagatesOrchestratorError(t *testing.T) {
	orch := &fakeOrchestrator{err: errors.New("boom")}
	h := newTestHandler(orch, &fakePhraser{}, &fakeTranscriber{}, &fakeSynthesizer{})

	if _, _, err := h.Turn(context.Background(), "a1b2c3d4", "hello", ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestStartCallIssuesSessionToken(t *testing.T) {
	phraser := &fakePhraser{reply: "Welcome to Guru Kitchen!"}
	h := newTestHandler(&fakeOrchestrator{}, phraser, &fakeTranscriber{}, &fakeSynthesizer{audio: []byte("greeting-mp3")})

	sessionKey, greeting, audio, err := h.StartCall(context.Background())
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if len(sessionKey) != 8 {
		t.Errorf("session key %q, want 8 hex chars", sessionKey)
	}
	if greeting != "Welcome to Guru Kitchen!" {
		t.Errorf("greeting = %q", greeting)
	}
	if string(audio) != "greeting-mp3" {
		t.Errorf("audio = %q", audio)
	}
	if phraser.gotIntent != conversation.IntentWelcome {
		t.Errorf("greeting intent = %q", phraser.gotIntent)
	}
}

func TestStartCallWithoutSynthesis(t *testing.T) {
	h := newTestHandler(&fakeOrchestrator{}, &fakePhraser{reply: "Welcome!"}, &fakeTranscriber{}, &fakeSynthesizer{err: speech.ErrUnavailable})

	_, greeting, audio, err := h.StartCall(context.Background())
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if greeting != "Welcome!" {
		t.Errorf("greeting = %q", greeting)
	}
	if audio != nil {
		t.Errorf("audio = %q, want none", audio)
	}
}

func TestProcessAudioReturnsSynthesizedReply(t *testing.T) {
	orch := &fakeOrchestrator{
		result: &conversation.TurnResult{Intent: conversation.IntentAskName, SessionKey: "a1b2c3d4"},
	}
	h := newTestHandler(
		orch,
		&fakePhraser{reply: "What name should I put the booking under?"},
		&fakeTranscriber{transcript: "table for two please"},
		&fakeSynthesizer{audio: []byte("mp3-bytes")},
	)

	turn, err := h.ProcessAudio(context.Background(), strings.NewReader("clip"), "turn.wav", "a1b2c3d4", "")
	if err != nil {
		t.Fatalf("ProcessAudio: %v", err)
	}
	if turn.Transcript != "table for two please" {
		t.Errorf("transcript = %q", turn.Transcript)
	}
	if orch.gotUtterance != "table for two please" {
		t.Errorf("orchestrator got %q, want the transcript", orch.gotUtterance)
	}
	if string(turn.Audio) != "mp3-bytes" {
		t.Errorf("audio = %q", turn.Audio)
	}
}

func TestProcessAudioDegradesToTextOnSynthesisFailure(t *testing.T) {
	for name, synthErr := range map[string]error{
		"unavailable": speech.ErrUnavailable,
		"failure":     errors.New("tts down"),
	} {
		t.Run(name, func(t *testing.T) {
			h := newTestHandler(
				&fakeOrchestrator{result: &conversation.TurnResult{Intent: conversation.IntentAskDate}},
				&fakePhraser{reply: "Which date?"},
				&fakeTranscriber{transcript: "tomorrow evening"},
				&fakeSynthesizer{err: synthErr},
			)

			turn, err := h.ProcessAudio(context.Background(), strings.NewReader("clip"), "turn.wav", "a1b2c3d4", "")
			if err != nil {
				t.Fatalf("ProcessAudio: %v", err)
			}
			if turn.Audio != nil {
				t.Errorf("audio = %q, want none", turn.Audio)
			}
			if turn.Reply != "Which date?" {
				t.Errorf("reply = %q", turn.Reply)
			}
		})
	}
}

func TestProcessAudioFailsWhenTranscriptionFails(t *testing.T) {
	h := newTestHandler(
		&fakeOrchestrator{},
		&fakePhraser{},
		&fakeTranscriber{err: errors.New("bad clip")},
		&fakeSynthesizer{},
	)

	if _, err := h.ProcessAudio(context.Background(), strings.NewReader("clip"), "turn.wav", "a1b2c3d4", ""); err == nil {
		t.Fatal("expected error")
	}
}
