package v1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/handlers"
)

type stubOrchestrator struct {
	result *conversation.TurnResult
	err    error
}

func (s *stubOrchestrator) HandleTurn(_ context.Context, _, _, _ string) (*conversation.TurnResult, error) {
	return s.result, s.err
}

type stubPhraser struct{ reply string }

func (s *stubPhraser) Phrase(_ context.Context, _ conversation.Intent, _ map[conversation.Field]string, _ []string) string {
	return s.reply
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(_ context.Context, _ io.Reader, _ string) (string, error) {
	return "", nil
}

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func newTestEngine(orch *stubOrchestrator, reply string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewConversationHandler(orch, &stubPhraser{reply: reply}, stubTranscriber{}, stubSynthesizer{}, zerolog.Nop())
	engine := gin.New()
	RegisterConversationRoutes(engine.Group("/v1"), handler)
	return engine
}

func TestProcessTurnRoute(t *testing.T) {
	orch := &stubOrchestrator{
		result: &conversation.TurnResult{
			Intent:        conversation.IntentAskTime,
			SessionKey:    "a1b2c3d4",
			VerifiedPhone: "9876543210",
			Collected: map[conversation.Field]string{
				conversation.FieldName:  "Priya",
				conversation.FieldPhone: "9876543210",
			},
		},
	}
	engine := newTestEngine(orch, "What time works for you?")

	body := `{"session_key":"a1b2c3d4","message":"around eight","phone":"9876543210"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/conversation/turns", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Detected-Phone"); got != "9876543210" {
		t.Errorf("X-Detected-Phone = %q", got)
	}

	var resp struct {
		Reply         string            `json:"reply"`
		Intent        string            `json:"intent"`
		SessionKey    string            `json:"session_key"`
		DetectedPhone string            `json:"detected_phone"`
		Collected     map[string]string `json:"collected_fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply != "What time works for you?" {
		t.Errorf("reply = %q", resp.Reply)
	}
	if resp.Intent != "ask_time" {
		t.Errorf("intent = %q", resp.Intent)
	}
	if resp.Collected["name"] != "Priya" {
		t.Errorf("collected = %v", resp.Collected)
	}
}

func TestProcessTurnRouteRejectsMissingMessage(t *testing.T) {
	engine := newTestEngine(&stubOrchestrator{}, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/conversation/turns", strings.NewReader(`{"session_key":"a1b2c3d4"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStartCallRoute(t *testing.T) {
	engine := newTestEngine(&stubOrchestrator{}, "Welcome to Guru Kitchen!")

	req := httptest.NewRequest(http.MethodPost, "/v1/conversation/calls/start", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SessionKey string `json:"session_key"`
		Greeting   string `json:"greeting"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.SessionKey) != 8 {
		t.Errorf("session key %q, want 8 hex chars", resp.SessionKey)
	}
	if resp.Greeting != "Welcome to Guru Kitchen!" {
		t.Errorf("greeting = %q", resp.Greeting)
	}
}
