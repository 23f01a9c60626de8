package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
	"github.com/gurukitchen/hostess-api/internal/infrastructure/metrics"
)

// Call event types exchanged over the websocket.
const (
	eventStart     = "start"
	eventTextInput = "text_input"
	eventInterrupt = "interrupt"

	eventSessionStarted   = "session_started"
	eventResponseComplete = "response_complete"
	eventIdentityVerified = "identity_verified"
	eventError            = "error"
)

// callEvent is the wire format for call websocket text messages, both
// directions. Unused fields are omitted per event type. Binary frames carry
// audio: an utterance clip inbound, the synthesized reply outbound.
type callEvent struct {
	Type          string            `json:"type"`
	SessionKey    string            `json:"session_key,omitempty"`
	Text          string            `json:"text,omitempty"`
	Transcript    string            `json:"transcript,omitempty"`
	Reply         string            `json:"reply,omitempty"`
	Intent        string            `json:"intent,omitempty"`
	DetectedPhone string            `json:"detected_phone,omitempty"`
	Collected     map[string]string `json:"collected_fields,omitempty"`
	Message       string            `json:"message,omitempty"`
}

// CallHandler serves the live call websocket. One connection is one call:
// the session key and any verified phone stay server-side for the lifetime
// of the socket, and an interrupt cancels the in-flight turn.
type CallHandler struct {
	conversation *ConversationHandler
	upgrader     websocket.Upgrader
	log          zerolog.Logger
}

// NewCallHandler creates a new call websocket handler.
func NewCallHandler(conversation *ConversationHandler, log zerolog.Logger) *CallHandler {
	return &CallHandler{
		conversation: conversation,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		log: log.With().Str("component", "call-handler").Logger(),
	}
}

// Serve upgrades the request and runs the call loop until the client hangs
// up.
func (h *CallHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.ActiveCalls.Inc()
	defer metrics.ActiveCalls.Dec()

	call := &callState{conn: conn}
	defer call.cancelTurn()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn().Err(err).Msg("call connection dropped")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			h.handleAudio(c.Request.Context(), call, data)
		case websocket.TextMessage:
			var ev callEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				call.write(callEvent{Type: eventError, Message: "malformed event"})
				continue
			}
			switch ev.Type {
			case eventStart:
				h.startCall(c.Request.Context(), call)
			case eventTextInput:
				h.handleText(c.Request.Context(), call, ev.Text)
			case eventInterrupt:
				call.cancelTurn()
			default:
				call.write(callEvent{Type: eventError, Message: "unknown event type: " + ev.Type})
			}
		}
	}
}

func (h *CallHandler) startCall(ctx context.Context, call *callState) bool {
	sessionKey, greeting, audio, err := h.conversation.StartCall(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("call start failed")
		call.write(callEvent{Type: eventError, Message: "failed to start call"})
		return false
	}
	call.sessionKey = sessionKey
	call.write(callEvent{
		Type:       eventSessionStarted,
		SessionKey: sessionKey,
		Reply:      greeting,
	})
	if len(audio) > 0 {
		call.writeBinary(audio)
	}
	return true
}

// handleText runs one turn in the background so the read loop stays free to
// pick up an interrupt.
func (h *CallHandler) handleText(ctx context.Context, call *callState, text string) {
	turnCtx, cancel, sessionKey, phone, ok := h.beginTurn(ctx, call)
	if !ok {
		return
	}
	go func() {
		defer cancel()

		reply, result, err := h.conversation.Turn(turnCtx, sessionKey, text, phone)
		if err != nil {
			h.reportTurnError(turnCtx, call, err)
			return
		}
		h.emitTurn(call, phone, "", reply, result, nil)
	}()
}

// handleAudio is the spoken counterpart of handleText: transcribe, turn,
// then a binary reply frame before the completion event.
func (h *CallHandler) handleAudio(ctx context.Context, call *callState, clip []byte) {
	turnCtx, cancel, sessionKey, phone, ok := h.beginTurn(ctx, call)
	if !ok {
		return
	}
	go func() {
		defer cancel()

		turn, err := h.conversation.ProcessAudio(turnCtx, bytes.NewReader(clip), "utterance.wav", sessionKey, phone)
		if err != nil {
			h.reportTurnError(turnCtx, call, err)
			return
		}
		h.emitTurn(call, phone, turn.Transcript, turn.Reply, turn.Result, turn.Audio)
	}()
}

// beginTurn lazily starts the call, cancels any in-flight turn and hands
// back the context and identity for the next one.
func (h *CallHandler) beginTurn(ctx context.Context, call *callState) (context.Context, context.CancelFunc, string, string, bool) {
	if call.sessionKey == "" && !h.startCall(ctx, call) {
		return nil, nil, "", "", false
	}
	call.cancelTurn()

	turnCtx, cancel := context.WithCancel(ctx)
	call.setCancel(cancel)
	return turnCtx, cancel, call.sessionKey, call.getPhone(), true
}

func (h *CallHandler) reportTurnError(turnCtx context.Context, call *callState, err error) {
	if turnCtx.Err() != nil {
		return // interrupted, nothing to send
	}
	h.log.Error().Err(err).Msg("call turn failed")
	call.write(callEvent{Type: eventError, Message: "turn failed"})
}

func (h *CallHandler) emitTurn(call *callState, previousPhone, transcript, reply string, result *conversation.TurnResult, audio []byte) {
	if result.VerifiedPhone != "" && result.VerifiedPhone != previousPhone {
		call.setPhone(result.VerifiedPhone)
		call.write(callEvent{
			Type:          eventIdentityVerified,
			DetectedPhone: result.VerifiedPhone,
		})
	}

	if len(audio) > 0 {
		call.writeBinary(audio)
	}

	out := callEvent{
		Type:          eventResponseComplete,
		SessionKey:    result.SessionKey,
		Transcript:    transcript,
		Reply:         reply,
		Intent:        string(result.Intent),
		DetectedPhone: result.VerifiedPhone,
	}
	if len(result.Collected) > 0 {
		out.Collected = make(map[string]string, len(result.Collected))
		for f, v := range result.Collected {
			out.Collected[string(f)] = v
		}
	}
	call.write(out)
}

// callState is the per-connection call context. Writes are serialized
// because gorilla connections allow only one concurrent writer, and the
// verified phone is shared between the read loop and turn goroutines.
type callState struct {
	conn       *websocket.Conn
	sessionKey string

	mu         sync.Mutex
	phone      string
	cancelFunc context.CancelFunc
}

func (s *callState) getPhone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phone
}

func (s *callState) setPhone(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phone = phone
}

func (s *callState) write(ev callEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteJSON(ev)
}

func (s *callState) writeBinary(audio []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteMessage(websocket.BinaryMessage, audio)
}

func (s *callState) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelFunc = cancel
}

func (s *callState) cancelTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
}
