package v1

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/handlers"
	conversationreq "github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/requests/conversation"
	"github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/responses"
	conversationres "github.com/gurukitchen/hostess-api/internal/interfaces/httpserver/responses/conversation"
	"github.com/gurukitchen/hostess-api/internal/utils/platformerrors"
)

// detectedPhoneHeader mirrors the detected_phone body field so proxies can
// route repeat callers without parsing the payload.
const detectedPhoneHeader = "X-Detected-Phone"

// maxAudioBytes caps one uploaded utterance clip.
const maxAudioBytes = 10 << 20

// RegisterConversationRoutes registers the booking dialogue routes.
func RegisterConversationRoutes(router gin.IRoutes, handler *handlers.ConversationHandler) {
	router.POST("/conversation/calls/start", startCall(handler))
	router.POST("/conversation/turns", processTurn(handler))
	router.POST("/conversation/turns/stream", streamTurn(handler))
	router.POST("/conversation/audio", processAudioTurn(handler))
}

// startCall godoc
// @Summary      Start a call
// @Description  Opens a new booking call and returns the session key and greeting. No request body required.
// @Tags         Conversation API
// @Accept       json
// @Produce      json
// @Success      201 {object} conversationres.StartCallResponse
// @Failure      401 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /conversation/calls/start [post]
func startCall(handler *handlers.ConversationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionKey, greeting, audio, err := handler.StartCall(c.Request.Context())
		if err != nil {
			responses.HandleError(c, err, "failed to start call")
			return
		}
		resp := &conversationres.StartCallResponse{
			SessionKey: sessionKey,
			Greeting:   greeting,
		}
		if len(audio) > 0 {
			resp.GreetingAudioBase64 = base64.StdEncoding.EncodeToString(audio)
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// processTurn godoc
// @Summary      Process a text turn
// @Description  Runs one utterance through the booking dialogue and returns the phrased reply.
// @Tags         Conversation API
// @Accept       json
// @Produce      json
// @Param        request body conversationreq.TurnRequest true "Turn request"
// @Success      200 {object} conversationres.TurnResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      401 {object} responses.ErrorResponse
// @Failure      500 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /conversation/turns [post]
func processTurn(handler *handlers.ConversationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req conversationreq.TurnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		reply, result, err := handler.Turn(c.Request.Context(), req.SessionKey, req.Message, req.Phone)
		if err != nil {
			responses.HandleError(c, err, "failed to process turn")
			return
		}

		if result.VerifiedPhone != "" {
			c.Header(detectedPhoneHeader, result.VerifiedPhone)
		}
		c.JSON(http.StatusOK, conversationres.NewTurnResponse(reply, result))
	}
}

// streamTurn godoc
// @Summary      Stream a text turn
// @Description  Processes one utterance and streams the reply word by word as server-sent events, ending with a "result" event carrying the full turn payload.
// @Tags         Conversation API
// @Accept       json
// @Produce      text/event-stream
// @Param        request body conversationreq.TurnRequest true "Turn request"
// @Failure      400 {object} responses.ErrorResponse
// @Failure      401 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /conversation/turns/stream [post]
func streamTurn(handler *handlers.ConversationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req conversationreq.TurnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		reply, result, err := handler.Turn(c.Request.Context(), req.SessionKey, req.Message, req.Phone)
		if err != nil {
			responses.HandleError(c, err, "failed to process turn")
			return
		}

		if result.VerifiedPhone != "" {
			c.Header(detectedPhoneHeader, result.VerifiedPhone)
		}
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		for _, word := range strings.Fields(reply) {
			c.SSEvent("token", word)
			c.Writer.Flush()
		}
		c.SSEvent("result", conversationres.NewTurnResponse(reply, result))
		c.Writer.Flush()
	}
}

// processAudioTurn godoc
// @Summary      Process a spoken turn
// @Description  Transcribes an uploaded utterance clip, runs the turn and returns the reply with synthesized audio when available.
// @Tags         Conversation API
// @Accept       multipart/form-data
// @Produce      json
// @Param        audio formData file true "Utterance audio clip"
// @Param        session_key formData string true "Call session key"
// @Param        phone formData string false "Phone verified on a previous turn"
// @Success      200 {object} conversationres.AudioTurnResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      401 {object} responses.ErrorResponse
// @Failure      500 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /conversation/audio [post]
func processAudioTurn(handler *handlers.ConversationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionKey := c.PostForm("session_key")
		if sessionKey == "" {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "session_key is required")
			return
		}

		fileHeader, err := c.FormFile("audio")
		if err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "audio file is required")
			return
		}
		if fileHeader.Size > maxAudioBytes {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "audio clip too large")
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			responses.HandleError(c, err, "failed to read audio upload")
			return
		}
		defer file.Close()

		turn, err := handler.ProcessAudio(c.Request.Context(), file, fileHeader.Filename, sessionKey, c.PostForm("phone"))
		if err != nil {
			responses.HandleError(c, err, "failed to process audio turn")
			return
		}

		if turn.Result.VerifiedPhone != "" {
			c.Header(detectedPhoneHeader, turn.Result.VerifiedPhone)
		}

		resp := &conversationres.AudioTurnResponse{
			Transcript:   turn.Transcript,
			TurnResponse: *conversationres.NewTurnResponse(turn.Reply, turn.Result),
		}
		if len(turn.Audio) > 0 {
			resp.AudioBase64 = base64.StdEncoding.EncodeToString(turn.Audio)
		}
		c.JSON(http.StatusOK, resp)
	}
}
