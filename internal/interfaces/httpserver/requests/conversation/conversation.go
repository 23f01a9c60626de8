// Package conversation contains HTTP request DTOs for conversation endpoints.
package conversation

// TurnRequest is the body for one text turn of the booking dialogue.
type TurnRequest struct {
	// SessionKey identifies the call; obtained from the start endpoint.
	SessionKey string `json:"session_key" binding:"required"`
	// Message is the caller's utterance for this turn.
	Message string `json:"message" binding:"required"`
	// Phone is the phone verified on a previous turn, if any. Clients echo
	// back the detected_phone from earlier responses.
	Phone string `json:"phone,omitempty"`
}
