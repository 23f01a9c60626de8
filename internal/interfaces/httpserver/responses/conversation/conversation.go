// Package conversation contains HTTP response DTOs for conversation
// endpoints.
package conversation

import (
	"github.com/gurukitchen/hostess-api/internal/domain/booking"
	domain "github.com/gurukitchen/hostess-api/internal/domain/conversation"
)

// TurnResponse is the result of one dialogue turn.
type TurnResponse struct {
	Reply         string            `json:"reply"`
	Intent        string            `json:"intent"`
	SessionKey    string            `json:"session_key"`
	DetectedPhone string            `json:"detected_phone,omitempty"`
	Collected     map[string]string `json:"collected_fields,omitempty"`
	Forced        bool              `json:"forced,omitempty"`
	Booking       *BookingDetail    `json:"booking,omitempty"`
}

// BookingDetail is the reservation surfaced on confirmation or welcome
// back.
type BookingDetail struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	PartySize       int    `json:"party_size"`
	BookingDate     string `json:"booking_date"`
	BookingTime     string `json:"booking_time"`
	SpecialRequests string `json:"special_requests,omitempty"`
	Status          string `json:"status"`
}

// StartCallResponse is the result of opening a new call session.
type StartCallResponse struct {
	SessionKey string `json:"session_key"`
	Greeting   string `json:"greeting"`
	// GreetingAudioBase64 carries the spoken greeting when synthesis was
	// available.
	GreetingAudioBase64 string `json:"greeting_audio_base64,omitempty"`
}

// AudioTurnResponse is the result of one spoken turn.
type AudioTurnResponse struct {
	Transcript string `json:"transcript"`
	TurnResponse
	// AudioBase64 carries the synthesized reply, empty when synthesis was
	// unavailable and the client should fall back to text.
	AudioBase64 string `json:"audio_base64,omitempty"`
}

// NewTurnResponse builds the turn DTO from the domain result and phrased
// reply.
func NewTurnResponse(reply string, result *domain.TurnResult) *TurnResponse {
	out := &TurnResponse{
		Reply:         reply,
		Intent:        string(result.Intent),
		SessionKey:    result.SessionKey,
		DetectedPhone: result.VerifiedPhone,
		Forced:        result.Forced,
		Booking:       newBookingDetail(result.Booking),
	}
	if len(result.Collected) > 0 {
		out.Collected = make(map[string]string, len(result.Collected))
		for f, v := range result.Collected {
			out.Collected[string(f)] = v
		}
	}
	return out
}

func newBookingDetail(rec *booking.Record) *BookingDetail {
	if rec == nil {
		return nil
	}
	return &BookingDetail{
		Name:            rec.Name,
		Phone:           rec.Phone,
		PartySize:       rec.PartySize,
		BookingDate:     rec.BookingDate,
		BookingTime:     rec.BookingTime,
		SpecialRequests: rec.SpecialRequests,
		Status:          string(rec.Status),
	}
}
