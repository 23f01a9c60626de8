package conversation

import (
	"strconv"
	"time"
)

// Field identifies one slot collected during the booking dialogue.
type Field string

const (
	FieldName            Field = "name"
	FieldPhone           Field = "phone"
	FieldPartySize       Field = "party_size"
	FieldDate            Field = "date"
	FieldTime            Field = "time"
	FieldSpecialRequests Field = "special_requests"
)

// FlowOrder is the order in which required fields are collected.
// special_requests is optional: it is defaulted when the booking is ready,
// never asked for, and never blocks completion.
var FlowOrder = []Field{FieldName, FieldPhone, FieldPartySize, FieldDate, FieldTime}

const (
	// MaxRetries is how many consecutive turns a field may be asked for and
	// left unanswered before the auto-fill policy takes over.
	MaxRetries = 3

	// HistoryWindow bounds the utterance history kept for prompt context.
	HistoryWindow = 6

	// DefaultSpecialRequests is written when the caller never mentioned any.
	DefaultSpecialRequests = "None"
)

// Intent is the response intent handed to the phrasing generator.
type Intent string

const (
	IntentWelcome        Intent = "welcome"
	IntentWelcomeBack    Intent = "welcome_back"
	IntentAskName        Intent = "ask_name"
	IntentAskPhone       Intent = "ask_phone"
	IntentAskPartySize   Intent = "ask_party_size"
	IntentAskDate        Intent = "ask_date"
	IntentAskTime        Intent = "ask_time"
	IntentConfirmBooking Intent = "confirm_booking"
	IntentForceComplete  Intent = "force_complete"
	IntentUnavailable    Intent = "unavailable"
	IntentNeedValidPhone Intent = "need_valid_phone"
	IntentTrouble        Intent = "trouble_connecting"
)

// AskIntent returns the ask intent for a field, e.g. ask_party_size.
func AskIntent(f Field) Intent {
	return Intent("ask_" + string(f))
}

// State is the persisted conversation record for one identity key.
// Collected holds only fields that have an accepted, non-empty value; the
// phone entry is guaranteed to satisfy IsValidPhone at all times.
type State struct {
	IdentityKey     string           `json:"identity_key"`
	Collected       map[Field]string `json:"collected_fields"`
	RetryCount      map[Field]int    `json:"retry_count"`
	History         []string         `json:"history"`
	CurrentStep     Intent           `json:"current_step"`
	LastInteraction time.Time        `json:"last_interaction"`
}

// NewState returns an empty conversation state owned by the given identity.
func NewState(identityKey string) *State {
	return &State{
		IdentityKey: identityKey,
		Collected:   make(map[Field]string),
		RetryCount:  make(map[Field]int),
	}
}

// Clone returns a deep copy so callers can compute a new state without
// mutating the persisted one.
func (s *State) Clone() *State {
	out := &State{
		IdentityKey:     s.IdentityKey,
		Collected:       make(map[Field]string, len(s.Collected)),
		RetryCount:      make(map[Field]int, len(s.RetryCount)),
		History:         append([]string(nil), s.History...),
		CurrentStep:     s.CurrentStep,
		LastInteraction: s.LastInteraction,
	}
	for k, v := range s.Collected {
		out.Collected[k] = v
	}
	for k, v := range s.RetryCount {
		out.RetryCount[k] = v
	}
	return out
}

// Has reports whether a field holds an accepted value.
func (s *State) Has(f Field) bool {
	v, ok := s.Collected[f]
	return ok && v != ""
}

// AppendHistory records one line and truncates to the recent window.
func (s *State) AppendHistory(line string) {
	s.History = append(s.History, line)
	if len(s.History) > HistoryWindow {
		s.History = s.History[len(s.History)-HistoryWindow:]
	}
}

// ExtractedRecord is the structured guess produced by the extraction
// collaborator for a single utterance. Nil means the field was absent from
// the utterance. Values are raw guesses: nothing here has been validated.
type ExtractedRecord struct {
	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	PartySize       *int    `json:"party_size"`
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	SpecialRequests *string `json:"special_requests"`
}

// Fields returns the non-nil, non-empty guesses keyed by field name.
func (r ExtractedRecord) Fields() map[Field]string {
	out := make(map[Field]string)
	put := func(f Field, v *string) {
		if v != nil && *v != "" {
			out[f] = *v
		}
	}
	put(FieldName, r.Name)
	put(FieldPhone, r.Phone)
	put(FieldDate, r.Date)
	put(FieldTime, r.Time)
	put(FieldSpecialRequests, r.SpecialRequests)
	if r.PartySize != nil && *r.PartySize > 0 {
		out[FieldPartySize] = strconv.Itoa(*r.PartySize)
	}
	return out
}

// IsEmpty reports whether the extractor found nothing this turn.
func (r ExtractedRecord) IsEmpty() bool {
	return len(r.Fields()) == 0
}
