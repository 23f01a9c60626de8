package conversation

import (
	"time"

	"github.com/rs/zerolog"
)

// ActionKind classifies what the dialogue should do next.
type ActionKind string

const (
	// ActionAsk means one required field is still missing: ask for it.
	ActionAsk ActionKind = "ask"
	// ActionReadyToBook means every required field holds an accepted value.
	ActionReadyToBook ActionKind = "ready_to_book"
	// ActionNeedValidPhone is the terminal state reached when the caller
	// exhausted the phone retries. Phone is the booking's primary key and
	// contact channel, so it can never be auto-filled.
	ActionNeedValidPhone ActionKind = "need_valid_phone"
)

// NextAction is the engine's decision for one turn.
type NextAction struct {
	Kind  ActionKind
	Field Field // set when Kind == ActionAsk
	// Forced is set on ReadyToBook when at least one field was filled by
	// the auto-fill policy rather than by the caller, so confirmation
	// phrasing can disclose that defaults were used.
	Forced bool
}

// Engine is the slot-filling state machine: it merges extracted guesses
// into accumulated state and decides the next action. Both operations
// return a new state value and leave their input untouched, so calling
// them again on the same input yields the same result; only the state the
// orchestrator persists advances the conversation.
type Engine struct {
	now func() time.Time
	log zerolog.Logger
}

// NewEngine creates a slot-filling engine. now is injectable so the date
// auto-fill default is testable.
func NewEngine(now func() time.Time, log zerolog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		now: now,
		log: log.With().Str("component", "slot-filling-engine").Logger(),
	}
}

// Merge folds one turn's extracted guesses into the state. The utterance is
// appended to history; each non-empty guess is accepted only if its field
// validator passes. A rejected value is dropped silently, leaving the field
// unresolved, so an invalid phone can never reach Collected. Accepting a
// value resets that field's retry counter.
func (e *Engine) Merge(state *State, rec ExtractedRecord, userText string) *State {
	out := state.Clone()
	if userText != "" {
		out.AppendHistory("Caller: " + userText)
	}
	out.LastInteraction = e.now()

	for f, raw := range rec.Fields() {
		if !Accepts(f, raw) {
			e.log.Debug().Str("field", string(f)).Msg("extracted value rejected by validator")
			continue
		}
		if f == FieldPhone {
			raw = StripPhoneSeparators(raw)
		}
		out.Collected[f] = raw
		out.RetryCount[f] = 0
	}
	return out
}

// Advance scans the flow order for the first unresolved field and decides
// the next action. A field whose retry budget is exhausted is auto-filled
// with a policy default and the scan continues past it; phone is the
// exception and produces the terminal need-valid-phone action instead.
// The returned state carries the retry increment (or auto-fills) that the
// decision implies; the input state is not modified.
func (e *Engine) Advance(state *State) (*State, NextAction) {
	out := state.Clone()
	forced := false

	for _, f := range FlowOrder {
		if out.Has(f) && (f != FieldPhone || IsValidPhone(out.Collected[f])) {
			continue
		}

		if out.RetryCount[f] >= MaxRetries {
			if f == FieldPhone {
				return out, NextAction{Kind: ActionNeedValidPhone, Field: FieldPhone}
			}
			out.Collected[f] = e.autoFill(f)
			forced = true
			e.log.Info().Str("field", string(f)).Str("value", out.Collected[f]).Msg("field auto-filled after retry exhaustion")
			continue
		}

		out.RetryCount[f]++
		return out, NextAction{Kind: ActionAsk, Field: f}
	}

	if !out.Has(FieldSpecialRequests) {
		out.Collected[FieldSpecialRequests] = DefaultSpecialRequests
	}
	return out, NextAction{Kind: ActionReadyToBook, Forced: forced}
}

func (e *Engine) autoFill(f Field) string {
	switch f {
	case FieldName:
		return "Guest"
	case FieldPartySize:
		return "2"
	case FieldDate:
		return e.now().Format("2006-01-02")
	case FieldTime:
		return "19:00"
	default:
		return ""
	}
}
