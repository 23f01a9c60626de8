package conversation

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
}

func newTestEngine() *Engine {
	return NewEngine(fixedNow, testLogger())
}

func TestMergeAcceptsValidValues(t *testing.T) {
	e := newTestEngine()
	state := NewState("sess1234")
	state.RetryCount[FieldName] = 2

	rec := ExtractedRecord{
		Name:      strPtr("Priya"),
		Phone:     strPtr("+91 98765-43210"),
		PartySize: intPtr(4),
	}
	out := e.Merge(state, rec, "Priya, four of us, 9876543210")

	if got := out.Collected[FieldName]; got != "Priya" {
		t.Errorf("name = %q, want Priya", got)
	}
	if got := out.Collected[FieldPhone]; got != "919876543210" {
		t.Errorf("phone = %q, want stripped digits", got)
	}
	if got := out.Collected[FieldPartySize]; got != "4" {
		t.Errorf("party size = %q, want 4", got)
	}
	if out.RetryCount[FieldName] != 0 {
		t.Errorf("retry count not reset on accept: %d", out.RetryCount[FieldName])
	}
	if len(out.History) != 1 || out.History[0] != "Caller: Priya, four of us, 9876543210" {
		t.Errorf("history = %v", out.History)
	}
	if !out.LastInteraction.Equal(fixedNow()) {
		t.Errorf("last interaction = %v", out.LastInteraction)
	}
}

func TestMergeRejectsInvalidValues(t *testing.T) {
	e := newTestEngine()
	state := NewState("sess1234")

	rec := ExtractedRecord{
		Phone: strPtr("12345"),
		Date:  strPtr("tomorrow"),
		Time:  strPtr("7pm"),
	}
	out := e.Merge(state, rec, "tomorrow at 7pm, 12345")

	if out.Has(FieldPhone) || out.Has(FieldDate) || out.Has(FieldTime) {
		t.Errorf("invalid values entered state: %v", out.Collected)
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	e := newTestEngine()
	state := NewState("sess1234")

	_ = e.Merge(state, ExtractedRecord{Name: strPtr("Arjun")}, "Arjun here")

	if len(state.Collected) != 0 || len(state.History) != 0 {
		t.Errorf("input state mutated: %+v", state)
	}
}

func TestMergeNeverAcceptsSessionTokenAsPhone(t *testing.T) {
	e := newTestEngine()
	state := NewState("a1b2c3d4")

	out := e.Merge(state, ExtractedRecord{Phone: strPtr("a1b2c3d4")}, "a1b2c3d4")
	if out.Has(FieldPhone) {
		t.Fatalf("session token accepted as phone: %q", out.Collected[FieldPhone])
	}
}

func TestAdvanceAsksInFlowOrder(t *testing.T) {
	e := newTestEngine()
	state := NewState("sess1234")

	fill := []struct {
		ask  Field
		give string
	}{
		{FieldName, "Priya"},
		{FieldPhone, "9876543210"},
		{FieldPartySize, "4"},
		{FieldDate, "2026-09-14"},
		{FieldTime, "19:30"},
	}
	for _, step := range fill {
		next, action := e.Advance(state)
		if action.Kind != ActionAsk || action.Field != step.ask {
			t.Fatalf("expected ask %s, got %+v", step.ask, action)
		}
		if next.RetryCount[step.ask] != state.RetryCount[step.ask]+1 {
			t.Fatalf("retry count for %s not incremented", step.ask)
		}
		state = next
		state.Collected[step.ask] = step.give
		state.RetryCount[step.ask] = 0
	}

	final, action := e.Advance(state)
	if action.Kind != ActionReadyToBook {
		t.Fatalf("expected ready to book, got %+v", action)
	}
	if action.Forced {
		t.Error("forced set although no field was auto-filled")
	}
	if got := final.Collected[FieldSpecialRequests]; got != DefaultSpecialRequests {
		t.Errorf("special requests = %q, want %q", got, DefaultSpecialRequests)
	}
}

func TestAdvanceIsIdempotentWithoutMerge(t *testing.T) {
	e := newTestEngine()
	state := NewState("sess1234")

	first, a1 := e.Advance(state)
	second, a2 := e.Advance(state)

	if a1 != a2 {
		t.Errorf("actions differ: %+v vs %+v", a1, a2)
	}
	if first.RetryCount[FieldName] != 1 || second.RetryCount[FieldName] != 1 {
		t.Errorf("retry counts differ or double-incremented: %d vs %d",
			first.RetryCount[FieldName], second.RetryCount[FieldName])
	}
	if state.RetryCount[FieldName] != 0 {
		t.Error("input state mutated by Advance")
	}
}

func TestAdvanceAutoFillsAfterRetryExhaustion(t *testing.T) {
	e := newTestEngine()
	state := NewState("sess1234")
	state.Collected[FieldName] = "Priya"
	state.Collected[FieldPhone] = "9876543210"
	state.RetryCount[FieldPartySize] = MaxRetries
	state.RetryCount[FieldDate] = MaxRetries
	state.RetryCount[FieldTime] = MaxRetries

	out, action := e.Advance(state)
	if action.Kind != ActionReadyToBook {
		t.Fatalf("expected ready to book, got %+v", action)
	}
	if !action.Forced {
		t.Error("forced not set although fields were auto-filled")
	}
	if got := out.Collected[FieldPartySize]; got != "2" {
		t.Errorf("party size default = %q, want 2", got)
	}
	if got := out.Collected[FieldDate]; got != "2026-09-10" {
		t.Errorf("date default = %q, want today", got)
	}
	if got := out.Collected[FieldTime]; got != "19:00" {
		t.Errorf("time default = %q, want 19:00", got)
	}
}

func TestAdvancePhoneIsNeverAutoFilled(t *testing.T) {
	e := newTestEngine()
	state := NewState("sess1234")
	state.Collected[FieldName] = "Priya"
	state.RetryCount[FieldPhone] = MaxRetries

	out, action := e.Advance(state)
	if action.Kind != ActionNeedValidPhone {
		t.Fatalf("expected need valid phone, got %+v", action)
	}
	if out.Has(FieldPhone) {
		t.Errorf("phone auto-filled: %q", out.Collected[FieldPhone])
	}
}

func TestAdvanceRevalidatesStoredPhone(t *testing.T) {
	// A phone that somehow landed in state without passing validation must
	// be treated as missing, not trusted.
	e := newTestEngine()
	state := NewState("sess1234")
	state.Collected[FieldName] = "Priya"
	state.Collected[FieldPhone] = "12345"

	_, action := e.Advance(state)
	if action.Kind != ActionAsk || action.Field != FieldPhone {
		t.Fatalf("expected ask phone, got %+v", action)
	}
}

func TestAdvanceForcedNameDefault(t *testing.T) {
	e := newTestEngine()
	state := NewState("sess1234")
	state.RetryCount[FieldName] = MaxRetries
	state.Collected[FieldPhone] = "9876543210"
	state.Collected[FieldPartySize] = "2"
	state.Collected[FieldDate] = "2026-09-14"
	state.Collected[FieldTime] = "19:00"

	out, action := e.Advance(state)
	if action.Kind != ActionReadyToBook || !action.Forced {
		t.Fatalf("expected forced ready to book, got %+v", action)
	}
	if got := out.Collected[FieldName]; got != "Guest" {
		t.Errorf("name default = %q, want Guest", got)
	}
}
