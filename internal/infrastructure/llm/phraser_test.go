package llm

import (
	"strings"
	"testing"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
)

func TestBuildPhrasingContextOrdersFields(t *testing.T) {
	collected := map[conversation.Field]string{
		conversation.FieldTime:            "19:00",
		conversation.FieldName:            "Priya",
		conversation.FieldSpecialRequests: "window seat",
	}

	out := buildPhrasingContext("ask for the date", collected, []string{"Caller: hi"})

	name := strings.Index(out, "name: Priya")
	slot := strings.Index(out, "time: 19:00")
	special := strings.Index(out, "special_requests: window seat")
	if name < 0 || slot < 0 || special < 0 {
		t.Fatalf("missing fields in context:\n%s", out)
	}
	if !(name < slot && slot < special) {
		t.Errorf("fields out of flow order:\n%s", out)
	}
	if !strings.Contains(out, "Caller: hi") {
		t.Errorf("history missing:\n%s", out)
	}
}

func TestBuildPhrasingContextLeavesFlowOrderUntouched(t *testing.T) {
	want := append([]conversation.Field(nil), conversation.FlowOrder...)

	buildPhrasingContext("confirm", map[conversation.Field]string{
		conversation.FieldSpecialRequests: "anniversary",
	}, nil)
	buildPhrasingContext("confirm", nil, nil)

	if len(conversation.FlowOrder) != len(want) {
		t.Fatalf("FlowOrder len = %d, want %d", len(conversation.FlowOrder), len(want))
	}
	for i, f := range conversation.FlowOrder {
		if f != want[i] {
			t.Errorf("FlowOrder[%d] = %q, want %q", i, f, want[i])
		}
	}
}
