package conversation

import "testing"

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"ten digits", "9876543210", true},
		{"fifteen digits", "123456789012345", true},
		{"with separators", "+91 98765-43210", true},
		{"parenthesized", "(987) 654-3210", true},
		{"too short", "987654321", false},
		{"too long", "1234567890123456", false},
		{"letters", "98765abcde", false},
		{"empty", "", false},
		{"session token shape", "a1b2c3d4", false},
		{"uppercase token shape", "DEADBEEF", false},
		{"eight digits only", "12345678", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidPhone(tt.input); got != tt.want {
				t.Errorf("IsValidPhone(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripPhoneSeparators(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+91 98765-43210", "919876543210"},
		{"(987) 654-3210", "9876543210"},
		{"9876543210", "9876543210"},
	}
	for _, tt := range tests {
		got := StripPhoneSeparators(tt.input)
		if got != tt.want {
			t.Errorf("StripPhoneSeparators(%q) = %q, want %q", tt.input, got, tt.want)
		}
		// Stripping an already stripped value must not change it.
		if again := StripPhoneSeparators(got); again != got {
			t.Errorf("StripPhoneSeparators not idempotent: %q -> %q", got, again)
		}
	}
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		raw   string
		want  bool
	}{
		{"valid name", FieldName, "Priya", true},
		{"blank name", FieldName, "   ", false},
		{"valid party size", FieldPartySize, "4", true},
		{"zero party size", FieldPartySize, "0", false},
		{"negative party size", FieldPartySize, "-2", false},
		{"non numeric party size", FieldPartySize, "four", false},
		{"valid date", FieldDate, "2026-09-14", true},
		{"bad date", FieldDate, "14/09/2026", false},
		{"valid time", FieldTime, "19:30", true},
		{"bad time", FieldTime, "7pm", false},
		{"valid phone", FieldPhone, "9876543210", true},
		{"invalid phone", FieldPhone, "12345", false},
		{"special requests free text", FieldSpecialRequests, "window seat", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Accepts(tt.field, tt.raw); got != tt.want {
				t.Errorf("Accepts(%s, %q) = %v, want %v", tt.field, tt.raw, got, tt.want)
			}
		})
	}
}
