package idgen

import (
	"strings"
	"testing"
)

func TestGenerateSecureID(t *testing.T) {
	id, err := GenerateSecureID("call", 16)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(id, "call_") {
		t.Errorf("id = %q, want call_ prefix", id)
	}
	if len(id) != len("call_")+16 {
		t.Errorf("id length = %d", len(id))
	}
}

func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSessionToken()
		if err != nil {
			t.Fatal(err)
		}
		if len(token) != SessionTokenLength {
			t.Fatalf("token %q length = %d, want %d", token, len(token), SessionTokenLength)
		}
		for _, r := range token {
			isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
			if !isHex {
				t.Fatalf("token %q contains non-hex rune %q", token, r)
			}
		}
		if seen[token] {
			t.Fatalf("duplicate token %q in 100 draws", token)
		}
		seen[token] = true
	}
}
