package conversation

import (
	"strconv"
	"strings"
	"time"
)

// Phone length bounds after separator stripping (E.164 without the plus is
// at most 15 digits; anything under 10 is not a dialable number here).
const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

const sessionTokenLength = 8

// IsValidPhone reports whether raw is acceptable as a caller phone number.
// Separators (whitespace, hyphens, parentheses, plus signs) are stripped
// first; the remainder must be all digits with a length in [10,15]. An
// 8-character all-hex string is rejected outright: ephemeral session tokens
// use that shape and must never be mistaken for a phone number.
func IsValidPhone(raw string) bool {
	if looksLikeSessionToken(raw) {
		return false
	}
	stripped := StripPhoneSeparators(raw)
	if len(stripped) < minPhoneDigits || len(stripped) > maxPhoneDigits {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// StripPhoneSeparators removes the characters callers commonly dictate
// around digits. Stripping is idempotent: stripping a stripped value is a
// no-op.
func StripPhoneSeparators(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r == ' ' || r == '\t' || r == '-' || r == '(' || r == ')' || r == '+':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func looksLikeSessionToken(raw string) bool {
	if len(raw) != sessionTokenLength {
		return false
	}
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidName accepts any non-blank name.
func IsValidName(raw string) bool {
	return strings.TrimSpace(raw) != ""
}

// IsValidPartySize accepts a positive integer.
func IsValidPartySize(raw string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	return err == nil && n > 0
}

// IsValidDate accepts YYYY-MM-DD.
func IsValidDate(raw string) bool {
	_, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	return err == nil
}

// IsValidTime accepts 24-hour HH:MM.
func IsValidTime(raw string) bool {
	_, err := time.Parse("15:04", strings.TrimSpace(raw))
	return err == nil
}

// Accepts reports whether a raw extracted value is acceptable for a field.
// This is the single gate through which values enter Collected.
func Accepts(f Field, raw string) bool {
	switch f {
	case FieldPhone:
		return IsValidPhone(raw)
	case FieldName:
		return IsValidName(raw)
	case FieldPartySize:
		return IsValidPartySize(raw)
	case FieldDate:
		return IsValidDate(raw)
	case FieldTime:
		return IsValidTime(raw)
	case FieldSpecialRequests:
		return strings.TrimSpace(raw) != ""
	default:
		return false
	}
}
