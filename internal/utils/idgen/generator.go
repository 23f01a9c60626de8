package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecureID generates a cryptographically secure ID with the given prefix and length.
// Uses only alphanumeric characters (0-9, a-z) - no dashes or special characters.
func GenerateSecureID(prefix string, length int) (string, error) {
	// Use larger byte array for better entropy
	bytes := make([]byte, length*2)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	// Generate alphanumeric string (numbers and lowercase letters only)
	const charset = "0123456789abcdefghijklmnopqrstuvwxyz"
	encoded := make([]byte, length)
	for i := 0; i < length; i++ {
		encoded[i] = charset[bytes[i]%36] // 36 = len(charset)
	}

	return fmt.Sprintf("%s_%s", prefix, string(encoded)), nil
}

// SessionTokenLength is the length of an ephemeral caller session token.
// The length and hex alphabet are load-bearing: phone validation rejects
// exactly this shape so a token can never be mistaken for a phone number.
const SessionTokenLength = 8

// GenerateSessionToken returns an 8-character lowercase hex token
// identifying an anonymous caller session.
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenLength/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
