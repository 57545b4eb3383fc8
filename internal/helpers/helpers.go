package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GetBearerToken extracts the token from an "Authorization: Bearer x"
// header. Empty string means no credential was presented.
func GetBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RandomToken returns a 64-character hex string from 32 random bytes,
// used for single-use verification and reset links.
func RandomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
