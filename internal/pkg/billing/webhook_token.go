package billing

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"
)

// AccessTokenHeader carries the shared token the gateway was configured with.
const AccessTokenHeader = "asaas-access-token"

// VerifyWebhookAccessToken compares the header token with the configured one
// in constant time. An empty expected token disables the check.
func VerifyWebhookAccessToken(headerToken, expectedToken string) bool {
	expected := strings.TrimSpace(expectedToken)
	if expected == "" {
		return true
	}
	got := strings.TrimSpace(headerToken)
	if got == "" {
		return false
	}

	// Hash both sides so the comparison does not leak the token length.
	gotSum := sha256.Sum256([]byte(got))
	expectedSum := sha256.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(gotSum[:], expectedSum[:]) == 1
}
