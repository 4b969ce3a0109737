package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewNonce generates a cryptographically random 32-character hex string,
// used as the nonce claim inside OAuth state tokens.
func NewNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
