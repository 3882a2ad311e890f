// Package signing provides the HMAC-SHA256 primitive used to bind session
// identifiers to the server secret.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// MinKeyLength is the minimum secret length in bytes (128 bits).
const MinKeyLength = 16

// Sign computes HMAC-SHA256 over value with key and returns it as lowercase hex.
func Sign(key []byte, value string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// IsSignatureValid recomputes the signature of value and compares it with
// signature in constant time. A signature that is not valid hex, or has the
// wrong length, is simply invalid.
func IsSignatureValid(key []byte, value, signature string) bool {
	given, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	return hmac.Equal(mac.Sum(nil), given)
}

// Signer holds the server secret so callers don't pass raw key material around.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer, rejecting keys shorter than MinKeyLength.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", MinKeyLength, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Signer{key: k}, nil
}

// Sign signs value with the server secret.
func (s *Signer) Sign(value string) string {
	return Sign(s.key, value)
}

// Verify reports whether signature is the server's signature of value.
func (s *Signer) Verify(value, signature string) bool {
	return IsSignatureValid(s.key, value, signature)
}
