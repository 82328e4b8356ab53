// Package hashing provides the keyed one-way hash used to store and compare
// passwords. The same digest is computed at registration and at token
// issuance, so implementations must be deterministic.
package hashing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// Hasher is the pluggable password-hashing capability.
type Hasher interface {
	// Hash returns the hex digest of plaintext. Empty input yields "".
	Hash(plaintext string) string
}

// HMAC hashes with HMAC-SHA256 keyed by the configured secret. This matches
// the digests of the original deployment, so existing records stay valid.
type HMAC struct {
	secret []byte
}

func NewHMAC(secret string) *HMAC {
	return &HMAC{secret: []byte(secret)}
}

func (h *HMAC) Hash(plaintext string) string {
	if plaintext == "" {
		return ""
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

// PBKDF2 hashes with PBKDF2-SHA256 using the configured secret as salt.
// Slower than HMAC on purpose; selected via config for new deployments.
type PBKDF2 struct {
	secret     []byte
	iterations int
}

const defaultPBKDF2Iterations = 4096

func NewPBKDF2(secret string, iterations int) *PBKDF2 {
	if iterations <= 0 {
		iterations = defaultPBKDF2Iterations
	}
	return &PBKDF2{secret: []byte(secret), iterations: iterations}
}

func (p *PBKDF2) Hash(plaintext string) string {
	if plaintext == "" {
		return ""
	}
	key := pbkdf2.Key([]byte(plaintext), p.secret, p.iterations, sha256.Size, sha256.New)
	return hex.EncodeToString(key)
}
