package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/argon2"
)

// Salt for token key derivation.
const tokenKeySalt = "playout-engine/player-token/v1"

// Number of random bytes in a player token. 32 → 256-bit
const playerTokenSize = 32

// TokenHasher hashes player tokens with HMAC-SHA256 under a key derived from
// the application secret. Derivation is expensive, so create one hasher and
// share it.
type TokenHasher struct {
	key []byte
}

func NewTokenHasher(secret string) *TokenHasher {
	key := argon2.IDKey(
		[]byte(secret),
		[]byte(tokenKeySalt),
		3,       // time (number of iterations)
		64*1024, // memory in KB (64 MB)
		4,       // parallelism
		32,      // key length in bytes
	)
	return &TokenHasher{key: key}
}

func (h *TokenHasher) Hash(token string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(token))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify compares a presented token against a stored hash in constant time.
func (h *TokenHasher) Verify(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return hmac.Equal([]byte(h.Hash(token)), []byte(hash))
}

// GeneratePlayerToken returns a new random bearer secret for a player.
func GeneratePlayerToken() (string, error) {
	b := make([]byte, playerTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
