package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// MinHMACKeyBytes is the minimum accepted HMAC key size.
const MinHMACKeyBytes = 32

// Hasher reduces refresh tokens to storable digests.
// The zero value hashes with plain SHA-256.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher. An empty key selects SHA-256 mode; a non-empty key
// shorter than MinHMACKeyBytes is rejected.
func NewHasher(key []byte) (Hasher, error) {
	if len(key) == 0 {
		return Hasher{}, nil
	}
	if len(key) < MinHMACKeyBytes {
		return Hasher{}, ErrHMACKeyTooShort
	}
	cp := make([]byte, len(key))
	copy(cp, key)
	return Hasher{key: cp}, nil
}

// HMACEnabled reports whether the hasher is keyed.
func (h Hasher) HMACEnabled() bool { return len(h.key) > 0 }

// Hash returns the hex digest of tok.
func (h Hasher) Hash(tok string) string {
	if len(h.key) == 0 {
		return HashSHA256Hex(tok)
	}
	return HashHMACSHA256Hex(tok, h.key)
}

// Matches reports whether tok hashes to storedHex.
func (h Hasher) Matches(tok, storedHex string) bool {
	return EqualHex64(h.Hash(tok), storedHex)
}

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// EqualHex64 compares two 64-char hex digests in constant time.
// Inputs of any other length never match.
func EqualHex64(a, b string) bool {
	if len(a) != 64 || len(b) != 64 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
