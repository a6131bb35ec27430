// Package token provides refresh-token hashing primitives for tasker.
//
// It is the single source of truth for how refresh tokens are reduced to the
// digest stored next to a refresh record.
//
// Modes:
// - SHA-256(token) when no HMAC key is configured (dev/back-compat).
// - HMAC-SHA256(token, key) when TOKEN_HMAC_KEY is set.
//
// Output is always a 64-char hex string, compared in constant time.
package token
