// Package session implements tasker's authentication core.
//
// Access and refresh tokens are HS256 JWTs signed with two distinct secrets.
// Every refresh token is paired with a server-side record (refresh_tokens) so it
// can be redeemed exactly once: Refresh revokes the presented record and inserts
// its replacement in one transaction, and Logout revokes it outright.
// Records store only a hash of the token string (see cmd/security/token).
//
// Transport (HTTP) integration lives in auth/api and auth/gate.
package session
