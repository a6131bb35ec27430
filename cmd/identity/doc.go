// Package identity holds tasker's user principal and its persistence.
//
// It owns email normalization, the user store boundary (Postgres and in-memory
// implementations) and the typed errors callers map to API outcomes.
// Password hashing lives in cmd/security/password; tokens live in auth/session.
package identity
