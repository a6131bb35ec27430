// Package password provides password hashing and verification for tasker.
//
// It implements bcrypt hashing with a fixed, configurable cost and includes:
// - Configuration via environment variables
// - Password policy validation
// - A bounded worker pool so CPU-bound hashing cannot starve request handling
//
// Security notes:
// - Stored digests are treated as untrusted input during Verify; malformed digests never match.
// - bcrypt only reads the first 72 bytes of input, so longer passwords are rejected by policy.
package password
