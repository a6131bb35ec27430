package app

import (
	"fmt"

	"tasker/cmd/internal/auth/session"
)

// ValidateSecurityConfig enforces the startup security policy.
//
// Secrets are already checked by session.Config.Validate. With
// REQUIRE_TOKEN_HMAC=true the issuer that actually hashes refresh tokens must
// be keyed; production without a key only warns.
func ValidateSecurityConfig(cfg Config, iss *session.Issuer, log Logger) error {
	keyed := iss != nil && iss.HMACEnabled()
	switch {
	case keyed:
		return nil
	case cfg.RequireTokenHMAC:
		return fmt.Errorf("%w: REQUIRE_TOKEN_HMAC=true but TOKEN_HMAC_KEY is not set", ErrConfig)
	case cfg.Production():
		log.Warn("security.token_hmac.disabled", "hint", "set TOKEN_HMAC_KEY to key refresh-token hashes")
	}
	return nil
}
