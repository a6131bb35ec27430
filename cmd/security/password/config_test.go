package password

import (
	"errors"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"PASSWORD_BCRYPT_COST",
		"PASSWORD_HASH_WORKERS",
		"PASSWORD_MIN_LEN",
		"PASSWORD_MAX_LEN",
		"PASSWORD_REJECT_VERY_WEAK",
	} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	def := DefaultConfig()
	if cfg.Cost != def.Cost {
		t.Fatalf("cost mismatch: %d", cfg.Cost)
	}
	if cfg.Policy.MinLength != def.Policy.MinLength || cfg.Policy.MaxLength != def.Policy.MaxLength {
		t.Fatalf("policy mismatch: %+v", cfg.Policy)
	}
	if cfg.Workers <= 0 {
		t.Fatalf("workers must default to a positive value")
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("PASSWORD_BCRYPT_COST", "11")
	t.Setenv("PASSWORD_HASH_WORKERS", "3")
	t.Setenv("PASSWORD_MIN_LEN", "10")
	t.Setenv("PASSWORD_MAX_LEN", "64")
	t.Setenv("PASSWORD_REJECT_VERY_WEAK", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.Cost != 11 || cfg.Workers != 3 {
		t.Fatalf("override failed: %+v", cfg)
	}
	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 64 || !cfg.Policy.RejectVeryWeak {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
}

func TestFromEnv_CostBelowMinimum(t *testing.T) {
	t.Setenv("PASSWORD_BCRYPT_COST", "8")

	_, err := FromEnv()
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestFromEnv_InvalidMinMax(t *testing.T) {
	t.Setenv("PASSWORD_MIN_LEN", "20")
	t.Setenv("PASSWORD_MAX_LEN", "10")

	if _, err := FromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestFromEnv_MaxAboveBcryptLimit(t *testing.T) {
	t.Setenv("PASSWORD_MAX_LEN", "100")

	if _, err := FromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
