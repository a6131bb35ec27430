package ids

import (
	"strings"
	"testing"
	"time"
)

func TestNewID_IsValidAndUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if !ValidID(a) || !ValidID(b) {
		t.Fatalf("expected valid ids: %q %q", a, b)
	}
	if a == b {
		t.Fatalf("expected unique ids")
	}
}

func TestValidID_RejectsMalformed(t *testing.T) {
	for _, s := range []string{
		"",
		"not-a-uuid",
		"123",
		strings.Repeat("a", 36),
		"{6ba7b810-9dad-11d1-80b4-00c04fd430c8}",
		"urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8",
	} {
		if ValidID(s) {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
	if !ValidID("6ba7b810-9dad-11d1-80b4-00c04fd430c8") {
		t.Fatalf("expected canonical uuid to be accepted")
	}
}

func TestNewULID_LengthAndOrder(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a, err := NewULID(t0)
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	b, err := NewULID(t0.Add(time.Second))
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("unexpected ulid length: %d %d", len(a), len(b))
	}
	if a >= b {
		t.Fatalf("expected time ordering: %s >= %s", a, b)
	}
}
