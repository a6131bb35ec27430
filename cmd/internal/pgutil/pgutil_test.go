package pgutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIdent_QuotesBothParts(t *testing.T) {
	got := Ident("public", "users")
	if got != `"public"."users"` {
		t.Fatalf("Ident=%s", got)
	}
}

func TestCheckSchema(t *testing.T) {
	if s, err := CheckSchema("  tasker_it  "); err != nil || s != "tasker_it" {
		t.Fatalf("CheckSchema ok case: %q %v", s, err)
	}
	for _, bad := range []string{"", "   ", "1abc", `x"; drop table users; --`} {
		if _, err := CheckSchema(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "UQ_Users_Email_Norm"})
	c, ok := UniqueViolation(err)
	if !ok || c != "uq_users_email_norm" {
		t.Fatalf("UniqueViolation=%q,%v", c, ok)
	}
	if _, ok := UniqueViolation(&pgconn.PgError{Code: "23503"}); ok {
		t.Fatalf("fk violation must not classify as unique")
	}
	if _, ok := UniqueViolation(errors.New("plain")); ok {
		t.Fatalf("plain error must not classify as unique")
	}
}

func TestForeignKeyAndInvalidText(t *testing.T) {
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("expected fk violation")
	}
	if !IsInvalidTextRepresentation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "22P02"})) {
		t.Fatalf("expected invalid text representation")
	}
	if IsForeignKeyViolation(errors.New("x")) || IsInvalidTextRepresentation(errors.New("x")) {
		t.Fatalf("plain errors must not classify")
	}
}
