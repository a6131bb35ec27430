// Package pgutil holds small PostgreSQL helpers shared by the stores.
package pgutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultSchema is the schema goose migrations create tables in.
const DefaultSchema = "public"

// SQLSTATE codes we map to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidTextRep      = "22P02"
)

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidIdent reports whether s is a plain, safe PostgreSQL identifier.
func ValidIdent(s string) bool { return identRe.MatchString(s) }

// CheckSchema trims and validates a schema name.
func CheckSchema(schema string) (string, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return "", fmt.Errorf("pgutil: empty schema")
	}
	if !ValidIdent(schema) {
		return "", fmt.Errorf("pgutil: invalid schema identifier %q", schema)
	}
	return schema, nil
}

// Ident safely quotes a schema-qualified identifier: "schema"."name".
func Ident(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

// UniqueViolation returns the violated constraint name if err is a unique_violation.
func UniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(pgErr.ConstraintName)), true
}

// IsForeignKeyViolation reports whether err is a foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}

// IsInvalidTextRepresentation reports whether Postgres rejected a literal,
// e.g. a malformed uuid or an unknown enum label.
func IsInvalidTextRepresentation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeInvalidTextRep
}
