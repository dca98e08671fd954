package db

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidIdentifier reports whether name is a plain, unquoted-safe identifier.
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// ParseTableName accepts "table" or "schema.table" and returns it as a
// pgx.Identifier ready for Sanitize or CopyFrom.
func ParseTableName(name string) (pgx.Identifier, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("platform/db: table name %q has too many parts", name)
	}
	for _, p := range parts {
		if !ValidIdentifier(p) {
			return nil, fmt.Errorf("platform/db: invalid identifier %q", name)
		}
	}
	return pgx.Identifier(parts), nil
}
