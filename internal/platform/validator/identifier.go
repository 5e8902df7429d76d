package validator

import (
	"regexp"
	"strings"
)

// Compile regex patterns once at package level for performance
var bareIdentifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// QuoteIdentifier renders a single SQL identifier (schema or table name),
// double-quoting it only when it is not already a valid bare identifier
// (lowercase letters, digits, underscores, not starting with a digit).
// Embedded double quotes are escaped by doubling, per the SQL standard.
func QuoteIdentifier(ident string) string {
	if bareIdentifierRegex.MatchString(ident) {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// QuoteQualifiedName renders a schema-qualified relation name as
// "schema.table", quoting each part independently.
func QuoteQualifiedName(schema, table string) string {
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(table)
}
