package snowflake

import (
	"regexp"
	"strings"
)

// writeKeywords are SQL keywords that indicate write operations, matched
// at the beginning of a statement after stripping comments and whitespace.
var writeKeywords = []string{
	"INSERT",
	"UPDATE",
	"DELETE",
	"DROP",
	"CREATE",
	"ALTER",
	"TRUNCATE",
	"GRANT",
	"REVOKE",
	"MERGE",
	"CALL",
	"EXECUTE",
	"COPY",
	"PUT",
	"REMOVE",
}

// writePattern matches statements that start with a write keyword,
// tolerating leading whitespace and comment styles.
var writePattern = regexp.MustCompile(
	`(?i)^\s*(?:--[^\n]*\n\s*|/\*[\s\S]*?\*/\s*)*\s*(` +
		strings.Join(writeKeywords, "|") +
		`)(?:\s|$|;|\()`,
)

// createTablePattern matches CREATE TABLE statements, including
// CREATE OR REPLACE / TEMPORARY / TRANSIENT variants.
var createTablePattern = regexp.MustCompile(
	`(?i)^\s*(?:--[^\n]*\n\s*|/\*[\s\S]*?\*/\s*)*\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:LOCAL\s+|GLOBAL\s+)?(?:TEMP\s+|TEMPORARY\s+|TRANSIENT\s+)?TABLE\b`,
)

// isWriteStatement reports whether the SQL statement modifies data or
// schema.
func isWriteStatement(sql string) bool {
	return writePattern.MatchString(strings.TrimSpace(sql))
}

// isCreateTableStatement reports whether the SQL statement is a CREATE
// TABLE in any of its variants.
func isCreateTableStatement(sql string) bool {
	return createTablePattern.MatchString(strings.TrimSpace(sql))
}
