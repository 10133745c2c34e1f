// Package redact scrubs sensitive material from strings before they reach
// logs or API error responses. Error text in this service routinely embeds
// things that must not leak: database connection strings, the insights
// backend's host and request paths, snapshot file locations, session JWTs,
// and SQL from the snapshot store. Redaction is pattern based and
// intentionally aggressive; a mangled log line is cheaper than a leaked
// credential.
package redact

import "regexp"

// Placeholders substituted for redacted content. Exported so tests asserting
// on log output can reference them.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedUUIDPlaceholder       = "[REDACTED_UUID]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
	RedactedSQLValuesPlaceholder  = "[SQL_VALUES_REDACTED]"
	RedactedSQLWherePlaceholder   = "[SQL_WHERE_REDACTED]"
)

// rule pairs a pattern with its replacement. Rules run in order over the
// whole input, so later rules see the substitutions of earlier ones.
type rule struct {
	pattern *regexp.Regexp
	replace string
}

var rules = []rule{
	// Connection strings carrying inline credentials, postgres DSNs above
	// all. The userinfo section is dropped; host and database fall to the
	// host and path rules below.
	{
		regexp.MustCompile(`(?i)(postgres|postgresql|mysql|db|database|connection)://[^@\s]+@`),
		RedactedCredentialPlaceholder,
	},

	// Password and key material in key=value or prose form.
	{
		regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`),
		RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		RedactedKeyPlaceholder,
	},

	// Session JWTs (three base64url segments), then any other bearer token.
	{
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		RedactedJWTPlaceholder,
	},
	{
		regexp.MustCompile(`\b(Bearer)\s+[A-Za-z0-9_\-.~+/]{8,}={0,2}`),
		"${1} " + RedactionPlaceholder,
	},

	// UUIDs: event ids, upstream correlation ids.
	{
		regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`),
		RedactedUUIDPlaceholder,
	},

	// SQL from the snapshot store. The statement shape survives so the
	// failing operation stays identifiable; the data does not. A statement
	// with no WHERE clause and no values passes through untouched.
	{
		regexp.MustCompile(`(?i)\bSELECT\b[\s\S]+?\bFROM\b.*`),
		"SELECT FROM... " + RedactedSQLValuesPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(INSERT\s+INTO\s+[\w".]+(?:\s*\([^)]*\))?\s*VALUES)\b.*`),
		"${1} " + RedactedSQLValuesPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(UPDATE\s+[\w".]+\s+SET)\b.*`),
		"${1} " + RedactedSQLValuesPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(DELETE\s+FROM\s+[\w".]+)\s+WHERE\b.*`),
		"${1} " + RedactedSQLWherePlaceholder,
	},

	// Filesystem paths: snapshot files, migration sources.
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`), RedactedPathPlaceholder},

	// Panic output pasted into error strings.
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		"[STACK_TRACE_REDACTED]",
	},

	// Email addresses surfacing in upstream payloads.
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		RedactedEmailPlaceholder,
	},

	// Parser positions and syntax details from migration and query errors.
	{regexp.MustCompile(`(?:at )?line ?\d+`), "[REDACTED_LINE_NUMBER]"},
	{regexp.MustCompile(`(?i)syntax error|syntax problem|parse error`), "[REDACTED_SYNTAX_ERROR]"},

	// Backend hosts: the insights service, database servers.
	{
		regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`),
		RedactedHostPlaceholder,
	},

	// Filesystem error phrasing that implies layout details.
	{
		regexp.MustCompile(`(?i)(?:no such file|file not found|can't open|cannot open|file error)`),
		"[REDACTED_FILE_ERROR]",
	},
}

// String returns input with every sensitive fragment replaced by its
// placeholder.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replace)
	}
	return result
}

// Error redacts err's message. A nil error yields the empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
