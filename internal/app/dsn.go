package app

import (
	"net/url"
	"regexp"
	"strings"
)

const tracedQueryLimit = 512

var (
	sqlWhitespace    = regexp.MustCompile(`\s+`)
	sqlStringLiteral = regexp.MustCompile(`'(?:[^']|'')*'`)
)

// postgresDSN applies connection options the service relies on. URL style
// DSNs get application_name and, when asked, disable_prepared_binary_result;
// explicit values in the DSN win. Key/value DSNs pass through untouched.
func postgresDSN(raw, applicationName string, disablePreparedBinary bool) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	changed := false
	if applicationName != "" && query.Get("application_name") == "" {
		query.Set("application_name", applicationName)
		changed = true
	}
	if disablePreparedBinary && query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		changed = true
	}
	if !changed {
		return raw
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// databaseName reads the database from a URL or key/value DSN.
func databaseName(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		return strings.TrimPrefix(parsed.Path, "/")
	}

	for _, field := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(field, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

// traceQuery renders SQL for span attributes: one line, string literals
// masked, capped at tracedQueryLimit bytes.
func traceQuery(query string) string {
	query = sqlWhitespace.ReplaceAllString(strings.TrimSpace(query), " ")
	query = sqlStringLiteral.ReplaceAllString(query, "'?'")
	if len(query) > tracedQueryLimit {
		return query[:tracedQueryLimit] + "..."
	}
	return query
}
