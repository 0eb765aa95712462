// Package query pulls the search query out of a page's query string and makes it
// safe to write back into a result page.
package query

import (
	"net/url"
	"strings"
)

// ParamName is the query-string key holding the search query.
const ParamName = "query"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"/", "&#x2F;",
	"`", "&#x60;",
	"=", "&#x3D;",
)

// Extract returns the first `query` value of rawQuery, percent-decoded and then
// HTML-escaped. It returns "" when the key is absent.
func Extract(rawQuery string) string {
	value, ok := lookup(rawQuery, ParamName)
	if !ok {
		return ""
	}

	return Escape(decode(value))
}

// Escape maps the characters & < > " ' / ` = to HTML entities.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Blank reports whether q has nothing to search for.
func Blank(q string) bool {
	return strings.TrimSpace(q) == ""
}

func lookup(rawQuery string, key string) (string, bool) {
	for _, pair := range strings.Split(rawQuery, "&") {
		name, value, _ := strings.Cut(pair, "=")
		if name == key {
			return value, true
		}
	}

	return "", false
}

// decode keeps the raw value when it holds an invalid escape sequence.
func decode(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return value
	}

	return decoded
}
