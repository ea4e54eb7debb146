package sqlgen

import (
	"regexp"
	"strings"
)

var (
	plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	decimal    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// reserved holds keywords that cannot appear as bare identifiers in the
// common dialects.
var reserved = map[string]bool{
	"all": true, "alter": true, "and": true, "as": true, "asc": true,
	"between": true, "by": true, "case": true, "check": true, "column": true,
	"create": true, "cross": true, "date": true, "default": true, "delete": true,
	"desc": true, "distinct": true, "drop": true, "else": true, "end": true,
	"exists": true, "fetch": true, "for": true, "foreign": true, "from": true,
	"full": true, "grant": true, "group": true, "having": true, "in": true,
	"index": true, "inner": true, "insert": true, "into": true, "is": true,
	"join": true, "key": true, "left": true, "like": true, "limit": true,
	"natural": true, "not": true, "null": true, "offset": true, "on": true,
	"or": true, "order": true, "outer": true, "primary": true, "references": true,
	"right": true, "select": true, "set": true, "table": true, "then": true,
	"time": true, "timestamp": true, "to": true, "union": true, "update": true,
	"user": true, "using": true, "values": true, "when": true, "where": true,
	"with": true,
}

// QuoteIdent returns name bare when it is a plain lower-case identifier and
// not a keyword, otherwise double-quoted.
func QuoteIdent(name string) string {
	if plainIdent.MatchString(name) && !reserved[name] {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteString returns s as a single-quoted SQL string literal.
func QuoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			b.WriteString("''")
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}

// number returns s bare when it is a decimal number, otherwise quoted.
func number(s string) string {
	if decimal.MatchString(s) {
		return s
	}
	return QuoteString(s)
}
