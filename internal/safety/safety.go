// Package safety screens generated SQL before it is handed out. Nothing
// that can modify data or schema passes.
package safety

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnsafeQuery is returned when SQL contains a mutating keyword.
	ErrUnsafeQuery = errors.New("safety: unsafe query")

	// ErrInvalidOutput is returned when model output is not a single
	// read-only statement.
	ErrInvalidOutput = errors.New("safety: invalid model output")
)

// UnsafeQueryError reports the mutating keyword found in a statement. The
// statement itself is not kept.
type UnsafeQueryError struct {
	Keyword string
}

// Error returns the error string.
func (e *UnsafeQueryError) Error() string {
	return fmt.Sprintf("safety: query contains forbidden keyword %s", e.Keyword)
}

// Is reports whether the target error matches UnsafeQueryError.
func (e *UnsafeQueryError) Is(err error) bool {
	return err == ErrUnsafeQuery
}

// IsUnsafe returns true if the error is an UnsafeQueryError.
func IsUnsafe(err error) bool {
	return errors.Is(err, ErrUnsafeQuery)
}

var (
	forbidden      = regexp.MustCompile(`\b(DELETE|DROP|TRUNCATE|ALTER|UPDATE|INSERT)\b`)
	commentPattern = regexp.MustCompile(`--.*|/\*[\s\S]*?\*/`)
)

// Check rejects SQL containing DELETE, DROP, TRUNCATE, ALTER, UPDATE or
// INSERT as a whole word, in any case, comments included.
func Check(sql string) error {
	if m := forbidden.FindString(strings.ToUpper(sql)); m != "" {
		return &UnsafeQueryError{Keyword: m}
	}
	return nil
}

// Validate accepts exactly one SELECT or WITH statement.
func Validate(sql string) error {
	body := strings.TrimSpace(commentPattern.ReplaceAllString(sql, ""))
	if body == "" {
		return fmt.Errorf("%w: empty", ErrInvalidOutput)
	}

	stmts, ok := splitStatements(body)
	if !ok {
		return fmt.Errorf("%w: unterminated quote", ErrInvalidOutput)
	}
	if len(stmts) != 1 {
		return fmt.Errorf("%w: %d statements", ErrInvalidOutput, len(stmts))
	}

	first := strings.ToUpper(strings.Fields(stmts[0])[0])
	if first != "SELECT" && first != "WITH" {
		return fmt.Errorf("%w: %s is not a query", ErrInvalidOutput, first)
	}
	return nil
}

// splitStatements splits on semicolons outside quotes and drops empty
// statements. It reports false when a quote is left open.
func splitStatements(sql string) ([]string, bool) {
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, r := range sql {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == ';':
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	if quote != 0 {
		return nil, false
	}
	flush()
	return out, true
}
