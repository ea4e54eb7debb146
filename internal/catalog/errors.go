package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	// ErrSchema is returned when a schema document cannot be loaded.
	ErrSchema = errors.New("catalog: invalid schema")

	// ErrNotFound is returned when a table or column does not exist.
	ErrNotFound = errors.New("catalog: not found")

	// ErrAmbiguousColumn is returned when a bare column name exists in
	// several tables and nothing qualifies it.
	ErrAmbiguousColumn = errors.New("catalog: ambiguous column")

	// ErrNoPath is returned when two tables are not connected by foreign keys.
	ErrNoPath = errors.New("catalog: no foreign key path")
)

// SchemaError describes why a schema document was rejected.
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

// Error returns the error string.
func (e *SchemaError) Error() string {
	switch {
	case e.Column != "":
		return fmt.Sprintf("catalog: invalid schema: %s.%s: %s", e.Table, e.Column, e.Reason)
	case e.Table != "":
		return fmt.Sprintf("catalog: invalid schema: %s: %s", e.Table, e.Reason)
	default:
		return "catalog: invalid schema: " + e.Reason
	}
}

// Is reports whether the target error matches SchemaError.
func (e *SchemaError) Is(err error) bool {
	return err == ErrSchema
}

// AmbiguousColumnError reports a column name found in more than one table.
type AmbiguousColumnError struct {
	Column string
	Tables []string
}

// Error returns the error string.
func (e *AmbiguousColumnError) Error() string {
	return fmt.Sprintf("catalog: column %q is ambiguous (found in %s)", e.Column, strings.Join(e.Tables, ", "))
}

// Is reports whether the target error matches AmbiguousColumnError.
func (e *AmbiguousColumnError) Is(err error) bool {
	return err == ErrAmbiguousColumn
}

// IsAmbiguous returns true if the error is an AmbiguousColumnError.
func IsAmbiguous(err error) bool {
	var e *AmbiguousColumnError
	return errors.As(err, &e) || errors.Is(err, ErrAmbiguousColumn)
}

// IsNotFound returns true if a table or column lookup failed.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
