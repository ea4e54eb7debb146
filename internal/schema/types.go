package schema

import (
	"fmt"
	"strings"
)

// ValueKind classifies a column or literal for comparison and formatting.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindDate   ValueKind = "date"
)

// Reference points at a column of another table ("table.column").
type Reference struct {
	Table  string
	Column string
}

// String returns the "table.column" form.
func (r Reference) String() string {
	return r.Table + "." + r.Column
}

// ParseReference splits a "table.column" foreign key declaration.
func ParseReference(s string) (Reference, error) {
	table, column, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || table == "" || column == "" || strings.Contains(column, ".") {
		return Reference{}, fmt.Errorf("malformed reference %q (want table.column)", s)
	}
	return Reference{Table: table, Column: column}, nil
}

// Column represents a declared column.
type Column struct {
	Name        string     `yaml:"name" json:"name"`
	Type        string     `yaml:"type" json:"type"` // declared SQL type (e.g. "INT", "DECIMAL(10,2)", "DATE")
	PrimaryKey  bool       `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	ForeignKey  string     `yaml:"foreign_key,omitempty" json:"foreign_key,omitempty"` // "table.column"
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Ref         *Reference `yaml:"-" json:"-"`
}

// IsKey reports whether the column is a primary or foreign key.
func (c *Column) IsKey() bool {
	return c.PrimaryKey || c.ForeignKey != ""
}

// Kind derives the value kind from the declared type.
func (c *Column) Kind() ValueKind {
	t := strings.ToUpper(c.Type)
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)
	switch {
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return KindDate
	case strings.Contains(t, "INT"), strings.Contains(t, "DEC"), strings.Contains(t, "NUMERIC"),
		strings.Contains(t, "FLOAT"), strings.Contains(t, "DOUBLE"), strings.Contains(t, "REAL"),
		strings.Contains(t, "MONEY"), strings.Contains(t, "SERIAL"):
		return KindNumber
	default:
		return KindString
	}
}

// Table represents a declared table with its ordered columns.
type Table struct {
	Name        string   `yaml:"name,omitempty" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Columns     []Column `yaml:"columns" json:"columns"`
}

// ColumnNames returns all column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PKColumnNames returns the primary key column names, or nil if no PK.
func (t *Table) PKColumnNames() []string {
	var names []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			names = append(names, c.Name)
		}
	}
	return names
}

// Column looks up a column by name, ignoring case.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// ForeignKeys returns the columns that carry a foreign key, in declaration order.
func (t *Table) ForeignKeys() []*Column {
	var fks []*Column
	for i := range t.Columns {
		if t.Columns[i].ForeignKey != "" {
			fks = append(fks, &t.Columns[i])
		}
	}
	return fks
}
