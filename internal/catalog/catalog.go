// Package catalog holds the immutable, validated index of a schema document:
// tables, columns and the foreign key graph that join paths are drawn from.
package catalog

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/hurou927/text2sql/internal/graph"
	"github.com/hurou927/text2sql/internal/schema"
)

// Catalog is built once per schema load and only read afterwards, so a
// single value can be shared by any number of concurrent conversions.
type Catalog struct {
	database string
	tables   []*schema.Table
	byName   map[string]*schema.Table // lower-case name
	bySingle map[string]*schema.Table // lower-case singular form
	order    map[string]int
	graph    *graph.Graph
	island   map[string]int // table -> foreign key island
}

// Load validates a schema document and builds the catalog. The document is
// copied; later changes to it do not affect the catalog.
func Load(doc *schema.Document) (*Catalog, error) {
	if doc == nil {
		return nil, &SchemaError{Reason: "no schema document"}
	}

	c := &Catalog{
		database: doc.DatabaseName,
		byName:   make(map[string]*schema.Table, len(doc.Tables)),
		bySingle: make(map[string]*schema.Table, len(doc.Tables)),
		order:    make(map[string]int, len(doc.Tables)),
	}

	for i := range doc.Tables {
		t := copyTable(&doc.Tables[i])
		if strings.TrimSpace(t.Name) == "" {
			return nil, &SchemaError{Reason: fmt.Sprintf("table #%d has no name", i+1)}
		}
		key := strings.ToLower(t.Name)
		if _, dup := c.byName[key]; dup {
			return nil, &SchemaError{Table: t.Name, Reason: "duplicate table"}
		}
		if len(t.Columns) == 0 {
			return nil, &SchemaError{Table: t.Name, Reason: "table has no columns"}
		}
		seen := make(map[string]bool, len(t.Columns))
		for _, col := range t.Columns {
			if strings.TrimSpace(col.Name) == "" {
				return nil, &SchemaError{Table: t.Name, Reason: "column without a name"}
			}
			lc := strings.ToLower(col.Name)
			if seen[lc] {
				return nil, &SchemaError{Table: t.Name, Column: col.Name, Reason: "duplicate column"}
			}
			seen[lc] = true
		}

		c.order[t.Name] = len(c.tables)
		c.tables = append(c.tables, t)
		c.byName[key] = t
		if _, taken := c.bySingle[singular(key)]; !taken {
			c.bySingle[singular(key)] = t
		}
	}

	if err := c.resolveForeignKeys(); err != nil {
		return nil, err
	}

	plain := make([]schema.Table, len(c.tables))
	for i, t := range c.tables {
		plain[i] = *t
	}
	c.graph = graph.Build(plain)
	_, c.island = graph.Islands(c.graph)

	return c, nil
}

// resolveForeignKeys checks every FK declaration and rewrites it with the
// target's declared spelling.
func (c *Catalog) resolveForeignKeys() error {
	for _, t := range c.tables {
		for i := range t.Columns {
			col := &t.Columns[i]
			if col.ForeignKey == "" {
				continue
			}
			ref, err := schema.ParseReference(col.ForeignKey)
			if err != nil {
				return &SchemaError{Table: t.Name, Column: col.Name, Reason: err.Error()}
			}
			target, ok := c.byName[strings.ToLower(ref.Table)]
			if !ok {
				return &SchemaError{Table: t.Name, Column: col.Name, Reason: fmt.Sprintf("foreign key references unknown table %q", ref.Table)}
			}
			tcol := target.Column(ref.Column)
			if tcol == nil {
				return &SchemaError{Table: t.Name, Column: col.Name, Reason: fmt.Sprintf("foreign key references unknown column %q", col.ForeignKey)}
			}
			resolved := schema.Reference{Table: target.Name, Column: tcol.Name}
			col.ForeignKey = resolved.String()
			col.Ref = &resolved
		}
	}
	return nil
}

// DatabaseName returns the declared database name.
func (c *Catalog) DatabaseName() string {
	return c.database
}

// Tables returns the tables in declaration order. Callers must not modify them.
func (c *Catalog) Tables() []*schema.Table {
	return c.tables
}

// Graph returns the foreign key graph.
func (c *Catalog) Graph() *graph.Graph {
	return c.graph
}

// Position returns the declaration index of a table, or -1.
func (c *Catalog) Position(table string) int {
	if i, ok := c.order[table]; ok {
		return i
	}
	return -1
}

// ResolveTable finds a table by name, ignoring case and accepting the
// singular or plural form of the declared name.
func (c *Catalog) ResolveTable(name string) (*schema.Table, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if t, ok := c.byName[key]; ok {
		return t, nil
	}
	if t, ok := c.bySingle[singular(key)]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("table %q: %w", name, ErrNotFound)
}

// ResolveColumn finds a column. name is either "table.column" or a bare
// column name; a bare name is qualified by tableHint when given, otherwise it
// is searched across all tables and must be unique.
func (c *Catalog) ResolveColumn(tableHint, name string) (*schema.Table, *schema.Column, error) {
	if table, column, ok := strings.Cut(name, "."); ok {
		tableHint, name = table, column
	}

	if tableHint != "" {
		t, err := c.ResolveTable(tableHint)
		if err != nil {
			return nil, nil, err
		}
		col := t.Column(name)
		if col == nil {
			return nil, nil, fmt.Errorf("column %q in table %q: %w", name, t.Name, ErrNotFound)
		}
		return t, col, nil
	}

	matches := c.ColumnsNamed(name)
	switch len(matches) {
	case 0:
		return nil, nil, fmt.Errorf("column %q: %w", name, ErrNotFound)
	case 1:
		return matches[0].Table, matches[0].Column, nil
	default:
		tables := make([]string, len(matches))
		for i, m := range matches {
			tables[i] = m.Table.Name
		}
		return nil, nil, &AmbiguousColumnError{Column: name, Tables: tables}
	}
}

// Match pairs a column with the table declaring it.
type Match struct {
	Table  *schema.Table
	Column *schema.Column
}

// ColumnsNamed returns every column with the given name, in table
// declaration order.
func (c *Catalog) ColumnsNamed(name string) []Match {
	var out []Match
	for _, t := range c.tables {
		if col := t.Column(name); col != nil {
			out = append(out, Match{Table: t, Column: col})
		}
	}
	return out
}

// ForeignKeyPath returns the shortest sequence of join steps from table a to
// table b. Equally short paths are broken by declaration order.
func (c *Catalog) ForeignKeyPath(a, b string) ([]graph.Step, error) {
	ta, err := c.ResolveTable(a)
	if err != nil {
		return nil, err
	}
	tb, err := c.ResolveTable(b)
	if err != nil {
		return nil, err
	}
	if !c.Joinable(ta.Name, tb.Name) {
		return nil, fmt.Errorf("%s to %s: %w", ta.Name, tb.Name, ErrNoPath)
	}
	path, ok := c.graph.ShortestPath(ta.Name, tb.Name)
	if !ok {
		return nil, fmt.Errorf("%s to %s: %w", ta.Name, tb.Name, ErrNoPath)
	}
	return path, nil
}

// Joinable reports whether two declared tables are connected by foreign
// keys, directly or through other tables.
func (c *Catalog) Joinable(a, b string) bool {
	ia, okA := c.island[a]
	ib, okB := c.island[b]
	return okA && okB && ia == ib
}

func copyTable(t *schema.Table) *schema.Table {
	cp := *t
	cp.Columns = make([]schema.Column, len(t.Columns))
	copy(cp.Columns, t.Columns)
	for i := range cp.Columns {
		cp.Columns[i].Ref = nil
	}
	return &cp
}

// singular returns the singular form of a lower-case identifier, applied to
// its last underscore-separated word.
func singular(name string) string {
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		return name[:i+1] + inflect.Singularize(name[i+1:])
	}
	return inflect.Singularize(name)
}
