package catalog

import (
	"fmt"
	"strings"
)

// Describe renders the catalog as a readable listing of tables and columns
// with key annotations.
func (c *Catalog) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Database: %s\n\n", c.database)

	for _, t := range c.tables {
		fmt.Fprintf(&b, "Table: %s\n", t.Name)
		if t.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", t.Description)
		}
		b.WriteString("Columns:\n")
		for _, col := range t.Columns {
			fmt.Fprintf(&b, "  - %s (%s", col.Name, col.Type)
			if col.PrimaryKey {
				b.WriteString(", PRIMARY KEY")
			}
			if col.ForeignKey != "" {
				fmt.Fprintf(&b, ", FOREIGN KEY -> %s", col.ForeignKey)
			}
			b.WriteString(")")
			if col.Description != "" {
				fmt.Fprintf(&b, " -- %s", col.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// PromptContext renders the compact "table ( col, col ) | ..." form that
// text-to-SQL models are trained on.
func (c *Catalog) PromptContext() string {
	parts := make([]string, len(c.tables))
	for i, t := range c.tables {
		parts[i] = fmt.Sprintf("%s ( %s )", t.Name, strings.Join(t.ColumnNames(), ", "))
	}
	return strings.Join(parts, " | ")
}
