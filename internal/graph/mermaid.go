package graph

import (
	"fmt"
	"io"
	"strings"
)

// WriteMermaid writes the graph as a Mermaid flowchart, one subgraph per
// island. Edges point from the referencing table to the referenced one and
// are labelled with the foreign key column.
func WriteMermaid(w io.Writer, g *Graph) error {
	islands, ids := Islands(g)

	if _, err := fmt.Fprintln(w, "graph TD"); err != nil {
		return err
	}

	for _, isl := range islands {
		fmt.Fprintf(w, "    subgraph island_%d\n", isl.ID+1)

		linked := make(map[string]bool)
		for _, e := range g.Edges {
			if ids[e.ChildTable] != isl.ID {
				continue
			}
			fmt.Fprintf(w, "        %s -->|%s| %s\n", mermaidID(e.ChildTable), e.ChildColumn, mermaidID(e.ParentTable))
			linked[e.ChildTable], linked[e.ParentTable] = true, true
		}
		for _, t := range isl.Tables {
			for _, e := range g.SelfRefs[t] {
				fmt.Fprintf(w, "        %s -->|%s| %s\n", mermaidID(t), e.ChildColumn, mermaidID(t))
				linked[t] = true
			}
			if !linked[t] {
				fmt.Fprintf(w, "        %s\n", mermaidID(t))
			}
		}

		if _, err := fmt.Fprintln(w, "    end"); err != nil {
			return err
		}
	}
	return nil
}

// WriteText writes a joinability report: table and key counts, the islands
// and, per island, tables by dependency level with the tables they reference.
func WriteText(w io.Writer, g *Graph) error {
	islands, _ := Islands(g)

	selfRefs := 0
	var selfRefTables []string
	for _, t := range g.Tables {
		if n := len(g.SelfRefs[t]); n > 0 {
			selfRefs += n
			selfRefTables = append(selfRefTables, t)
		}
	}

	fmt.Fprintf(w, "Tables: %d\n", len(g.Tables))
	fmt.Fprintf(w, "Foreign Keys: %d\n", len(g.Edges)+selfRefs)
	fmt.Fprintf(w, "Islands: %d\n", len(islands))
	if len(selfRefTables) > 0 {
		fmt.Fprintf(w, "Self-referencing tables: %s\n", strings.Join(selfRefTables, ", "))
	}
	fmt.Fprintln(w)

	for _, isl := range islands {
		fmt.Fprintf(w, "Island %d (%d tables)\n", isl.ID+1, len(isl.Tables))
		levels, cyclic := Levels(g, isl.Tables)
		for d, level := range levels {
			for _, t := range level {
				fmt.Fprintf(w, "  [%d] %s", d, t)
				if parents := g.Parents[t]; len(parents) > 0 {
					fmt.Fprintf(w, " -> %s", strings.Join(parents, ", "))
				}
				fmt.Fprintln(w)
			}
		}
		if len(cyclic) > 0 {
			fmt.Fprintf(w, "  cycle: %s\n", strings.Join(cyclic, ", "))
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func mermaidID(name string) string {
	return strings.NewReplacer(".", "_", " ", "_", "-", "_").Replace(name)
}
