package graph

import (
	"github.com/hurou927/text2sql/internal/schema"
)

// Edge represents a directed foreign key edge from the referencing (child)
// column to the referenced (parent) column.
type Edge struct {
	ChildTable   string
	ChildColumn  string
	ParentTable  string
	ParentColumn string
}

// Step is one hop of a join path. A step walks an edge either in FK
// direction (child -> parent) or against it.
type Step struct {
	Edge     Edge
	Reversed bool // true when walking parent -> child
}

// From returns the table the step starts at.
func (s Step) From() string {
	if s.Reversed {
		return s.Edge.ParentTable
	}
	return s.Edge.ChildTable
}

// To returns the table the step arrives at.
func (s Step) To() string {
	if s.Reversed {
		return s.Edge.ChildTable
	}
	return s.Edge.ParentTable
}

// FromColumn returns the join column on the From side.
func (s Step) FromColumn() string {
	if s.Reversed {
		return s.Edge.ParentColumn
	}
	return s.Edge.ChildColumn
}

// ToColumn returns the join column on the To side.
func (s Step) ToColumn() string {
	if s.Reversed {
		return s.Edge.ChildColumn
	}
	return s.Edge.ParentColumn
}

// Graph is a directed graph built from FK declarations. All slices keep
// table declaration order, then column declaration order.
type Graph struct {
	// Tables lists table names in declaration order.
	Tables []string

	// Edges are non-self-referential FK edges (child → parent)
	Edges []Edge

	// SelfRefs holds self-referential FKs, keyed by table name
	SelfRefs map[string][]Edge

	// Children maps parent name → list of child names
	Children map[string][]string

	// Parents maps child name → list of parent names
	Parents map[string][]string

	// incident maps a table to the indexes of the edges touching it
	incident map[string][]int
}

// Build constructs the FK graph for the given tables. FKs referencing
// tables outside the set, or malformed references, are ignored; the
// catalog rejects those before building.
func Build(tables []schema.Table) *Graph {
	g := &Graph{
		SelfRefs: make(map[string][]Edge),
		Children: make(map[string][]string),
		Parents:  make(map[string][]string),
		incident: make(map[string][]int),
	}

	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		g.Tables = append(g.Tables, t.Name)
		known[t.Name] = true
	}

	for _, t := range tables {
		for _, col := range t.ForeignKeys() {
			ref, err := schema.ParseReference(col.ForeignKey)
			if err != nil || !known[ref.Table] {
				continue
			}
			edge := Edge{
				ChildTable:   t.Name,
				ChildColumn:  col.Name,
				ParentTable:  ref.Table,
				ParentColumn: ref.Column,
			}
			if ref.Table == t.Name {
				g.SelfRefs[t.Name] = append(g.SelfRefs[t.Name], edge)
				continue
			}
			idx := len(g.Edges)
			g.Edges = append(g.Edges, edge)
			g.Children[ref.Table] = appendUnique(g.Children[ref.Table], t.Name)
			g.Parents[t.Name] = appendUnique(g.Parents[t.Name], ref.Table)
			g.incident[t.Name] = append(g.incident[t.Name], idx)
			g.incident[ref.Table] = append(g.incident[ref.Table], idx)
		}
	}

	return g
}

// ShortestPath finds a minimal-hop path between two tables, following FK
// edges in either direction. Among equally short paths the first one
// discovered wins, with edges visited in declaration order. The path from
// a table to itself is empty.
func (g *Graph) ShortestPath(from, to string) ([]Step, bool) {
	if from == to {
		return nil, true
	}

	visited := map[string]bool{from: true}
	via := make(map[string]Step)
	queue := []string{from}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, idx := range g.incident[node] {
			step := Step{Edge: g.Edges[idx], Reversed: g.Edges[idx].ParentTable == node}
			next := step.To()
			if visited[next] {
				continue
			}
			visited[next] = true
			via[next] = step
			if next == to {
				return unwind(via, from, to), true
			}
			queue = append(queue, next)
		}
	}

	return nil, false
}

func unwind(via map[string]Step, from, to string) []Step {
	var path []Step
	for cur := to; cur != from; {
		step := via[cur]
		path = append(path, step)
		cur = step.From()
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
