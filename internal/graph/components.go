package graph

// Island is a set of tables connected by foreign keys in either direction.
// Any two tables of an island can be joined; tables of different islands
// cannot.
type Island struct {
	ID     int
	Tables []string
}

// Islands partitions the tables. Islands are numbered by their first table
// in declaration order and list members in declaration order. The map gives
// each table's island ID.
func Islands(g *Graph) ([]Island, map[string]int) {
	parent := make(map[string]string, len(g.Tables))
	for _, t := range g.Tables {
		parent[t] = t
	}
	var find func(string) string
	find = func(t string) string {
		if parent[t] != t {
			parent[t] = find(parent[t])
		}
		return parent[t]
	}
	for _, e := range g.Edges {
		a, b := find(e.ChildTable), find(e.ParentTable)
		if a != b {
			parent[b] = a
		}
	}

	var islands []Island
	ids := make(map[string]int, len(g.Tables))
	byRoot := make(map[string]int)
	for _, t := range g.Tables {
		root := find(t)
		id, ok := byRoot[root]
		if !ok {
			id = len(islands)
			byRoot[root] = id
			islands = append(islands, Island{ID: id})
		}
		islands[id].Tables = append(islands[id].Tables, t)
		ids[t] = id
	}
	return islands, ids
}
