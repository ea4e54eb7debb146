package graph

// Levels assigns each table a depth: tables whose parents are all outside
// the set sit at level 0, every other table one level below its deepest
// parent. Tables on a foreign key cycle, or below one, get no level and are
// returned separately in declaration order.
func Levels(g *Graph, tables []string) ([][]string, []string) {
	in := make(map[string]bool, len(tables))
	for _, t := range tables {
		in[t] = true
	}

	depth := make(map[string]int, len(tables))
	for changed := true; changed; {
		changed = false
		for _, t := range tables {
			if _, done := depth[t]; done {
				continue
			}
			d, ready := 0, true
			for _, p := range g.Parents[t] {
				if !in[p] {
					continue
				}
				pd, ok := depth[p]
				if !ok {
					ready = false
					break
				}
				d = max(d, pd+1)
			}
			if ready {
				depth[t] = d
				changed = true
			}
		}
	}

	var levels [][]string
	var cyclic []string
	for _, t := range tables {
		d, ok := depth[t]
		if !ok {
			cyclic = append(cyclic, t)
			continue
		}
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], t)
	}
	return levels, cyclic
}
