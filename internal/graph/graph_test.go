package graph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/text2sql/internal/schema"
)

func shopTables() []schema.Table {
	return []schema.Table{
		{Name: "customers", Columns: []schema.Column{{Name: "customer_id", Type: "INT", PrimaryKey: true}}},
		{Name: "orders", Columns: []schema.Column{
			{Name: "order_id", Type: "INT", PrimaryKey: true},
			{Name: "customer_id", Type: "INT", ForeignKey: "customers.customer_id"},
		}},
		{Name: "products", Columns: []schema.Column{{Name: "product_id", Type: "INT", PrimaryKey: true}}},
		{Name: "order_items", Columns: []schema.Column{
			{Name: "item_id", Type: "INT", PrimaryKey: true},
			{Name: "order_id", Type: "INT", ForeignKey: "orders.order_id"},
			{Name: "product_id", Type: "INT", ForeignKey: "products.product_id"},
		}},
		{Name: "employees", Columns: []schema.Column{
			{Name: "employee_id", Type: "INT", PrimaryKey: true},
			{Name: "manager_id", Type: "INT", ForeignKey: "employees.employee_id"},
		}},
	}
}

func TestBuild(t *testing.T) {
	g := Build(shopTables())

	assert.Equal(t, []string{"customers", "orders", "products", "order_items", "employees"}, g.Tables)
	require.Len(t, g.Edges, 3)
	assert.Equal(t, Edge{ChildTable: "orders", ChildColumn: "customer_id", ParentTable: "customers", ParentColumn: "customer_id"}, g.Edges[0])
	assert.Len(t, g.SelfRefs["employees"], 1)
	assert.Equal(t, []string{"orders", "products"}, g.Parents["order_items"])
	assert.Equal(t, []string{"order_items"}, g.Children["products"])
}

func TestShortestPath_DirectEdge(t *testing.T) {
	g := Build(shopTables())

	path, ok := g.ShortestPath("products", "order_items")
	require.True(t, ok)
	require.Len(t, path, 1)
	assert.Equal(t, "products", path[0].From())
	assert.Equal(t, "order_items", path[0].To())
	assert.True(t, path[0].Reversed)
	assert.Equal(t, "product_id", path[0].FromColumn())
	assert.Equal(t, "product_id", path[0].ToColumn())
}

func TestShortestPath_MultiHop(t *testing.T) {
	g := Build(shopTables())

	path, ok := g.ShortestPath("customers", "products")
	require.True(t, ok)
	require.Len(t, path, 3)
	assert.Equal(t, []string{"orders", "order_items", "products"}, []string{path[0].To(), path[1].To(), path[2].To()})
}

func TestShortestPath_Unreachable(t *testing.T) {
	g := Build(shopTables())

	_, ok := g.ShortestPath("customers", "employees")
	assert.False(t, ok)

	path, ok := g.ShortestPath("orders", "orders")
	assert.True(t, ok)
	assert.Empty(t, path)
}

func TestShortestPath_TieBreakFollowsDeclarationOrder(t *testing.T) {
	// a and d are connected through b and through c; b is declared first.
	tables := []schema.Table{
		{Name: "a", Columns: []schema.Column{{Name: "id", Type: "INT"}}},
		{Name: "b", Columns: []schema.Column{{Name: "a_id", Type: "INT", ForeignKey: "a.id"}, {Name: "d_id", Type: "INT", ForeignKey: "d.id"}}},
		{Name: "c", Columns: []schema.Column{{Name: "a_id", Type: "INT", ForeignKey: "a.id"}, {Name: "d_id", Type: "INT", ForeignKey: "d.id"}}},
		{Name: "d", Columns: []schema.Column{{Name: "id", Type: "INT"}}},
	}
	g := Build(tables)

	for i := 0; i < 5; i++ {
		path, ok := g.ShortestPath("a", "d")
		require.True(t, ok)
		require.Len(t, path, 2)
		assert.Equal(t, "b", path[0].To())
	}
}

func TestIslands(t *testing.T) {
	g := Build(shopTables())
	islands, ids := Islands(g)
	require.Len(t, islands, 2)
	assert.Equal(t, []string{"customers", "orders", "products", "order_items"}, islands[0].Tables)
	assert.Equal(t, []string{"employees"}, islands[1].Tables)
	assert.Equal(t, 0, ids["products"])
	assert.Equal(t, 1, ids["employees"])
}

func TestLevels(t *testing.T) {
	g := Build(shopTables())
	levels, cyclic := Levels(g, g.Tables)
	assert.Empty(t, cyclic)
	assert.Equal(t, [][]string{
		{"customers", "products", "employees"},
		{"orders"},
		{"order_items"},
	}, levels)

	// parents outside the set do not count
	levels, _ = Levels(g, []string{"order_items", "orders"})
	assert.Equal(t, [][]string{{"orders"}, {"order_items"}}, levels)
}

func TestLevelsCycle(t *testing.T) {
	g := Build([]schema.Table{
		{Name: "a", Columns: []schema.Column{{Name: "b_id", Type: "INT", ForeignKey: "b.id"}, {Name: "id", Type: "INT"}}},
		{Name: "b", Columns: []schema.Column{{Name: "a_id", Type: "INT", ForeignKey: "a.id"}, {Name: "id", Type: "INT"}}},
		{Name: "c", Columns: []schema.Column{{Name: "id", Type: "INT"}}},
	})
	levels, cyclic := Levels(g, g.Tables)
	assert.Equal(t, [][]string{{"c"}}, levels)
	assert.Equal(t, []string{"a", "b"}, cyclic)
}

func TestWriteMermaid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMermaid(&buf, Build(shopTables())))

	out := buf.String()
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "orders -->|customer_id| customers")
	assert.Contains(t, out, "employees -->|manager_id| employees")
	assert.Contains(t, out, "subgraph island_2")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, Build(shopTables())))

	out := buf.String()
	assert.Contains(t, out, "Tables: 5")
	assert.Contains(t, out, "Foreign Keys: 4")
	assert.Contains(t, out, "Islands: 2")
	assert.Contains(t, out, "Self-referencing tables: employees")
	assert.Contains(t, out, "  [2] order_items -> orders, products\n")
	assert.Contains(t, out, "Island 2 (1 tables)\n  [0] employees\n")
}
