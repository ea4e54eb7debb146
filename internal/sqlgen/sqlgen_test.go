package sqlgen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/text2sql/internal/catalog/catalogtest"
	"github.com/hurou927/text2sql/internal/extract"
	"github.com/hurou927/text2sql/internal/join"
	"github.com/hurou927/text2sql/internal/schema"
)

func TestBuildFromQuestions(t *testing.T) {
	cat := catalogtest.Ecommerce(t)
	ex := extract.New(cat)

	tests := []struct {
		question string
		want     string
	}{
		{
			question: "Show me all customers",
			want:     "SELECT * FROM customers",
		},
		{
			question: "What are the top 5 products by price?",
			want:     "SELECT * FROM products ORDER BY price DESC LIMIT 5",
		},
		{
			question: "Show total sales by product category",
			want: "SELECT p.category, SUM(oi.price * oi.quantity) AS sum_sales FROM products p " +
				"INNER JOIN order_items oi ON p.product_id = oi.product_id GROUP BY p.category",
		},
		{
			question: "Find customers from New York with orders over $1000",
			want: "SELECT DISTINCT c.* FROM customers c INNER JOIN orders o ON c.customer_id = o.customer_id " +
				"WHERE c.city = 'New York' AND o.total_amount > 1000",
		},
		{
			question: "List all pending orders with customer names",
			want: "SELECT DISTINCT o.*, c.name FROM orders o INNER JOIN customers c ON o.customer_id = c.customer_id " +
				"WHERE o.status = 'pending'",
		},
		{
			question: "How many customers by country",
			want:     "SELECT country, COUNT(*) AS count_all FROM customers GROUP BY country",
		},
		{
			question: "Calculate average order value",
			want:     "SELECT AVG(total_amount) AS avg_total_amount FROM orders",
		},
		{
			question: "Show orders in 2023",
			want:     "SELECT * FROM orders WHERE order_date BETWEEN '2023-01-01' AND '2023-12-31'",
		},
		{
			question: "Find products containing \"phone\"",
			want:     "SELECT * FROM products WHERE name LIKE '%phone%'",
		},
		{
			question: `Find products containing "50%_off"`,
			want:     `SELECT * FROM products WHERE name LIKE '%50\%\_off%' ESCAPE '\'`,
		},
		{
			question: "Show products named 'O'Brien'",
			want:     "SELECT * FROM products WHERE name = 'O''Brien'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			in, err := ex.Extract(tt.question)
			require.NoError(t, err)
			joins, err := join.Resolve(cat, in.Tables)
			require.NoError(t, err)
			got, err := Build(cat, in, joins)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildDistinctOrderColumn(t *testing.T) {
	cat := catalogtest.Ecommerce(t)
	in := &extract.Intent{
		Tables: []string{"customers", "orders"},
		Order:  &extract.Order{Column: &extract.ColumnRef{Table: "orders", Column: "order_date"}, Direction: extract.Desc},
		Limit:  10,
	}
	joins, err := join.Resolve(cat, in.Tables)
	require.NoError(t, err)

	got, err := Build(cat, in, joins)
	require.NoError(t, err)
	assert.Equal(t, "SELECT DISTINCT c.*, o.order_date FROM customers c INNER JOIN orders o ON c.customer_id = o.customer_id "+
		"ORDER BY o.order_date DESC LIMIT 10", got)
}

func TestBuildOrderByAggregate(t *testing.T) {
	cat := catalogtest.Ecommerce(t)
	in := &extract.Intent{
		Tables: []string{"orders"},
		Aggregate: &extract.Aggregate{
			Func:    extract.FuncSum,
			Args:    []extract.ColumnRef{{Table: "orders", Column: "total_amount"}},
			Label:   "total_amount",
			GroupBy: &extract.ColumnRef{Table: "orders", Column: "status"},
		},
		Order: &extract.Order{Direction: extract.Desc},
		Limit: 3,
	}

	got, err := Build(cat, in, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT status, SUM(total_amount) AS sum_total_amount FROM orders GROUP BY status ORDER BY sum_total_amount DESC LIMIT 3", got)
}

func TestBuildInvalid(t *testing.T) {
	cat := catalogtest.Ecommerce(t)

	_, err := Build(cat, &extract.Intent{}, nil)
	assert.True(t, errors.Is(err, ErrInvalidIntent))

	_, err = Build(cat, &extract.Intent{Tables: []string{"customers", "orders"}}, nil)
	assert.True(t, errors.Is(err, ErrInvalidIntent))

	_, err = Build(cat, &extract.Intent{
		Tables:  []string{"customers"},
		Filters: []extract.Filter{{Column: extract.ColumnRef{Table: "customers", Column: "nope"}, Op: extract.OpEq, Value: "x", Kind: schema.KindString}},
	}, nil)
	assert.True(t, errors.Is(err, ErrInvalidIntent))
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "customers", QuoteIdent("customers"))
	assert.Equal(t, `"order"`, QuoteIdent("order"))
	assert.Equal(t, `"date"`, QuoteIdent("date"))
	assert.Equal(t, `"OrderItems"`, QuoteIdent("OrderItems"))
	assert.Equal(t, `"weird""name"`, QuoteIdent(`weird"name`))
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, "'plain'", QuoteString("plain"))
	assert.Equal(t, "'O''Brien'", QuoteString("O'Brien"))
	assert.Equal(t, "1000", number("1000"))
	assert.Equal(t, "19.99", number("19.99"))
	assert.Equal(t, "'Inf'", number("Inf"))
}

func TestAssignAliases(t *testing.T) {
	got := assignAliases([]string{"customers", "orders", "order_items", "categories", "options"}, true)
	assert.Equal(t, map[string]string{
		"customers":   "c",
		"orders":      "o",
		"order_items": "oi",
		"categories":  "c2",
		"options":     "o2",
	}, got)

	got = assignAliases([]string{"accounts_settings"}, true)
	assert.Equal(t, "as2", got["accounts_settings"])

	got = assignAliases([]string{"customers"}, false)
	assert.Equal(t, "", got["customers"])
}
