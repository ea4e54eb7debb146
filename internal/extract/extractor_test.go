package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/catalog/catalogtest"
	"github.com/hurou927/text2sql/internal/schema"
)

func ref(table, column string) ColumnRef {
	return ColumnRef{Table: table, Column: column}
}

func refp(table, column string) *ColumnRef {
	r := ref(table, column)
	return &r
}

func TestExtract(t *testing.T) {
	ex := New(catalogtest.Ecommerce(t))

	tests := []struct {
		name     string
		question string
		want     *Intent
	}{
		{
			name:     "plain table",
			question: "Show me all customers",
			want:     &Intent{Tables: []string{"customers"}},
		},
		{
			name:     "top n by column",
			question: "What are the top 5 products by price?",
			want: &Intent{
				Tables: []string{"products"},
				Order:  &Order{Column: refp("products", "price"), Direction: Desc},
				Limit:  5,
			},
		},
		{
			name:     "measure grouped by qualified column",
			question: "Show total sales by product category",
			want: &Intent{
				Tables: []string{"products", "order_items"},
				Aggregate: &Aggregate{
					Func:    FuncSum,
					Args:    []ColumnRef{ref("order_items", "price"), ref("order_items", "quantity")},
					Label:   "sales",
					GroupBy: refp("products", "category"),
				},
			},
		},
		{
			name:     "location and amount filters",
			question: "Find customers from New York with orders over $1000",
			want: &Intent{
				Tables: []string{"customers", "orders"},
				Filters: []Filter{
					{Column: ref("customers", "city"), Op: OpEq, Value: "New York", Kind: schema.KindString},
					{Column: ref("orders", "total_amount"), Op: OpGt, Value: "1000", Kind: schema.KindNumber},
				},
			},
		},
		{
			name:     "enumerated adjective and projection",
			question: "List all pending orders with customer names",
			want: &Intent{
				Tables:      []string{"orders", "customers"},
				Filters:     []Filter{{Column: ref("orders", "status"), Op: OpEq, Value: "pending", Kind: schema.KindString}},
				Projections: []ColumnRef{ref("customers", "name")},
			},
		},
		{
			name:     "count grouped",
			question: "How many customers by country",
			want: &Intent{
				Tables: []string{"customers"},
				Aggregate: &Aggregate{
					Func:    FuncCount,
					Label:   "all",
					GroupBy: refp("customers", "country"),
				},
			},
		},
		{
			name:     "average of default numeric column",
			question: "Calculate average order value",
			want: &Intent{
				Tables: []string{"orders"},
				Aggregate: &Aggregate{
					Func:  FuncAvg,
					Args:  []ColumnRef{ref("orders", "total_amount")},
					Label: "total_amount",
				},
			},
		},
		{
			name:     "group by table uses display column",
			question: "How many orders per customer",
			want: &Intent{
				Tables: []string{"orders", "customers"},
				Aggregate: &Aggregate{
					Func:    FuncCount,
					Label:   "all",
					GroupBy: refp("customers", "name"),
				},
			},
		},
		{
			name:     "year becomes date range",
			question: "Show orders in 2023",
			want: &Intent{
				Tables: []string{"orders"},
				Filters: []Filter{{
					Column: ref("orders", "order_date"), Op: OpBetween,
					Value: "2023-01-01", Upper: "2023-12-31", Kind: schema.KindDate,
				}},
			},
		},
		{
			name:     "after month",
			question: "Show orders after March 2024",
			want: &Intent{
				Tables:  []string{"orders"},
				Filters: []Filter{{Column: ref("orders", "order_date"), Op: OpGt, Value: "2024-03-31", Kind: schema.KindDate}},
			},
		},
		{
			name:     "since iso date",
			question: "Show orders since 2024-01-15",
			want: &Intent{
				Tables:  []string{"orders"},
				Filters: []Filter{{Column: ref("orders", "order_date"), Op: OpGte, Value: "2024-01-15", Kind: schema.KindDate}},
			},
		},
		{
			name:     "between numbers",
			question: "Show orders between 100 and 500",
			want: &Intent{
				Tables: []string{"orders"},
				Filters: []Filter{{
					Column: ref("orders", "total_amount"), Op: OpBetween,
					Value: "100", Upper: "500", Kind: schema.KindNumber,
				}},
			},
		},
		{
			name:     "named",
			question: "Show products named 'Laptop'",
			want: &Intent{
				Tables:  []string{"products"},
				Filters: []Filter{{Column: ref("products", "name"), Op: OpEq, Value: "Laptop", Kind: schema.KindString}},
			},
		},
		{
			name:     "containing",
			question: `Find products containing "phone"`,
			want: &Intent{
				Tables:  []string{"products"},
				Filters: []Filter{{Column: ref("products", "name"), Op: OpLike, Value: "%phone%", Kind: schema.KindString}},
			},
		},
		{
			name:     "wildcards in a containing literal match literally",
			question: `Find products containing "50%_off"`,
			want: &Intent{
				Tables:  []string{"products"},
				Filters: []Filter{{Column: ref("products", "name"), Op: OpLike, Value: `%50\%\_off%`, Kind: schema.KindString}},
			},
		},
		{
			name:     "enumerated value then comparison keep question order",
			question: "List pending orders over 500",
			want: &Intent{
				Tables: []string{"orders"},
				Filters: []Filter{
					{Column: ref("orders", "status"), Op: OpEq, Value: "pending", Kind: schema.KindString},
					{Column: ref("orders", "total_amount"), Op: OpGt, Value: "500", Kind: schema.KindNumber},
				},
			},
		},
		{
			name:     "explicit column filter",
			question: "Show products with price over 100",
			want: &Intent{
				Tables:  []string{"products"},
				Filters: []Filter{{Column: ref("products", "price"), Op: OpGt, Value: "100", Kind: schema.KindNumber}},
			},
		},
		{
			name:     "number word and ranking",
			question: "Show the top three most expensive products",
			want: &Intent{
				Tables: []string{"products"},
				Order:  &Order{Column: refp("products", "price"), Direction: Desc},
				Limit:  3,
			},
		},
		{
			name:     "count before rank adjective",
			question: "Show the 5 cheapest products",
			want: &Intent{
				Tables: []string{"products"},
				Order:  &Order{Column: refp("products", "price"), Direction: Asc},
				Limit:  5,
			},
		},
		{
			name:     "latest picks a date column",
			question: "Show the 3 latest orders",
			want: &Intent{
				Tables: []string{"orders"},
				Order:  &Order{Column: refp("orders", "order_date"), Direction: Desc},
				Limit:  3,
			},
		},
		{
			name:     "sorted with direction",
			question: "Show products sorted by price descending",
			want: &Intent{
				Tables: []string{"products"},
				Order:  &Order{Column: refp("products", "price"), Direction: Desc},
			},
		},
		{
			name:     "full width digits",
			question: "Show top ５ products by price",
			want: &Intent{
				Tables: []string{"products"},
				Order:  &Order{Column: refp("products", "price"), Direction: Desc},
				Limit:  5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ex.Extract(tt.question)
			require.NoError(t, err)
			tt.want.Question = tt.question
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLibrary(t *testing.T) {
	ex := New(catalogtest.Library(t))

	got, err := ex.Extract("Show books published after 1999")
	require.NoError(t, err)
	assert.Equal(t, []string{"books"}, got.Tables)
	assert.Equal(t, []Filter{{Column: ref("books", "published_year"), Op: OpGt, Value: "1999", Kind: schema.KindNumber}}, got.Filters)
}

func TestExtractErrors(t *testing.T) {
	ex := New(catalogtest.Ecommerce(t))

	_, err := ex.Extract("What is the weather today?")
	require.Error(t, err)
	assert.True(t, IsUnparsable(err))

	_, err = ex.Extract("   ")
	assert.True(t, IsUnparsable(err))

	_, err = ex.Extract("Show orders with price over 100")
	require.Error(t, err)
	assert.True(t, catalog.IsAmbiguous(err))
	var amb *catalog.AmbiguousColumnError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, "price", amb.Column)
	assert.Equal(t, []string{"products", "order_items"}, amb.Tables)
}

func TestExtractDeterministic(t *testing.T) {
	ex := New(catalogtest.Ecommerce(t))
	q := "Find customers from New York with orders over $1000"

	first, err := ex.Extract(q)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ex.Extract(q)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTokenize(t *testing.T) {
	toks := tokenize(`customer's orders over $1,250.50 since 2024-01-15 named 'New York' isn't`)

	var kinds []tokenKind
	var raws []string
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
		raws = append(raws, tok.raw)
	}
	assert.Equal(t, []string{"customer", "orders", "over", "1250.50", "since", "2024-01-15", "named", "New York", "isn", "'", "t"}, raws)
	assert.Equal(t, []tokenKind{tokWord, tokWord, tokWord, tokNumber, tokWord, tokDate, tokWord, tokQuoted, tokWord, tokPunct, tokWord}, kinds)
	assert.Equal(t, "order", toks[1].sing)
}

func TestScanMonth(t *testing.T) {
	tests := []struct {
		in     string
		text   string
		lo, hi string
	}{
		{in: "March 2024", text: "2024-03", lo: "2024-03-01", hi: "2024-03-31"},
		{in: "Feb 2024", text: "2024-02", lo: "2024-02-01", hi: "2024-02-29"},
		{in: "March 5, 2024", text: "2024-03-05", lo: "2024-03-05", hi: "2024-03-05"},
		{in: "5 March 2024", text: "2024-03-05", lo: "2024-03-05", hi: "2024-03-05"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			l, n := scanMonth(tokenize(tt.in), 0)
			require.NotNil(t, l)
			assert.Equal(t, len(tokenize(tt.in)), n)
			assert.Equal(t, tt.text, l.text)
			assert.Equal(t, tt.lo, l.lo.Format(isoLayout))
			assert.Equal(t, tt.hi, l.hi.Format(isoLayout))
		})
	}

	l, _ := scanMonth(tokenize("March madness"), 0)
	assert.Nil(t, l)
}

func TestEnumerated(t *testing.T) {
	assert.Equal(t, []string{"pending", "shipped", "delivered", "cancelled"},
		enumerated("Order status: pending, shipped, delivered, cancelled"))
	assert.Nil(t, enumerated("City where the customer lives"))
}
