// Package catalogtest provides schema fixtures for tests.
package catalogtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/schema"
)

// EcommerceYAML is the default shop schema: customers, orders, products and
// order_items, with descriptions on city and status.
const EcommerceYAML = `
database_name: ecommerce
tables:
  customers:
    columns:
      - {name: customer_id, type: INT, primary_key: true}
      - {name: name, type: VARCHAR(255)}
      - {name: email, type: VARCHAR(255)}
      - {name: city, type: VARCHAR(100), description: City where the customer lives}
      - {name: country, type: VARCHAR(100)}
      - {name: created_at, type: DATETIME}
  orders:
    columns:
      - {name: order_id, type: INT, primary_key: true}
      - {name: customer_id, type: INT, foreign_key: customers.customer_id}
      - {name: order_date, type: DATE}
      - {name: total_amount, type: DECIMAL(10,2)}
      - {name: status, type: VARCHAR(50), description: "Order status: pending, shipped, delivered, cancelled"}
  products:
    columns:
      - {name: product_id, type: INT, primary_key: true}
      - {name: name, type: VARCHAR(255)}
      - {name: price, type: DECIMAL(10,2)}
      - {name: category, type: VARCHAR(100)}
      - {name: stock_quantity, type: INT}
  order_items:
    columns:
      - {name: item_id, type: INT, primary_key: true}
      - {name: order_id, type: INT, foreign_key: orders.order_id}
      - {name: product_id, type: INT, foreign_key: products.product_id}
      - {name: quantity, type: INT}
      - {name: price, type: DECIMAL(10,2)}
  suppliers:
    columns:
      - {name: supplier_id, type: INT, primary_key: true}
      - {name: company, type: VARCHAR(255)}
      - {name: region, type: VARCHAR(100)}
`

// LibraryYAML is the books/members/loans schema.
const LibraryYAML = `
database_name: library
tables:
  books:
    columns:
      - {name: book_id, type: INT, primary_key: true}
      - {name: title, type: VARCHAR(255)}
      - {name: author, type: VARCHAR(255)}
      - {name: isbn, type: VARCHAR(20)}
      - {name: published_year, type: INT}
  members:
    columns:
      - {name: member_id, type: INT, primary_key: true}
      - {name: name, type: VARCHAR(255)}
      - {name: email, type: VARCHAR(255)}
      - {name: join_date, type: DATE}
  loans:
    columns:
      - {name: loan_id, type: INT, primary_key: true}
      - {name: book_id, type: INT, foreign_key: books.book_id}
      - {name: member_id, type: INT, foreign_key: members.member_id}
      - {name: loan_date, type: DATE}
      - {name: return_date, type: DATE}
`

// Load parses and loads a YAML schema, failing the test on error.
func Load(tb testing.TB, src string) *catalog.Catalog {
	tb.Helper()
	doc, err := schema.Parse([]byte(src))
	require.NoError(tb, err)
	cat, err := catalog.Load(doc)
	require.NoError(tb, err)
	return cat
}

// Ecommerce returns the shop catalog. suppliers is deliberately unconnected.
func Ecommerce(tb testing.TB) *catalog.Catalog {
	tb.Helper()
	return Load(tb, EcommerceYAML)
}

// Library returns the library catalog.
func Library(tb testing.TB) *catalog.Catalog {
	tb.Helper()
	return Load(tb, LibraryYAML)
}
