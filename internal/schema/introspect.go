package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// columnRow is one row of the column catalog query.
type columnRow struct {
	Schema      string
	Table       string
	Column      string
	DataType    string
	Description string
}

// keyRow identifies a primary key column.
type keyRow struct {
	Schema string
	Table  string
	Column string
}

// fkRow is one single-column foreign key.
type fkRow struct {
	Schema       string
	Table        string
	Column       string
	ParentSchema string
	ParentTable  string
	ParentColumn string
}

// Introspect queries PostgreSQL catalogs and returns a schema document with
// columns, primary keys, single-column foreign keys and column comments.
// Composite foreign keys cannot be expressed as "table.column" and are skipped.
func Introspect(ctx context.Context, pool *pgxpool.Pool, database string, schemas []string) (*Document, error) {
	cols, err := queryColumns(ctx, pool, schemas)
	if err != nil {
		return nil, fmt.Errorf("querying tables and columns: %w", err)
	}

	pks, err := queryPrimaryKeys(ctx, pool, schemas)
	if err != nil {
		return nil, fmt.Errorf("querying primary keys: %w", err)
	}

	fks, err := queryForeignKeys(ctx, pool, schemas)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}

	return assemble(database, cols, pks, fks), nil
}

func queryColumns(ctx context.Context, pool *pgxpool.Pool, schemas []string) ([]columnRow, error) {
	query := `
		SELECT
			n.nspname AS schema_name,
			c.relname AS table_name,
			a.attname AS column_name,
			upper(format_type(a.atttypid, a.atttypmod)) AS data_type,
			coalesce(col_description(c.oid, a.attnum), '') AS description
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_attribute a ON a.attrelid = c.oid
		WHERE c.relkind = 'r'
			AND a.attnum > 0
			AND NOT a.attisdropped
			AND n.nspname = ANY($1)
		ORDER BY n.nspname, c.relname, a.attnum
	`

	rows, err := pool.Query(ctx, query, schemas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []columnRow
	for rows.Next() {
		var r columnRow
		if err := rows.Scan(&r.Schema, &r.Table, &r.Column, &r.DataType, &r.Description); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryPrimaryKeys(ctx context.Context, pool *pgxpool.Pool, schemas []string) ([]keyRow, error) {
	query := `
		SELECT
			n.nspname AS schema_name,
			c.relname AS table_name,
			a.attname AS column_name
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey) AS u(attnum)
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = u.attnum
		WHERE con.contype = 'p'
			AND n.nspname = ANY($1)
		ORDER BY n.nspname, c.relname
	`

	rows, err := pool.Query(ctx, query, schemas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []keyRow
	for rows.Next() {
		var r keyRow
		if err := rows.Scan(&r.Schema, &r.Table, &r.Column); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryForeignKeys(ctx context.Context, pool *pgxpool.Pool, schemas []string) ([]fkRow, error) {
	query := `
		SELECT
			cn.nspname AS child_schema,
			cc.relname AS child_table,
			ca.attname AS child_column,
			pn.nspname AS parent_schema,
			pc.relname AS parent_table,
			pa.attname AS parent_column
		FROM pg_constraint con
		JOIN pg_class cc ON cc.oid = con.conrelid
		JOIN pg_namespace cn ON cn.oid = cc.relnamespace
		JOIN pg_class pc ON pc.oid = con.confrelid
		JOIN pg_namespace pn ON pn.oid = pc.relnamespace
		JOIN pg_attribute ca ON ca.attrelid = cc.oid AND ca.attnum = con.conkey[1]
		JOIN pg_attribute pa ON pa.attrelid = pc.oid AND pa.attnum = con.confkey[1]
		WHERE con.contype = 'f'
			AND cardinality(con.conkey) = 1
			AND cn.nspname = ANY($1)
		ORDER BY con.conname
	`

	rows, err := pool.Query(ctx, query, schemas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fkRow
	for rows.Next() {
		var r fkRow
		if err := rows.Scan(&r.Schema, &r.Table, &r.Column, &r.ParentSchema, &r.ParentTable, &r.ParentColumn); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// assemble folds catalog rows into a document. Tables keep the order of the
// column query; table names are schema-qualified only when more than one
// schema contributes tables.
func assemble(database string, cols []columnRow, pks []keyRow, fks []fkRow) *Document {
	schemas := make(map[string]bool)
	for _, c := range cols {
		schemas[c.Schema] = true
	}
	qualify := len(schemas) > 1
	name := func(schemaName, table string) string {
		if qualify {
			return schemaName + "_" + table
		}
		return table
	}

	doc := &Document{DatabaseName: database}
	index := make(map[string]int)
	for _, c := range cols {
		key := name(c.Schema, c.Table)
		i, ok := index[key]
		if !ok {
			i = len(doc.Tables)
			index[key] = i
			doc.Tables = append(doc.Tables, Table{Name: key})
		}
		doc.Tables[i].Columns = append(doc.Tables[i].Columns, Column{
			Name:        c.Column,
			Type:        c.DataType,
			Description: c.Description,
		})
	}

	for _, pk := range pks {
		if i, ok := index[name(pk.Schema, pk.Table)]; ok {
			if col := doc.Tables[i].Column(pk.Column); col != nil {
				col.PrimaryKey = true
			}
		}
	}

	for _, fk := range fks {
		i, ok := index[name(fk.Schema, fk.Table)]
		if !ok {
			continue
		}
		parent := name(fk.ParentSchema, fk.ParentTable)
		if _, ok := index[parent]; !ok {
			continue // parent table not in scope
		}
		if col := doc.Tables[i].Column(fk.Column); col != nil && col.ForeignKey == "" {
			col.ForeignKey = parent + "." + fk.ParentColumn
		}
	}

	return doc
}
