// Package sqlgen renders an extracted intent and its joins as one SELECT
// statement.
package sqlgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/extract"
	"github.com/hurou927/text2sql/internal/join"
	"github.com/hurou927/text2sql/internal/schema"
)

// ErrInvalidIntent is returned when an intent refers to tables or columns
// the statement cannot reach.
var ErrInvalidIntent = errors.New("sqlgen: invalid intent")

// Build renders the statement. Clause order is SELECT, FROM, INNER JOIN,
// WHERE, GROUP BY, ORDER BY, LIMIT. A single table is left unaliased; with
// joins every table gets an alias and every column is qualified.
func Build(cat *catalog.Catalog, in *extract.Intent, joins []join.Join) (string, error) {
	if in == nil || len(in.Tables) == 0 {
		return "", fmt.Errorf("%w: no target table", ErrInvalidIntent)
	}

	anchor := in.Anchor()
	b := &builder{cat: cat, aliases: assignAliases(join.Tables(anchor, joins), len(joins) > 0)}
	for _, t := range in.Tables {
		if _, ok := b.aliases[t]; !ok {
			return "", fmt.Errorf("%w: table %s is not joined", ErrInvalidIntent, t)
		}
	}

	sel, err := b.selectList(in, len(joins) > 0)
	if err != nil {
		return "", err
	}
	parts := []string{sel, "FROM " + b.table(anchor)}

	for _, j := range joins {
		parts = append(parts, fmt.Sprintf("INNER JOIN %s ON %s = %s",
			b.table(j.Table),
			b.qualify(j.OnTable, j.OnColumn),
			b.qualify(j.Table, j.Column)))
	}

	if len(in.Filters) > 0 {
		conds := make([]string, len(in.Filters))
		for i, f := range in.Filters {
			c, err := b.condition(f)
			if err != nil {
				return "", err
			}
			conds[i] = c
		}
		parts = append(parts, "WHERE "+strings.Join(conds, " AND "))
	}

	if agg := in.Aggregate; agg != nil && agg.GroupBy != nil {
		col, err := b.column(*agg.GroupBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, "GROUP BY "+col)
	}

	if o := in.Order; o != nil {
		var key string
		switch {
		case o.Column != nil:
			col, err := b.column(*o.Column)
			if err != nil {
				return "", err
			}
			key = col
		case in.Aggregate != nil:
			key = QuoteIdent(in.Aggregate.Alias())
		}
		if key != "" {
			parts = append(parts, "ORDER BY "+key+" "+string(o.Direction))
		}
	}

	if in.Limit > 0 {
		parts = append(parts, "LIMIT "+strconv.Itoa(in.Limit))
	}

	return strings.Join(parts, " "), nil
}

type builder struct {
	cat     *catalog.Catalog
	aliases map[string]string // table -> alias, empty when unaliased
}

func (b *builder) table(name string) string {
	if a := b.aliases[name]; a != "" {
		return QuoteIdent(name) + " " + a
	}
	return QuoteIdent(name)
}

func (b *builder) qualify(table, column string) string {
	if a := b.aliases[table]; a != "" {
		return a + "." + QuoteIdent(column)
	}
	return QuoteIdent(column)
}

// column checks a reference against the catalog and the FROM clause.
func (b *builder) column(ref extract.ColumnRef) (string, error) {
	if _, ok := b.aliases[ref.Table]; !ok {
		return "", fmt.Errorf("%w: column %s outside the joined tables", ErrInvalidIntent, ref)
	}
	t, col, err := b.cat.ResolveColumn(ref.Table, ref.Column)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidIntent, err)
	}
	return b.qualify(t.Name, col.Name), nil
}

func (b *builder) star(table string) string {
	if a := b.aliases[table]; a != "" {
		return a + ".*"
	}
	return "*"
}

func (b *builder) selectList(in *extract.Intent, joined bool) (string, error) {
	if agg := in.Aggregate; agg != nil {
		var items []string
		if agg.GroupBy != nil {
			col, err := b.column(*agg.GroupBy)
			if err != nil {
				return "", err
			}
			items = append(items, col)
		}
		arg := "*"
		if len(agg.Args) > 0 {
			cols := make([]string, len(agg.Args))
			for i, a := range agg.Args {
				col, err := b.column(a)
				if err != nil {
					return "", err
				}
				cols[i] = col
			}
			arg = strings.Join(cols, " * ")
		}
		items = append(items, fmt.Sprintf("%s(%s) AS %s", agg.Func, arg, QuoteIdent(agg.Alias())))
		return "SELECT " + strings.Join(items, ", "), nil
	}

	items := []string{b.star(in.Anchor())}
	seen := make(map[extract.ColumnRef]bool)
	for _, p := range in.Projections {
		if seen[p] {
			continue
		}
		seen[p] = true
		col, err := b.column(p)
		if err != nil {
			return "", err
		}
		items = append(items, col)
	}

	if !joined {
		return "SELECT " + strings.Join(items, ", "), nil
	}

	// SELECT DISTINCT requires ORDER BY expressions in the select list.
	if o := in.Order; o != nil && o.Column != nil && o.Column.Table != in.Anchor() && !seen[*o.Column] {
		col, err := b.column(*o.Column)
		if err != nil {
			return "", err
		}
		items = append(items, col)
	}
	return "SELECT DISTINCT " + strings.Join(items, ", "), nil
}

func (b *builder) condition(f extract.Filter) (string, error) {
	col, err := b.column(f.Column)
	if err != nil {
		return "", err
	}
	lit := func(v string) string {
		if f.Kind == schema.KindNumber {
			return number(v)
		}
		return QuoteString(v)
	}

	switch f.Op {
	case extract.OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, lit(f.Value), lit(f.Upper)), nil
	case extract.OpLike:
		if strings.Contains(f.Value, `\`) {
			return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, col, QuoteString(f.Value)), nil
		}
		return fmt.Sprintf("%s LIKE %s", col, QuoteString(f.Value)), nil
	case extract.OpEq, extract.OpGt, extract.OpLt, extract.OpGte, extract.OpLte:
		return fmt.Sprintf("%s %s %s", col, f.Op, lit(f.Value)), nil
	default:
		return "", fmt.Errorf("%w: operator %q", ErrInvalidIntent, f.Op)
	}
}

// assignAliases gives each table the initials of its underscore-separated
// words (order_items -> oi). Collisions and keywords get a numeric suffix.
func assignAliases(tables []string, aliased bool) map[string]string {
	out := make(map[string]string, len(tables))
	if !aliased {
		for _, t := range tables {
			out[t] = ""
		}
		return out
	}

	taken := make(map[string]bool, len(tables))
	for _, t := range tables {
		base := initials(t)
		alias := base
		for n := 2; taken[alias] || reserved[alias]; n++ {
			alias = base + strconv.Itoa(n)
		}
		taken[alias] = true
		out[t] = alias
	}
	return out
}

func initials(name string) string {
	var b strings.Builder
	for _, w := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool { return r == '_' || r == '.' || r == ' ' }) {
		for _, r := range w {
			if r >= 'a' && r <= 'z' {
				b.WriteRune(r)
				break
			}
		}
	}
	if b.Len() == 0 {
		return "t"
	}
	return b.String()
}
