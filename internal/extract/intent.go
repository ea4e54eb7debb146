package extract

import (
	"strings"

	"github.com/hurou927/text2sql/internal/schema"
)

// ColumnRef is a table-qualified column, spelled as declared in the schema.
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// String returns "table.column".
func (r ColumnRef) String() string {
	return r.Table + "." + r.Column
}

// Operator is a filter comparison.
type Operator string

const (
	OpEq      Operator = "="
	OpGt      Operator = ">"
	OpLt      Operator = "<"
	OpGte     Operator = ">="
	OpLte     Operator = "<="
	OpLike    Operator = "LIKE"
	OpBetween Operator = "BETWEEN"
)

// Filter is one WHERE predicate. Upper is only set for BETWEEN.
type Filter struct {
	Column ColumnRef        `json:"column"`
	Op     Operator         `json:"op"`
	Value  string           `json:"value"`
	Upper  string           `json:"upper,omitempty"`
	Kind   schema.ValueKind `json:"kind"`
}

// Func is an aggregate function.
type Func string

const (
	FuncCount Func = "COUNT"
	FuncSum   Func = "SUM"
	FuncAvg   Func = "AVG"
	FuncMin   Func = "MIN"
	FuncMax   Func = "MAX"
)

// Aggregate describes the aggregation of a question. No Args means
// COUNT(*); two Args are multiplied (price * quantity).
type Aggregate struct {
	Func    Func        `json:"func"`
	Args    []ColumnRef `json:"args,omitempty"`
	Label   string      `json:"label"`
	GroupBy *ColumnRef  `json:"group_by,omitempty"`
}

// Alias returns the output column name, "<function>_<label>".
func (a *Aggregate) Alias() string {
	return strings.ToLower(string(a.Func)) + "_" + a.Label
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order describes ORDER BY. A nil Column orders by the aggregate.
type Order struct {
	Column    *ColumnRef `json:"column,omitempty"`
	Direction Direction  `json:"direction"`
}

// Intent is the structured reading of one question. Tables is never empty
// and its first entry anchors the FROM clause.
type Intent struct {
	Question    string      `json:"question"`
	Tables      []string    `json:"tables"`
	Filters     []Filter    `json:"filters,omitempty"`
	Projections []ColumnRef `json:"projections,omitempty"`
	Aggregate   *Aggregate  `json:"aggregate,omitempty"`
	Order       *Order      `json:"order,omitempty"`
	Limit       int         `json:"limit,omitempty"` // 0 means no limit
}

// Anchor returns the first-mentioned table.
func (in *Intent) Anchor() string {
	return in.Tables[0]
}

// addTable appends t to the target set unless present.
func (in *Intent) addTable(t string) {
	for _, have := range in.Tables {
		if have == t {
			return
		}
	}
	in.Tables = append(in.Tables, t)
}

func (in *Intent) hasTable(t string) bool {
	for _, have := range in.Tables {
		if have == t {
			return true
		}
	}
	return false
}
