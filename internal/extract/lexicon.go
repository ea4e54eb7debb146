package extract

import (
	"sort"
	"strings"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/schema"
)

// Category is the role a trigger phrase plays in a question.
type Category int

const (
	CatFilter    Category = iota // comparison between a column and a literal
	CatAggregate                 // aggregate function over the following target
	CatGroup                     // "by X": GROUP BY, or ORDER BY without an aggregate
	CatOrder                     // explicit "sorted by X"
	CatLimit                     // "top N": number follows the trigger
	CatRank                      // "N most expensive": number precedes the trigger
	CatDirection                 // sort direction modifier
	CatMeasure                   // derived price * quantity expression
)

// Binding says where a trigger looks for its operand.
type Binding int

const (
	BindNone            Binding = iota
	BindAdjacentColumn          // column before the trigger, or after it when a literal follows
	BindFollowing               // next non-filler item
	BindFollowingNumber         // number directly after the trigger
	BindPrecedingNumber         // number directly before the trigger
	BindTableColumns            // first table declaring the measure columns
)

// Entry is one row of the lexicon.
type Entry struct {
	Category  Category
	Phrases   []string
	Bind      Binding
	Op        Operator
	Func      Func
	Direction Direction
	// Hints are column name or description words a filter or ordering prefers
	// when no column is named.
	Hints []string
	// Kind restricts default column selection (dates for "after", "latest").
	Kind schema.ValueKind
	// Project turns "with <column>" without a literal into a projection.
	Project bool
	// Label and Columns describe a measure: Columns lists alternatives for
	// each factor.
	Label   string
	Columns [][]string
}

var locationHints = []string{"city", "country", "state", "region", "location", "address"}

var priceHints = []string{"price", "cost", "amount", "total"}

// DefaultLexicon is the trigger table used by New.
var DefaultLexicon = []Entry{
	// filters
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpEq, Phrases: []string{"is", "equals", "equal to", "=", "where"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpEq, Project: true, Phrases: []string{"with", "including"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpEq, Hints: locationHints, Phrases: []string{"from", "in", "located in", "living in", "based in"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpEq, Hints: []string{"name", "title"}, Phrases: []string{"named", "called"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpEq, Kind: schema.KindDate, Phrases: []string{"during"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpGt, Phrases: []string{"over", "above", "more than", "greater than", "higher than", "exceeding", ">"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpLt, Phrases: []string{"under", "below", "less than", "lower than", "fewer than", "<"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpGte, Phrases: []string{"at least", "no less than", "greater than or equal to", ">="}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpLte, Phrases: []string{"at most", "up to", "no more than", "less than or equal to", "<="}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpGt, Kind: schema.KindDate, Phrases: []string{"after", "later than"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpLt, Kind: schema.KindDate, Phrases: []string{"before", "earlier than"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpGte, Kind: schema.KindDate, Phrases: []string{"since"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpBetween, Phrases: []string{"between"}},
	{Category: CatFilter, Bind: BindAdjacentColumn, Op: OpLike, Hints: []string{"name", "title"}, Phrases: []string{"like", "containing", "contains", "matching"}},

	// aggregates
	{Category: CatAggregate, Bind: BindFollowing, Func: FuncCount, Phrases: []string{"how many", "number of", "count", "count of"}},
	{Category: CatAggregate, Bind: BindFollowing, Func: FuncSum, Phrases: []string{"total", "sum", "sum of", "total of"}},
	{Category: CatAggregate, Bind: BindFollowing, Func: FuncAvg, Phrases: []string{"average", "avg", "mean"}},
	{Category: CatAggregate, Bind: BindFollowing, Func: FuncMin, Phrases: []string{"minimum", "min"}},
	{Category: CatAggregate, Bind: BindFollowing, Func: FuncMax, Phrases: []string{"maximum", "max"}},

	// grouping and ordering
	{Category: CatGroup, Bind: BindFollowing, Phrases: []string{"by", "per", "for each", "grouped by", "group by"}},
	{Category: CatOrder, Bind: BindFollowing, Direction: Asc, Phrases: []string{"sorted by", "sort by", "ordered by", "order by"}},
	{Category: CatLimit, Bind: BindFollowingNumber, Direction: Desc, Phrases: []string{"top"}},
	{Category: CatLimit, Bind: BindFollowingNumber, Direction: Asc, Phrases: []string{"first", "bottom"}},
	{Category: CatLimit, Bind: BindFollowingNumber, Direction: Desc, Kind: schema.KindDate, Phrases: []string{"last"}},
	{Category: CatLimit, Bind: BindFollowingNumber, Phrases: []string{"limit"}},
	{Category: CatRank, Bind: BindPrecedingNumber, Direction: Desc, Phrases: []string{"most", "highest", "largest", "biggest"}},
	{Category: CatRank, Bind: BindPrecedingNumber, Direction: Asc, Phrases: []string{"least", "fewest", "lowest", "smallest"}},
	{Category: CatRank, Bind: BindPrecedingNumber, Direction: Desc, Hints: priceHints, Phrases: []string{"most expensive", "priciest"}},
	{Category: CatRank, Bind: BindPrecedingNumber, Direction: Asc, Hints: priceHints, Phrases: []string{"cheapest", "least expensive"}},
	{Category: CatRank, Bind: BindPrecedingNumber, Direction: Desc, Kind: schema.KindDate, Phrases: []string{"latest", "newest", "most recent"}},
	{Category: CatRank, Bind: BindPrecedingNumber, Direction: Asc, Kind: schema.KindDate, Phrases: []string{"oldest", "earliest"}},
	{Category: CatDirection, Direction: Desc, Phrases: []string{"descending", "desc", "highest first", "largest first"}},
	{Category: CatDirection, Direction: Asc, Phrases: []string{"ascending", "asc", "lowest first", "smallest first"}},

	// measures
	{Category: CatMeasure, Bind: BindTableColumns, Label: "sales", Phrases: []string{"sales"},
		Columns: [][]string{{"price", "unit_price"}, {"quantity", "qty"}}},
	{Category: CatMeasure, Bind: BindTableColumns, Label: "revenue", Phrases: []string{"revenue", "turnover"},
		Columns: [][]string{{"price", "unit_price"}, {"quantity", "qty"}}},
}

// fillers are skipped when a trigger looks for its operand.
var fillers = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "than": true, "to": true,
	"are": true, "was": true, "were": true, "all": true, "any": true,
	"their": true, "its": true, "me": true, "that": true, "which": true,
	"who": true, "whose": true, "have": true, "has": true, "had": true,
	"each": true, "every": true, "some": true, "for": true,
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
	"seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

// phrase is a compiled dictionary key: a word sequence and what it means.
type phrase struct {
	words []string
	entry *Entry          // trigger
	ident bool            // table or column name, matched on singular forms
	table *schema.Table   // set for table names
	cols  []catalog.Match // set for column names, declaration order
}

// dictionary indexes phrases by their first word, longest first.
type dictionary map[string][]*phrase

func (d dictionary) add(p *phrase) {
	d[p.words[0]] = append(d[p.words[0]], p)
}

func (d dictionary) sort() {
	for k, ps := range d {
		sort.SliceStable(ps, func(i, j int) bool {
			if len(ps[i].words) != len(ps[j].words) {
				return len(ps[i].words) > len(ps[j].words)
			}
			// triggers beat identifiers of equal length
			return ps[i].entry != nil && ps[j].entry == nil
		})
		d[k] = ps
	}
}

func compileLexicon(d dictionary, lex []Entry) {
	for i := range lex {
		e := &lex[i]
		for _, p := range e.Phrases {
			d.add(&phrase{words: strings.Fields(fold(p)), entry: e})
		}
	}
}
