// Package extract reads an English question against a catalog and produces a
// structured Intent: target tables, filters, aggregation, ordering and limit.
package extract

import (
	"strings"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/schema"
)

// Extractor holds the dictionary compiled from a catalog and a lexicon. It is
// read-only after New and safe for concurrent use.
type Extractor struct {
	cat   *catalog.Catalog
	dict  dictionary
	enums map[string][]enumValue // table name -> enumerated column values
	enumd map[string]bool        // every enumerated value, folded
}

type enumValue struct {
	column *schema.Column
	value  string
	fold   string
}

// New creates an Extractor using DefaultLexicon.
func New(cat *catalog.Catalog) *Extractor {
	return NewWithLexicon(cat, DefaultLexicon)
}

// NewWithLexicon creates an Extractor with a custom trigger table.
func NewWithLexicon(cat *catalog.Catalog, lex []Entry) *Extractor {
	e := &Extractor{
		cat:   cat,
		dict:  make(dictionary),
		enums: make(map[string][]enumValue),
		enumd: make(map[string]bool),
	}
	compileLexicon(e.dict, lex)

	var names []string
	byName := make(map[string][]catalog.Match)
	for _, t := range cat.Tables() {
		for _, w := range identWords(t.Name) {
			e.dict.add(&phrase{words: w, ident: true, table: t})
		}
		for i := range t.Columns {
			col := &t.Columns[i]
			key := fold(col.Name)
			if _, ok := byName[key]; !ok {
				names = append(names, key)
			}
			byName[key] = append(byName[key], catalog.Match{Table: t, Column: col})
			for _, v := range enumerated(col.Description) {
				e.enums[t.Name] = append(e.enums[t.Name], enumValue{column: col, value: v, fold: fold(v)})
				e.enumd[fold(v)] = true
			}
		}
	}
	for _, name := range names {
		for _, w := range identWords(name) {
			e.dict.add(&phrase{words: w, ident: true, cols: byName[name]})
		}
	}
	e.dict.sort()
	return e
}

// enumerated returns the values listed after a colon in a column
// description, as in "Order status: pending, shipped".
func enumerated(desc string) []string {
	_, list, ok := strings.Cut(desc, ":")
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == '/' || r == ';' }) {
		v := strings.TrimSpace(part)
		v = strings.TrimPrefix(v, "or ")
		v = strings.TrimPrefix(v, "and ")
		v = strings.Trim(v, " .'\"")
		if v != "" && !strings.Contains(v, " ") {
			out = append(out, v)
		}
	}
	return out
}

type itemKind int

const (
	itemWord itemKind = iota
	itemTrigger
	itemMention
	itemLiteral
	itemPunct
)

// item is a token or a matched phrase.
type item struct {
	kind      itemKind
	tok       token
	entry     *Entry
	table     *schema.Table   // a table name was mentioned
	cols      []catalog.Match // a column name was mentioned
	qualifier *schema.Table   // the table the column belongs to, when stated
	dotted    bool            // written as table.column
	lit       *literal
	used      bool
}

func (it *item) isColumn() bool {
	return it.kind == itemMention && len(it.cols) > 0
}

func (it *item) isTableOnly() bool {
	return it.kind == itemMention && it.table != nil && len(it.cols) == 0
}

func (it *item) isFiller() bool {
	return it.kind == itemWord && fillers[it.tok.fold]
}

// Extract reads a question. It fails with UnparsableQuestionError when no
// table is named and with catalog.AmbiguousColumnError when a column cannot
// be placed in a single table.
func (e *Extractor) Extract(question string) (*Intent, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &UnparsableQuestionError{Question: question, Reason: "empty question"}
	}

	s := &state{
		e:     e,
		items: e.items(tokenize(question)),
		in:    &Intent{Question: question},
	}
	for _, it := range s.items {
		switch {
		case it.kind == itemMention && it.table != nil:
			s.in.addTable(it.table.Name)
		case it.dotted:
			s.in.addTable(it.qualifier.Name)
		}
	}
	if len(s.in.Tables) == 0 {
		return nil, &UnparsableQuestionError{Question: question, Reason: "no known table mentioned"}
	}

	for _, pass := range []func() error{
		s.enumFilters,
		s.aggregate,
		s.group,
		s.limits,
		s.explicitOrder,
		s.comparisons,
		s.directions,
	} {
		if err := pass(); err != nil {
			return nil, err
		}
	}
	s.finish()
	return s.in, nil
}

// items turns tokens into phrase items, longest match first.
func (e *Extractor) items(toks []token) []item {
	var items []item
	for i := 0; i < len(toks); {
		t := toks[i]

		if l, n := scanMonth(toks, i); l != nil {
			items = append(items, item{kind: itemLiteral, tok: t, lit: l})
			i += n
			continue
		}

		switch t.kind {
		case tokQuoted:
			items = append(items, item{kind: itemLiteral, tok: t, lit: &literal{kind: schema.KindString, text: t.raw}})
			i++
			continue
		case tokDate:
			items = append(items, item{kind: itemLiteral, tok: t, lit: dateLiteral(t.raw)})
			i++
			continue
		case tokNumber:
			items = append(items, item{kind: itemLiteral, tok: t, lit: numberLiteral(t.raw)})
			i++
			continue
		}

		if t.kind == tokWord && strings.Contains(t.raw, ".") {
			if tbl, col, err := e.cat.ResolveColumn("", t.raw); err == nil {
				items = append(items, item{
					kind:      itemMention,
					tok:       t,
					cols:      []catalog.Match{{Table: tbl, Column: col}},
					qualifier: tbl,
					dotted:    true,
				})
				i++
				continue
			}
		}

		if best, n := e.match(toks, i); n > 0 {
			items = append(items, phraseItem(t, best))
			i += n
			continue
		}

		if t.kind == tokWord && i > 0 && properNoun(t) && !e.enumd[t.fold] {
			j := i
			var words []string
			for j < len(toks) && toks[j].kind == tokWord && properNoun(toks[j]) && !e.enumd[toks[j].fold] {
				if _, n := e.match(toks, j); n > 0 {
					break
				}
				words = append(words, toks[j].raw)
				j++
			}
			items = append(items, item{kind: itemLiteral, tok: t, lit: &literal{kind: schema.KindString, text: strings.Join(words, " ")}})
			i = j
			continue
		}

		if t.kind == tokPunct {
			items = append(items, item{kind: itemPunct, tok: t})
		} else {
			items = append(items, item{kind: itemWord, tok: t})
		}
		i++
	}

	// "customer name": a column directly after a table that declares it
	// belongs to that table.
	for i := 0; i+1 < len(items); i++ {
		a, b := &items[i], &items[i+1]
		if a.kind != itemMention || a.table == nil || !b.isColumn() || b.qualifier != nil {
			continue
		}
		for _, m := range b.cols {
			if m.Table == a.table {
				b.qualifier = a.table
				b.cols = []catalog.Match{m}
				break
			}
		}
	}
	return items
}

func properNoun(t token) bool {
	if !isCapitalized(t.raw) || len([]rune(t.raw)) < 2 {
		return false
	}
	if _, ok := months[t.fold]; ok {
		return false
	}
	return !weekdays[t.fold] && !fillers[t.fold]
}

// match returns the longest phrases starting at toks[i] and their length.
func (e *Extractor) match(toks []token, i int) ([]*phrase, int) {
	var best []*phrase
	n := 0
	seen := make(map[*phrase]bool)
	for _, key := range []string{toks[i].fold, toks[i].sing} {
		for _, p := range e.dict[key] {
			if seen[p] || len(p.words) < n {
				continue
			}
			seen[p] = true
			if !p.matches(toks, i) {
				continue
			}
			if len(p.words) > n {
				n = len(p.words)
				best = best[:0]
			}
			best = append(best, p)
		}
	}
	return best, n
}

func (p *phrase) matches(toks []token, i int) bool {
	if i+len(p.words) > len(toks) {
		return false
	}
	for k, w := range p.words {
		t := toks[i+k]
		if p.entry != nil {
			if (t.kind != tokWord && t.kind != tokPunct) || t.fold != w {
				return false
			}
		} else if t.kind != tokWord || t.sing != w {
			return false
		}
	}
	return true
}

func phraseItem(t token, best []*phrase) item {
	for _, p := range best {
		if p.entry != nil {
			return item{kind: itemTrigger, tok: t, entry: p.entry}
		}
	}
	it := item{kind: itemMention, tok: t}
	for _, p := range best {
		if p.table != nil && it.table == nil {
			it.table = p.table
		}
		it.cols = append(it.cols, p.cols...)
	}
	return it
}
