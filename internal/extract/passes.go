package extract

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/schema"
)

// state carries one extraction.
type state struct {
	e       *Extractor
	items   []item
	in      *Intent
	filters []placedFilter

	orderCol   *ColumnRef
	direction  Direction
	orderEntry *Entry
}

type placedFilter struct {
	pos int
	f   Filter
}

func (s *state) next(i int) int {
	j := i + 1
	for j < len(s.items) && s.items[j].isFiller() {
		j++
	}
	return j
}

func (s *state) prev(i int) int {
	j := i - 1
	for j >= 0 && s.items[j].isFiller() {
		j--
	}
	return j
}

func (s *state) at(i int) *item {
	if i < 0 || i >= len(s.items) {
		return nil
	}
	return &s.items[i]
}

// resolve places a column mention in one table. Mentions inside the target
// tables win; a unique column elsewhere adds its table.
func (s *state) resolve(it *item) (*ColumnRef, *schema.Column, error) {
	if it.qualifier != nil {
		s.in.addTable(it.qualifier.Name)
		return &ColumnRef{Table: it.qualifier.Name, Column: it.cols[0].Column.Name}, it.cols[0].Column, nil
	}

	var inTargets []catalog.Match
	for _, m := range it.cols {
		if s.in.hasTable(m.Table.Name) {
			inTargets = append(inTargets, m)
		}
	}
	switch {
	case len(inTargets) == 1:
		m := inTargets[0]
		return &ColumnRef{Table: m.Table.Name, Column: m.Column.Name}, m.Column, nil
	case len(inTargets) > 1:
		return nil, nil, ambiguous(inTargets)
	case len(it.cols) == 1:
		m := it.cols[0]
		s.in.addTable(m.Table.Name)
		return &ColumnRef{Table: m.Table.Name, Column: m.Column.Name}, m.Column, nil
	default:
		return nil, nil, ambiguous(it.cols)
	}
}

func ambiguous(ms []catalog.Match) error {
	tables := make([]string, len(ms))
	for i, m := range ms {
		tables[i] = m.Table.Name
	}
	return &catalog.AmbiguousColumnError{Column: ms[0].Column.Name, Tables: tables}
}

// columnAfter returns the column operand starting at j: a column mention, or
// a table mention directly followed by one of its columns. The second value
// is the index after the operand.
func (s *state) columnAfter(j int) (*item, int) {
	it := s.at(j)
	switch {
	case it == nil:
		return nil, j
	case it.isColumn():
		return it, s.next(j)
	case it.isTableOnly():
		if q := s.at(j + 1); q != nil && q.isColumn() && q.qualifier == it.table {
			return q, s.next(j + 1)
		}
	}
	return nil, j
}

func (s *state) table(name string) *schema.Table {
	t, err := s.e.cat.ResolveTable(name)
	if err != nil {
		return nil
	}
	return t
}

// enumFilters reads "pending orders" where a column of orders enumerates
// "pending" in its description.
func (s *state) enumFilters() error {
	for i := 1; i < len(s.items); i++ {
		it := &s.items[i]
		if it.kind != itemMention || it.table == nil {
			continue
		}
		w := &s.items[i-1]
		if w.kind != itemWord || w.used || w.isFiller() || len(w.tok.fold) < 3 {
			continue
		}
		for _, ev := range s.e.enums[it.table.Name] {
			if ev.fold != w.tok.fold {
				continue
			}
			w.used = true
			s.filters = append(s.filters, placedFilter{pos: i - 1, f: Filter{
				Column: ColumnRef{Table: it.table.Name, Column: ev.column.Name},
				Op:     OpEq,
				Value:  ev.value,
				Kind:   schema.KindString,
			}})
			break
		}
	}
	return nil
}

func (s *state) aggregate() error {
	for i := range s.items {
		it := &s.items[i]
		if it.kind != itemTrigger || it.entry.Category != CatAggregate || it.used {
			continue
		}
		it.used = true
		agg := &Aggregate{Func: it.entry.Func}
		j := s.next(i)
		target := s.at(j)

		if col, _ := s.columnAfter(j); col != nil {
			ref, _, err := s.resolve(col)
			if err != nil {
				return err
			}
			col.used = true
			agg.Args = []ColumnRef{*ref}
			agg.Label = strings.ToLower(ref.Column)
		} else if target != nil && target.kind == itemTrigger && target.entry.Category == CatMeasure {
			target.used = true
			args, ok := s.measure(target.entry)
			if !ok {
				return nil
			}
			agg.Args = args
			agg.Label = target.entry.Label
		} else if agg.Func == FuncCount || (agg.Func == FuncSum && target != nil && target.isTableOnly()) {
			// "how many orders", "total orders"
			agg.Func = FuncCount
			agg.Label = "all"
		} else {
			tname := s.in.Anchor()
			if target != nil && target.isTableOnly() {
				tname = target.table.Name
			}
			col := numericColumn(s.table(tname))
			if col == nil {
				return nil
			}
			agg.Args = []ColumnRef{{Table: tname, Column: col.Name}}
			agg.Label = strings.ToLower(col.Name)
		}
		s.in.Aggregate = agg
		return nil
	}
	return nil
}

// measure finds the first table declaring every factor of a measure, target
// tables first, then the rest in declaration order.
func (s *state) measure(e *Entry) ([]ColumnRef, bool) {
	var candidates []*schema.Table
	for _, name := range s.in.Tables {
		if t := s.table(name); t != nil {
			candidates = append(candidates, t)
		}
	}
	candidates = append(candidates, s.e.cat.Tables()...)

	for _, t := range candidates {
		var refs []ColumnRef
		for _, alts := range e.Columns {
			for _, name := range alts {
				if col := t.Column(name); col != nil {
					refs = append(refs, ColumnRef{Table: t.Name, Column: col.Name})
					break
				}
			}
		}
		if len(refs) == len(e.Columns) {
			s.in.addTable(t.Name)
			return refs, true
		}
	}
	return nil, false
}

// group handles "by X". With an aggregate X becomes GROUP BY, without one it
// becomes the sort column.
func (s *state) group() error {
	for i := range s.items {
		it := &s.items[i]
		if it.kind != itemTrigger || it.entry.Category != CatGroup || it.used {
			continue
		}
		j := s.next(i)
		var ref *ColumnRef
		if col, _ := s.columnAfter(j); col != nil {
			r, _, err := s.resolve(col)
			if err != nil {
				return err
			}
			col.used = true
			ref = r
		} else if t := s.at(j); t != nil && t.isTableOnly() {
			col := displayColumn(t.table)
			if col == nil {
				continue
			}
			t.used = true
			ref = &ColumnRef{Table: t.table.Name, Column: col.Name}
		} else {
			continue
		}
		it.used = true

		if s.in.Aggregate != nil {
			s.in.Aggregate.GroupBy = ref
		} else {
			s.orderCol = ref
		}
		return nil
	}
	return nil
}

func (s *state) limits() error {
	for i := range s.items {
		it := &s.items[i]
		if it.kind != itemTrigger || it.used {
			continue
		}
		switch it.entry.Category {
		case CatLimit:
			n := s.numberAt(i + 1)
			if n <= 0 {
				continue
			}
			s.items[i+1].used = true
			s.in.Limit = n
		case CatRank:
			if n := s.numberAt(i - 1); n > 0 {
				s.items[i-1].used = true
				s.in.Limit = n
			}
		default:
			continue
		}
		it.used = true
		if it.entry.Direction != "" {
			s.direction = it.entry.Direction
			s.orderEntry = it.entry
		}
		return nil
	}
	return nil
}

// numberAt returns the positive integer at items[i], written in digits or as
// a word, or 0.
func (s *state) numberAt(i int) int {
	it := s.at(i)
	if it == nil || it.used {
		return 0
	}
	switch it.kind {
	case itemLiteral:
		if it.lit.kind != schema.KindNumber {
			return 0
		}
		n, err := strconv.Atoi(it.lit.text)
		if err != nil || n <= 0 {
			return 0
		}
		return n
	case itemWord:
		return numberWords[it.tok.fold]
	}
	return 0
}

func (s *state) explicitOrder() error {
	for i := range s.items {
		it := &s.items[i]
		if it.kind != itemTrigger || it.entry.Category != CatOrder || it.used {
			continue
		}
		col, after := s.columnAfter(s.next(i))
		if col == nil {
			continue
		}
		ref, _, err := s.resolve(col)
		if err != nil {
			return err
		}
		it.used, col.used = true, true
		s.orderCol = ref
		if s.direction == "" {
			s.direction = it.entry.Direction
		}
		if d := s.at(after); d != nil && d.kind == itemTrigger && d.entry.Category == CatDirection {
			d.used = true
			s.direction = d.entry.Direction
		}
		return nil
	}
	return nil
}

func (s *state) directions() error {
	for i := range s.items {
		it := &s.items[i]
		if it.kind == itemTrigger && it.entry.Category == CatDirection && !it.used {
			it.used = true
			s.direction = it.entry.Direction
		}
	}
	return nil
}

func (s *state) comparisons() error {
	for i := range s.items {
		it := &s.items[i]
		if it.kind != itemTrigger || it.entry.Category != CatFilter || it.used {
			continue
		}
		if err := s.filterAt(i); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) filterAt(f int) error {
	e := s.items[f].entry
	colAfter, j := s.columnAfter(s.next(f))

	// "with price over 100": the later trigger owns the column
	if nx := s.at(j); nx != nil && nx.kind == itemTrigger && nx.entry.Category == CatFilter {
		return nil
	}

	var lit, upper *literal
	litAt := s.at(j)
	if litAt != nil && litAt.kind == itemLiteral && !litAt.used {
		lit = litAt.lit
	}
	var upperAt *item
	if lit != nil && e.Op == OpBetween {
		k := s.next(j)
		if and := s.at(k); and != nil && and.kind == itemWord && and.tok.fold == "and" {
			if u := s.at(s.next(k)); u != nil && u.kind == itemLiteral && !u.used {
				upper, upperAt = u.lit, u
			}
		}
		if upper == nil {
			return nil
		}
	}

	if lit == nil {
		if e.Project && colAfter != nil {
			ref, _, err := s.resolve(colAfter)
			if err != nil {
				return err
			}
			colAfter.used = true
			s.items[f].used = true
			s.in.Projections = append(s.in.Projections, *ref)
		}
		return nil
	}

	var (
		ref *ColumnRef
		col *schema.Column
		err error
	)
	switch {
	case colAfter != nil:
		ref, col, err = s.resolve(colAfter)
		colAfter.used = true
	default:
		if p := s.at(s.prev(f)); p != nil && p.isColumn() {
			ref, col, err = s.resolve(p)
			p.used = true
		} else {
			ref, col = s.bindByHint(f, e, lit)
		}
	}
	if err != nil {
		return err
	}
	if ref == nil {
		return nil
	}

	flt, ok := makeFilter(*ref, col, e.Op, lit, upper)
	if !ok {
		return nil
	}
	s.items[f].used = true
	litAt.used = true
	if upperAt != nil {
		upperAt.used = true
	}
	s.filters = append(s.filters, placedFilter{pos: f, f: flt})
	return nil
}

// bindByHint picks a column for a literal when the question names none:
// first the nearest table mentioned before the trigger, then after it, then
// every target table.
func (s *state) bindByHint(f int, e *Entry, lit *literal) (*ColumnRef, *schema.Column) {
	var scope []*schema.Table
	add := func(t *schema.Table) {
		for _, have := range scope {
			if have == t {
				return
			}
		}
		scope = append(scope, t)
	}
	for k := f - 1; k >= 0; k-- {
		if it := &s.items[k]; it.kind == itemMention && it.table != nil {
			add(it.table)
			break
		}
	}
	for k := f + 1; k < len(s.items); k++ {
		if it := &s.items[k]; it.kind == itemMention && it.table != nil {
			add(it.table)
			break
		}
	}
	for _, name := range s.in.Tables {
		if t := s.table(name); t != nil {
			add(t)
		}
	}

	pick := func(match func(*schema.Column) bool) (*ColumnRef, *schema.Column) {
		for _, t := range scope {
			for i := range t.Columns {
				if col := &t.Columns[i]; match(col) {
					s.in.addTable(t.Name)
					return &ColumnRef{Table: t.Name, Column: col.Name}, col
				}
			}
		}
		return nil, nil
	}

	dateLike := lit.kind == schema.KindDate ||
		(lit.year && (e.Kind == schema.KindDate || e.Op == OpEq || e.Op == OpBetween))
	if dateLike {
		if ref, col := pick(func(c *schema.Column) bool { return c.Kind() == schema.KindDate }); ref != nil {
			return ref, col
		}
		if ref, col := pick(func(c *schema.Column) bool {
			n := strings.ToLower(c.Name)
			return strings.Contains(n, "date") || strings.Contains(n, "year")
		}); ref != nil {
			return ref, col
		}
		if lit.kind == schema.KindDate {
			return nil, nil
		}
	}

	switch {
	case lit.kind == schema.KindString || e.Op == OpLike:
		if len(e.Hints) == 0 {
			return nil, nil
		}
		return pick(func(c *schema.Column) bool {
			return c.Kind() == schema.KindString && hinted(c, e.Hints)
		})
	case lit.kind == schema.KindNumber:
		for _, t := range scope {
			if col := numericColumn(t); col != nil {
				s.in.addTable(t.Name)
				return &ColumnRef{Table: t.Name, Column: col.Name}, col
			}
		}
	}
	return nil, nil
}

// hinted reports whether a column's name or description contains a hint word.
func hinted(c *schema.Column, hints []string) bool {
	words := strings.FieldsFunc(strings.ToLower(c.Name+" "+c.Description), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, w := range words {
		for _, h := range hints {
			if w == h {
				return true
			}
		}
	}
	return false
}

// likeEscaper makes wildcard characters in a literal match themselves. The
// backslash is the escape character sqlgen declares with ESCAPE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// makeFilter shapes a literal for the column it binds to. Year and month
// literals on date columns become day ranges.
func makeFilter(ref ColumnRef, col *schema.Column, op Operator, lit, upper *literal) (Filter, bool) {
	f := Filter{Column: ref, Op: op}
	if op == OpLike {
		f.Value = "%" + likeEscaper.Replace(lit.text) + "%"
		f.Kind = schema.KindString
		return f, true
	}

	switch col.Kind() {
	case schema.KindDate:
		if !lit.isRange() || (upper != nil && !upper.isRange()) {
			f.Value, f.Kind = lit.text, schema.KindString
			if upper != nil {
				f.Upper = upper.text
			}
			return f, true
		}
		f.Kind = schema.KindDate
		lo, hi := lit.lo.Format(isoLayout), lit.hi.Format(isoLayout)
		switch op {
		case OpEq:
			if lo == hi {
				f.Value = lo
			} else {
				f.Op, f.Value, f.Upper = OpBetween, lo, hi
			}
		case OpGt, OpLte:
			f.Value = hi
		case OpLt, OpGte:
			f.Value = lo
		case OpBetween:
			f.Value, f.Upper = lo, upper.hi.Format(isoLayout)
		}
		return f, true

	case schema.KindNumber:
		if !numeric(lit) || (upper != nil && !numeric(upper)) {
			return f, false
		}
		f.Kind = schema.KindNumber
		f.Value = lit.text
		if upper != nil {
			f.Upper = upper.text
		}
		return f, true

	default:
		f.Kind = schema.KindString
		f.Value = lit.text
		if upper != nil {
			f.Upper = upper.text
		}
		return f, true
	}
}

func numeric(l *literal) bool {
	if l.kind == schema.KindNumber {
		return true
	}
	if l.kind == schema.KindString {
		_, err := strconv.ParseFloat(l.text, 64)
		return err == nil
	}
	return false
}

// finish settles ordering and sorts filters into question order.
func (s *state) finish() {
	sort.SliceStable(s.filters, func(i, j int) bool { return s.filters[i].pos < s.filters[j].pos })
	for _, pf := range s.filters {
		s.in.Filters = append(s.in.Filters, pf.f)
	}

	switch {
	case s.orderCol != nil:
		dir := s.direction
		if dir == "" {
			dir = Asc
		}
		s.in.Order = &Order{Column: s.orderCol, Direction: dir}
	case s.direction == "":
	case s.in.Aggregate != nil:
		if s.in.Aggregate.GroupBy != nil {
			s.in.Order = &Order{Direction: s.direction}
		}
	default:
		if ref := s.defaultOrderColumn(); ref != nil {
			s.in.Order = &Order{Column: ref, Direction: s.direction}
		}
	}
}

func (s *state) defaultOrderColumn() *ColumnRef {
	var tables []*schema.Table
	for _, name := range s.in.Tables {
		if t := s.table(name); t != nil {
			tables = append(tables, t)
		}
	}
	find := func(match func(*schema.Column) bool) *ColumnRef {
		for _, t := range tables {
			for i := range t.Columns {
				if match(&t.Columns[i]) {
					return &ColumnRef{Table: t.Name, Column: t.Columns[i].Name}
				}
			}
		}
		return nil
	}

	if e := s.orderEntry; e != nil {
		if e.Kind == schema.KindDate {
			if ref := find(func(c *schema.Column) bool { return c.Kind() == schema.KindDate }); ref != nil {
				return ref
			}
		}
		if len(e.Hints) > 0 {
			if ref := find(func(c *schema.Column) bool { return c.Kind() == schema.KindNumber && hinted(c, e.Hints) }); ref != nil {
				return ref
			}
		}
	}
	if col := numericColumn(tables[0]); col != nil {
		return &ColumnRef{Table: tables[0].Name, Column: col.Name}
	}
	return nil
}

// numericColumn returns the first numeric non-key column of t, else its
// first numeric column.
func numericColumn(t *schema.Table) *schema.Column {
	if t == nil {
		return nil
	}
	var first *schema.Column
	for i := range t.Columns {
		col := &t.Columns[i]
		if col.Kind() != schema.KindNumber {
			continue
		}
		if !col.IsKey() {
			return col
		}
		if first == nil {
			first = col
		}
	}
	return first
}

// displayColumn returns the first non-key text column of t, else its first
// column.
func displayColumn(t *schema.Table) *schema.Column {
	for i := range t.Columns {
		if col := &t.Columns[i]; col.Kind() == schema.KindString && !col.IsKey() {
			return col
		}
	}
	if len(t.Columns) > 0 {
		return &t.Columns[0]
	}
	return nil
}
