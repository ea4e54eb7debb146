package extract

import (
	"strconv"
	"time"
	"unicode"

	"github.com/hurou927/text2sql/internal/schema"
)

const isoLayout = "2006-01-02"

// literal is a value found in a question. Dates and bare years carry the
// day range they cover.
type literal struct {
	kind   schema.ValueKind
	text   string
	year   bool
	lo, hi time.Time
}

func (l *literal) isRange() bool {
	return l.kind == schema.KindDate || l.year
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

func numberLiteral(s string) *literal {
	l := &literal{kind: schema.KindNumber, text: s}
	if y, err := strconv.Atoi(s); err == nil && y >= 1000 && y <= 2999 && len(s) == 4 {
		l.year = true
		l.lo = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		l.hi = time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return l
}

func dateLiteral(s string) *literal {
	d, err := time.Parse(isoLayout, s)
	if err != nil {
		return &literal{kind: schema.KindString, text: s}
	}
	return &literal{kind: schema.KindDate, text: s, lo: d, hi: d}
}

func monthLiteral(m time.Month, year int) *literal {
	lo := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	hi := lo.AddDate(0, 1, -1)
	return &literal{kind: schema.KindDate, text: lo.Format("2006-01"), lo: lo, hi: hi}
}

// scanMonth reads "March 2024", "March 5, 2024" or "5 March 2024" starting at
// toks[i]. It returns the literal and the number of tokens consumed.
func scanMonth(toks []token, i int) (*literal, int) {
	year := func(t token) (int, bool) {
		if t.kind != tokNumber || len(t.raw) != 4 {
			return 0, false
		}
		y, err := strconv.Atoi(t.raw)
		return y, err == nil
	}
	day := func(t token) (int, bool) {
		if t.kind != tokNumber {
			return 0, false
		}
		d, err := strconv.Atoi(t.raw)
		return d, err == nil && d >= 1 && d <= 31
	}
	exact := func(y int, m time.Month, d int) *literal {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if t.Month() != m {
			return nil
		}
		return &literal{kind: schema.KindDate, text: t.Format(isoLayout), lo: t, hi: t}
	}
	at := func(k int) (token, bool) {
		if k < len(toks) {
			return toks[k], true
		}
		return token{}, false
	}

	// 5 March 2024
	if d, ok := day(toks[i]); ok {
		mt, ok1 := at(i + 1)
		yt, ok2 := at(i + 2)
		if ok1 && ok2 && mt.kind == tokWord {
			if m, isMonth := months[mt.fold]; isMonth {
				if y, isYear := year(yt); isYear {
					if l := exact(y, m, d); l != nil {
						return l, 3
					}
				}
			}
		}
		return nil, 0
	}

	if toks[i].kind != tokWord {
		return nil, 0
	}
	m, ok := months[toks[i].fold]
	if !ok {
		return nil, 0
	}
	next, ok := at(i + 1)
	if !ok {
		return nil, 0
	}
	if y, isYear := year(next); isYear {
		return monthLiteral(m, y), 2
	}
	// March 5, 2024 / March 5 2024
	if d, isDay := day(next); isDay {
		k := i + 2
		if t, ok := at(k); ok && t.kind == tokPunct && t.raw == "," {
			k++
		}
		if t, ok := at(k); ok {
			if y, isYear := year(t); isYear {
				if l := exact(y, m, d); l != nil {
					return l, k - i + 1
				}
			}
		}
	}
	return nil, 0
}

func isCapitalized(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
