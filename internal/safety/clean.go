package safety

import (
	"regexp"
	"strings"
)

var (
	fence    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	keywords = regexp.MustCompile(`(?i)\b(select|from|where|inner join|left join|join|on|group by|order by|limit|and|or|having|as|distinct|between|like|asc|desc)\b`)
)

// Clean normalizes model output: code fences and trailing semicolons are
// removed, whitespace collapsed and keywords outside string literals
// upper-cased.
func Clean(sql string) string {
	sql = strings.TrimSpace(sql)
	if m := fence.FindStringSubmatch(sql); m != nil {
		sql = m[1]
	}
	sql = strings.Join(strings.Fields(sql), " ")
	sql = strings.TrimRight(sql, "; ")

	var b strings.Builder
	b.Grow(len(sql))
	for i, part := range strings.Split(sql, "'") {
		if i > 0 {
			b.WriteByte('\'')
		}
		// odd parts sit inside a string literal
		if i%2 == 1 {
			b.WriteString(part)
			continue
		}
		b.WriteString(keywords.ReplaceAllStringFunc(part, func(k string) string {
			return strings.Join(strings.Fields(strings.ToUpper(k)), " ")
		}))
	}
	return b.String()
}
