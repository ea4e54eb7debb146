package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokNumber
	tokDate
	tokQuoted
	tokPunct
)

type token struct {
	kind tokenKind
	raw  string // as written; the unquoted text for tokQuoted
	fold string // case folded
	sing string // singular form of fold, for identifier matching
}

var folder = cases.Fold()

func fold(s string) string {
	return folder.String(s)
}

var (
	isoDate   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	numberRun = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$|^\d+(\.\d+)?$`)
)

var closingQuote = map[rune][]rune{
	'\'': {'\'', '’'},
	'‘':  {'’', '\''},
	'"':  {'"', '”'},
	'“':  {'”', '"'},
}

// tokenize splits a question into words, numbers, ISO dates, quoted strings
// and punctuation. The question is NFKC-normalized first so full-width digits
// and compatibility characters read like their ASCII forms.
func tokenize(question string) []token {
	rs := []rune(norm.NFKC.String(question))
	var toks []token

	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case closingQuote[r] != nil && atBoundary(rs, i):
			if end := findClosing(rs, i); end > 0 {
				toks = append(toks, token{kind: tokQuoted, raw: string(rs[i+1 : end])})
				i = end + 1
				continue
			}
			toks = append(toks, punct(string(r)))
			i++

		case strings.ContainsRune("$€£¥", r) && i+1 < len(rs) && unicode.IsDigit(rs[i+1]):
			i++ // currency sign, the amount follows

		case unicode.IsDigit(r):
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == ',' || rs[j] == '.' || rs[j] == '-') {
				j++
			}
			// trailing punctuation belongs to the sentence
			for j > i+1 && strings.ContainsRune(",.-", rs[j-1]) {
				j--
			}
			s := string(rs[i:j])
			switch {
			case isoDate.MatchString(s):
				toks = append(toks, token{kind: tokDate, raw: s, fold: s})
			case numberRun.MatchString(s):
				n := strings.ReplaceAll(s, ",", "")
				toks = append(toks, token{kind: tokNumber, raw: n, fold: n})
			default:
				// "1,2" or "5-10": keep the leading digits only
				k := i
				for k < j && unicode.IsDigit(rs[k]) {
					k++
				}
				j = k
				n := string(rs[i:j])
				toks = append(toks, token{kind: tokNumber, raw: n, fold: n})
			}
			i = j

		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(rs) {
				c := rs[j]
				if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
					j++
					continue
				}
				// table.column
				if c == '.' && j+1 < len(rs) && (unicode.IsLetter(rs[j+1]) || rs[j+1] == '_') {
					j++
					continue
				}
				break
			}
			toks = append(toks, word(string(rs[i:j])))
			i = j
			// possessive 's
			if i+1 < len(rs) && (rs[i] == '\'' || rs[i] == '’') && (rs[i+1] == 's' || rs[i+1] == 'S') &&
				(i+2 == len(rs) || !unicode.IsLetter(rs[i+2])) {
				i += 2
			}

		case r == '>' || r == '<':
			if i+1 < len(rs) && rs[i+1] == '=' {
				toks = append(toks, punct(string(rs[i:i+2])))
				i += 2
				continue
			}
			toks = append(toks, punct(string(r)))
			i++

		default:
			toks = append(toks, punct(string(r)))
			i++
		}
	}
	return toks
}

func word(s string) token {
	f := fold(s)
	return token{kind: tokWord, raw: s, fold: f, sing: singularIdent(f)}
}

func punct(s string) token {
	return token{kind: tokPunct, raw: s, fold: s}
}

// atBoundary reports whether a quote at i opens a string: it starts the
// input or follows a non-alphanumeric rune.
func atBoundary(rs []rune, i int) bool {
	if i == 0 {
		return true
	}
	p := rs[i-1]
	return !unicode.IsLetter(p) && !unicode.IsDigit(p)
}

// findClosing returns the index of the quote closing the one at i, or -1.
// The closing quote must end a word.
func findClosing(rs []rune, i int) int {
	closers := closingQuote[rs[i]]
	for j := i + 1; j < len(rs); j++ {
		for _, c := range closers {
			if rs[j] != c {
				continue
			}
			if j+1 == len(rs) || (!unicode.IsLetter(rs[j+1]) && !unicode.IsDigit(rs[j+1])) {
				if j > i+1 {
					return j
				}
			}
		}
	}
	return -1
}

// singularIdent singularizes the last underscore-separated word of a folded
// identifier.
func singularIdent(s string) string {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		return s[:i+1] + inflect.Singularize(s[i+1:])
	}
	return inflect.Singularize(s)
}

// identWords returns the phrase forms of an identifier: the name itself and,
// for snake_case names, its words.
func identWords(name string) [][]string {
	f := fold(name)
	forms := [][]string{{singularIdent(f)}}
	if strings.Contains(f, "_") {
		var ws []string
		for _, w := range strings.Split(f, "_") {
			if w != "" {
				ws = append(ws, inflect.Singularize(w))
			}
		}
		if len(ws) > 1 {
			forms = append(forms, ws)
		}
	}
	return forms
}
