package filter

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokTrue
	tokFalse
	tokNull
	tokAnd
	tokOr
	tokNot
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string // identifier name, unquoted string, operator or number source
	num  float64
	pos  int
}

var keywords = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"true":  tokTrue,
	"false": tokFalse,
	"null":  tokNull,
}

// lex splits src into tokens. Anything outside the whitelist is rejected
// here so the parser only ever sees allowed constructs.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, w := utf8.DecodeRuneInString(src[i:])
		if r == utf8.RuneError && w == 1 {
			return nil, errAt(src, i, "invalid UTF-8")
		}
		if unicode.IsSpace(r) {
			i += w
			continue
		}
		start := i
		switch {
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: start})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: start})
			i++
		case r == '&' || r == '|':
			if i+1 < len(src) && rune(src[i+1]) == r {
				kind := tokAnd
				if r == '|' {
					kind = tokOr
				}
				toks = append(toks, token{kind: kind, text: src[i : i+2], pos: start})
				i += 2
				continue
			}
			return nil, errAt(src, start, "bitwise operator %q is not allowed; use and/or", string(r))
		case r == '=':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{kind: tokOp, text: "==", pos: start})
				i += 2
				continue
			}
			return nil, errAt(src, start, "assignment is not allowed; use == to compare")
		case r == '!':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{kind: tokOp, text: "!=", pos: start})
				i += 2
				continue
			}
			return nil, errAt(src, start, "'!' is not allowed; use not")
		case r == '<' || r == '>':
			op, n := string(r), 1
			switch {
			case i+1 < len(src) && src[i+1] == '=':
				op, n = op+"=", 2
			case r == '<' && i+1 < len(src) && src[i+1] == '>':
				op, n = "!=", 2
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: start})
			i += n
		case r == '"' || r == '\'':
			s, n, err := lexString(src, i, byte(r))
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: start})
			i += n
		case r == '`':
			end := strings.IndexByte(src[i+1:], '`')
			if end < 0 {
				return nil, errAt(src, start, "unterminated quoted column name")
			}
			name := src[i+1 : i+1+end]
			if strings.TrimSpace(name) == "" {
				return nil, errAt(src, start, "empty column name")
			}
			toks = append(toks, token{kind: tokIdent, text: name, pos: start})
			i += end + 2
		case isDigit(r) || (r == '.' && i+1 < len(src) && isDigit(rune(src[i+1]))) ||
			(r == '-' && i+1 < len(src) && (isDigit(rune(src[i+1])) || src[i+1] == '.')):
			n := scanNumber(src, i)
			f, err := strconv.ParseFloat(src[i:i+n], 64)
			if err != nil {
				return nil, errAt(src, start, "malformed number %q", src[i:i+n])
			}
			toks = append(toks, token{kind: tokNumber, text: src[i : i+n], num: f, pos: start})
			i += n
			if i < len(src) {
				if nr, _ := utf8.DecodeRuneInString(src[i:]); isIdentRune(nr) {
					return nil, errAt(src, i, "unexpected %q after number", string(nr))
				}
			}
		case isIdentStart(r):
			j := i + w
			for j < len(src) {
				nr, nw := utf8.DecodeRuneInString(src[j:])
				if !isIdentRune(nr) {
					break
				}
				j += nw
			}
			word := src[i:j]
			if kind, ok := keywords[strings.ToLower(word)]; ok {
				toks = append(toks, token{kind: kind, text: strings.ToLower(word), pos: start})
			} else {
				toks = append(toks, token{kind: tokIdent, text: word, pos: start})
			}
			i = j
		default:
			return nil, errAt(src, start, "%s", disallowed(r))
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func disallowed(r rune) string {
	switch r {
	case '.':
		return "attribute access is not allowed"
	case ';':
		return "statement separators are not allowed"
	case '+', '-', '*', '/', '%', '^', '~':
		return "arithmetic is not allowed"
	case '[', ']':
		return "indexing is not allowed"
	case ',':
		return "argument lists are not allowed"
	case '@', '$', '#', '\\', ':', '{', '}', '?':
		return "character " + strconv.QuoteRune(r) + " is not allowed"
	}
	return "unexpected character " + strconv.QuoteRune(r)
}

func lexString(src string, i int, quote byte) (string, int, error) {
	var b strings.Builder
	j := i + 1
	for j < len(src) {
		c := src[j]
		switch c {
		case quote:
			return b.String(), j + 1 - i, nil
		case '\\':
			if j+1 >= len(src) {
				return "", 0, errAt(src, j, "unterminated escape")
			}
			switch e := src[j+1]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '"', '\'':
				b.WriteByte(e)
			default:
				return "", 0, errAt(src, j, "unknown escape \\%c", e)
			}
			j += 2
		default:
			b.WriteByte(c)
			j++
		}
	}
	return "", 0, errAt(src, i, "unterminated string")
}

func scanNumber(src string, i int) int {
	j := i
	if src[j] == '-' {
		j++
	}
	for j < len(src) && (isDigit(rune(src[j])) || src[j] == '.') {
		j++
	}
	if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
		k := j + 1
		if k < len(src) && (src[k] == '+' || src[k] == '-') {
			k++
		}
		if k < len(src) && isDigit(rune(src[k])) {
			j = k
			for j < len(src) && isDigit(rune(src[j])) {
				j++
			}
		}
	}
	return j - i
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentRune(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }
