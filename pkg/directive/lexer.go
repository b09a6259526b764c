package directive

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenIfOpen
	tokenElse
	tokenIfClose
	tokenEqOpen
	tokenEqClose
)

// token is one lexeme of a template. raw always holds the exact source text so
// unmatched directives can be written back verbatim.
type token struct {
	kind  tokenKind
	raw   string
	name  string // condition name for if, field name for eq
	value string // comparison literal for eq
}

// lex splits text into literal runs and block directives. Anything that does
// not parse as a directive stays literal text.
func lex(text string) []token {
	var tokens []token
	start := 0
	i := 0
	for i < len(text) {
		idx := strings.Index(text[i:], "{{")
		if idx < 0 {
			break
		}
		i += idx
		tok, width, ok := scanDirective(text[i:])
		if !ok {
			i++
			continue
		}
		if i > start {
			tokens = append(tokens, token{kind: tokenText, raw: text[start:i]})
		}
		tokens = append(tokens, tok)
		i += width
		start = i
	}
	if start < len(text) {
		tokens = append(tokens, token{kind: tokenText, raw: text[start:]})
	}
	return tokens
}

// scanDirective tries to read a block directive at the start of s.
func scanDirective(s string) (token, int, bool) {
	switch {
	case strings.HasPrefix(s, "{{else}}"):
		return token{kind: tokenElse, raw: "{{else}}"}, len("{{else}}"), true
	case strings.HasPrefix(s, "{{/if}}"):
		return token{kind: tokenIfClose, raw: "{{/if}}"}, len("{{/if}}"), true
	case strings.HasPrefix(s, "{{/eq}}"):
		return token{kind: tokenEqClose, raw: "{{/eq}}"}, len("{{/eq}}"), true
	case strings.HasPrefix(s, "{{#if"):
		return scanIf(s)
	case strings.HasPrefix(s, "{{#eq"):
		return scanEq(s)
	}
	return token{}, 0, false
}

// scanIf reads `{{#if <word>}}`.
func scanIf(s string) (token, int, bool) {
	pos := len("{{#if")
	next, ok := skipSpace(s, pos, true)
	if !ok {
		return token{}, 0, false
	}
	name, next := scanWord(s, next)
	if name == "" || !strings.HasPrefix(s[next:], "}}") {
		return token{}, 0, false
	}
	width := next + 2
	return token{kind: tokenIfOpen, raw: s[:width], name: name}, width, true
}

// scanEq reads `{{#eq <word> '<value>'}}`; either quote character may open or
// close the literal and the literal itself holds no quotes.
func scanEq(s string) (token, int, bool) {
	pos := len("{{#eq")
	next, ok := skipSpace(s, pos, true)
	if !ok {
		return token{}, 0, false
	}
	name, next := scanWord(s, next)
	if name == "" {
		return token{}, 0, false
	}
	next, ok = skipSpace(s, next, true)
	if !ok || next >= len(s) || !isQuote(s[next]) {
		return token{}, 0, false
	}
	next++
	end := strings.IndexAny(s[next:], `'"`)
	if end < 0 {
		return token{}, 0, false
	}
	value := s[next : next+end]
	next += end + 1
	if !strings.HasPrefix(s[next:], "}}") {
		return token{}, 0, false
	}
	width := next + 2
	return token{kind: tokenEqOpen, raw: s[:width], name: name, value: value}, width, true
}

func isQuote(b byte) bool { return b == '\'' || b == '"' }

// skipSpace advances over whitespace from pos; when required is set at least
// one whitespace rune must be present.
func skipSpace(s string, pos int, required bool) (int, bool) {
	start := pos
	for pos < len(s) {
		r, size := utf8.DecodeRuneInString(s[pos:])
		if !unicode.IsSpace(r) {
			break
		}
		pos += size
	}
	if required && pos == start {
		return pos, false
	}
	return pos, true
}

// scanWord reads a run of letters, digits and underscores.
func scanWord(s string, pos int) (string, int) {
	start := pos
	for pos < len(s) {
		r, size := utf8.DecodeRuneInString(s[pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		pos += size
	}
	return s[start:pos], pos
}

func joinRaw(tokens []token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.raw)
	}
	return b.String()
}
