// Package lexer turns Crux source text into tokens.
package lexer

import (
	"unicode"

	"github.com/xplshn/gcrux/pkg/token"
)

// Lexer scans one source file. Positions are 1-based; a tab counts as one
// column.
type Lexer struct {
	src       []rune
	fileIndex int
	pos       int
	line, col int

	// start of the token being scanned
	startPos, startLine, startCol int
}

func NewLexer(source []rune, fileIndex int) *Lexer {
	return &Lexer{src: source, fileIndex: fileIndex, line: 1, col: 1}
}

// single-rune punctuation
var punct = map[rune]token.Type{
	'(': token.LParen, ')': token.RParen,
	'{': token.LBrace, '}': token.RBrace,
	'[': token.LBracket, ']': token.RBracket,
	';': token.Semi, ',': token.Comma,
	'+': token.Plus, '-': token.Minus, '*': token.Star, '/': token.Slash,
}

// operators that change meaning when followed by a second rune
var pairs = map[rune]struct {
	second        rune
	double, alone token.Type
}{
	':': {':', token.Call, token.Colon},
	'<': {'=', token.Lte, token.Lt},
	'>': {'=', token.Gte, token.Gt},
	'=': {'=', token.EqEq, token.Eq},
}

// Next returns the next token. Characters that start no token come back as a
// single Error token so the parser can report them at their position.
func (l *Lexer) Next() token.Token {
	l.skipTrivia()
	l.startPos, l.startLine, l.startCol = l.pos, l.line, l.col

	if l.done() {
		return l.emit(token.EOF, "")
	}

	r := l.peek(0)
	switch {
	case isIdentStart(r):
		return l.word()
	case unicode.IsDigit(r):
		return l.number()
	}

	l.bump()
	if typ, ok := punct[r]; ok {
		return l.emit(typ, "")
	}
	if p, ok := pairs[r]; ok {
		if l.accept(p.second) {
			return l.emit(p.double, "")
		}
		return l.emit(p.alone, "")
	}
	if r == '!' && l.accept('=') {
		return l.emit(token.Neq, "")
	}
	return l.emit(token.Error, "Unexpected character: "+string(r))
}

// All drains the lexer, including the final EOF token.
func (l *Lexer) All() []token.Token {
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) done() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek(ahead int) rune {
	if l.pos+ahead >= len(l.src) {
		return 0
	}
	return l.src[l.pos+ahead]
}

func (l *Lexer) bump() {
	if l.done() {
		return
	}
	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) accept(r rune) bool {
	if l.peek(0) != r || l.done() {
		return false
	}
	l.bump()
	return true
}

func (l *Lexer) emit(typ token.Type, value string) token.Token {
	return token.Token{
		Type: typ, Value: value, FileIndex: l.fileIndex,
		Line: l.startLine, Column: l.startCol, Len: l.pos - l.startPos,
	}
}

// skipTrivia consumes whitespace and // comments.
func (l *Lexer) skipTrivia() {
	for !l.done() {
		switch r := l.peek(0); {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			l.bump()
		case r == '/' && l.peek(1) == '/':
			for !l.done() && l.peek(0) != '\n' {
				l.bump()
			}
		default:
			return
		}
	}
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentPart(r rune) bool  { return isIdentStart(r) || unicode.IsDigit(r) }

func (l *Lexer) word() token.Token {
	for isIdentPart(l.peek(0)) {
		l.bump()
	}
	text := string(l.src[l.startPos:l.pos])
	if kw, ok := token.KeywordMap[text]; ok {
		return l.emit(kw, "")
	}
	return l.emit(token.Ident, text)
}

// number scans digits, optionally followed by a dot and more digits; "1." is
// a valid float.
func (l *Lexer) number() token.Token {
	digits := func() {
		for unicode.IsDigit(l.peek(0)) {
			l.bump()
		}
	}
	digits()
	typ := token.Integer
	if l.accept('.') {
		typ = token.Float
		digits()
	}
	return l.emit(typ, string(l.src[l.startPos:l.pos]))
}
