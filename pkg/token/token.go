package token

import "fmt"

type Type int

const (
	EOF Type = iota
	Error
	Comment
	Ident
	Integer
	Float
	And
	Or
	Not
	Let
	Var
	Array
	Func
	If
	Else
	While
	True
	False
	Return
	Plus
	Minus
	Star
	Slash
	Gte
	Lte
	Neq
	EqEq
	Gt
	Lt
	Eq
	Comma
	Semi
	Colon
	Call
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
)

var KeywordMap = map[string]Type{
	"and":    And,
	"or":     Or,
	"not":    Not,
	"let":    Let,
	"var":    Var,
	"array":  Array,
	"func":   Func,
	"if":     If,
	"else":   Else,
	"while":  While,
	"true":   True,
	"false":  False,
	"return": Return,
}

// Names used when a token kind shows up in a diagnostic
var typeNames = map[Type]string{
	EOF:      "EOF",
	Error:    "ERROR",
	Comment:  "COMMENT",
	Ident:    "IDENTIFIER",
	Integer:  "INTEGER",
	Float:    "FLOAT",
	And:      "AND",
	Or:       "OR",
	Not:      "NOT",
	Let:      "LET",
	Var:      "VAR",
	Array:    "ARRAY",
	Func:     "FUNC",
	If:       "IF",
	Else:     "ELSE",
	While:    "WHILE",
	True:     "TRUE",
	False:    "FALSE",
	Return:   "RETURN",
	Plus:     "ADD",
	Minus:    "SUB",
	Star:     "MUL",
	Slash:    "DIV",
	Gte:      "GREATER_EQUAL",
	Lte:      "LESSER_EQUAL",
	Neq:      "NOT_EQUAL",
	EqEq:     "EQUAL",
	Gt:       "GREATER_THAN",
	Lt:       "LESS_THAN",
	Eq:       "ASSIGN",
	Comma:    "COMMA",
	Semi:     "SEMICOLON",
	Colon:    "COLON",
	Call:     "CALL",
	LParen:   "OPEN_PAREN",
	RParen:   "CLOSE_PAREN",
	LBrace:   "OPEN_BRACE",
	RBrace:   "CLOSE_BRACE",
	LBracket: "OPEN_BRACKET",
	RBracket: "CLOSE_BRACKET",
}

// Reverse mapping from Type to the keyword string
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}

func (t Token) Is(typ Type) bool { return t.Type == typ }

func (t Token) String() string {
	if t.Value == "" {
		return fmt.Sprintf("%s(lineNum:%d, charPos:%d)", t.Type, t.Line, t.Column)
	}
	return fmt.Sprintf("%s(%s)(lineNum:%d, charPos:%d)", t.Type, t.Value, t.Line, t.Column)
}
