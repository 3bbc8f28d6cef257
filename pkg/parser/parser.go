package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/xplshn/gcrux/pkg/ast"
	"github.com/xplshn/gcrux/pkg/config"
	"github.com/xplshn/gcrux/pkg/symbols"
	"github.com/xplshn/gcrux/pkg/token"
	"github.com/xplshn/gcrux/pkg/types"
	"github.com/xplshn/gcrux/pkg/util"
)

// bailout unwinds the parser after the first syntax error.
type bailout struct{}

// Parser holds the state for the parsing process. It owns the symbol table:
// identifiers are resolved while the tree is built, so every node that names
// something carries its symbol.
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token

	cfg      *config.Config
	table    *symbols.Table
	errors   []string
	warnings []util.Diagnostic
}

// NewParser creates and initializes a new Parser from a token stream. The
// stream must end with an EOF token.
func NewParser(tokens []token.Token, cfg *config.Config) *Parser {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	p := &Parser{tokens: tokens, pos: 0, cfg: cfg, table: symbols.NewTable()}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

// Parse builds the tree for a whole program. On a syntax error it returns an
// Error node and the report ends with the one SyntaxError line. Names that
// fail to resolve or declare are reported as they are met; parsing goes on
// with an error symbol in their place.
func (p *Parser) Parse() (root *ast.Node) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			msg := p.errors[len(p.errors)-1]
			root = ast.NewError(p.current, msg)
		}
	}()
	return p.parseProgram()
}

func (p *Parser) HasError() bool { return len(p.errors) > 0 }

// ErrorReport returns the symbol and syntax errors, one per line.
func (p *Parser) ErrorReport() string { return strings.Join(p.errors, "\n") }

// Warnings returns the diagnostics collected while parsing.
func (p *Parser) Warnings() []util.Diagnostic { return p.warnings }

// Table exposes the symbol table, positioned back at its root scope once
// Parse has returned successfully.
func (p *Parser) Table() *symbols.Table { return p.table }

// Parser helpers
func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		if p.pos < len(p.tokens) {
			p.current = p.tokens[p.pos]
		}
	}
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) checkAny(tokTypes ...token.Type) bool {
	for _, t := range tokTypes {
		if p.check(t) {
			return true
		}
	}
	return false
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) syntaxError(what string) {
	p.errors = append(p.errors, fmt.Sprintf("SyntaxError(%d,%d)[Expected %s but got %s.]",
		p.current.Line, p.current.Column, what, p.current.Type))
	panic(bailout{})
}

func (p *Parser) rangeError(tok token.Token, format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf("SyntaxError(%d,%d)[%s]", tok.Line, tok.Column, fmt.Sprintf(format, args...)))
	panic(bailout{})
}

// expect consumes a token of the given kind and returns it.
func (p *Parser) expect(tokType token.Type) token.Token {
	if !p.check(tokType) {
		p.syntaxError(tokType.String())
	}
	p.advance()
	return p.previous
}

func (p *Parser) warn(wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if d, ok := util.NewWarning(p.cfg, wt, tok, format, args...); ok {
		p.warnings = append(p.warnings, d)
	}
}

// Symbol table helpers

func (p *Parser) symbolError(kind string, ident token.Token, err error) *symbols.Symbol {
	p.errors = append(p.errors, fmt.Sprintf("%s(%d,%d)[%s]", kind, ident.Line, ident.Column, err))
	return symbols.NewErrorSymbol(ident.Value, err)
}

func (p *Parser) resolve(ident token.Token) *symbols.Symbol {
	sym, err := p.table.Lookup(ident.Value)
	if err != nil {
		return p.symbolError("ResolveSymbolError", ident, err)
	}
	return sym
}

func (p *Parser) declare(scope *symbols.Scope, ident token.Token, typ types.Type) *symbols.Symbol {
	if shadowed, ok := p.table.Shadows(ident.Value); ok && scope == p.table.Current() {
		p.warn(config.WarnShadow, ident, "Declaration of '%s' shadows an enclosing declaration of type %s", ident.Value, shadowed.Type)
	}
	sym, err := scope.Insert(ident.Value, typ)
	if err != nil {
		var re *symbols.RedeclarationError
		if errors.As(err, &re) && re.Existing.Builtin {
			p.warn(config.WarnExtra, ident, "'%s' is a builtin operation", ident.Value)
		}
		return p.symbolError("DeclareSymbolError", ident, err)
	}
	return sym
}

// Grammar rules

func (p *Parser) parseProgram() *ast.Node {
	tok := p.current
	var decls []*ast.Node
	for !p.check(token.EOF) {
		decls = append(decls, p.parseDeclaration())
	}
	return ast.NewDeclList(tok, decls)
}

func (p *Parser) parseDeclaration() *ast.Node {
	switch p.current.Type {
	case token.Var:
		return p.parseVarDecl()
	case token.Array:
		return p.parseArrayDecl()
	case token.Func:
		return p.parseFuncDecl()
	}
	p.syntaxError("a token from DECLARATION")
	return nil
}

func (p *Parser) parseType() types.Type {
	return types.FromName(p.expect(token.Ident).Value)
}

func (p *Parser) parseVarDecl() *ast.Node {
	tok := p.expect(token.Var)
	ident := p.expect(token.Ident)
	p.expect(token.Colon)
	typ := p.parseType()
	p.expect(token.Semi)
	return ast.NewVarDecl(tok, p.declare(p.table.Current(), ident, typ))
}

func (p *Parser) parseArrayDecl() *ast.Node {
	tok := p.expect(token.Array)
	ident := p.expect(token.Ident)
	p.expect(token.Colon)
	base := p.parseType()

	var extents []int
	for len(extents) == 0 || p.check(token.LBracket) {
		p.expect(token.LBracket)
		extents = append(extents, p.parseExtent())
		p.expect(token.RBracket)
	}
	p.expect(token.Semi)

	sym := p.declare(p.table.Current(), ident, types.Array{Base: base, Extents: extents})
	return ast.NewArrayDecl(tok, sym, base, extents)
}

func (p *Parser) parseExtent() int {
	tok := p.expect(token.Integer)
	val, err := strconv.ParseUint(tok.Value, 10, 64)
	if err != nil {
		p.rangeError(tok, "Array extent %s is out of range.", tok.Value)
	}
	n, err := safecast.Conv[int](val)
	if err != nil {
		p.rangeError(tok, "Array extent %s is out of range.", tok.Value)
	}
	return n
}

// parseFuncDecl binds the function in the enclosing scope once its
// signature is known, before the body is parsed, so the body can refer to
// it. Parameters live in the body's scope.
func (p *Parser) parseFuncDecl() *ast.Node {
	tok := p.expect(token.Func)
	ident := p.expect(token.Ident)
	p.expect(token.LParen)

	outer := p.table.Current()
	p.table.Enter()
	defer p.table.Exit()

	var params []*symbols.Symbol
	var paramTypes types.TypeList
	if p.check(token.Ident) {
		for {
			param := p.parseParam()
			params = append(params, param)
			paramTypes = append(paramTypes, param.Type)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	if paramTypes == nil {
		paramTypes = types.TypeList{}
	}
	p.expect(token.RParen)
	p.expect(token.Colon)
	ret := p.parseType()

	sym := p.declare(outer, ident, types.Func{Params: paramTypes, Return: ret})
	body := p.parseBlock()
	return ast.NewFuncDecl(tok, sym, params, ret, body)
}

func (p *Parser) parseParam() *symbols.Symbol {
	ident := p.expect(token.Ident)
	p.expect(token.Colon)
	typ := p.parseType()
	return p.declare(p.table.Current(), ident, typ)
}

// parseBlock parses "{ statement* }" in the current scope; the caller is
// responsible for entering and exiting it.
func (p *Parser) parseBlock() *ast.Node {
	tok := p.expect(token.LBrace)
	var stmts []*ast.Node
	for !p.check(token.RBrace) {
		stmts = append(stmts, p.parseStmt())
	}
	end := p.expect(token.RBrace)
	return ast.NewStmtList(tok, stmts, end)
}

// parseScopedBlock parses a block in a fresh scope.
func (p *Parser) parseScopedBlock() *ast.Node {
	p.table.Enter()
	defer p.table.Exit()
	return p.parseBlock()
}

func (p *Parser) parseStmt() *ast.Node {
	tok := p.current
	switch tok.Type {
	case token.Var:
		return p.parseVarDecl()
	case token.Call:
		call := p.parseCallExpr()
		p.expect(token.Semi)
		return call
	case token.Let:
		p.advance()
		dest := p.parseDesignator()
		p.expect(token.Eq)
		src := p.parseExpr0()
		p.expect(token.Semi)
		return ast.NewAssign(tok, dest, src)
	case token.If:
		p.advance()
		cond := p.parseExpr0()
		thenBody := p.parseScopedBlock()
		var elseBody *ast.Node
		if p.match(token.Else) {
			elseBody = p.parseScopedBlock()
		}
		return ast.NewIf(tok, cond, thenBody, elseBody)
	case token.While:
		p.advance()
		cond := p.parseExpr0()
		body := p.parseScopedBlock()
		return ast.NewWhile(tok, cond, body)
	case token.Return:
		p.advance()
		expr := p.parseExpr0()
		p.expect(token.Semi)
		return ast.NewReturn(tok, expr)
	}
	p.syntaxError("a token from STATEMENT")
	return nil
}

// Expression parsing

// parseDesignator returns the location named by IDENT { "[" expr "]" }.
func (p *Parser) parseDesignator() *ast.Node {
	ident := p.expect(token.Ident)
	node := ast.NewAddressOf(ident, p.resolve(ident))
	for p.match(token.LBracket) {
		amount := p.parseExpr0()
		p.expect(token.RBracket)
		node = ast.NewIndex(ident, node, amount)
	}
	return node
}

func (p *Parser) parseCallExpr() *ast.Node {
	tok := p.expect(token.Call)
	ident := p.expect(token.Ident)
	sym := p.resolve(ident)
	lparen := p.expect(token.LParen)

	exprs := []*ast.Node{}
	if !p.check(token.RParen) {
		for {
			exprs = append(exprs, p.parseExpr0())
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expect(token.RParen)
	return ast.NewCall(tok, sym, ast.NewExprList(lparen, exprs))
}

func (p *Parser) parseExpr0() *ast.Node {
	left := p.parseExpr1()
	if p.checkAny(token.Gte, token.Lte, token.Neq, token.EqEq, token.Gt, token.Lt) {
		op := p.current
		p.advance()
		right := p.parseExpr1()
		return ast.NewBinaryOp(op, op.Type, left, right)
	}
	return left
}

func (p *Parser) parseExpr1() *ast.Node {
	left := p.parseExpr2()
	for p.checkAny(token.Plus, token.Minus, token.Or) {
		op := p.current
		p.advance()
		right := p.parseExpr2()
		left = ast.NewBinaryOp(op, op.Type, left, right)
	}
	return left
}

func (p *Parser) parseExpr2() *ast.Node {
	left := p.parseExpr3()
	for p.checkAny(token.Star, token.Slash, token.And) {
		op := p.current
		p.advance()
		right := p.parseExpr3()
		left = ast.NewBinaryOp(op, op.Type, left, right)
	}
	return left
}

func (p *Parser) parseExpr3() *ast.Node {
	tok := p.current
	switch tok.Type {
	case token.Not:
		p.advance()
		return ast.NewNot(tok, p.parseExpr3())
	case token.LParen:
		p.advance()
		expr := p.parseExpr0()
		p.expect(token.RParen)
		return expr
	case token.Ident:
		return ast.NewDeref(tok, p.parseDesignator())
	case token.Call:
		return p.parseCallExpr()
	case token.Integer, token.Float, token.True, token.False:
		return p.parseLiteral()
	}
	p.syntaxError("a token from EXPRESSION3")
	return nil
}

func (p *Parser) parseLiteral() *ast.Node {
	tok := p.current
	p.advance()
	switch tok.Type {
	case token.Integer:
		val, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			p.rangeError(tok, "Integer literal %s is out of range.", tok.Value)
		}
		return ast.NewIntLit(tok, val)
	case token.Float:
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.rangeError(tok, "Float literal %s is out of range.", tok.Value)
		}
		return ast.NewFloatLit(tok, val)
	case token.True:
		return ast.NewBoolLit(tok, true)
	default:
		return ast.NewBoolLit(tok, false)
	}
}
