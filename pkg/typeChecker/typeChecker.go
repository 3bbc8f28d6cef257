package typeChecker

import (
	"fmt"
	"strings"

	"github.com/xplshn/gcrux/pkg/ast"
	"github.com/xplshn/gcrux/pkg/config"
	"github.com/xplshn/gcrux/pkg/symbols"
	"github.com/xplshn/gcrux/pkg/token"
	"github.com/xplshn/gcrux/pkg/types"
	"github.com/xplshn/gcrux/pkg/util"
)

// TypeError is one entry of the diagnostics log.
type TypeError struct {
	Tok     token.Token
	Message string
}

func (e TypeError) String() string {
	return fmt.Sprintf("TypeError(%d,%d)[%s]", e.Tok.Line, e.Tok.Column, e.Message)
}

// Result holds everything one checking pass produced. It does not share
// state with the checker that made it.
type Result struct {
	types    map[*ast.Node]types.Type
	Errors   []TypeError
	Warnings []util.Diagnostic
}

// OK reports whether the pass recorded no type errors.
func (r *Result) OK() bool { return len(r.Errors) == 0 }

func (r *Result) HasError() bool { return len(r.Errors) > 0 }

// ErrorReport returns the diagnostics in detection order, one per line.
func (r *Result) ErrorReport() string {
	lines := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// TypeOf returns the type inferred for n, or nil for a node the pass never
// reached.
func (r *Result) TypeOf(n *ast.Node) types.Type { return r.types[n] }

type TypeChecker struct {
	cfg *config.Config
}

func NewTypeChecker(cfg *config.Config) *TypeChecker {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &TypeChecker{cfg: cfg}
}

// Check runs one full pass over root. A TypeChecker holds no per-pass
// state, so it may check several trees at once. Error symbols left by the
// parser type their nodes as Error without a diagnostic of their own.
func (tc *TypeChecker) Check(root *ast.Node) *Result {
	s := &state{
		cfg:      tc.cfg,
		res:      &Result{types: make(map[*ast.Node]types.Type)},
		registry: make(map[*symbols.Symbol]types.Func),
	}
	s.check(root)
	return s.res
}

// funcCtx describes the function whose body is being checked.
type funcCtx struct {
	name string
	ret  types.Type
	// false for main with an invalid signature; its returns are not compared.
	checkReturns bool
}

type state struct {
	cfg      *config.Config
	res      *Result
	registry map[*symbols.Symbol]types.Func
	fn       *funcCtx
}

// set caches t for n. A node is typed once; later writes are ignored.
func (s *state) set(n *ast.Node, t types.Type) types.Type {
	if prev, ok := s.res.types[n]; ok {
		return prev
	}
	s.res.types[n] = t
	return t
}

// record caches t and logs it at n if it is an Error. With the
// suppress-cascade feature, an Error derived from an operand that had
// already failed is cached but not logged.
func (s *state) record(n *ast.Node, t types.Type, operands ...types.Type) types.Type {
	t = s.set(n, t)
	if e, ok := t.(types.Error); ok {
		if s.cfg.IsFeatureEnabled(config.FeatSuppressCascade) && anyError(operands...) {
			return t
		}
		s.report(n.Tok, e.Message)
	}
	return t
}

// propagate caches a type copied from a child without logging it again.
func (s *state) propagate(n *ast.Node, t types.Type) types.Type { return s.set(n, t) }

func (s *state) report(tok token.Token, msg string) {
	s.res.Errors = append(s.res.Errors, TypeError{Tok: tok, Message: msg})
}

func (s *state) warn(wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if d, ok := util.NewWarning(s.cfg, wt, tok, format, args...); ok {
		s.res.Warnings = append(s.res.Warnings, d)
	}
}

func anyError(ts ...types.Type) bool {
	for _, t := range ts {
		switch v := t.(type) {
		case types.Error:
			return true
		case types.TypeList:
			if anyError(v...) {
				return true
			}
		case types.Address:
			if anyError(v.Pointee) {
				return true
			}
		}
	}
	return false
}

func (s *state) check(n *ast.Node) types.Type {
	if n == nil {
		return nil
	}
	switch d := n.Data.(type) {
	case ast.DeclListNode:
		var last types.Type = types.Void{}
		for _, decl := range d.Decls {
			last = s.check(decl)
		}
		return s.propagate(n, last)
	case ast.StmtListNode:
		return s.propagate(n, s.checkStmts(d))
	case ast.ExprListNode:
		list := make(types.TypeList, len(d.Exprs))
		for i, e := range d.Exprs {
			list[i] = s.check(e)
		}
		return s.propagate(n, list)
	case ast.VarDeclNode:
		return s.checkVarDecl(n, d)
	case ast.ArrayDeclNode:
		return s.checkArrayDecl(n, d)
	case ast.FuncDeclNode:
		return s.checkFuncDecl(n, d)
	case ast.AssignNode:
		dst, src := s.check(d.Dest), s.check(d.Source)
		addr := types.Address{Pointee: dst}
		return s.record(n, types.Assign(addr, src), addr, src)
	case ast.CallNode:
		return s.checkCall(n, d)
	case ast.IfNode:
		s.checkCondition(n, d.Cond, "IfElseBranch")
		s.check(d.Then)
		s.check(d.Else)
		return s.res.types[n]
	case ast.WhileNode:
		s.checkCondition(n, d.Cond, "WhileLoop")
		s.check(d.Body)
		return s.res.types[n]
	case ast.ReturnNode:
		return s.checkReturn(n, d)
	case ast.IntLitNode:
		return s.set(n, types.Int{})
	case ast.FloatLitNode:
		return s.set(n, types.Float{})
	case ast.BoolLitNode:
		return s.set(n, types.Bool{})
	case ast.AddressOfNode:
		sym := d.Symbol
		if sym.IsError() {
			return s.propagate(n, sym.Type)
		}
		if s.cfg.IsFeatureEnabled(config.FeatSuppressCascade) {
			// An invalid declared type was already reported at the declaration.
			return s.propagate(n, sym.Type)
		}
		return s.record(n, sym.Type)
	case ast.IndexNode:
		base, amount := s.check(d.Base), s.check(d.Amount)
		return s.record(n, types.Index(base, amount), base, amount)
	case ast.NotNode:
		t := s.check(d.Expr)
		return s.record(n, types.Not(t), t)
	case ast.DerefNode:
		return s.propagate(n, s.check(d.Expr))
	case ast.BinaryOpNode:
		l, r := s.check(d.Left), s.check(d.Right)
		return s.record(n, binaryOp(d.Op, l, r), l, r)
	case ast.ErrorNode:
		return s.record(n, types.Error{Message: d.Message})
	}
	return s.set(n, types.Errorf("Unknown node %s.", n.Type))
}

func binaryOp(op token.Type, l, r types.Type) types.Type {
	switch op {
	case token.Plus:
		return types.Add(l, r)
	case token.Minus:
		return types.Sub(l, r)
	case token.Star:
		return types.Mul(l, r)
	case token.Slash:
		return types.Div(l, r)
	case token.And:
		return types.And(l, r)
	case token.Or:
		return types.Or(l, r)
	case token.EqEq:
		return types.Compare(types.Eq, l, r)
	case token.Neq:
		return types.Compare(types.Ne, l, r)
	case token.Lt:
		return types.Compare(types.Lt, l, r)
	case token.Lte:
		return types.Compare(types.Le, l, r)
	case token.Gt:
		return types.Compare(types.Gt, l, r)
	case token.Gte:
		return types.Compare(types.Ge, l, r)
	}
	return types.Errorf("Unknown operator %s.", op)
}
