package typeChecker

import (
	"github.com/xplshn/gcrux/pkg/ast"
	"github.com/xplshn/gcrux/pkg/config"
	"github.com/xplshn/gcrux/pkg/types"
)

// checkStmts checks a block and returns its aggregate type: the type of the
// last return written directly in the block, or Void. Returns nested in
// if/while bodies do not take part.
func (s *state) checkStmts(d ast.StmtListNode) types.Type {
	var agg types.Type = types.Void{}
	for _, stmt := range d.Stmts {
		t := s.check(stmt)
		if stmt.Type == ast.Return {
			agg = t
		}
	}
	return agg
}

func (s *state) checkCondition(n, cond *ast.Node, construct string) {
	t := s.check(cond)
	if _, ok := t.(types.Bool); ok {
		s.set(n, types.Void{})
		return
	}
	s.record(n, types.Errorf("%s requires bool condition not %s.", construct, t), t)
}

func (s *state) checkReturn(n *ast.Node, d ast.ReturnNode) types.Type {
	t := s.propagate(n, s.check(d.Expr))
	if s.fn == nil || !s.fn.checkReturns {
		return t
	}
	if !s.cfg.IsFeatureEnabled(config.FeatNestedReturns) {
		if !isTopLevel(n) {
			s.warn(config.WarnPedantic, n.Tok, "return nested in a block does not count toward the return type of %s", s.fn.name)
		}
		return t
	}
	if !s.fn.ret.Equivalent(t) {
		if s.cfg.IsFeatureEnabled(config.FeatSuppressCascade) && anyError(t) {
			return t
		}
		s.report(n.Tok, types.Errorf("Function %s returns %s not %s.", s.fn.name, s.fn.ret, t).Message)
	}
	return t
}

// isTopLevel reports whether a statement sits directly in a function body.
func isTopLevel(n *ast.Node) bool {
	list := n.Parent
	return list != nil && list.Type == ast.StmtList && list.Parent != nil && list.Parent.Type == ast.FuncDecl
}

// checkCall types a call. Builtins use their fixed signatures; any other
// function must have been registered by an earlier, clean definition.
func (s *state) checkCall(n *ast.Node, d ast.CallNode) types.Type {
	sym := d.Func
	args := s.check(d.Args)

	switch {
	case sym.IsError():
		return s.propagate(n, sym.Type)
	case sym.Builtin:
		return s.record(n, types.Call(sym.Type, args), args)
	}
	if _, isFunc := sym.Type.(types.Func); !isFunc {
		return s.record(n, types.Call(sym.Type, args), args)
	}

	sig, ok := s.registry[sym]
	if !ok {
		s.warn(config.WarnUnresolvedCall, n.Tok, "call to '%s' is not checked: it is not defined before use", sym.Name)
		return s.set(n, types.Errorf("Function %s is not defined before use.", sym.Name))
	}
	return s.record(n, types.Call(sig, args), args)
}
