package typeChecker

import (
	"github.com/xplshn/gcrux/pkg/ast"
	"github.com/xplshn/gcrux/pkg/config"
	"github.com/xplshn/gcrux/pkg/token"
	"github.com/xplshn/gcrux/pkg/types"
)

func (s *state) checkVarDecl(n *ast.Node, d ast.VarDeclNode) types.Type {
	sym := d.Symbol
	if sym.IsError() {
		return s.propagate(n, sym.Type)
	}
	switch sym.Type.(type) {
	case types.Void, types.Error:
		return s.record(n, types.Errorf("Variable %s has invalid type %s.", sym.Name, sym.Type))
	}
	return s.set(n, sym.Type)
}

// checkArrayDecl follows the scalar rule for the base type and additionally
// requires every extent to be positive.
func (s *state) checkArrayDecl(n *ast.Node, d ast.ArrayDeclNode) types.Type {
	sym := d.Symbol
	if sym.IsError() {
		return s.propagate(n, sym.Type)
	}
	switch d.Base.(type) {
	case types.Void, types.Error:
		return s.record(n, types.Errorf("Array %s has invalid base type %s.", sym.Name, d.Base))
	}
	for i, extent := range d.Extents {
		if extent <= 0 {
			return s.record(n, types.Errorf("Array %s has invalid extent %d in dimension %d.", sym.Name, extent, i))
		}
	}
	return s.set(n, sym.Type)
}

// checkFuncDecl validates the signature, checks the body, and compares the
// body's realized return type with the declared one. Only a definition that
// produced no diagnostics at all is registered for later calls.
func (s *state) checkFuncDecl(n *ast.Node, d ast.FuncDeclNode) types.Type {
	sym := d.Symbol
	name := sym.Name
	before := len(s.res.Errors)

	// Symbols that failed to declare were reported by the parser; they
	// only keep the function out of the registry.
	var declErr types.Type
	note := func(t types.Type) {
		if declErr == nil {
			declErr = t
		}
	}
	fail := func(e types.Error) {
		note(e)
		s.report(n.Tok, e.Message)
	}

	if sym.IsError() {
		note(sym.Type)
	}

	params := make(types.TypeList, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.Type
		switch pt := p.Type.(type) {
		case types.Error:
			if p.IsError() {
				note(pt)
			} else {
				fail(types.Errorf("Function %s has an error in argument in position %d: %s", name, i, pt.Message))
			}
		case types.Void:
			fail(types.Errorf("Function %s has a void argument in position %d.", name, i))
		}
	}

	isMain := name == "main"
	if isMain && len(d.Params) > 0 {
		s.warn(config.WarnMainParams, n.Tok, "main should not declare parameters")
	}
	validSig := !isMain || types.IsVoid(d.ReturnType)
	if !validSig {
		fail(types.Errorf("Function main has invalid signature."))
	}

	prev := s.fn
	s.fn = &funcCtx{name: name, ret: d.ReturnType, checkReturns: validSig}
	body := d.Body.Data.(ast.StmtListNode)
	realized := s.checkStmts(body)
	s.fn = prev

	if validSig {
		s.checkRealizedReturn(d, body, realized)
	} else {
		s.propagate(d.Body, realized)
	}

	sig := types.Func{Params: params, Return: d.ReturnType}
	if declErr != nil {
		return s.set(n, declErr)
	}
	if len(s.res.Errors) == before && !sym.IsError() {
		s.registry[sym] = sig
	}
	return s.set(n, sig)
}

func (s *state) checkRealizedReturn(d ast.FuncDeclNode, body ast.StmtListNode, realized types.Type) {
	if s.cfg.IsFeatureEnabled(config.FeatNestedReturns) && blockReturns(body) {
		// Each return was already compared on its own.
		s.propagate(d.Body, realized)
		return
	}
	if d.ReturnType.Equivalent(realized) {
		s.propagate(d.Body, realized)
		return
	}
	e := types.Errorf("Function %s returns %s not %s.", d.Symbol.Name, d.ReturnType, realized)
	s.set(d.Body, e)
	if s.cfg.IsFeatureEnabled(config.FeatSuppressCascade) && anyError(realized) {
		return
	}
	s.report(returnSite(body), e.Message)
}

// returnSite is where a return type mismatch is reported: the last
// top-level return, or the closing brace of a body without one.
func returnSite(body ast.StmtListNode) token.Token {
	for i := len(body.Stmts) - 1; i >= 0; i-- {
		if body.Stmts[i].Type == ast.Return {
			return body.Stmts[i].Tok
		}
	}
	return body.End
}

// blockReturns reports whether every path through the block ends in a
// return: a top-level return, or an if/else whose branches both return.
func blockReturns(body ast.StmtListNode) bool {
	for _, stmt := range body.Stmts {
		switch d := stmt.Data.(type) {
		case ast.ReturnNode:
			return true
		case ast.IfNode:
			if d.Else == nil {
				continue
			}
			then, ok1 := d.Then.Data.(ast.StmtListNode)
			els, ok2 := d.Else.Data.(ast.StmtListNode)
			if ok1 && ok2 && blockReturns(then) && blockReturns(els) {
				return true
			}
		}
	}
	return false
}
