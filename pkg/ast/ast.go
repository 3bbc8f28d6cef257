// Package ast defines the types used to represent the Crux syntax tree
package ast

import (
	"github.com/xplshn/gcrux/pkg/symbols"
	"github.com/xplshn/gcrux/pkg/token"
	"github.com/xplshn/gcrux/pkg/types"
)

// NodeType defines the kind of a node in the AST
type NodeType int

// Node types enum
const (
	// Lists
	DeclList NodeType = iota
	StmtList
	ExprList

	// Declarations
	VarDecl
	ArrayDecl
	FuncDecl

	// Statements
	Assign
	Call
	If
	While
	Return

	// Expressions
	IntLit
	FloatLit
	BoolLit
	AddressOf
	Index
	Not
	Deref
	BinaryOp

	// Placeholder for a construct the parser could not build
	Error
)

var nodeTypeNames = [...]string{
	DeclList: "DeclarationList", StmtList: "StatementList", ExprList: "ExpressionList",
	VarDecl: "VariableDeclaration", ArrayDecl: "ArrayDeclaration", FuncDecl: "FunctionDefinition",
	Assign: "Assignment", Call: "Call", If: "IfElseBranch", While: "WhileLoop", Return: "Return",
	IntLit: "LiteralInt", FloatLit: "LiteralFloat", BoolLit: "LiteralBool",
	AddressOf: "AddressOf", Index: "Index", Not: "LogicalNot", Deref: "Dereference",
	BinaryOp: "BinaryOp", Error: "Error",
}

func (t NodeType) String() string {
	if int(t) >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "Unknown"
}

// Node represents a node in the syntax tree. Tok is the first token of the
// construct and supplies the position used in diagnostics.
type Node struct {
	Type   NodeType
	Tok    token.Token
	Parent *Node
	Data   interface{}
}

// --- Node Data Structs ---
type DeclListNode struct{ Decls []*Node }

// End is the closing brace of a statement block; it is the zero token for a
// list that was not written between braces.
type StmtListNode struct {
	Stmts []*Node
	End   token.Token
}
type ExprListNode struct{ Exprs []*Node }

type VarDeclNode struct{ Symbol *symbols.Symbol }
type ArrayDeclNode struct {
	Symbol  *symbols.Symbol
	Base    types.Type
	Extents []int
}
type FuncDeclNode struct {
	Symbol     *symbols.Symbol
	Params     []*symbols.Symbol
	ReturnType types.Type
	Body       *Node
}

type AssignNode struct{ Dest, Source *Node }
type CallNode struct {
	Func *symbols.Symbol
	Args *Node
}
type IfNode struct{ Cond, Then, Else *Node }
type WhileNode struct{ Cond, Body *Node }
type ReturnNode struct{ Expr *Node }

type IntLitNode struct{ Value int64 }
type FloatLitNode struct{ Value float64 }
type BoolLitNode struct{ Value bool }
type AddressOfNode struct{ Symbol *symbols.Symbol }
type IndexNode struct{ Base, Amount *Node }
type NotNode struct{ Expr *Node }
type DerefNode struct{ Expr *Node }
type BinaryOpNode struct {
	Op          token.Type
	Left, Right *Node
}
type ErrorNode struct{ Message string }

// --- Node Constructors ---

func newNode(tok token.Token, nodeType NodeType, data interface{}, children ...*Node) *Node {
	node := &Node{Type: nodeType, Tok: tok, Data: data}
	for _, child := range children {
		if child != nil {
			child.Parent = node
		}
	}
	return node
}

func NewDeclList(tok token.Token, decls []*Node) *Node {
	return newNode(tok, DeclList, DeclListNode{Decls: decls}, decls...)
}
func NewStmtList(tok token.Token, stmts []*Node, end token.Token) *Node {
	return newNode(tok, StmtList, StmtListNode{Stmts: stmts, End: end}, stmts...)
}
func NewExprList(tok token.Token, exprs []*Node) *Node {
	return newNode(tok, ExprList, ExprListNode{Exprs: exprs}, exprs...)
}
func NewVarDecl(tok token.Token, sym *symbols.Symbol) *Node {
	return newNode(tok, VarDecl, VarDeclNode{Symbol: sym})
}
func NewArrayDecl(tok token.Token, sym *symbols.Symbol, base types.Type, extents []int) *Node {
	return newNode(tok, ArrayDecl, ArrayDeclNode{Symbol: sym, Base: base, Extents: extents})
}
func NewFuncDecl(tok token.Token, sym *symbols.Symbol, params []*symbols.Symbol, returnType types.Type, body *Node) *Node {
	return newNode(tok, FuncDecl, FuncDeclNode{Symbol: sym, Params: params, ReturnType: returnType, Body: body}, body)
}
func NewAssign(tok token.Token, dest, source *Node) *Node {
	return newNode(tok, Assign, AssignNode{Dest: dest, Source: source}, dest, source)
}
func NewCall(tok token.Token, fn *symbols.Symbol, args *Node) *Node {
	return newNode(tok, Call, CallNode{Func: fn, Args: args}, args)
}
func NewIf(tok token.Token, cond, thenBody, elseBody *Node) *Node {
	return newNode(tok, If, IfNode{Cond: cond, Then: thenBody, Else: elseBody}, cond, thenBody, elseBody)
}
func NewWhile(tok token.Token, cond, body *Node) *Node {
	return newNode(tok, While, WhileNode{Cond: cond, Body: body}, cond, body)
}
func NewReturn(tok token.Token, expr *Node) *Node {
	return newNode(tok, Return, ReturnNode{Expr: expr}, expr)
}
func NewIntLit(tok token.Token, value int64) *Node {
	return newNode(tok, IntLit, IntLitNode{Value: value})
}
func NewFloatLit(tok token.Token, value float64) *Node {
	return newNode(tok, FloatLit, FloatLitNode{Value: value})
}
func NewBoolLit(tok token.Token, value bool) *Node {
	return newNode(tok, BoolLit, BoolLitNode{Value: value})
}
func NewAddressOf(tok token.Token, sym *symbols.Symbol) *Node {
	return newNode(tok, AddressOf, AddressOfNode{Symbol: sym})
}
func NewIndex(tok token.Token, base, amount *Node) *Node {
	return newNode(tok, Index, IndexNode{Base: base, Amount: amount}, base, amount)
}
func NewNot(tok token.Token, expr *Node) *Node {
	return newNode(tok, Not, NotNode{Expr: expr}, expr)
}
func NewDeref(tok token.Token, expr *Node) *Node {
	return newNode(tok, Deref, DerefNode{Expr: expr}, expr)
}
func NewBinaryOp(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(tok, BinaryOp, BinaryOpNode{Op: op, Left: left, Right: right}, left, right)
}
func NewError(tok token.Token, message string) *Node {
	return newNode(tok, Error, ErrorNode{Message: message})
}

// Children returns the direct sub-nodes of n in source order.
func Children(n *Node) []*Node {
	if n == nil {
		return nil
	}
	var kids []*Node
	add := func(nodes ...*Node) {
		for _, c := range nodes {
			if c != nil {
				kids = append(kids, c)
			}
		}
	}
	switch d := n.Data.(type) {
	case DeclListNode: add(d.Decls...)
	case StmtListNode: add(d.Stmts...)
	case ExprListNode: add(d.Exprs...)
	case FuncDeclNode: add(d.Body)
	case AssignNode: add(d.Dest, d.Source)
	case CallNode: add(d.Args)
	case IfNode: add(d.Cond, d.Then, d.Else)
	case WhileNode: add(d.Cond, d.Body)
	case ReturnNode: add(d.Expr)
	case IndexNode: add(d.Base, d.Amount)
	case NotNode: add(d.Expr)
	case DerefNode: add(d.Expr)
	case BinaryOpNode: add(d.Left, d.Right)
	}
	return kids
}

// Walk calls fn for n and every node below it, parents first. Returning
// false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}
