package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xplshn/gcrux/pkg/token"
	"github.com/xplshn/gcrux/pkg/types"
)

// Dump renders the tree one node per line, indented two spaces per level.
// When typeOf is non-nil each line is suffixed with the node's checked type.
func Dump(root *Node, typeOf func(*Node) types.Type) string {
	var sb strings.Builder
	dump(&sb, root, 0, typeOf)
	return sb.String()
}

func dump(sb *strings.Builder, n *Node, depth int, typeOf func(*Node) types.Type) {
	if n == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(sb, "%s(%d,%d)", n.Type, n.Tok.Line, n.Tok.Column)
	if label := nodeLabel(n); label != "" {
		fmt.Fprintf(sb, "[%s]", label)
	}
	if typeOf != nil {
		if t := typeOf(n); t != nil {
			fmt.Fprintf(sb, " : %s", t)
		}
	}
	sb.WriteByte('\n')
	for _, c := range Children(n) {
		dump(sb, c, depth+1, typeOf)
	}
}

func nodeLabel(n *Node) string {
	switch d := n.Data.(type) {
	case VarDeclNode: return d.Symbol.String()
	case ArrayDeclNode: return d.Symbol.String()
	case FuncDeclNode:
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			params[i] = p.String()
		}
		return d.Symbol.String() + "(" + strings.Join(params, ", ") + ")"
	case CallNode: return d.Func.String()
	case AddressOfNode: return d.Symbol.String()
	case IntLitNode: return strconv.FormatInt(d.Value, 10)
	case FloatLitNode: return strconv.FormatFloat(d.Value, 'g', -1, 64)
	case BoolLitNode: return strconv.FormatBool(d.Value)
	case BinaryOpNode: return OpString(d.Op)
	case ErrorNode: return d.Message
	}
	return ""
}

// OpString returns the source spelling of a binary operator.
func OpString(op token.Type) string {
	switch op {
	case token.Plus: return "+"
	case token.Minus: return "-"
	case token.Star: return "*"
	case token.Slash: return "/"
	case token.And: return "and"
	case token.Or: return "or"
	case token.EqEq: return "=="
	case token.Neq: return "!="
	case token.Lt: return "<"
	case token.Lte: return "<="
	case token.Gt: return ">"
	case token.Gte: return ">="
	}
	return op.String()
}
