package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/gcrux/pkg/ast"
	"github.com/xplshn/gcrux/pkg/config"
	"github.com/xplshn/gcrux/pkg/lexer"
)

func parse(t *testing.T, src string, cfg *config.Config) (*Parser, *ast.Node) {
	t.Helper()
	p := NewParser(lexer.NewLexer([]rune(src), 0).All(), cfg)
	return p, p.Parse()
}

func find(root *ast.Node, typ ast.NodeType) []*ast.Node {
	var out []*ast.Node
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Type == typ {
			out = append(out, n)
		}
		return true
	})
	return out
}

func TestParseTree(t *testing.T) {
	src := "var x: int;\nfunc main(): void {\n  let x = 1 + 2;\n}\n"
	p, root := parse(t, src, nil)
	if p.HasError() {
		t.Fatalf("unexpected syntax error: %s", p.ErrorReport())
	}
	want := `DeclarationList(1,1)
  VariableDeclaration(1,1)[Symbol(x:int)]
  FunctionDefinition(2,1)[Symbol(main:func(TypeList()):void)()]
    StatementList(2,19)
      Assignment(3,3)
        AddressOf(3,7)[Symbol(x:int)]
        BinaryOp(3,13)[+]
          LiteralInt(3,11)[1]
          LiteralInt(3,15)[2]
`
	if diff := cmp.Diff(want, ast.Dump(root, nil)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestPrecedence(t *testing.T) {
	src := "func main(): void { ::printBool(not 1 + 2 * 3 < 4 or false); }"
	p, root := parse(t, src, nil)
	if p.HasError() {
		t.Fatalf("unexpected syntax error: %s", p.ErrorReport())
	}
	args := find(root, ast.ExprList)
	if len(args) != 1 {
		t.Fatalf("found %d argument lists, want 1", len(args))
	}
	cmpNode := args[0].Data.(ast.ExprListNode).Exprs[0]
	bin, ok := cmpNode.Data.(ast.BinaryOpNode)
	if !ok || ast.OpString(bin.Op) != "<" {
		t.Fatalf("top-level operator is %s, want <", cmpNode.Type)
	}
	left := bin.Left.Data.(ast.BinaryOpNode)
	if ast.OpString(left.Op) != "+" || left.Left.Type != ast.Not {
		t.Errorf("left of < should be (not 1) + ..., got %s with %s", ast.OpString(left.Op), left.Left.Type)
	}
	if mul := left.Right.Data.(ast.BinaryOpNode); ast.OpString(mul.Op) != "*" {
		t.Errorf("2 * 3 should bind tighter than +, got %s", ast.OpString(mul.Op))
	}
	if right := bin.Right.Data.(ast.BinaryOpNode); ast.OpString(right.Op) != "or" {
		t.Errorf("right of < should be 4 or false, got %s", ast.OpString(right.Op))
	}
}

func TestDesignators(t *testing.T) {
	src := "array a: int[2][3];\nfunc main(): void { let a[0][1] = a[1][2]; }"
	p, root := parse(t, src, nil)
	if p.HasError() {
		t.Fatalf("unexpected syntax error: %s", p.ErrorReport())
	}
	assign := find(root, ast.Assign)[0].Data.(ast.AssignNode)
	if assign.Dest.Type != ast.Index {
		t.Errorf("assignment target is %s, want a bare Index", assign.Dest.Type)
	}
	if assign.Source.Type != ast.Deref {
		t.Errorf("assignment source is %s, want Dereference", assign.Source.Type)
	}
	inner := assign.Dest.Data.(ast.IndexNode).Base
	if inner.Type != ast.Index || inner.Data.(ast.IndexNode).Base.Type != ast.AddressOf {
		t.Errorf("a[0][1] should nest Index(Index(AddressOf))")
	}

	decl := find(root, ast.ArrayDecl)[0].Data.(ast.ArrayDeclNode)
	if diff := cmp.Diff([]int{2, 3}, decl.Extents); diff != "" {
		t.Errorf("extents mismatch (-want +got):\n%s", diff)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"missing semicolon", "var x: int\nfunc", "SyntaxError(2,1)[Expected SEMICOLON but got FUNC.]"},
		{"bad declaration", "let x = 1;", "SyntaxError(1,1)[Expected a token from DECLARATION but got LET.]"},
		{"bad statement", "func main(): void { 1; }", "SyntaxError(1,21)[Expected a token from STATEMENT but got INTEGER.]"},
		{"dangling operator", "func main(): void { let x = 1 +; }", "SyntaxError(1,32)[Expected a token from EXPRESSION3 but got SEMICOLON.]"},
		{"unexpected character", "var x: int;\n%", "SyntaxError(2,1)[Expected a token from DECLARATION but got ERROR.]"},
		{"array without extent", "array a: int;", "SyntaxError(1,13)[Expected OPEN_BRACKET but got SEMICOLON.]"},
		{"extent overflow", "array a: int[99999999999999999999];", "SyntaxError(1,14)[Array extent 99999999999999999999 is out of range.]"},
		{"integer overflow", "func main(): void { ::printInt(99999999999999999999); }", "SyntaxError(1,32)[Integer literal 99999999999999999999 is out of range.]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, root := parse(t, tt.src, nil)
			if !p.HasError() {
				t.Fatal("expected a syntax error")
			}
			if diff := cmp.Diff(tt.want, p.ErrorReport()); diff != "" {
				t.Errorf("report mismatch (-want +got):\n%s", diff)
			}
			if root == nil || root.Type != ast.Error {
				t.Errorf("root after a syntax error should be an Error node, got %v", root)
			}
		})
	}
}

func TestResolution(t *testing.T) {
	src := `var x: int;
var x: bool;
func f(a: int): int {
	if true {
		var b: int;
	}
	let b = a;
	return ::f(a);
}
`
	p, root := parse(t, src, nil)
	if !p.HasError() {
		t.Fatal("expected symbol errors")
	}
	wantReport := "DeclareSymbolError(2,5)[x already exists.]\nResolveSymbolError(7,6)[Could not find b.]"
	if diff := cmp.Diff(wantReport, p.ErrorReport()); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	if root.Type != ast.DeclList {
		t.Errorf("symbol errors should not stop parsing, root is %s", root.Type)
	}

	vars := find(root, ast.VarDecl)
	if dup := vars[1].Data.(ast.VarDeclNode).Symbol; !dup.IsError() || dup.Type.String() != "ErrorType(x already exists.)" {
		t.Errorf("second x = %s, want a redeclaration error symbol", dup)
	}

	addrs := find(root, ast.AddressOf)
	var names []string
	for _, n := range addrs {
		names = append(names, n.Data.(ast.AddressOfNode).Symbol.String())
	}
	want := []string{"ErrorSymbol(Could not find b.)", "Symbol(a:int)", "Symbol(a:int)"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("resolved symbols mismatch (-want +got):\n%s", diff)
	}

	fn := find(root, ast.FuncDecl)[0].Data.(ast.FuncDeclNode)
	call := find(root, ast.Call)[0].Data.(ast.CallNode)
	if call.Func != fn.Symbol {
		t.Errorf("recursive call resolved to %s, want the function's own symbol", call.Func)
	}
	if p.Table().Current() != p.Table().Root() {
		t.Error("parser left a scope open")
	}
}

func TestParserWarnings(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnShadow, true)
	src := "var x: int;\nvar println: int;\nfunc f(x: bool): void { }"
	p, _ := parse(t, src, cfg)
	if want := "DeclareSymbolError(2,5)[println already exists.]"; p.ErrorReport() != want {
		t.Errorf("report = %q, want %q", p.ErrorReport(), want)
	}

	var got []string
	for _, d := range p.Warnings() {
		got = append(got, d.String())
	}
	want := []string{
		"Warning(2,5)['println' is a builtin operation]",
		"Warning(3,8)[Declaration of 'x' shadows an enclosing declaration of type int]",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}

	// By default only the builtin warning is on.
	p, _ = parse(t, src, nil)
	if len(p.Warnings()) != 1 {
		t.Errorf("default config produced %d warnings, want 1", len(p.Warnings()))
	}
}

func TestSymbolErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"undeclared variable", "func main(): void {\n\t::printInt(x);\n}\n",
			"ResolveSymbolError(2,13)[Could not find x.]"},
		{"undeclared function", "func main(): void { ::foo(); }",
			"ResolveSymbolError(1,23)[Could not find foo.]"},
		{"call before definition", "func main(): void { ::later(); }\nfunc later(): void { }",
			"ResolveSymbolError(1,23)[Could not find later.]"},
		{"duplicate parameter", "func f(a: int, a: bool): void { }",
			"DeclareSymbolError(1,16)[a already exists.]"},
		{"duplicate function", "func f(): void { }\nfunc f(): void { }",
			"DeclareSymbolError(2,6)[f already exists.]"},
		{"builtin redeclared", "var println: int;",
			"DeclareSymbolError(1,5)[println already exists.]"},
		{"every use is reported", "func main(): void { let y = y + 1; }",
			"ResolveSymbolError(1,25)[Could not find y.]\nResolveSymbolError(1,29)[Could not find y.]"},
		{"symbol error then syntax error", "func main(): void { ::nope() }",
			"ResolveSymbolError(1,23)[Could not find nope.]\nSyntaxError(1,30)[Expected SEMICOLON but got CLOSE_BRACE.]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := parse(t, tt.src, nil)
			if !p.HasError() {
				t.Fatal("expected a parser error")
			}
			if diff := cmp.Diff(tt.want, p.ErrorReport()); diff != "" {
				t.Errorf("report mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
