// Package symbols implements the scope-chained symbol table. Scopes nest by
// parent link; only the active path is live while a program is parsed, but
// symbols stay reachable from the syntax tree after their scope is exited.
package symbols

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xplshn/gcrux/pkg/types"
)

var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrRedeclaration  = errors.New("symbol redeclared")
)

// NotFoundError is returned by Lookup when no scope in the chain binds Name.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string        { return "Could not find " + e.Name + "." }
func (e *NotFoundError) Is(target error) bool { return target == ErrSymbolNotFound }

// RedeclarationError is returned by Insert when the current scope already
// binds the name.
type RedeclarationError struct{ Existing *Symbol }

func (e *RedeclarationError) Error() string        { return e.Existing.Name + " already exists." }
func (e *RedeclarationError) Is(target error) bool { return target == ErrRedeclaration }

// Symbol binds a name to a type. The type never changes after declaration.
type Symbol struct {
	Name    string
	Type    types.Type
	Builtin bool
	err     error
}

// NewErrorSymbol stands in for a symbol that failed to resolve or declare.
// Its type is an Error carrying err's text, so every use of it fails to type.
func NewErrorSymbol(name string, err error) *Symbol {
	return &Symbol{Name: name, Type: types.Error{Message: err.Error()}, err: err}
}

func (s *Symbol) IsError() bool { return s.err != nil }

// Err returns the failure an error symbol was created for.
func (s *Symbol) Err() error { return s.err }

func (s *Symbol) String() string {
	if s.IsError() {
		return "ErrorSymbol(" + s.err.Error() + ")"
	}
	return fmt.Sprintf("Symbol(%s:%s)", s.Name, s.Type)
}

type Scope struct {
	parent   *Scope
	depth    int
	bindings map[string]*Symbol
	order    []*Symbol
}

func newScope(parent *Scope) *Scope {
	s := &Scope{parent: parent, bindings: make(map[string]*Symbol)}
	if parent != nil {
		s.depth = parent.depth + 1
	}
	return s
}

func (s *Scope) Parent() *Scope { return s.parent }
func (s *Scope) Depth() int     { return s.depth }

// Symbols returns the scope's own bindings in insertion order.
func (s *Scope) Symbols() []*Symbol { return s.order }

// Insert binds name in this scope only. Binding a name that an enclosing
// scope already binds is legal shadowing.
func (s *Scope) Insert(name string, typ types.Type) (*Symbol, error) {
	if existing, ok := s.bindings[name]; ok {
		return nil, &RedeclarationError{Existing: existing}
	}
	sym := &Symbol{Name: name, Type: typ}
	s.bindings[name] = sym
	s.order = append(s.order, sym)
	return sym, nil
}

// Lookup searches this scope and then each parent in turn.
func (s *Scope) Lookup(name string) (*Symbol, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.bindings[name]; ok {
			return sym, nil
		}
	}
	return nil, &NotFoundError{Name: name}
}

// LookupLocal only searches this scope.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.bindings[name]
	return sym, ok
}

// String dumps the chain from the root down, indenting each level.
func (s *Scope) String() string {
	var sb strings.Builder
	if s.parent != nil {
		sb.WriteString(s.parent.String())
	}
	indent := strings.Repeat("  ", s.depth)
	for _, sym := range s.order {
		fmt.Fprintf(&sb, "%s%s\n", indent, sym)
	}
	return sb.String()
}

// Table tracks the active scope while a program is parsed.
type Table struct {
	current *Scope
	root    *Scope
}

// NewTable creates a table whose root scope holds the builtin operations.
// Program-level declarations are bound in that same root scope, so a program
// cannot redeclare a builtin.
func NewTable() *Table {
	root := newScope(nil)
	for _, b := range types.Builtins {
		sym, _ := root.Insert(b.Name, b.Sig)
		sym.Builtin = true
	}
	return &Table{current: root, root: root}
}

func (t *Table) Current() *Scope { return t.current }
func (t *Table) Root() *Scope    { return t.root }
func (t *Table) Depth() int      { return t.current.depth }

func (t *Table) Enter() { t.current = newScope(t.current) }

// Exit pops one level. The root scope is never popped.
func (t *Table) Exit() {
	if t.current.parent != nil {
		t.current = t.current.parent
	}
}

func (t *Table) Insert(name string, typ types.Type) (*Symbol, error) {
	return t.current.Insert(name, typ)
}

func (t *Table) Lookup(name string) (*Symbol, error) {
	return t.current.Lookup(name)
}

// Shadows reports whether declaring name now would hide a binding of an
// enclosing scope.
func (t *Table) Shadows(name string) (*Symbol, bool) {
	if _, ok := t.current.bindings[name]; ok {
		return nil, false
	}
	if t.current.parent == nil {
		return nil, false
	}
	sym, err := t.current.parent.Lookup(name)
	if err != nil || sym.Builtin {
		return nil, false
	}
	return sym, true
}

func (t *Table) String() string { return t.current.String() }
