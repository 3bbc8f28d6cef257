// Package types implements the Crux type algebra: a closed set of type
// variants and the operations that are legal between them. A failed operation
// yields an Error value instead of aborting, so a checker can keep going and
// collect every violation in one pass.
package types

import (
	"fmt"
	"strings"
)

// Type is implemented by every variant of the algebra. The set is closed:
// the unexported marker keeps other packages from adding variants.
type Type interface {
	String() string
	// Equivalent reports structural equivalence. Error is equivalent to nothing.
	Equivalent(other Type) bool
	isType()
}

type (
	Int   struct{}
	Float struct{}
	Bool  struct{}
	Void  struct{}

	Func struct {
		Params TypeList
		Return Type
	}

	Array struct {
		Base    Type
		Extents []int
	}

	// Address denotes an assignable location. It only appears while an
	// assignment target is being checked.
	Address struct{ Pointee Type }

	Error struct{ Message string }

	// TypeList is an ordered, positionally compared sequence of types used for
	// signatures and call arguments.
	TypeList []Type
)

func (Int) isType()      {}
func (Float) isType()    {}
func (Bool) isType()     {}
func (Void) isType()     {}
func (Func) isType()     {}
func (Array) isType()    {}
func (Address) isType()  {}
func (Error) isType()    {}
func (TypeList) isType() {}

func (Int) String() string   { return "int" }
func (Float) String() string { return "float" }
func (Bool) String() string  { return "bool" }
func (Void) String() string  { return "void" }

func (f Func) String() string { return "func(" + f.Params.String() + "):" + typeString(f.Return) }

// Multi-dimensional arrays print nested, one extent per level: array[3,array[4,int]].
func (a Array) String() string {
	if len(a.Extents) == 0 {
		return "array[" + typeString(a.Base) + "]"
	}
	return fmt.Sprintf("array[%d,%s]", a.Extents[0], typeString(a.Elem()))
}

func (a Address) String() string { return "Address(" + typeString(a.Pointee) + ")" }
func (e Error) String() string   { return "ErrorType(" + e.Message + ")" }

func (l TypeList) String() string {
	parts := make([]string, len(l))
	for i, t := range l {
		parts[i] = typeString(t)
	}
	return "TypeList(" + strings.Join(parts, ", ") + ")"
}

func typeString(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func (Int) Equivalent(o Type) bool   { _, ok := o.(Int); return ok }
func (Float) Equivalent(o Type) bool { _, ok := o.(Float); return ok }
func (Bool) Equivalent(o Type) bool  { _, ok := o.(Bool); return ok }
func (Void) Equivalent(o Type) bool  { _, ok := o.(Void); return ok }
func (Error) Equivalent(Type) bool   { return false }

func (f Func) Equivalent(o Type) bool {
	g, ok := o.(Func)
	if !ok {
		return false
	}
	return equivalent(f.Return, g.Return) && f.Params.Equivalent(g.Params)
}

func (a Array) Equivalent(o Type) bool {
	b, ok := o.(Array)
	if !ok || len(a.Extents) != len(b.Extents) {
		return false
	}
	for i := range a.Extents {
		if a.Extents[i] != b.Extents[i] {
			return false
		}
	}
	return equivalent(a.Base, b.Base)
}

func (a Address) Equivalent(o Type) bool {
	b, ok := o.(Address)
	return ok && equivalent(a.Pointee, b.Pointee)
}

func (l TypeList) Equivalent(o Type) bool {
	m, ok := o.(TypeList)
	if !ok || len(l) != len(m) {
		return false
	}
	for i := range l {
		if !equivalent(l[i], m[i]) {
			return false
		}
	}
	return true
}

func equivalent(a, b Type) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Equivalent(b)
}

// Elem is the type produced by indexing a once: the base type for the last
// dimension, otherwise an array over the remaining extents.
func (a Array) Elem() Type {
	if len(a.Extents) <= 1 {
		return a.Base
	}
	return Array{Base: a.Base, Extents: a.Extents[1:]}
}

// IsError reports whether t is the Error variant.
func IsError(t Type) bool {
	_, ok := t.(Error)
	return ok
}

func IsVoid(t Type) bool {
	_, ok := t.(Void)
	return ok
}

// Errorf builds an Error carrying a formatted message.
func Errorf(format string, args ...any) Error {
	return Error{Message: fmt.Sprintf(format, args...)}
}

// FromName resolves a type name written in source. Unknown names become an
// Error so declarations using them are rejected downstream.
func FromName(name string) Type {
	switch name {
	case "int":
		return Int{}
	case "float":
		return Float{}
	case "bool":
		return Bool{}
	case "void":
		return Void{}
	}
	return Errorf("Unknown type: %s.", name)
}
