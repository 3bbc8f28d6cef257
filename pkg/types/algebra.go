package types

// CompareOp selects the relation checked by Compare.
type CompareOp int

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op CompareOp) String() string {
	switch op {
	case Eq: return "=="
	case Ne: return "!="
	case Lt: return "<"
	case Le: return "<="
	case Gt: return ">"
	case Ge: return ">="
	}
	return "?"
}

// Ordering operators are only defined on numbers; equality also covers bool.
func (op CompareOp) IsEquality() bool { return op == Eq || op == Ne }

func cannot(op string, lhs, rhs Type) Error {
	return Errorf("Cannot %s %s using %s.", op, typeString(lhs), typeString(rhs))
}

// sameNumeric returns the shared numeric variant of lhs and rhs, if any.
// There is no widening between int and float.
func sameNumeric(lhs, rhs Type) (Type, bool) {
	switch lhs.(type) {
	case Int:
		if _, ok := rhs.(Int); ok {
			return Int{}, true
		}
	case Float:
		if _, ok := rhs.(Float); ok {
			return Float{}, true
		}
	}
	return nil, false
}

func arithmetic(op string, lhs, rhs Type) Type {
	if t, ok := sameNumeric(lhs, rhs); ok {
		return t
	}
	return cannot(op, lhs, rhs)
}

func Add(lhs, rhs Type) Type { return arithmetic("add", lhs, rhs) }
func Sub(lhs, rhs Type) Type { return arithmetic("subtract", lhs, rhs) }
func Mul(lhs, rhs Type) Type { return arithmetic("multiply", lhs, rhs) }
func Div(lhs, rhs Type) Type { return arithmetic("divide", lhs, rhs) }

// Compare requires both operands to have the same type. Ordering is legal for
// int and float, equality additionally for bool.
func Compare(op CompareOp, lhs, rhs Type) Type {
	if _, ok := sameNumeric(lhs, rhs); ok {
		return Bool{}
	}
	if op.IsEquality() {
		if _, ok := lhs.(Bool); ok {
			if _, ok := rhs.(Bool); ok {
				return Bool{}
			}
		}
	}
	return cannot("compare", lhs, rhs)
}

func logical(op string, lhs, rhs Type) Type {
	if _, ok := lhs.(Bool); ok {
		if _, ok := rhs.(Bool); ok {
			return Bool{}
		}
	}
	return cannot(op, lhs, rhs)
}

func And(lhs, rhs Type) Type { return logical("and", lhs, rhs) }
func Or(lhs, rhs Type) Type  { return logical("or", lhs, rhs) }

func Not(t Type) Type {
	if _, ok := t.(Bool); ok {
		return Bool{}
	}
	return Errorf("Cannot negate %s.", typeString(t))
}

// Call matches args against the parameter list of fn and yields its return
// type. Arity and per-position mismatches are both errors.
func Call(fn, args Type) Type {
	f, ok := fn.(Func)
	if !ok {
		return cannot("call", fn, args)
	}
	if !f.Params.Equivalent(args) {
		return cannot("call", f, args)
	}
	return f.Return
}

// Assign expects dst wrapped as Address. The stored value must be equivalent
// to the pointee; the result is the pointee.
func Assign(dst, src Type) Type {
	a, ok := dst.(Address)
	if !ok || !equivalent(a.Pointee, src) {
		return cannot("assign", dst, src)
	}
	return a.Pointee
}

// Index peels one dimension off an array. The amount must be an int.
func Index(base, amount Type) Type {
	a, ok := base.(Array)
	if !ok {
		return cannot("index", base, amount)
	}
	if _, ok := amount.(Int); !ok {
		return cannot("index", base, amount)
	}
	return a.Elem()
}
