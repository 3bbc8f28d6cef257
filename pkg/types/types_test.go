package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Int{}, "int"},
		{Float{}, "float"},
		{Bool{}, "bool"},
		{Void{}, "void"},
		{TypeList{}, "TypeList()"},
		{TypeList{Int{}, Bool{}}, "TypeList(int, bool)"},
		{Func{Params: TypeList{Int{}}, Return: Void{}}, "func(TypeList(int)):void"},
		{Array{Base: Float{}, Extents: []int{3}}, "array[3,float]"},
		{Array{Base: Int{}, Extents: []int{3, 4}}, "array[3,array[4,int]]"},
		{Address{Pointee: Int{}}, "Address(int)"},
		{Error{Message: "boom"}, "ErrorType(boom)"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEquivalent(t *testing.T) {
	fn := Func{Params: TypeList{Int{}, Float{}}, Return: Bool{}}
	arr := Array{Base: Int{}, Extents: []int{2, 3}}
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same scalar", Int{}, Int{}, true},
		{"different scalar", Int{}, Float{}, false},
		{"void", Void{}, Void{}, true},
		{"func", fn, Func{Params: TypeList{Int{}, Float{}}, Return: Bool{}}, true},
		{"func return differs", fn, Func{Params: TypeList{Int{}, Float{}}, Return: Int{}}, false},
		{"func arity differs", fn, Func{Params: TypeList{Int{}}, Return: Bool{}}, false},
		{"array", arr, Array{Base: Int{}, Extents: []int{2, 3}}, true},
		{"array extents differ", arr, Array{Base: Int{}, Extents: []int{2, 4}}, false},
		{"array rank differs", arr, Array{Base: Int{}, Extents: []int{2}}, false},
		{"address", Address{Pointee: Int{}}, Address{Pointee: Int{}}, true},
		{"empty lists", TypeList{}, TypeList{}, true},
		{"list order", TypeList{Int{}, Bool{}}, TypeList{Bool{}, Int{}}, false},
		{"error with itself", Error{Message: "x"}, Error{Message: "x"}, false},
		{"error with int", Int{}, Error{Message: "x"}, false},
		{"list holding error", TypeList{Error{Message: "x"}}, TypeList{Error{Message: "x"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equivalent(tt.b); got != tt.want {
				t.Errorf("%s.Equivalent(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Equivalent(tt.a); got != tt.want {
				t.Errorf("%s.Equivalent(%s) = %v, want %v (not symmetric)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestAlgebra(t *testing.T) {
	printInt := Func{Params: TypeList{Int{}}, Return: Void{}}
	grid := Array{Base: Int{}, Extents: []int{3, 4}}
	row := Array{Base: Bool{}, Extents: []int{3}}
	boom := Error{Message: "boom"}

	tests := []struct {
		name string
		got  Type
		want Type
	}{
		{"add int", Add(Int{}, Int{}), Int{}},
		{"add float", Add(Float{}, Float{}), Float{}},
		{"add mixed", Add(Int{}, Float{}), Errorf("Cannot add int using float.")},
		{"sub bool", Sub(Bool{}, Bool{}), Errorf("Cannot subtract bool using bool.")},
		{"mul float", Mul(Float{}, Float{}), Float{}},
		{"div mixed", Div(Float{}, Int{}), Errorf("Cannot divide float using int.")},
		{"add error operand", Add(boom, Int{}), Errorf("Cannot add ErrorType(boom) using int.")},

		{"less int", Compare(Lt, Int{}, Int{}), Bool{}},
		{"greater float", Compare(Ge, Float{}, Float{}), Bool{}},
		{"equal bool", Compare(Eq, Bool{}, Bool{}), Bool{}},
		{"not equal bool", Compare(Ne, Bool{}, Bool{}), Bool{}},
		{"order bool", Compare(Lt, Bool{}, Bool{}), Errorf("Cannot compare bool using bool.")},
		{"compare mixed", Compare(Eq, Int{}, Float{}), Errorf("Cannot compare int using float.")},

		{"and", And(Bool{}, Bool{}), Bool{}},
		{"or int", Or(Int{}, Bool{}), Errorf("Cannot or int using bool.")},
		{"and int", And(Int{}, Int{}), Errorf("Cannot and int using int.")},
		{"not bool", Not(Bool{}), Bool{}},
		{"not int", Not(Int{}), Errorf("Cannot negate int.")},

		{"call", Call(printInt, TypeList{Int{}}), Void{}},
		{"call wrong arg", Call(printInt, TypeList{Float{}}), Errorf("Cannot call func(TypeList(int)):void using TypeList(float).")},
		{"call arity", Call(printInt, TypeList{}), Errorf("Cannot call func(TypeList(int)):void using TypeList().")},
		{"call non-func", Call(Int{}, TypeList{}), Errorf("Cannot call int using TypeList().")},

		{"assign", Assign(Address{Pointee: Int{}}, Int{}), Int{}},
		{"assign mismatch", Assign(Address{Pointee: Int{}}, Float{}), Errorf("Cannot assign Address(int) using float.")},
		{"assign without address", Assign(Int{}, Int{}), Errorf("Cannot assign int using int.")},
		{"assign array", Assign(Address{Pointee: row}, row), row},

		{"index outer", Index(grid, Int{}), Array{Base: Int{}, Extents: []int{4}}},
		{"index last", Index(row, Int{}), Bool{}},
		{"index by float", Index(row, Float{}), Errorf("Cannot index array[3,bool] using float.")},
		{"index scalar", Index(Int{}, Int{}), Errorf("Cannot index int using int.")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromName(t *testing.T) {
	for name, want := range map[string]Type{
		"int":    Int{},
		"float":  Float{},
		"bool":   Bool{},
		"void":   Void{},
		"string": Errorf("Unknown type: string."),
	} {
		if diff := cmp.Diff(want, FromName(name)); diff != "" {
			t.Errorf("FromName(%q) mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestBuiltins(t *testing.T) {
	var names []string
	for _, b := range Builtins {
		names = append(names, b.Name)
		if b.Name == "printFloat" {
			if want := (Func{Params: TypeList{Float{}}, Return: Void{}}); !b.Sig.Equivalent(want) {
				t.Errorf("printFloat = %s, want %s", b.Sig, want)
			}
		}
	}
	want := []string{"readInt", "readFloat", "printBool", "printInt", "printFloat", "println"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("builtin names mismatch (-want +got):\n%s", diff)
	}
}
