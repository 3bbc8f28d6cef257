package types

// Builtin describes one of the operations every Crux program can call
// without declaring it.
type Builtin struct {
	Name string
	Sig  Func
}

// Builtins lists the builtin operations in the order they are bound in the
// root scope.
var Builtins = []Builtin{
	{"readInt", Func{Params: TypeList{}, Return: Int{}}},
	{"readFloat", Func{Params: TypeList{}, Return: Float{}}},
	{"printBool", Func{Params: TypeList{Bool{}}, Return: Void{}}},
	{"printInt", Func{Params: TypeList{Int{}}, Return: Void{}}},
	{"printFloat", Func{Params: TypeList{Float{}}, Return: Void{}}},
	{"println", Func{Params: TypeList{}, Return: Void{}}},
}
