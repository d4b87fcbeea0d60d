package opexpr

// Node is a parsed expression. The set of node types is closed: every type
// decides for itself whether it passes validation and how it evaluates, so a
// new node type cannot be added without choosing both.
type Node interface {
	// Pos is the byte offset of the node in the source text.
	Pos() int

	validate(c *checker) error
	eval(e env) (any, error)
}

// ExprContext says whether a name is read or written.
type ExprContext int

const (
	Load ExprContext = iota
	Store
)

// BoolOperator is "and" or "or".
type BoolOperator int

const (
	And BoolOperator = iota
	Or
)

func (o BoolOperator) String() string {
	if o == And {
		return "and"
	}
	return "or"
}

// BinOperator is an arithmetic or bitwise operator.
type BinOperator int

const (
	Add BinOperator = iota
	Sub
	Mult
	MatMult
	Div
	FloorDiv
	Mod
	Pow
	LShift
	RShift
	BitOr
	BitXor
	BitAnd
)

var binOpNames = [...]string{
	Add: "+", Sub: "-", Mult: "*", MatMult: "@", Div: "/", FloorDiv: "//",
	Mod: "%", Pow: "**", LShift: "<<", RShift: ">>", BitOr: "|", BitXor: "^",
	BitAnd: "&",
}

func (o BinOperator) String() string { return binOpNames[o] }

// UnaryOperator is one of "not", "-", "+" and "~".
type UnaryOperator int

const (
	Not UnaryOperator = iota
	USub
	UAdd
	Invert
)

var unaryOpNames = [...]string{Not: "not", USub: "-", UAdd: "+", Invert: "~"}

func (o UnaryOperator) String() string { return unaryOpNames[o] }

// CmpOperator is a comparison operator.
type CmpOperator int

const (
	Eq CmpOperator = iota
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn
)

var cmpOpNames = [...]string{
	Eq: "==", NotEq: "!=", Lt: "<", LtE: "<=", Gt: ">", GtE: ">=",
	Is: "is", IsNot: "is not", In: "in", NotIn: "not in",
}

func (o CmpOperator) String() string { return cmpOpNames[o] }

type position int

func (p position) Pos() int { return int(p) }

// Constant is a literal: int64, float64, string, bool or nil.
type Constant struct {
	position
	Value any
}

// Name is a variable reference.
type Name struct {
	position
	ID  string
	Ctx ExprContext
}

// BoolOp is a chain of "and" or "or".
type BoolOp struct {
	position
	Op     BoolOperator
	Values []Node
}

// BinOp is a binary arithmetic or bitwise operation.
type BinOp struct {
	position
	Op          BinOperator
	Left, Right Node
}

// UnaryOp is a prefix operation.
type UnaryOp struct {
	position
	Op      UnaryOperator
	Operand Node
}

// Compare is a possibly chained comparison such as a < b <= c.
type Compare struct {
	position
	Left        Node
	Ops         []CmpOperator
	Comparators []Node
}

// IfExp is the conditional expression "body if test else orelse".
type IfExp struct {
	position
	Test, Body, OrElse Node
}

// Subscript is value[index]. Index may be a *Slice.
type Subscript struct {
	position
	Value, Index Node
}

// Slice is lower:upper:step inside a subscript. Any part may be nil.
type Slice struct {
	position
	Lower, Upper, Step Node
}

// The remaining node types are parsed so they can be reported precisely, but
// never pass validation.

// Call is a function call.
type Call struct {
	position
	Func Node
	Args []Node
}

// Attribute is value.attr.
type Attribute struct {
	position
	Value Node
	Attr  string
}

// Tuple is a parenthesised or bare comma list.
type Tuple struct {
	position
	Elts []Node
}

// List is a [...] display.
type List struct {
	position
	Elts []Node
}

// Dict is a {key: value} display.
type Dict struct {
	position
	Keys, Values []Node
}

// Set is a {a, b} display.
type Set struct {
	position
	Elts []Node
}

// Lambda is an anonymous function.
type Lambda struct {
	position
	Params []string
	Body   Node
}

// NamedExpr is the assignment expression target := value.
type NamedExpr struct {
	position
	Target *Name
	Value  Node
}
