package opexpr

import "fmt"

type env map[string]any

// Eval evaluates a validated expression against the given variables. Values
// are nil, bool, int64, float64, string or geom.Vec.
func Eval(n Node, vars map[string]any) (any, error) {
	return n.eval(env(vars))
}

func (n *Constant) eval(env) (any, error) { return n.Value, nil }

func (n *Name) eval(e env) (any, error) {
	v, ok := e[n.ID]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownVariable, n.ID)
	}
	return v, nil
}

// BoolOp returns the deciding operand rather than a bool.
func (n *BoolOp) eval(e env) (any, error) {
	var v any
	for _, operand := range n.Values {
		var err error
		if v, err = operand.eval(e); err != nil {
			return nil, err
		}
		if Truthy(v) == (n.Op == Or) {
			return v, nil
		}
	}
	return v, nil
}

func (n *BinOp) eval(e env) (any, error) {
	left, err := n.Left.eval(e)
	if err != nil {
		return nil, err
	}
	right, err := n.Right.eval(e)
	if err != nil {
		return nil, err
	}
	return binary(n.Op, left, right)
}

func (n *UnaryOp) eval(e env) (any, error) {
	v, err := n.Operand.eval(e)
	if err != nil {
		return nil, err
	}
	return unary(n.Op, v)
}

func (n *Compare) eval(e env) (any, error) {
	left, err := n.Left.eval(e)
	if err != nil {
		return nil, err
	}
	for i, op := range n.Ops {
		right, err := n.Comparators[i].eval(e)
		if err != nil {
			return nil, err
		}
		ok, err := compare(op, left, right)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		left = right
	}
	return true, nil
}

func (n *IfExp) eval(e env) (any, error) {
	test, err := n.Test.eval(e)
	if err != nil {
		return nil, err
	}
	if Truthy(test) {
		return n.Body.eval(e)
	}
	return n.OrElse.eval(e)
}

func (n *Subscript) eval(e env) (any, error) {
	v, err := n.Value.eval(e)
	if err != nil {
		return nil, err
	}
	if s, ok := n.Index.(*Slice); ok {
		str, isStr := v.(string)
		if !isStr {
			return nil, evalErrorf("'%s' object cannot be sliced", typeName(v))
		}
		parts := [3]any{}
		for i, part := range []Node{s.Lower, s.Upper, s.Step} {
			if part == nil {
				continue
			}
			if parts[i], err = part.eval(e); err != nil {
				return nil, err
			}
		}
		return sliceString(str, parts[0], parts[1], parts[2])
	}
	index, err := n.Index.eval(e)
	if err != nil {
		return nil, err
	}
	return subscript(v, index)
}

// A bare slice only appears inside a subscript.
func (n *Slice) eval(env) (any, error) {
	return nil, evalErrorf("slice outside of a subscript")
}

func rejected(n Node) (any, error) {
	return nil, fmt.Errorf("%w: node at offset %d cannot be evaluated", ErrNotPermitted, n.Pos())
}

func (n *Call) eval(env) (any, error)      { return rejected(n) }
func (n *Attribute) eval(env) (any, error) { return rejected(n) }
func (n *Tuple) eval(env) (any, error)     { return rejected(n) }
func (n *List) eval(env) (any, error)      { return rejected(n) }
func (n *Dict) eval(env) (any, error)      { return rejected(n) }
func (n *Set) eval(env) (any, error)       { return rejected(n) }
func (n *Lambda) eval(env) (any, error)    { return rejected(n) }
func (n *NamedExpr) eval(env) (any, error) { return rejected(n) }
