package opexpr

import (
	"fmt"

	"github.com/agext/levenshtein"
)

// Validate checks that an expression only uses permitted constructs and only
// reads the declared variables. Validation is default-deny: every node type
// must explicitly allow itself.
func Validate(n Node, declared []string) error {
	c := &checker{names: make(map[string]bool, len(declared)), order: declared}
	for _, name := range declared {
		c.names[name] = true
	}
	return n.validate(c)
}

// Check parses and validates src in one step.
func Check(src string, declared []string) (Node, error) {
	n, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if err := Validate(n, declared); err != nil {
		return nil, err
	}
	return n, nil
}

type checker struct {
	names map[string]bool
	order []string
}

func (c *checker) all(nodes ...Node) error {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err := n.validate(c); err != nil {
			return err
		}
	}
	return nil
}

// suggest returns the closest declared name, if one is near enough.
func (c *checker) suggest(name string) string {
	best, bestDist := "", 3
	for _, candidate := range c.order {
		if d := levenshtein.Distance(name, candidate, nil); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

func notPermitted(n Node, what string) error {
	return fmt.Errorf("%w: %s at offset %d", ErrNotPermitted, what, n.Pos())
}

func (n *Constant) validate(*checker) error { return nil }

func (n *Name) validate(c *checker) error {
	if !c.names[n.ID] {
		if s := c.suggest(n.ID); s != "" {
			return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownVariable, n.ID, s)
		}
		return fmt.Errorf("%w %q", ErrUnknownVariable, n.ID)
	}
	if n.Ctx != Load {
		return fmt.Errorf("%w: cannot assign to %q", ErrWriteVariable, n.ID)
	}
	return nil
}

func (n *BoolOp) validate(c *checker) error  { return c.all(n.Values...) }
func (n *BinOp) validate(c *checker) error   { return c.all(n.Left, n.Right) }
func (n *UnaryOp) validate(c *checker) error { return c.all(n.Operand) }

func (n *Compare) validate(c *checker) error {
	for _, op := range n.Ops {
		switch op {
		case Is, IsNot, In, NotIn:
			return fmt.Errorf("%w: the %q operator is not allowed", ErrBannedComparison, op.String())
		}
	}
	if err := c.all(n.Left); err != nil {
		return err
	}
	return c.all(n.Comparators...)
}

func (n *IfExp) validate(c *checker) error     { return c.all(n.Test, n.Body, n.OrElse) }
func (n *Subscript) validate(c *checker) error { return c.all(n.Value, n.Index) }
func (n *Slice) validate(c *checker) error     { return c.all(n.Lower, n.Upper, n.Step) }

func (n *Call) validate(*checker) error      { return notPermitted(n, "a function call") }
func (n *Attribute) validate(*checker) error { return notPermitted(n, fmt.Sprintf("attribute access (.%s)", n.Attr)) }
func (n *Tuple) validate(*checker) error     { return notPermitted(n, "a tuple") }
func (n *List) validate(*checker) error      { return notPermitted(n, "a list") }
func (n *Dict) validate(*checker) error      { return notPermitted(n, "a dict") }
func (n *Set) validate(*checker) error       { return notPermitted(n, "a set") }
func (n *Lambda) validate(*checker) error    { return notPermitted(n, "a lambda") }

// An assignment expression fails on its target: the name is written, not
// read.
func (n *NamedExpr) validate(c *checker) error {
	if err := n.Target.validate(c); err != nil {
		return err
	}
	return notPermitted(n, "an assignment expression")
}
