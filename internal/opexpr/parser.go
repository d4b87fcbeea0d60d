package opexpr

import (
	"fmt"
	"strings"
)

// Parse parses src as a single expression. Statements, such as assignments,
// and trailing input are rejected. The result has not been validated.
func Parse(src string) (Node, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	if p.peek().kind == tokEOF {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	n, err := p.parseNamedExpr()
	if err != nil {
		return nil, err
	}
	if p.isOp(",") {
		n, err = p.parseTupleRest(n)
		if err != nil {
			return nil, err
		}
	}
	switch tok := p.peek(); {
	case tok.kind == tokEOF:
		return n, nil
	case tok.kind == tokOp && (tok.text == "=" || tok.text == ";"):
		return nil, fmt.Errorf("%w: statement %q at offset %d", ErrNotExpression, tok.text, tok.pos)
	default:
		return nil, p.errorf(tok, "unexpected %s", tok)
	}
}

// maxNesting bounds how deeply expressions may nest, so hostile input fails
// with ErrSyntax instead of exhausting the stack.
const maxNesting = 200

type parser struct {
	tokens []token
	pos    int
	depth  int
}

// enter records one more level of nesting; every successful call must be
// paired with leave.
func (p *parser) enter(tok token) error {
	if p.depth >= maxNesting {
		return p.errorf(tok, "expression nested too deeply")
	}
	p.depth++
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) isOp(text string) bool {
	tok := p.peek()
	return tok.kind == tokOp && tok.text == text
}

func (p *parser) isKeyword(word string) bool {
	tok := p.peek()
	return tok.kind == tokName && tok.text == word
}

func (p *parser) acceptOp(text string) bool {
	if p.isOp(text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectOp(text string) error {
	if !p.acceptOp(text) {
		tok := p.peek()
		return p.errorf(tok, "expected %q, found %s", text, tok)
	}
	return nil
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, tok.pos, fmt.Sprintf(format, args...))
}

// parseNamedExpr handles "name := value".
func (p *parser) parseNamedExpr() (Node, error) {
	tok := p.peek()
	if tok.kind == tokName && !keywords[tok.text] && p.peekAt(1).kind == tokOp && p.peekAt(1).text == ":=" {
		p.advance()
		p.advance()
		value, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		target := &Name{position: position(tok.pos), ID: tok.text, Ctx: Store}
		return &NamedExpr{position: position(tok.pos), Target: target, Value: value}, nil
	}
	return p.parseTest()
}

// parseTest handles lambdas and conditional expressions.
func (p *parser) parseTest() (Node, error) {
	if err := p.enter(p.peek()); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.isKeyword("lambda") {
		return p.parseLambda()
	}
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("if") {
		return body, nil
	}
	p.advance()
	test, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("else") {
		tok := p.peek()
		return nil, p.errorf(tok, "expected \"else\", found %s", tok)
	}
	p.advance()
	orElse, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	return &IfExp{position: position(body.Pos()), Test: test, Body: body, OrElse: orElse}, nil
}

func (p *parser) parseLambda() (Node, error) {
	start := p.advance()
	var params []string
	for !p.isOp(":") {
		tok := p.advance()
		if tok.kind != tokName || keywords[tok.text] {
			return nil, p.errorf(tok, "invalid lambda parameter %s", tok)
		}
		params = append(params, tok.text)
		if !p.acceptOp(",") {
			break
		}
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	return &Lambda{position: position(start.pos), Params: params, Body: body}, nil
}

func (p *parser) parseBool(word string, op BoolOperator, next func() (Node, error)) (Node, error) {
	first, err := next()
	if err != nil {
		return nil, err
	}
	values := []Node{first}
	for p.isKeyword(word) {
		p.advance()
		v, err := next()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if len(values) == 1 {
		return first, nil
	}
	return &BoolOp{position: position(first.Pos()), Op: op, Values: values}, nil
}

func (p *parser) parseOr() (Node, error) {
	return p.parseBool("or", Or, p.parseAnd)
}

func (p *parser) parseAnd() (Node, error) {
	return p.parseBool("and", And, p.parseNot)
}

func (p *parser) parseNot() (Node, error) {
	if p.isKeyword("not") {
		tok := p.advance()
		if err := p.enter(tok); err != nil {
			return nil, err
		}
		defer p.leave()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{position: position(tok.pos), Op: Not, Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]CmpOperator{
	"==": Eq, "!=": NotEq, "<": Lt, "<=": LtE, ">": Gt, ">=": GtE,
}

// comparisonOp consumes a comparison operator, if one is next.
func (p *parser) comparisonOp() (CmpOperator, bool) {
	tok := p.peek()
	if tok.kind == tokOp {
		if op, ok := comparisonOps[tok.text]; ok {
			p.advance()
			return op, true
		}
		return 0, false
	}
	if tok.kind != tokName {
		return 0, false
	}
	next := p.peekAt(1)
	switch {
	case tok.text == "in":
		p.advance()
		return In, true
	case tok.text == "not" && next.kind == tokName && next.text == "in":
		p.advance()
		p.advance()
		return NotIn, true
	case tok.text == "is" && next.kind == tokName && next.text == "not":
		p.advance()
		p.advance()
		return IsNot, true
	case tok.text == "is":
		p.advance()
		return Is, true
	}
	return 0, false
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	var ops []CmpOperator
	var comparators []Node
	for {
		op, ok := p.comparisonOp()
		if !ok {
			break
		}
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comparators = append(comparators, right)
	}
	if len(ops) == 0 {
		return left, nil
	}
	return &Compare{position: position(left.Pos()), Left: left, Ops: ops, Comparators: comparators}, nil
}

// parseBinary parses a left-associative chain of the given operators.
func (p *parser) parseBinary(ops map[string]BinOperator, next func() (Node, error)) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		op, ok := ops[tok.text]
		if tok.kind != tokOp || !ok {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinOp{position: position(left.Pos()), Op: op, Left: left, Right: right}
	}
}

var (
	bitOrOps  = map[string]BinOperator{"|": BitOr}
	bitXorOps = map[string]BinOperator{"^": BitXor}
	bitAndOps = map[string]BinOperator{"&": BitAnd}
	shiftOps  = map[string]BinOperator{"<<": LShift, ">>": RShift}
	arithOps  = map[string]BinOperator{"+": Add, "-": Sub}
	termOps   = map[string]BinOperator{"*": Mult, "@": MatMult, "/": Div, "//": FloorDiv, "%": Mod}
)

func (p *parser) parseBitOr() (Node, error)  { return p.parseBinary(bitOrOps, p.parseBitXor) }
func (p *parser) parseBitXor() (Node, error) { return p.parseBinary(bitXorOps, p.parseBitAnd) }
func (p *parser) parseBitAnd() (Node, error) { return p.parseBinary(bitAndOps, p.parseShift) }
func (p *parser) parseShift() (Node, error)  { return p.parseBinary(shiftOps, p.parseArith) }
func (p *parser) parseArith() (Node, error)  { return p.parseBinary(arithOps, p.parseTerm) }
func (p *parser) parseTerm() (Node, error)   { return p.parseBinary(termOps, p.parseFactor) }

var unaryOps = map[string]UnaryOperator{"-": USub, "+": UAdd, "~": Invert}

func (p *parser) parseFactor() (Node, error) {
	tok := p.peek()
	if op, ok := unaryOps[tok.text]; ok && tok.kind == tokOp {
		p.advance()
		if err := p.enter(tok); err != nil {
			return nil, err
		}
		defer p.leave()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{position: position(tok.pos), Op: op, Operand: operand}, nil
	}
	return p.parsePower()
}

// parsePower handles "**", which is right-associative and binds tighter than
// a unary operator on its left.
func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !p.isOp("**") {
		return base, nil
	}
	tok := p.advance()
	if err := p.enter(tok); err != nil {
		return nil, err
	}
	defer p.leave()
	exp, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	return &BinOp{position: position(base.Pos()), Op: Pow, Left: base, Right: exp}, nil
}

func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokOp && tok.text == "(":
			p.advance()
			args, err := p.parseList(")")
			if err != nil {
				return nil, err
			}
			n = &Call{position: position(n.Pos()), Func: n, Args: args}
		case tok.kind == tokOp && tok.text == "[":
			p.advance()
			index, err := p.parseSubscript()
			if err != nil {
				return nil, err
			}
			n = &Subscript{position: position(n.Pos()), Value: n, Index: index}
		case tok.kind == tokOp && tok.text == ".":
			p.advance()
			attr := p.advance()
			if attr.kind != tokName {
				return nil, p.errorf(attr, "expected attribute name, found %s", attr)
			}
			n = &Attribute{position: position(n.Pos()), Value: n, Attr: attr.text}
		default:
			return n, nil
		}
	}
}

// parseSubscript parses the inside of [...], including the closing bracket.
func (p *parser) parseSubscript() (Node, error) {
	first, err := p.parseSliceItem()
	if err != nil {
		return nil, err
	}
	if p.acceptOp("]") {
		return first, nil
	}
	elts := []Node{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		item, err := p.parseSliceItem()
		if err != nil {
			return nil, err
		}
		elts = append(elts, item)
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return &Tuple{position: position(first.Pos()), Elts: elts}, nil
}

func (p *parser) parseSliceItem() (Node, error) {
	start := p.peek()
	var lower Node
	if !p.isOp(":") {
		n, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		if !p.isOp(":") {
			return n, nil
		}
		lower = n
	}
	p.advance() // ':'
	s := &Slice{position: position(start.pos), Lower: lower}
	var err error
	if !p.isOp(":") && !p.isOp("]") && !p.isOp(",") {
		if s.Upper, err = p.parseTest(); err != nil {
			return nil, err
		}
	}
	if p.acceptOp(":") && !p.isOp("]") && !p.isOp(",") {
		if s.Step, err = p.parseTest(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// parseList parses comma separated expressions up to and including the
// closing token.
func (p *parser) parseList(closing string) ([]Node, error) {
	var out []Node
	for !p.isOp(closing) {
		n, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if !p.acceptOp(",") {
			break
		}
	}
	if err := p.expectOp(closing); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseTupleRest(first Node) (Node, error) {
	elts := []Node{first}
	for p.acceptOp(",") {
		tok := p.peek()
		if tok.kind == tokEOF || (tok.kind == tokOp && (tok.text == ")" || tok.text == "=" || tok.text == ";")) {
			break
		}
		n, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		elts = append(elts, n)
	}
	return &Tuple{position: position(first.Pos()), Elts: elts}, nil
}

func (p *parser) parseAtom() (Node, error) {
	tok := p.advance()
	switch tok.kind {
	case tokInt, tokFloat:
		return &Constant{position: position(tok.pos), Value: tok.value}, nil
	case tokString:
		// Adjacent string literals are joined.
		var b strings.Builder
		b.WriteString(tok.value.(string))
		for p.peek().kind == tokString {
			b.WriteString(p.advance().value.(string))
		}
		return &Constant{position: position(tok.pos), Value: b.String()}, nil
	case tokName:
		switch tok.text {
		case "True":
			return &Constant{position: position(tok.pos), Value: true}, nil
		case "False":
			return &Constant{position: position(tok.pos), Value: false}, nil
		case "None":
			return &Constant{position: position(tok.pos), Value: nil}, nil
		}
		if keywords[tok.text] {
			return nil, p.errorf(tok, "unexpected keyword %s", tok)
		}
		return &Name{position: position(tok.pos), ID: tok.text, Ctx: Load}, nil
	case tokOp:
		switch tok.text {
		case "(":
			return p.parseParen(tok)
		case "[":
			elts, err := p.parseList("]")
			if err != nil {
				return nil, err
			}
			return &List{position: position(tok.pos), Elts: elts}, nil
		case "{":
			return p.parseBrace(tok)
		}
	case tokEOF:
		return nil, p.errorf(tok, "unexpected end of expression")
	}
	return nil, p.errorf(tok, "unexpected %s", tok)
}

func (p *parser) parseParen(open token) (Node, error) {
	if p.acceptOp(")") {
		return &Tuple{position: position(open.pos)}, nil
	}
	n, err := p.parseNamedExpr()
	if err != nil {
		return nil, err
	}
	if p.isOp(",") {
		if n, err = p.parseTupleRest(n); err != nil {
			return nil, err
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseBrace(open token) (Node, error) {
	if p.acceptOp("}") {
		return &Dict{position: position(open.pos)}, nil
	}
	first, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if !p.acceptOp(":") {
		elts := []Node{first}
		if p.acceptOp(",") {
			rest, err := p.parseList("}")
			if err != nil {
				return nil, err
			}
			elts = append(elts, rest...)
		} else if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return &Set{position: position(open.pos), Elts: elts}, nil
	}

	d := &Dict{position: position(open.pos)}
	value, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	d.Keys, d.Values = append(d.Keys, first), append(d.Values, value)
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		k, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		v, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		d.Keys, d.Values = append(d.Keys, k), append(d.Values, v)
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return d, nil
}
