package condition

import "fmt"

// maxDepth bounds expression nesting.
const maxDepth = 64

// SyntaxError reports a malformed condition.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg)
}

// Grammar:
//
//	expr       = or
//	or         = and { "or" and }
//	and        = not { "and" not }
//	not        = "not" not | comparison
//	comparison = sum { compareOp sum }
//	sum        = term { ("+" | "-") term }
//	term       = unary { ("*" | "/" | "%") unary }
//	unary      = ("-" | "+") unary | primary
//	primary    = number | string | true | false | null | identifier | "(" expr ")"
type parser struct {
	tokens []token
	pos    int
	depth  int
}

func parse(src string) (node, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 1 {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %s", describe(tok))}
	}
	return root, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return &SyntaxError{Pos: p.peek().pos, Msg: "expression nested too deeply"}
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logical{op: tokOr, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &logical{op: tokAnd, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.peek().kind != tokNot {
		return p.parseComparison()
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	p.next()
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &negation{operand: operand}, nil
}

func (p *parser) parseComparison() (node, error) {
	first, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	cmp := &comparison{operands: []node{first}}
	for isCompareOp(p.peek().kind) {
		op := p.next().kind
		operand, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		cmp.ops = append(cmp.ops, op)
		cmp.operands = append(cmp.operands, operand)
	}
	if len(cmp.ops) == 0 {
		return first, nil
	}
	return cmp, nil
}

func (p *parser) parseSum() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for kind := p.peek().kind; kind == tokPlus || kind == tokMinus; kind = p.peek().kind {
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &arithmetic{op: kind, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for kind := p.peek().kind; kind == tokStar || kind == tokSlash || kind == tokPercent; kind = p.peek().kind {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &arithmetic{op: kind, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	kind := p.peek().kind
	if kind != tokMinus && kind != tokPlus {
		return p.parsePrimary()
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	p.next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &sign{negative: kind == tokMinus, operand: operand}, nil
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return &literal{value: tok.num}, nil
	case tokString:
		return &literal{value: tok.text}, nil
	case tokTrue:
		return &literal{value: true}, nil
	case tokFalse:
		return &literal{value: false}, nil
	case tokNull:
		return &literal{value: nil}, nil
	case tokIdent:
		return &field{name: tok.text}, nil
	case tokLParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: closing.pos, Msg: fmt.Sprintf("expected ) but found %s", describe(closing))}
		}
		return inner, nil
	default:
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %s", describe(tok))}
	}
}

func isCompareOp(kind tokenKind) bool {
	switch kind {
	case tokEq, tokNe, tokLt, tokLe, tokGt, tokGe:
		return true
	}
	return false
}

func describe(tok token) string {
	if tok.kind == tokEOF {
		return tok.kind.String()
	}
	return fmt.Sprintf("%q", tok.text)
}
