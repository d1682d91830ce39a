package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (MatchExpr) isNode()  {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string

// MatchExpr selects a set of note numbers, e.g. '60,64,67 or '48:60 or '*.
type MatchExpr struct {
	matchers []matcher
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != typeEOF {
		p.pos++
	}
	return t
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		var arg Node
		switch token.typ {
		case typeIdentifier:
			arg = Identifier(token.text)
		case typeString:
			arg = String(token.text[1 : len(token.text)-1])
		case typeFloat:
			f, err := strconv.ParseFloat(token.text, 64)
			if err != nil {
				return cmd, err
			}
			arg = Float(f)
		case typeInt:
			n, err := strconv.Atoi(token.text)
			if err != nil {
				return cmd, err
			}
			arg = Int(n)
		case typeQuote:
			matchExpr, err := p.matchExpr()
			if err != nil {
				return cmd, err
			}
			arg = matchExpr
		default:
			return cmd, unexpected(token)
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

// matchExpr parses a comma separated list of ints, ranges and '*'.
func (p *parser) matchExpr() (MatchExpr, error) {
	var match MatchExpr
	var list listMatch
	for {
		token := p.next()
		switch token.typ {
		case typeInt:
			start, err := strconv.Atoi(token.text)
			if err != nil {
				return match, err
			}
			if p.peek().typ != typeColon {
				list = append(list, start)
				break
			}
			p.next()
			t := p.next()
			if t.typ != typeInt {
				return match, unexpected(t)
			}
			end, err := strconv.Atoi(t.text)
			if err != nil {
				return match, err
			}
			if end < start {
				return match, fmt.Errorf("empty range %d:%d at position %d", start, end, token.pos)
			}
			match.matchers = append(match.matchers, rangeMatch{start: start, end: end})
		case typeAsterisk:
			match.matchers = append(match.matchers, matchAll)
		default:
			return match, unexpected(token)
		}
		if p.peek().typ != typeComma {
			break
		}
		p.next()
	}
	if len(list) > 0 {
		match.matchers = append([]matcher{list}, match.matchers...)
	}
	return match, nil
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("unexpected end of input at position %d", t.pos)
	}
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
