package parser

import (
	"github.com/rubiojr/tourney/ast"
	"github.com/rubiojr/tourney/scanner"
)

func (p *parser) parseBindingIdentifier() *ast.Identifier {
	if p.tok.Kind != scanner.Identifier {
		p.unexpected(p.tok)
	}
	if p.inAsync && p.tok.IsIdent("await") {
		p.fail(p.tok, "Unexpected reserved word")
	}
	return p.parseIdentifier()
}

// parseBindingTarget parses an identifier, array pattern or object
// pattern in a declaration, parameter or catch clause.
func (p *parser) parseBindingTarget() ast.Expr {
	switch {
	case p.is("["):
		return p.parseArrayPattern()
	case p.is("{"):
		return p.parseObjectPattern()
	}
	return p.parseBindingIdentifier()
}

// parseBindingElement is a binding target with an optional default.
func (p *parser) parseBindingElement() ast.Expr {
	loc := p.start()
	target := p.parseBindingTarget()
	if !p.eat("=") {
		return target
	}
	restore := p.allowIn()
	def := p.parseAssignment()
	restore()
	return &ast.AssignmentPattern{Loc: p.finish(loc), Left: target, Right: def}
}

func (p *parser) parseRestElement() *ast.RestElement {
	loc := p.start()
	p.expect("...")
	arg := p.parseBindingTarget()
	return &ast.RestElement{Loc: p.finish(loc), Argument: arg}
}

func (p *parser) parseArrayPattern() ast.Expr {
	loc := p.start()
	p.expect("[")
	elems := []ast.Expr{}
	for !p.is("]") {
		if p.eat(",") {
			elems = append(elems, nil)
			continue
		}
		if p.is("...") {
			elems = append(elems, p.parseRestElement())
			if !p.is("]") {
				p.fail(p.tok, "Rest element must be last element")
			}
			break
		}
		elems = append(elems, p.parseBindingElement())
		if !p.is("]") {
			p.expect(",")
		}
	}
	p.expect("]")
	return &ast.ArrayPattern{Loc: p.finish(loc), Elements: elems}
}

func (p *parser) parseObjectPattern() ast.Expr {
	loc := p.start()
	p.expect("{")
	props := []ast.Expr{}
	for !p.is("}") {
		if p.is("...") {
			props = append(props, p.parseRestElement())
			if !p.is("}") {
				p.fail(p.tok, "Rest element must be last element")
			}
			break
		}
		props = append(props, p.parsePatternProperty())
		if !p.is("}") {
			p.expect(",")
		}
	}
	p.expect("}")
	return &ast.ObjectPattern{Loc: p.finish(loc), Properties: props}
}

func (p *parser) parsePatternProperty() ast.Expr {
	loc := p.start()
	keyTok := p.tok
	key, computed := p.parsePropertyKey()
	if p.eat(":") {
		value := p.parseBindingElement()
		return &ast.Property{Loc: p.finish(loc), Key: key, Value: value, Kind: "init", Computed: computed}
	}
	if keyTok.Kind != scanner.Identifier || computed {
		p.unexpected(p.tok)
	}
	var value ast.Expr = ast.Clone(key.(*ast.Identifier))
	if p.eat("=") {
		restore := p.allowIn()
		def := p.parseAssignment()
		restore()
		value = &ast.AssignmentPattern{Loc: p.finish(loc), Left: value, Right: def}
	}
	return &ast.Property{Loc: p.finish(loc), Key: key, Value: value, Kind: "init", Shorthand: true}
}

// parseParams parses a parenthesized parameter list.
func (p *parser) parseParams() []ast.Expr {
	p.expect("(")
	params := []ast.Expr{}
	for !p.is(")") {
		if p.is("...") {
			params = append(params, p.parseRestElement())
			break
		}
		params = append(params, p.parseBindingElement())
		if !p.is(")") {
			p.expect(",")
		}
	}
	p.expect(")")
	return params
}

// parseFunctionRest parses parameters and body of a function whose
// header has been consumed.
func (p *parser) parseFunctionRest(async, generator bool) ([]ast.Expr, *ast.BlockStatement) {
	inFunction, inAsync, inGenerator, noIn := p.inFunction, p.inAsync, p.inGenerator, p.noIn
	defer func() {
		p.inFunction, p.inAsync, p.inGenerator, p.noIn = inFunction, inAsync, inGenerator, noIn
	}()
	p.inAsync, p.inGenerator, p.noIn = async, generator, false
	params := p.parseParams()
	p.inFunction = true
	body := p.parseBlock()
	return params, body
}

func (p *parser) parseFunctionExpression() ast.Expr {
	loc := p.start()
	async := false
	if p.tok.IsIdent("async") {
		async = true
		p.next()
	}
	p.expect("function")
	generator := p.eat("*")
	var id *ast.Identifier
	if p.tok.Kind == scanner.Identifier {
		id = p.parseIdentifier()
	}
	params, body := p.parseFunctionRest(async, generator)
	return &ast.FunctionExpression{
		Loc: p.finish(loc), ID: id, Params: params, Body: body,
		Generator: generator, Async: async,
	}
}
