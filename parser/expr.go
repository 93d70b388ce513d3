package parser

import (
	"github.com/rubiojr/tourney/ast"
	"github.com/rubiojr/tourney/scanner"
)

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "<<=": true, ">>=": true, ">>>=": true, "&=": true,
	"|=": true, "^=": true, "&&=": true, "||=": true, "??=": true,
}

// binaryPrec is the binding power of binary and logical operators.
var binaryPrec = map[string]int{
	"??": 1,
	"||": 2,
	"&&": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"==": 7, "!=": 7, "===": 7, "!==": 7,
	"<": 8, ">": 8, "<=": 8, ">=": 8, "instanceof": 8, "in": 8,
	"<<": 9, ">>": 9, ">>>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
	"**": 12,
}

func (p *parser) allowIn() func() {
	prev := p.noIn
	p.noIn = false
	return func() { p.noIn = prev }
}

func (p *parser) failAt(n ast.Node, msg string) {
	l := n.Location()
	panic(&SyntaxError{Message: msg, Offset: l.Start, Line: l.Line, Column: l.Column})
}

func (p *parser) parseExpression() ast.Expr {
	loc := p.start()
	e := p.parseAssignment()
	if !p.is(",") {
		return e
	}
	seq := []ast.Expr{e}
	for p.eat(",") {
		seq = append(seq, p.parseAssignment())
	}
	return &ast.SequenceExpression{Loc: p.finish(loc), Expressions: seq}
}

func (p *parser) parseAssignment() ast.Expr {
	if arrow := p.tryArrow(); arrow != nil {
		return arrow
	}
	if p.inGenerator && p.tok.IsIdent("yield") {
		return p.parseYield()
	}
	loc := p.start()
	left := p.parseConditional()
	if p.tok.Kind != scanner.Punctuator || !assignOps[p.tok.Value] {
		return left
	}
	op := p.tok.Value
	if _, nested := left.(*ast.AssignmentExpression); nested {
		p.failAt(left, "Invalid left-hand side in assignment")
	}
	if op == "=" {
		left = p.toPattern(left, false)
	} else if !isSimpleTarget(left) {
		p.failAt(left, "Invalid left-hand side in assignment")
	}
	p.next()
	right := p.parseAssignment()
	return &ast.AssignmentExpression{Loc: p.finish(loc), Operator: op, Left: left, Right: right}
}

// tryArrow parses an arrow function when one starts at the current
// token, and returns nil otherwise without consuming anything.
func (p *parser) tryArrow() ast.Expr {
	tok := p.tok
	switch {
	case tok.Kind == scanner.Identifier && p.peek().Is("=>"):
		loc := p.start()
		param := p.parseBindingIdentifier()
		return p.parseArrowRest(loc, []ast.Expr{param}, false)

	case tok.IsIdent("async"):
		nt := p.peek()
		if nt.NewlineBefore {
			return nil
		}
		loc := p.start()
		if nt.Kind == scanner.Identifier {
			var params []ast.Expr
			if p.try(func() {
				p.next()
				params = []ast.Expr{p.parseBindingIdentifier()}
				if !p.is("=>") {
					p.unexpected(p.tok)
				}
			}) {
				return p.parseArrowRest(loc, params, true)
			}
			return nil
		}
		if nt.Is("(") {
			var params []ast.Expr
			if p.try(func() {
				p.next()
				params = p.parseParams()
				if !p.is("=>") || p.tok.NewlineBefore {
					p.unexpected(p.tok)
				}
			}) {
				return p.parseArrowRest(loc, params, true)
			}
		}

	case tok.Is("("):
		loc := p.start()
		var params []ast.Expr
		if p.try(func() {
			params = p.parseParams()
			if !p.is("=>") || p.tok.NewlineBefore {
				p.unexpected(p.tok)
			}
		}) {
			return p.parseArrowRest(loc, params, false)
		}
	}
	return nil
}

func (p *parser) parseArrowRest(loc ast.Loc, params []ast.Expr, async bool) ast.Expr {
	p.expect("=>")
	inFunction, inAsync, inGenerator := p.inFunction, p.inAsync, p.inGenerator
	defer func() { p.inFunction, p.inAsync, p.inGenerator = inFunction, inAsync, inGenerator }()
	p.inAsync, p.inGenerator = async, false

	arrow := &ast.ArrowFunctionExpression{Params: params, Async: async}
	if p.is("{") {
		p.inFunction = true
		restore := p.allowIn()
		arrow.Body = p.parseBlock()
		restore()
	} else {
		arrow.Body = p.parseAssignment()
		arrow.Expression = true
	}
	arrow.Loc = p.finish(loc)
	return arrow
}

func (p *parser) parseYield() ast.Expr {
	loc := p.start()
	p.next()
	y := &ast.YieldExpression{}
	if !p.tok.NewlineBefore {
		if p.eat("*") {
			y.Delegate = true
			y.Argument = p.parseAssignment()
		} else if p.startsExpression() {
			y.Argument = p.parseAssignment()
		}
	}
	y.Loc = p.finish(loc)
	return y
}

func (p *parser) startsExpression() bool {
	switch p.tok.Kind {
	case scanner.EOF:
		return false
	case scanner.Punctuator:
		switch p.tok.Value {
		case ")", "]", "}", ",", ";", ":", "?", "=>":
			return false
		}
	case scanner.Keyword:
		return p.tok.Value != "in" && p.tok.Value != "instanceof"
	}
	return true
}

func (p *parser) parseConditional() ast.Expr {
	loc := p.start()
	test := p.parseBinary(1)
	if !p.is("?") {
		return test
	}
	p.next()
	restore := p.allowIn()
	cons := p.parseAssignment()
	restore()
	p.expect(":")
	alt := p.parseAssignment()
	return &ast.ConditionalExpression{Loc: p.finish(loc), Test: test, Consequent: cons, Alternate: alt}
}

func (p *parser) binaryOp() (string, int) {
	switch p.tok.Kind {
	case scanner.Punctuator:
		return p.tok.Value, binaryPrec[p.tok.Value]
	case scanner.Keyword:
		switch p.tok.Value {
		case "in":
			if p.noIn {
				return "", 0
			}
			return "in", binaryPrec["in"]
		case "instanceof":
			return "instanceof", binaryPrec["instanceof"]
		}
	}
	return "", 0
}

// parseBinary is a precedence climber; ** is the only right-associative
// operator.
func (p *parser) parseBinary(minPrec int) ast.Expr {
	loc := p.start()
	left := p.parseUnary()
	for {
		op, prec := p.binaryOp()
		if prec == 0 || prec < minPrec {
			return left
		}
		p.next()
		var right ast.Expr
		if op == "**" {
			right = p.parseBinary(prec)
		} else {
			right = p.parseBinary(prec + 1)
		}
		switch op {
		case "&&", "||", "??":
			left = &ast.LogicalExpression{Loc: p.finish(loc), Operator: op, Left: left, Right: right}
		default:
			left = &ast.BinaryExpression{Loc: p.finish(loc), Operator: op, Left: left, Right: right}
		}
	}
}

func (p *parser) parseUnary() ast.Expr {
	tok := p.tok
	loc := p.start()
	switch {
	case tok.Kind == scanner.Punctuator && (tok.Value == "!" || tok.Value == "~" || tok.Value == "+" || tok.Value == "-"),
		tok.Kind == scanner.Keyword && (tok.Value == "typeof" || tok.Value == "void" || tok.Value == "delete"):
		p.next()
		arg := p.parseUnary()
		return &ast.UnaryExpression{Loc: p.finish(loc), Operator: tok.Value, Argument: arg, Prefix: true}
	case tok.Is("++") || tok.Is("--"):
		p.next()
		arg := p.parseUnary()
		if !isSimpleTarget(arg) {
			p.failAt(arg, "Invalid left-hand side expression in prefix operation")
		}
		return &ast.UpdateExpression{Loc: p.finish(loc), Operator: tok.Value, Argument: arg, Prefix: true}
	case p.inAsync && tok.IsIdent("await"):
		p.next()
		arg := p.parseUnary()
		return &ast.AwaitExpression{Loc: p.finish(loc), Argument: arg}
	}

	expr := p.parseLHS()
	if (p.is("++") || p.is("--")) && !p.tok.NewlineBefore {
		if !isSimpleTarget(expr) {
			p.failAt(expr, "Invalid left-hand side expression in postfix operation")
		}
		op := p.tok.Value
		p.next()
		return &ast.UpdateExpression{Loc: p.finish(loc), Operator: op, Argument: expr}
	}
	return expr
}

func (p *parser) parseLHS() ast.Expr {
	loc := p.start()
	var expr ast.Expr
	switch {
	case p.is("new"):
		expr = p.parseNew()
	case p.is("super"):
		p.next()
		if !p.is(".") && !p.is("[") && !p.is("(") {
			p.fail(p.prev, "'super' keyword unexpected here")
		}
		expr = &ast.Super{Loc: p.finish(loc)}
	default:
		expr = p.parsePrimary()
	}
	return p.parseCallTail(loc, expr, true)
}

// parseCallTail parses member accesses, calls and tagged templates after
// expr. Without allowCall it stops at the first call, as needed for the
// callee of `new`.
func (p *parser) parseCallTail(loc ast.Loc, expr ast.Expr, allowCall bool) ast.Expr {
	chained := false
	for {
		switch {
		case p.is("."):
			p.next()
			prop := p.parsePropertyName()
			expr = &ast.MemberExpression{Loc: p.finish(loc), Object: expr, Property: prop}
		case p.is("?."):
			if !allowCall {
				p.fail(p.tok, "Invalid optional chain from new expression")
			}
			chained = true
			p.next()
			switch {
			case p.is("("):
				args := p.parseArguments()
				expr = &ast.CallExpression{Loc: p.finish(loc), Callee: expr, Arguments: args, Optional: true}
			case p.is("["):
				prop := p.parseComputedMember()
				expr = &ast.MemberExpression{Loc: p.finish(loc), Object: expr, Property: prop, Computed: true, Optional: true}
			default:
				prop := p.parsePropertyName()
				expr = &ast.MemberExpression{Loc: p.finish(loc), Object: expr, Property: prop, Optional: true}
			}
		case p.is("["):
			prop := p.parseComputedMember()
			expr = &ast.MemberExpression{Loc: p.finish(loc), Object: expr, Property: prop, Computed: true}
		case allowCall && p.is("("):
			args := p.parseArguments()
			expr = &ast.CallExpression{Loc: p.finish(loc), Callee: expr, Arguments: args}
		case p.tok.Kind == scanner.Template:
			if chained {
				p.fail(p.tok, "Invalid tagged template on optional chain")
			}
			quasi := p.parseTemplate(true)
			expr = &ast.TaggedTemplateExpression{Loc: p.finish(loc), Tag: expr, Quasi: quasi}
		default:
			if chained {
				return &ast.ChainExpression{Loc: p.finish(loc), Expression: expr}
			}
			return expr
		}
	}
}

func (p *parser) parseComputedMember() ast.Expr {
	p.expect("[")
	restore := p.allowIn()
	prop := p.parseExpression()
	restore()
	p.expect("]")
	return prop
}

func (p *parser) parseNew() ast.Expr {
	loc := p.start()
	newTok := p.tok
	p.next()
	if p.eat(".") {
		prop := p.parsePropertyName()
		if prop.Name != "target" || !p.inFunction {
			p.failAt(prop, "Unexpected identifier")
		}
		meta := &ast.Identifier{
			Loc:  ast.Loc{Start: newTok.Start, End: newTok.End, Line: newTok.Line, Column: newTok.Column},
			Name: "new",
		}
		return &ast.MetaProperty{Loc: p.finish(loc), Meta: meta, Property: prop}
	}
	cloc := p.start()
	var callee ast.Expr
	if p.is("new") {
		callee = p.parseNew()
	} else {
		callee = p.parsePrimary()
	}
	callee = p.parseCallTail(cloc, callee, false)
	args := []ast.Expr{}
	if p.is("(") {
		args = p.parseArguments()
	}
	return &ast.NewExpression{Loc: p.finish(loc), Callee: callee, Arguments: args}
}

func (p *parser) parseArguments() []ast.Expr {
	p.expect("(")
	restore := p.allowIn()
	defer restore()
	args := []ast.Expr{}
	for !p.is(")") {
		if p.is("...") {
			loc := p.start()
			p.next()
			arg := p.parseAssignment()
			args = append(args, &ast.SpreadElement{Loc: p.finish(loc), Argument: arg})
		} else {
			args = append(args, p.parseAssignment())
		}
		if !p.is(")") {
			p.expect(",")
		}
	}
	p.next()
	return args
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.tok
	loc := p.start()
	switch tok.Kind {
	case scanner.Identifier:
		if tok.IsIdent("async") {
			if nt := p.peek(); nt.Is("function") && !nt.NewlineBefore {
				return p.parseFunctionExpression()
			}
		}
		return p.parseIdentifier()
	case scanner.Numeric:
		p.next()
		return &ast.Literal{Loc: p.finish(loc), Value: tok.Number, Raw: tok.Raw}
	case scanner.BigInt:
		p.next()
		return &ast.Literal{Loc: p.finish(loc), Raw: tok.Raw, Bigint: tok.Value}
	case scanner.String:
		p.next()
		return &ast.Literal{Loc: p.finish(loc), Value: tok.Value, Raw: tok.Raw}
	case scanner.Template:
		return p.parseTemplate(false)
	case scanner.Keyword:
		switch tok.Value {
		case "this":
			p.next()
			return &ast.ThisExpression{Loc: p.finish(loc)}
		case "null":
			p.next()
			return &ast.Literal{Loc: p.finish(loc), Value: nil, Raw: tok.Raw}
		case "true", "false":
			p.next()
			return &ast.Literal{Loc: p.finish(loc), Value: tok.Value == "true", Raw: tok.Raw}
		case "function":
			return p.parseFunctionExpression()
		case "import":
			return p.parseImport()
		}
	case scanner.Punctuator:
		switch tok.Value {
		case "(":
			return p.parseParenthesized()
		case "[":
			return p.parseArrayLiteral()
		case "{":
			return p.parseObjectLiteral()
		case "/", "/=":
			re, err := p.s.ScanRegex(tok)
			if err != nil {
				p.failScan(err)
			}
			p.tok = re
			p.next()
			return &ast.Literal{
				Loc:   p.finish(loc),
				Raw:   re.Raw,
				Regex: &ast.RegexLiteral{Pattern: re.Pattern, Flags: re.Flags},
			}
		}
	}
	p.unexpected(tok)
	return nil
}

func (p *parser) parseIdentifier() *ast.Identifier {
	if p.tok.Kind != scanner.Identifier {
		p.unexpected(p.tok)
	}
	loc := p.start()
	name := p.tok.Value
	p.next()
	return &ast.Identifier{Loc: p.finish(loc), Name: name}
}

// parsePropertyName parses an IdentifierName, where reserved words are
// allowed.
func (p *parser) parsePropertyName() *ast.Identifier {
	if p.tok.Kind != scanner.Identifier && p.tok.Kind != scanner.Keyword {
		p.unexpected(p.tok)
	}
	loc := p.start()
	name := p.tok.Value
	p.next()
	return &ast.Identifier{Loc: p.finish(loc), Name: name}
}

func (p *parser) parseImport() ast.Expr {
	loc := p.start()
	p.next()
	if p.is(".") {
		p.fail(p.tok, "Cannot use 'import.meta' outside a module")
	}
	p.expect("(")
	restore := p.allowIn()
	src := p.parseAssignment()
	restore()
	p.expect(")")
	return &ast.ImportExpression{Loc: p.finish(loc), Source: src}
}

func (p *parser) parseParenthesized() ast.Expr {
	p.expect("(")
	restore := p.allowIn()
	e := p.parseExpression()
	restore()
	p.expect(")")
	return e
}

func (p *parser) parseArrayLiteral() ast.Expr {
	loc := p.start()
	p.expect("[")
	restore := p.allowIn()
	defer restore()
	elems := []ast.Expr{}
	for !p.is("]") {
		switch {
		case p.is(","):
			p.next()
			elems = append(elems, nil)
			continue
		case p.is("..."):
			sloc := p.start()
			p.next()
			arg := p.parseAssignment()
			elems = append(elems, &ast.SpreadElement{Loc: p.finish(sloc), Argument: arg})
		default:
			elems = append(elems, p.parseAssignment())
		}
		if !p.is("]") {
			p.expect(",")
		}
	}
	p.next()
	return &ast.ArrayExpression{Loc: p.finish(loc), Elements: elems}
}

func (p *parser) parseObjectLiteral() ast.Expr {
	loc := p.start()
	p.expect("{")
	restore := p.allowIn()
	defer restore()
	props := []ast.Expr{}
	for !p.is("}") {
		props = append(props, p.parseObjectMember())
		if !p.is("}") {
			p.expect(",")
		}
	}
	p.next()
	return &ast.ObjectExpression{Loc: p.finish(loc), Properties: props}
}

func startsPropertyName(t scanner.Token) bool {
	switch t.Kind {
	case scanner.Identifier, scanner.Keyword, scanner.String, scanner.Numeric, scanner.BigInt:
		return true
	}
	return t.Is("[")
}

func (p *parser) parseObjectMember() ast.Expr {
	loc := p.start()
	if p.eat("...") {
		arg := p.parseAssignment()
		return &ast.SpreadElement{Loc: p.finish(loc), Argument: arg}
	}

	kind := "init"
	async, generator := false, false
	tok := p.tok
	switch {
	case (tok.IsIdent("get") || tok.IsIdent("set")) && startsPropertyName(p.peek()):
		kind = tok.Value
		p.next()
	case tok.IsIdent("async"):
		if nt := p.peek(); !nt.NewlineBefore && (startsPropertyName(nt) || nt.Is("*")) {
			async = true
			p.next()
		}
	}
	if kind == "init" && p.eat("*") {
		generator = true
	}

	keyTok := p.tok
	key, computed := p.parsePropertyKey()

	if kind != "init" || async || generator || p.is("(") {
		floc := p.start()
		params, body := p.parseFunctionRest(async, generator)
		fn := &ast.FunctionExpression{Loc: p.finish(floc), Params: params, Body: body, Async: async, Generator: generator}
		return &ast.Property{
			Loc: p.finish(loc), Key: key, Value: fn, Kind: kind,
			Computed: computed, Method: kind == "init",
		}
	}
	if p.eat(":") {
		value := p.parseAssignment()
		return &ast.Property{Loc: p.finish(loc), Key: key, Value: value, Kind: "init", Computed: computed}
	}

	// Shorthand, optionally with a default as in `({a = 1} = obj)`.
	if keyTok.Kind != scanner.Identifier || computed {
		p.unexpected(p.tok)
	}
	var value ast.Expr = ast.Clone(key.(*ast.Identifier))
	if p.is("=") {
		p.next()
		def := p.parseAssignment()
		value = &ast.AssignmentPattern{Loc: p.finish(loc), Left: value, Right: def}
	}
	return &ast.Property{Loc: p.finish(loc), Key: key, Value: value, Kind: "init", Shorthand: true}
}

func (p *parser) parsePropertyKey() (ast.Expr, bool) {
	tok := p.tok
	loc := p.start()
	switch tok.Kind {
	case scanner.Identifier, scanner.Keyword:
		p.next()
		return &ast.Identifier{Loc: p.finish(loc), Name: tok.Value}, false
	case scanner.String:
		p.next()
		return &ast.Literal{Loc: p.finish(loc), Value: tok.Value, Raw: tok.Raw}, false
	case scanner.Numeric:
		p.next()
		return &ast.Literal{Loc: p.finish(loc), Value: tok.Number, Raw: tok.Raw}, false
	case scanner.BigInt:
		p.next()
		return &ast.Literal{Loc: p.finish(loc), Raw: tok.Raw, Bigint: tok.Value}, false
	}
	if p.is("[") {
		return p.parseComputedMember(), true
	}
	p.unexpected(tok)
	return nil, false
}

func (p *parser) parseTemplate(tagged bool) *ast.TemplateLiteral {
	loc := p.start()
	tl := &ast.TemplateLiteral{Quasis: []*ast.TemplateElement{}, Expressions: []ast.Expr{}}
	tok := p.tok
	for {
		if tok.Cooked == nil && !tagged {
			p.fail(tok, "Invalid escape sequence in template")
		}
		tl.Quasis = append(tl.Quasis, &ast.TemplateElement{
			Loc:   ast.Loc{Start: tok.Start, End: tok.End, Line: tok.Line, Column: tok.Column},
			Value: ast.TemplateValue{Raw: tok.Value, Cooked: tok.Cooked},
			Tail:  tok.Tail,
		})
		p.next()
		if tok.Tail {
			break
		}
		restore := p.allowIn()
		e := p.parseExpression()
		restore()
		tl.Expressions = append(tl.Expressions, e)
		if !p.is("}") {
			p.unexpected(p.tok)
		}
		next, err := p.s.ScanTemplate(p.tok.Start)
		if err != nil {
			p.failScan(err)
		}
		p.tok = next
		tok = next
	}
	tl.Loc = p.finish(loc)
	return tl
}

// isSimpleTarget reports whether e can be the target of a compound
// assignment or an update.
func isSimpleTarget(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.Identifier:
		return true
	case *ast.MemberExpression:
		return !x.Optional
	}
	return false
}

// toPattern reinterprets an expression parsed before an `=` (or a for-in
// head) as an assignment target. Member expressions are only valid
// outside of bindings.
func (p *parser) toPattern(e ast.Expr, binding bool) ast.Expr {
	switch x := e.(type) {
	case *ast.Identifier:
		return x
	case *ast.MemberExpression:
		if binding || x.Optional {
			p.failAt(x, "Invalid destructuring assignment target")
		}
		return x
	case *ast.ObjectPattern, *ast.ArrayPattern, *ast.AssignmentPattern:
		return e
	case *ast.ArrayExpression:
		elems := make([]ast.Expr, len(x.Elements))
		for i, el := range x.Elements {
			if el == nil {
				continue
			}
			if sp, ok := el.(*ast.SpreadElement); ok {
				if i != len(x.Elements)-1 {
					p.failAt(sp, "Rest element must be last element")
				}
				elems[i] = &ast.RestElement{Loc: sp.Loc, Argument: p.toPattern(sp.Argument, binding)}
				continue
			}
			elems[i] = p.toPattern(el, binding)
		}
		return &ast.ArrayPattern{Loc: x.Loc, Elements: elems}
	case *ast.ObjectExpression:
		props := make([]ast.Expr, len(x.Properties))
		for i, prop := range x.Properties {
			switch pr := prop.(type) {
			case *ast.SpreadElement:
				props[i] = &ast.RestElement{Loc: pr.Loc, Argument: p.toPattern(pr.Argument, binding)}
			case *ast.Property:
				if pr.Kind != "init" || pr.Method {
					p.failAt(pr, "Invalid destructuring assignment target")
				}
				cp := *pr
				cp.Value = p.toPattern(pr.Value, binding)
				props[i] = &cp
			}
		}
		return &ast.ObjectPattern{Loc: x.Loc, Properties: props}
	case *ast.AssignmentExpression:
		if x.Operator != "=" {
			p.failAt(x, "Invalid destructuring assignment target")
		}
		return &ast.AssignmentPattern{Loc: x.Loc, Left: p.toPattern(x.Left, binding), Right: x.Right}
	}
	p.failAt(e, "Invalid left-hand side in assignment")
	return nil
}
