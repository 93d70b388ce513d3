// Package parser turns expression spans into ESTree-shaped trees.
//
// The grammar is the script-mode expression language used inside
// templates: full expressions (arrows, async and generator functions,
// optional chaining, template strings, spread, destructuring) plus the
// basic statements. Classes, module declarations and `with` are
// rejected.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rubiojr/tourney/ast"
	"github.com/rubiojr/tourney/scanner"
)

// SyntaxError is returned for any scan or parse failure.
type SyntaxError struct {
	Message string
	Offset  int
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
}

// ParseScript parses src as a script. A return statement outside of a
// function is tolerated and recorded in Program.Errors.
func ParseScript(src string) (prog *ast.Program, err error) {
	p := newParser(src)
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			prog, err = nil, se
		}
	}()
	return p.parseProgram(), nil
}

// ParseSpan parses the code of one template span. Code starting with `{`
// is an object literal rather than a block, so it is parenthesized first.
func ParseSpan(code string) (*ast.Program, error) {
	if strings.HasPrefix(strings.TrimLeftFunc(code, unicode.IsSpace), "{") {
		code = "(" + code + ")"
	}
	return ParseScript(code)
}

type parser struct {
	s    *scanner.Scanner
	tok  scanner.Token // current token
	prev scanner.Token // last consumed token
	f    *ast.Factory

	inFunction  bool
	inAsync     bool
	inGenerator bool
	noIn        bool

	errors []ast.Diagnostic
}

type parserState struct {
	scan                scanner.State
	tok, prev           scanner.Token
	inFunction, inAsync bool
	inGenerator, noIn   bool
	errors              int
}

func newParser(src string) *parser {
	return &parser{s: scanner.New(src), f: ast.NewFactory()}
}

func (p *parser) save() parserState {
	return parserState{
		scan: p.s.Save(), tok: p.tok, prev: p.prev,
		inFunction: p.inFunction, inAsync: p.inAsync,
		inGenerator: p.inGenerator, noIn: p.noIn,
		errors: len(p.errors),
	}
}

func (p *parser) restore(st parserState) {
	p.s.Restore(st.scan)
	p.tok, p.prev = st.tok, st.prev
	p.inFunction, p.inAsync = st.inFunction, st.inAsync
	p.inGenerator, p.noIn = st.inGenerator, st.noIn
	p.errors = p.errors[:st.errors]
}

// try runs fn and reports whether it parsed without error. On failure the
// parser is rewound to where it was before fn.
func (p *parser) try(fn func()) (ok bool) {
	st := p.save()
	defer func() {
		if r := recover(); r != nil {
			if _, isSyntax := r.(*SyntaxError); !isSyntax {
				panic(r)
			}
			p.restore(st)
			ok = false
		}
	}()
	fn()
	return true
}

func (p *parser) fail(tok scanner.Token, msg string) {
	panic(&SyntaxError{Message: msg, Offset: tok.Start, Line: tok.Line, Column: tok.Column})
}

func (p *parser) failScan(err error) {
	var se *scanner.Error
	if errors.As(err, &se) {
		panic(&SyntaxError{Message: se.Err.Error(), Offset: se.Pos.Offset, Line: se.Pos.Line, Column: se.Pos.Column})
	}
	panic(&SyntaxError{Message: err.Error()})
}

// unexpected fails with the message for an unexpected token.
func (p *parser) unexpected(tok scanner.Token) {
	var msg string
	switch tok.Kind {
	case scanner.EOF:
		msg = "Unexpected end of input"
	case scanner.Numeric, scanner.BigInt:
		msg = "Unexpected number"
	case scanner.String:
		msg = "Unexpected string"
	case scanner.Template:
		msg = "Unexpected template string"
	case scanner.Identifier:
		msg = "Unexpected identifier"
	case scanner.Keyword:
		if tok.Value == "class" || tok.Value == "enum" || tok.Value == "export" || tok.Value == "import" {
			msg = "Unexpected reserved word"
		} else {
			msg = "Unexpected token " + tok.Value
		}
	default:
		msg = "Unexpected token " + tok.Raw
	}
	p.fail(tok, msg)
}

func (p *parser) next() {
	p.prev = p.tok
	tok, err := p.s.Next()
	if err != nil {
		p.failScan(err)
	}
	p.tok = tok
}

// peek returns the token after the current one without consuming it.
func (p *parser) peek() scanner.Token {
	st := p.s.Save()
	tok, err := p.s.Next()
	p.s.Restore(st)
	if err != nil {
		return scanner.Token{Kind: scanner.EOF}
	}
	return tok
}

func (p *parser) is(v string) bool { return p.tok.Is(v) }

func (p *parser) eat(v string) bool {
	if p.is(v) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(v string) {
	if !p.is(v) {
		p.unexpected(p.tok)
	}
	p.next()
}

// consumeSemicolon applies automatic semicolon insertion.
func (p *parser) consumeSemicolon() {
	if p.eat(";") {
		return
	}
	if p.is("}") || p.tok.Kind == scanner.EOF || p.tok.NewlineBefore {
		return
	}
	p.unexpected(p.tok)
}

func (p *parser) start() ast.Loc {
	return ast.Loc{Start: p.tok.Start, Line: p.tok.Line, Column: p.tok.Column}
}

func (p *parser) finish(l ast.Loc) ast.Loc {
	l.End = p.prev.End
	return l
}

// from starts a location at an already parsed node.
func (p *parser) from(n ast.Node) ast.Loc {
	l := *n.Location()
	l.End = p.prev.End
	return l
}

func (p *parser) parseProgram() *ast.Program {
	p.next()
	loc := ast.Loc{Line: 1, Column: 1}
	body := []ast.Stmt{}
	for p.tok.Kind != scanner.EOF {
		body = append(body, p.parseStatement())
	}
	loc.End = p.tok.End
	return &ast.Program{Loc: loc, Body: body, Errors: p.errors}
}

// --- Statements ---

func (p *parser) parseStatement() ast.Stmt {
	tok := p.tok
	switch tok.Kind {
	case scanner.Punctuator:
		switch tok.Value {
		case "{":
			return p.parseBlock()
		case ";":
			loc := p.start()
			p.next()
			return &ast.EmptyStatement{Loc: p.finish(loc)}
		}
	case scanner.Keyword:
		switch tok.Value {
		case "var", "const":
			return p.parseVarStatement()
		case "function":
			return p.parseFunctionDeclaration(false)
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "while":
			return p.parseWhile()
		case "do":
			return p.parseDoWhile()
		case "return":
			return p.parseReturn()
		case "break", "continue":
			return p.parseJump()
		case "throw":
			return p.parseThrow()
		case "try":
			return p.parseTry()
		case "switch":
			return p.parseSwitch()
		case "debugger":
			loc := p.start()
			p.next()
			p.consumeSemicolon()
			return &ast.DebuggerStatement{Loc: p.finish(loc)}
		case "class", "export", "with", "enum":
			p.unexpected(tok)
		case "import":
			if nt := p.peek(); !nt.Is("(") && !nt.Is(".") {
				p.unexpected(tok)
			}
		}
	case scanner.Identifier:
		if tok.IsIdent("let") && p.letStartsDeclaration() {
			return p.parseVarStatement()
		}
		if tok.IsIdent("async") {
			if nt := p.peek(); nt.Is("function") && !nt.NewlineBefore {
				return p.parseFunctionDeclaration(true)
			}
		}
		if p.peek().Is(":") {
			return p.parseLabeled()
		}
	}
	return p.parseExpressionStatement()
}

func (p *parser) letStartsDeclaration() bool {
	nt := p.peek()
	return nt.Kind == scanner.Identifier || nt.Is("[") || nt.Is("{") ||
		(nt.Kind == scanner.Keyword && nt.Value != "in" && nt.Value != "instanceof")
}

func (p *parser) parseExpressionStatement() ast.Stmt {
	loc := p.start()
	e := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ExpressionStatement{Loc: p.finish(loc), Expression: e}
}

func (p *parser) parseBlock() *ast.BlockStatement {
	loc := p.start()
	p.expect("{")
	body := []ast.Stmt{}
	for !p.is("}") {
		if p.tok.Kind == scanner.EOF {
			p.unexpected(p.tok)
		}
		body = append(body, p.parseStatement())
	}
	p.next()
	return &ast.BlockStatement{Loc: p.finish(loc), Body: body}
}

func (p *parser) parseVarStatement() ast.Stmt {
	decl := p.parseVarDeclaration()
	p.consumeSemicolon()
	decl.Loc = p.finish(decl.Loc)
	return decl
}

// parseVarDeclaration parses the declaration without the trailing
// semicolon, so for-loop heads can reuse it.
func (p *parser) parseVarDeclaration() *ast.VariableDeclaration {
	loc := p.start()
	kind := p.tok.Value
	p.next()
	decl := &ast.VariableDeclaration{Kind: kind}
	for {
		dloc := p.start()
		id := p.parseBindingTarget()
		var init ast.Expr
		if p.eat("=") {
			init = p.parseAssignment()
		}
		decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{Loc: p.finish(dloc), ID: id, Init: init})
		if !p.eat(",") {
			break
		}
	}
	decl.Loc = p.finish(loc)
	return decl
}

func (p *parser) parseFunctionDeclaration(async bool) ast.Stmt {
	loc := p.start()
	if async {
		p.next()
	}
	p.expect("function")
	generator := p.eat("*")
	if p.tok.Kind != scanner.Identifier {
		p.unexpected(p.tok)
	}
	id := p.parseIdentifier()
	params, body := p.parseFunctionRest(async, generator)
	return &ast.FunctionDeclaration{
		Loc: p.finish(loc), ID: id, Params: params, Body: body,
		Generator: generator, Async: async,
	}
}

func (p *parser) parseIf() ast.Stmt {
	loc := p.start()
	p.next()
	p.expect("(")
	test := p.parseExpression()
	p.expect(")")
	cons := p.parseStatement()
	var alt ast.Stmt
	if p.eat("else") {
		alt = p.parseStatement()
	}
	return &ast.IfStatement{Loc: p.finish(loc), Test: test, Consequent: cons, Alternate: alt}
}

func (p *parser) parseFor() ast.Stmt {
	loc := p.start()
	p.next()
	await := false
	if p.inAsync && p.tok.IsIdent("await") {
		p.next()
		await = true
	}
	p.expect("(")

	var init ast.Node
	if !p.is(";") {
		p.noIn = true
		if p.is("var") || p.is("const") || (p.tok.IsIdent("let") && p.letStartsDeclaration()) {
			init = p.parseVarDeclaration()
		} else {
			init = p.parseExpression()
		}
		p.noIn = false

		if p.is("in") || p.tok.IsIdent("of") {
			of := !p.is("in")
			left := init
			if e, ok := init.(ast.Expr); ok {
				left = p.toPattern(e, false)
			}
			p.next()
			var right ast.Expr
			if of {
				right = p.parseAssignment()
			} else {
				right = p.parseExpression()
			}
			p.expect(")")
			body := p.parseStatement()
			if of {
				return &ast.ForOfStatement{Loc: p.finish(loc), Left: left, Right: right, Body: body, Await: await}
			}
			return &ast.ForInStatement{Loc: p.finish(loc), Left: left, Right: right, Body: body}
		}
	}

	p.expect(";")
	var test, update ast.Expr
	if !p.is(";") {
		test = p.parseExpression()
	}
	p.expect(";")
	if !p.is(")") {
		update = p.parseExpression()
	}
	p.expect(")")
	body := p.parseStatement()
	return &ast.ForStatement{Loc: p.finish(loc), Init: init, Test: test, Update: update, Body: body}
}

func (p *parser) parseWhile() ast.Stmt {
	loc := p.start()
	p.next()
	p.expect("(")
	test := p.parseExpression()
	p.expect(")")
	body := p.parseStatement()
	return &ast.WhileStatement{Loc: p.finish(loc), Test: test, Body: body}
}

func (p *parser) parseDoWhile() ast.Stmt {
	loc := p.start()
	p.next()
	body := p.parseStatement()
	p.expect("while")
	p.expect("(")
	test := p.parseExpression()
	p.expect(")")
	p.eat(";")
	return &ast.DoWhileStatement{Loc: p.finish(loc), Body: body, Test: test}
}

func (p *parser) parseReturn() ast.Stmt {
	loc := p.start()
	if !p.inFunction {
		p.errors = append(p.errors, ast.Diagnostic{Loc: loc, Message: "Illegal return statement"})
	}
	p.next()
	var arg ast.Expr
	if !p.is(";") && !p.is("}") && p.tok.Kind != scanner.EOF && !p.tok.NewlineBefore {
		arg = p.parseExpression()
	}
	p.consumeSemicolon()
	return &ast.ReturnStatement{Loc: p.finish(loc), Argument: arg}
}

func (p *parser) parseJump() ast.Stmt {
	loc := p.start()
	brk := p.is("break")
	p.next()
	var label *ast.Identifier
	if p.tok.Kind == scanner.Identifier && !p.tok.NewlineBefore {
		label = p.parseIdentifier()
	}
	p.consumeSemicolon()
	if brk {
		return &ast.BreakStatement{Loc: p.finish(loc), Label: label}
	}
	return &ast.ContinueStatement{Loc: p.finish(loc), Label: label}
}

func (p *parser) parseThrow() ast.Stmt {
	loc := p.start()
	p.next()
	if p.tok.NewlineBefore {
		p.fail(p.tok, "Illegal newline after throw")
	}
	arg := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ThrowStatement{Loc: p.finish(loc), Argument: arg}
}

func (p *parser) parseTry() ast.Stmt {
	loc := p.start()
	p.next()
	block := p.parseBlock()
	var handler *ast.CatchClause
	if p.is("catch") {
		cloc := p.start()
		p.next()
		var param ast.Expr
		if p.eat("(") {
			param = p.parseBindingTarget()
			p.expect(")")
		}
		body := p.parseBlock()
		handler = &ast.CatchClause{Loc: p.finish(cloc), Param: param, Body: body}
	}
	var finalizer *ast.BlockStatement
	if p.eat("finally") {
		finalizer = p.parseBlock()
	}
	if handler == nil && finalizer == nil {
		p.fail(p.tok, "Missing catch or finally after try")
	}
	return &ast.TryStatement{Loc: p.finish(loc), Block: block, Handler: handler, Finalizer: finalizer}
}

func (p *parser) parseSwitch() ast.Stmt {
	loc := p.start()
	p.next()
	p.expect("(")
	disc := p.parseExpression()
	p.expect(")")
	p.expect("{")
	cases := []*ast.SwitchCase{}
	seenDefault := false
	for !p.eat("}") {
		cloc := p.start()
		var test ast.Expr
		switch {
		case p.eat("case"):
			test = p.parseExpression()
		case p.is("default"):
			if seenDefault {
				p.fail(p.tok, "More than one default clause in switch statement")
			}
			seenDefault = true
			p.next()
		default:
			p.unexpected(p.tok)
		}
		p.expect(":")
		cons := []ast.Stmt{}
		for !p.is("case") && !p.is("default") && !p.is("}") {
			if p.tok.Kind == scanner.EOF {
				p.unexpected(p.tok)
			}
			cons = append(cons, p.parseStatement())
		}
		cases = append(cases, &ast.SwitchCase{Loc: p.finish(cloc), Test: test, Consequent: cons})
	}
	return &ast.SwitchStatement{Loc: p.finish(loc), Discriminant: disc, Cases: cases}
}

func (p *parser) parseLabeled() ast.Stmt {
	loc := p.start()
	label := p.parseIdentifier()
	p.expect(":")
	body := p.parseStatement()
	return &ast.LabeledStatement{Loc: p.finish(loc), Label: label, Body: body}
}
