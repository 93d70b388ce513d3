package compiler

import (
	"fmt"
	"strings"

	"github.com/rubiojr/tourney/ast"
	"github.com/rubiojr/tourney/parser"
	"github.com/rubiojr/tourney/splitter"
)

// Analysis records features of a template that the legacy interpreter
// could not evaluate the same way.
type Analysis struct {
	HasFunction       bool `json:"has_function"`
	HasTemplateString bool `json:"has_template_string"`
}

// BeforeHook runs on a span's freshly parsed program, before free
// identifiers are resolved. data is the data node in use.
type BeforeHook func(prog *ast.Program, data ast.Expr)

// AfterHook runs on a span's resolved expression statement.
type AfterHook func(stmt *ast.ExpressionStatement, data ast.Expr)

// Hooks are caller supplied tree transforms applied to every code span,
// in order.
type Hooks struct {
	Before []BeforeHook
	After  []AfterHook
}

// errorHandlerName is the parameter the generated program reports caught
// errors through.
const errorHandlerName = "E"

type codeSpan struct {
	index int
	prog  *ast.Program
}

// Generate compiles a template into program text. The program reads its
// data through `this` and calls E(error, this) for errors it catches.
func Generate(expr, dataNodeName string, hooks Hooks) (string, Analysis, error) {
	spans := splitter.Split(expr)

	parsed := make(map[int]*ast.Program, splitter.CodeSpans(spans))
	var analysis Analysis
	for i, s := range spans {
		if s.Kind != splitter.Code {
			continue
		}
		prog, err := parser.ParseSpan(s.Text)
		if err != nil {
			return "", Analysis{}, fmt.Errorf("span %d: %w", i, err)
		}
		parsed[i] = prog
		analysis.HasFunction = analysis.HasFunction || hasFunction(prog)
		analysis.HasTemplateString = analysis.HasTemplateString || hasTemplateString(prog)
	}

	f := ast.NewFactory()
	body := []ast.Stmt{f.Var(globalName, f.Object())}

	var data ast.Expr = f.This()
	if analysis.HasFunction {
		data = f.Ident(dataNodeName)
		body = append(body, f.Var(dataNodeName, f.This()))
	}

	g := &generator{f: f, data: data, hooks: hooks}

	if len(spans) == 2 && spans[0].Kind == splitter.Text && spans[0].Text == "" {
		stmt, err := g.span(codeSpan{index: 1, prog: parsed[1]})
		if err != nil {
			return "", Analysis{}, err
		}
		var ret ast.Stmt = f.Return(stmt.Expression)
		if shouldWrap(stmt) {
			ret = g.errorHandler(ret)
		}
		body = append(body, ret)
		return Print(f.ProgramOf(body...)), analysis, nil
	}

	parts := make([]ast.Expr, 0, len(spans))
	for i, s := range spans {
		if s.Kind == splitter.Text {
			parts = append(parts, f.String(s.Text))
			continue
		}
		stmt, err := g.span(codeSpan{index: i, prog: parsed[i]})
		if err != nil {
			return "", Analysis{}, err
		}
		parts = append(parts, g.valueCall(stmt))
	}

	switch {
	case len(parts) == 0:
		body = append(body, f.Return(f.String("")))
	case len(spans) < 2:
		body = append(body, f.Return(parts[0]))
	default:
		kept := parts[:0]
		for _, p := range parts {
			if !isEmptyString(p) {
				kept = append(kept, p)
			}
		}
		join := f.Call(f.Member(f.Array(kept...), "join"), f.String(""))
		body = append(body, f.Return(join))
	}
	return Print(f.ProgramOf(body...)), analysis, nil
}

type generator struct {
	f     *ast.Factory
	data  ast.Expr
	hooks Hooks
}

// span runs the per-span passes and returns the resolved first statement.
func (g *generator) span(cs codeSpan) (*ast.ExpressionStatement, error) {
	passes := ast.Chain(
		ast.PassFunc{N: "template newlines", F: func(prog *ast.Program) error {
			escapeTemplateNewlines(prog)
			return nil
		}},
		ast.PassFunc{N: "before hooks", F: func(prog *ast.Program) error {
			for _, h := range g.hooks.Before {
				h(prog, g.data)
			}
			return nil
		}},
		ast.PassFunc{N: "resolve", F: func(prog *ast.Program) error {
			return Resolve(prog, g.data)
		}},
	)
	if err := passes.Apply(cs.prog); err != nil {
		return nil, fmt.Errorf("span %d: %w", cs.index, err)
	}

	// Statements after the first are ignored, as the legacy interpreter
	// did.
	var stmt *ast.ExpressionStatement
	if len(cs.prog.Body) > 0 {
		stmt, _ = cs.prog.Body[0].(*ast.ExpressionStatement)
	}
	if stmt == nil {
		loc := cs.prog.Loc
		if len(cs.prog.Body) > 0 {
			loc = *cs.prog.Body[0].Location()
		}
		return nil, fmt.Errorf("span %d: %w", cs.index, &parser.SyntaxError{
			Message: "not an expression statement",
			Offset:  loc.Start,
			Line:    loc.Line,
			Column:  loc.Column,
		})
	}

	for _, h := range g.hooks.After {
		h(stmt, g.data)
	}
	return stmt, nil
}

// valueCall builds the wrapper that evaluates one code span inside a
// concatenation:
//
//	function (v) { v = <expr>; return v || v === 0 || v === false ? v : ""; }.call(this)
func (g *generator) valueCall(stmt *ast.ExpressionStatement) ast.Expr {
	f := g.f
	v := func() *ast.Identifier { return f.Ident("v") }

	assign := f.ExprStmt(f.Assign(v(), stmt.Expression))
	keep := f.Logical("||",
		f.Logical("||", v(), f.Binary("===", v(), f.Number(0))),
		f.Binary("===", v(), f.Bool(false)),
	)
	ret := f.Return(f.Conditional(keep, v(), f.String("")))

	body := []ast.Stmt{assign, ret}
	if shouldWrap(stmt) {
		body = []ast.Stmt{g.errorHandler(assign), f.Empty(), ret}
	}
	fn := f.Function([]*ast.Identifier{v()}, body...)
	return f.Call(f.Member(fn, "call"), f.This())
}

// errorHandler wraps s as `try { s } catch (e) { E(e, this); }`.
func (g *generator) errorHandler(s ast.Stmt) ast.Stmt {
	f := g.f
	report := f.ExprStmt(f.Call(f.Ident(errorHandlerName), f.Ident("e"), f.This()))
	return f.TryCatch([]ast.Stmt{s}, "e", report)
}

// shouldWrap reports whether evaluating n can throw in a way the legacy
// interpreter swallowed: a plain member access or call not rooted at an
// exempt builtin, or a direct reference to the global holders. Optional
// chains never throw on a missing base and are not inspected.
func shouldWrap(n ast.Node) bool {
	wrap := false
	ast.Walk(n, func(n, _ ast.Node) bool {
		if wrap {
			return false
		}
		switch x := n.(type) {
		case *ast.ChainExpression:
			return false
		case *ast.MemberExpression:
			if !exemptRoot(x) {
				wrap = true
			}
		case *ast.CallExpression:
			if !exemptRoot(x) {
				wrap = true
			}
		case *ast.Identifier:
			if x.Name == "window" || x.Name == globalName {
				wrap = true
			}
		}
		return !wrap
	})
	return wrap
}

// exemptRoot reports whether the access chain e starts at an exempt
// builtin such as Math or Date.
func exemptRoot(e ast.Expr) bool {
	for {
		switch x := e.(type) {
		case *ast.MemberExpression:
			e = x.Object
		case *ast.CallExpression:
			e = x.Callee
		case *ast.Identifier:
			return exemptNames[x.Name]
		default:
			return false
		}
	}
}

func hasFunction(n ast.Node) bool {
	return ast.Any(n, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.FunctionExpression, *ast.FunctionDeclaration, *ast.ArrowFunctionExpression:
			return true
		}
		return false
	})
}

func hasTemplateString(n ast.Node) bool {
	return ast.Any(n, func(n ast.Node) bool {
		t, ok := n.(*ast.TemplateLiteral)
		return ok && len(t.Expressions) > 0
	})
}

// escapeTemplateNewlines turns literal line breaks inside template
// chunks into `\n` escapes so every program prints on predictable lines.
func escapeTemplateNewlines(prog *ast.Program) {
	ast.Walk(prog, func(n, _ ast.Node) bool {
		el, ok := n.(*ast.TemplateElement)
		if !ok {
			return true
		}
		el.Value.Raw = strings.ReplaceAll(el.Value.Raw, "\n", `\n`)
		if el.Value.Cooked != nil {
			cooked := strings.ReplaceAll(*el.Value.Cooked, "\n", `\n`)
			el.Value.Cooked = &cooked
		}
		return false
	})
}

func isEmptyString(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return false
	}
	s, ok := lit.Value.(string)
	return ok && s == "" && lit.Regex == nil
}
