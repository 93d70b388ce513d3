package compat

import (
	"fmt"

	"github.com/rubiojr/tourney/ast"
	"github.com/rubiojr/tourney/parser"
)

// IsDifferent reports whether two program texts differ structurally.
// Position information and literal spelling are ignored.
//
// Two differences are tolerated. A single-value program may be wrapped in
// a try statement on one side only; the wrapped statement is compared
// instead. Concatenation programs (`return [...].join("")`) are compared
// part by part, with each part's value wrapper reduced to the statement
// computing the value.
func IsDifferent(oracleCode, ourCode string) (bool, error) {
	theirs, err := parser.ParseScript(oracleCode)
	if err != nil {
		return false, fmt.Errorf("parsing oracle program: %w", err)
	}
	ours, err := parser.ParseScript(ourCode)
	if err != nil {
		return false, fmt.Errorf("parsing generated program: %w", err)
	}
	if ast.Equivalent(theirs, ours) {
		return false, nil
	}

	a, b := result(theirs), result(ours)
	if a == nil || b == nil {
		return true, nil
	}

	ta, aWrapped := a.(*ast.TryStatement)
	tb, bWrapped := b.(*ast.TryStatement)
	switch {
	case bWrapped && !aWrapped:
		return !ast.Equivalent(a, firstStatement(tb.Block)), nil
	case aWrapped && !bWrapped:
		return !ast.Equivalent(firstStatement(ta.Block), b), nil
	}

	pa, okA := joinParts(a)
	pb, okB := joinParts(b)
	if !okA || !okB || len(pa) != len(pb) {
		return true, nil
	}
	for i := range pa {
		if !ast.Equivalent(partValue(pa[i]), partValue(pb[i])) {
			return true, nil
		}
	}
	return false, nil
}

// result returns the statement producing the program's value.
func result(prog *ast.Program) ast.Stmt {
	if len(prog.Body) == 0 {
		return nil
	}
	return prog.Body[len(prog.Body)-1]
}

func firstStatement(b *ast.BlockStatement) ast.Stmt {
	if b == nil || len(b.Body) == 0 {
		return nil
	}
	return b.Body[0]
}

// joinParts matches `return [parts...].join("")`.
func joinParts(s ast.Stmt) ([]ast.Expr, bool) {
	ret, ok := s.(*ast.ReturnStatement)
	if !ok {
		return nil, false
	}
	call, ok := ret.Argument.(*ast.CallExpression)
	if !ok || len(call.Arguments) != 1 {
		return nil, false
	}
	if lit, ok := call.Arguments[0].(*ast.Literal); !ok || lit.Value != "" {
		return nil, false
	}
	callee, ok := call.Callee.(*ast.MemberExpression)
	if !ok || callee.Computed {
		return nil, false
	}
	if prop, ok := callee.Property.(*ast.Identifier); !ok || prop.Name != "join" {
		return nil, false
	}
	arr, ok := callee.Object.(*ast.ArrayExpression)
	if !ok {
		return nil, false
	}
	return arr.Elements, true
}

// partValue reduces a `function (v) { ... }.call(this)` wrapper to its
// first statement, looking inside a leading try. Other parts are returned
// as they are.
func partValue(e ast.Expr) ast.Node {
	call, ok := e.(*ast.CallExpression)
	if !ok {
		return e
	}
	callee, ok := call.Callee.(*ast.MemberExpression)
	if !ok {
		return e
	}
	fn, ok := callee.Object.(*ast.FunctionExpression)
	if !ok || fn.Body == nil || len(fn.Body.Body) == 0 {
		return e
	}
	first := fn.Body.Body[0]
	if try, ok := first.(*ast.TryStatement); ok {
		return firstStatement(try.Block)
	}
	return first
}
