package compiler

import (
	"fmt"

	"github.com/rubiojr/tourney/ast"
)

// globalName is the holder object that receives reads of names missing
// from the data value.
const globalName = "global"

// exemptNames are left as plain globals so templates keep access to the
// builtins the legacy interpreter exposed.
var exemptNames = map[string]bool{
	"isFinite":  true,
	"isNaN":     true,
	"NaN":       true,
	"Date":      true,
	"RegExp":    true,
	"Math":      true,
	"undefined": true,
}

// contextNames are never rewritten.
var contextNames = map[string]bool{
	"this":   true,
	"window": true,
	"global": true,
}

// Resolve rewrites every free identifier of prog into a lookup against
// data, falling back to the global holder:
//
//	x  =>  ("x" in data ? data : global).x
//
// Identifiers bound by a declaration, parameter or catch clause in an
// enclosing scope are left alone. data is cloned for every rewrite.
func Resolve(prog *ast.Program, data ast.Expr) error {
	r := &resolver{f: ast.NewFactory(), data: data}
	r.visit(prog)
	return r.err
}

type resolver struct {
	f         *ast.Factory
	data      ast.Expr
	scopes    []map[string]bool
	ancestors []ast.Node
	err       error
}

func (r *resolver) declared(name string) bool {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i][name] {
			return true
		}
	}
	return false
}

// ancestor returns the n-th enclosing node, 0 being the direct parent.
func (r *resolver) ancestor(n int) ast.Node {
	i := len(r.ancestors) - 1 - n
	if i < 0 {
		return nil
	}
	return r.ancestors[i]
}

func (r *resolver) globalSwitch(name string) ast.Expr {
	f := r.f
	return f.Member(
		f.Conditional(
			f.Binary("in", f.String(name), ast.Clone(r.data)),
			ast.Clone(r.data),
			f.Ident(globalName),
		),
		name,
	)
}

// slot visits the expression stored in p, replacing it when it is a free
// identifier.
func (r *resolver) slot(p *ast.Expr) {
	if r.err != nil || *p == nil {
		return
	}
	if id, ok := (*p).(*ast.Identifier); ok {
		if r.rewritable(id) {
			*p = r.globalSwitch(id.Name)
		}
		return
	}
	r.visit(*p)
}

// node visits a slot that holds either an expression or another node
// kind, such as a for-loop head.
func (r *resolver) node(p *ast.Node) {
	if *p == nil {
		return
	}
	if e, ok := (*p).(ast.Expr); ok {
		r.slot(&e)
		*p = e
		return
	}
	r.visit(*p)
}

func (r *resolver) slots(es []ast.Expr) {
	for i := range es {
		r.slot(&es[i])
	}
}

func (r *resolver) stmts(ss []ast.Stmt) {
	for _, s := range ss {
		r.visit(s)
	}
}

func (r *resolver) pushScope(names map[string]bool) {
	r.scopes = append(r.scopes, names)
}

func (r *resolver) popScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) visit(n ast.Node) {
	if r.err != nil || n == nil {
		return
	}
	r.ancestors = append(r.ancestors, n)
	defer func() { r.ancestors = r.ancestors[:len(r.ancestors)-1] }()

	switch x := n.(type) {
	case *ast.Program:
		r.pushScope(hoisted(x.Body))
		r.stmts(x.Body)
		r.popScope()
	case *ast.ExpressionStatement:
		r.slot(&x.Expression)
	case *ast.BlockStatement:
		r.stmts(x.Body)
	case *ast.VariableDeclaration:
		for _, d := range x.Declarations {
			r.visit(d)
		}
	case *ast.VariableDeclarator:
		r.slot(&x.ID)
		r.slot(&x.Init)
	case *ast.FunctionDeclaration:
		r.function(nil, x.Params, x.Body)
	case *ast.FunctionExpression:
		r.function(x.ID, x.Params, x.Body)
	case *ast.ArrowFunctionExpression:
		scope := map[string]bool{}
		for _, p := range x.Params {
			bindingNames(p, scope)
		}
		if b, ok := x.Body.(*ast.BlockStatement); ok {
			for name := range hoisted(b.Body) {
				scope[name] = true
			}
		}
		r.pushScope(scope)
		r.slots(x.Params)
		r.node(&x.Body)
		r.popScope()
	case *ast.ReturnStatement:
		r.slot(&x.Argument)
	case *ast.IfStatement:
		r.slot(&x.Test)
		r.visit(x.Consequent)
		if x.Alternate != nil {
			r.visit(x.Alternate)
		}
	case *ast.ForStatement:
		r.node(&x.Init)
		r.slot(&x.Test)
		r.slot(&x.Update)
		r.visit(x.Body)
	case *ast.ForInStatement:
		r.node(&x.Left)
		r.slot(&x.Right)
		r.visit(x.Body)
	case *ast.ForOfStatement:
		r.node(&x.Left)
		r.slot(&x.Right)
		r.visit(x.Body)
	case *ast.WhileStatement:
		r.slot(&x.Test)
		r.visit(x.Body)
	case *ast.DoWhileStatement:
		r.visit(x.Body)
		r.slot(&x.Test)
	case *ast.ThrowStatement:
		r.slot(&x.Argument)
	case *ast.TryStatement:
		r.visit(x.Block)
		if x.Handler != nil {
			r.visit(x.Handler)
		}
		if x.Finalizer != nil {
			r.visit(x.Finalizer)
		}
	case *ast.CatchClause:
		scope := map[string]bool{}
		bindingNames(x.Param, scope)
		r.pushScope(scope)
		r.slot(&x.Param)
		r.visit(x.Body)
		r.popScope()
	case *ast.SwitchStatement:
		r.slot(&x.Discriminant)
		for _, c := range x.Cases {
			r.visit(c)
		}
	case *ast.SwitchCase:
		r.slot(&x.Test)
		r.stmts(x.Consequent)
	case *ast.LabeledStatement:
		r.visit(x.Body)
	case *ast.TemplateLiteral:
		r.slots(x.Expressions)
	case *ast.TaggedTemplateExpression:
		r.slot(&x.Tag)
		r.visit(x.Quasi)
	case *ast.ArrayExpression:
		r.slots(x.Elements)
	case *ast.ObjectExpression:
		r.slots(x.Properties)
	case *ast.Property:
		if x.Computed {
			r.slot(&x.Key)
		}
		r.slot(&x.Value)
	case *ast.UnaryExpression:
		r.slot(&x.Argument)
	case *ast.UpdateExpression:
		r.slot(&x.Argument)
	case *ast.BinaryExpression:
		r.slot(&x.Left)
		r.slot(&x.Right)
	case *ast.LogicalExpression:
		r.slot(&x.Left)
		r.slot(&x.Right)
	case *ast.AssignmentExpression:
		r.slot(&x.Left)
		r.slot(&x.Right)
	case *ast.ConditionalExpression:
		r.slot(&x.Test)
		r.slot(&x.Consequent)
		r.slot(&x.Alternate)
	case *ast.CallExpression:
		r.slot(&x.Callee)
		r.slots(x.Arguments)
	case *ast.NewExpression:
		r.slot(&x.Callee)
		r.slots(x.Arguments)
	case *ast.MemberExpression:
		r.slot(&x.Object)
		r.slot(&x.Property)
	case *ast.ChainExpression:
		r.slot(&x.Expression)
	case *ast.SequenceExpression:
		r.slots(x.Expressions)
	case *ast.SpreadElement:
		r.slot(&x.Argument)
	case *ast.YieldExpression:
		r.slot(&x.Argument)
	case *ast.AwaitExpression:
		r.slot(&x.Argument)
	case *ast.ImportExpression:
		r.err = &UnsupportedError{Construct: "import"}
	case *ast.ObjectPattern:
		r.slots(x.Properties)
	case *ast.ArrayPattern:
		r.slots(x.Elements)
	case *ast.RestElement:
		r.slot(&x.Argument)
	case *ast.AssignmentPattern:
		r.slot(&x.Left)
		r.slot(&x.Right)
	case *ast.Identifier, *ast.Literal, *ast.TemplateElement, *ast.ThisExpression,
		*ast.Super, *ast.MetaProperty, *ast.EmptyStatement, *ast.DebuggerStatement,
		*ast.BreakStatement, *ast.ContinueStatement:
	default:
		r.err = &ContractError{Parent: fmt.Sprintf("%T", n)}
	}
}

func (r *resolver) function(id *ast.Identifier, params []ast.Expr, body *ast.BlockStatement) {
	scope := hoisted(body.Body)
	if id != nil {
		scope[id.Name] = true
	}
	for _, p := range params {
		bindingNames(p, scope)
	}
	r.pushScope(scope)
	r.slots(params)
	r.visit(body)
	r.popScope()
}

// rewritable reports whether the free identifier id, sitting under the
// current top of the ancestor stack, should be replaced. It records a
// ContractError for parent kinds without a rule.
func (r *resolver) rewritable(id *ast.Identifier) bool {
	if exemptNames[id.Name] {
		return false
	}
	var self ast.Expr = id
	// A property value loses its shorthand even when it stays unresolved.
	prop, isProp := r.ancestor(0).(*ast.Property)
	if isProp {
		if prop.Value != self || r.declaratorPattern() {
			return false
		}
		prop.Shorthand = false
	}
	if r.declared(id.Name) || contextNames[id.Name] {
		return false
	}
	switch p := r.ancestor(0).(type) {
	case *ast.MemberExpression:
		return p.Object == self || p.Computed
	case *ast.Property:
		return true
	case *ast.AssignmentPattern:
		return p.Right == self
	case *ast.VariableDeclarator:
		return p.Init == self
	case *ast.ArrowFunctionExpression:
		return p.Body == ast.Node(id)
	case *ast.BinaryExpression, *ast.UnaryExpression, *ast.UpdateExpression,
		*ast.LogicalExpression, *ast.ConditionalExpression, *ast.AssignmentExpression,
		*ast.SequenceExpression, *ast.ArrayExpression, *ast.CallExpression,
		*ast.NewExpression, *ast.SpreadElement, *ast.TaggedTemplateExpression,
		*ast.TemplateLiteral, *ast.AwaitExpression, *ast.YieldExpression,
		*ast.IfStatement, *ast.ForStatement, *ast.ForInStatement, *ast.ForOfStatement,
		*ast.WhileStatement, *ast.DoWhileStatement, *ast.SwitchStatement, *ast.SwitchCase,
		*ast.ReturnStatement, *ast.ThrowStatement, *ast.ExpressionStatement:
		return true
	case *ast.FunctionDeclaration, *ast.FunctionExpression, *ast.ArrayPattern,
		*ast.ObjectPattern, *ast.RestElement, *ast.CatchClause, *ast.LabeledStatement,
		*ast.BreakStatement, *ast.ContinueStatement, *ast.MetaProperty:
		return false
	default:
		if r.err == nil {
			r.err = &ContractError{Parent: nodeType(p), Name: id.Name}
		}
		return false
	}
}

// declaratorPattern reports whether the current property belongs to an
// object pattern that is the id of a variable declarator.
func (r *resolver) declaratorPattern() bool {
	container := r.ancestor(1)
	d, ok := r.ancestor(2).(*ast.VariableDeclarator)
	return ok && container != nil && ast.Node(d.ID) == container
}

func nodeType(n ast.Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Type()
}

// hoisted collects the names declared by body without entering nested
// functions: var, let and const bindings plus function declarations.
func hoisted(body []ast.Stmt) map[string]bool {
	names := map[string]bool{}
	var collect func(s ast.Node)
	collect = func(s ast.Node) {
		switch x := s.(type) {
		case *ast.VariableDeclaration:
			for _, d := range x.Declarations {
				bindingNames(d.ID, names)
			}
		case *ast.FunctionDeclaration:
			if x.ID != nil {
				names[x.ID.Name] = true
			}
		case *ast.BlockStatement:
			for _, c := range x.Body {
				collect(c)
			}
		case *ast.IfStatement:
			collect(x.Consequent)
			if x.Alternate != nil {
				collect(x.Alternate)
			}
		case *ast.ForStatement:
			if x.Init != nil {
				collect(x.Init)
			}
			collect(x.Body)
		case *ast.ForInStatement:
			collect(x.Left)
			collect(x.Body)
		case *ast.ForOfStatement:
			collect(x.Left)
			collect(x.Body)
		case *ast.WhileStatement:
			collect(x.Body)
		case *ast.DoWhileStatement:
			collect(x.Body)
		case *ast.TryStatement:
			collect(x.Block)
			if x.Handler != nil {
				collect(x.Handler.Body)
			}
			if x.Finalizer != nil {
				collect(x.Finalizer)
			}
		case *ast.SwitchStatement:
			for _, c := range x.Cases {
				for _, s := range c.Consequent {
					collect(s)
				}
			}
		case *ast.LabeledStatement:
			collect(x.Body)
		}
	}
	for _, s := range body {
		collect(s)
	}
	return names
}

// bindingNames adds the names bound by a parameter or declaration target.
func bindingNames(target ast.Expr, names map[string]bool) {
	switch x := target.(type) {
	case *ast.Identifier:
		names[x.Name] = true
	case *ast.ObjectPattern:
		for _, p := range x.Properties {
			if prop, ok := p.(*ast.Property); ok {
				bindingNames(prop.Value, names)
			} else {
				bindingNames(p, names)
			}
		}
	case *ast.ArrayPattern:
		for _, e := range x.Elements {
			if e != nil {
				bindingNames(e, names)
			}
		}
	case *ast.RestElement:
		bindingNames(x.Argument, names)
	case *ast.AssignmentPattern:
		bindingNames(x.Left, names)
	}
}
