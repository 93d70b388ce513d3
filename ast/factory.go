package ast

import "strconv"

// Factory centralizes node creation for the compiler passes. Built nodes
// carry no source position.
type Factory struct{}

// NewFactory returns a new Factory.
func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Ident(name string) *Identifier {
	return &Identifier{Name: name}
}

func (f *Factory) This() *ThisExpression { return &ThisExpression{} }

// String creates a string literal. The printer quotes it.
func (f *Factory) String(s string) *Literal {
	return &Literal{Value: s}
}

func (f *Factory) Number(n float64) *Literal {
	return &Literal{Value: n, Raw: strconv.FormatFloat(n, 'f', -1, 64)}
}

func (f *Factory) Bool(b bool) *Literal {
	return &Literal{Value: b, Raw: strconv.FormatBool(b)}
}

// Member creates obj.name.
func (f *Factory) Member(obj Expr, name string) *MemberExpression {
	return &MemberExpression{Object: obj, Property: f.Ident(name)}
}

func (f *Factory) Conditional(test, cons, alt Expr) *ConditionalExpression {
	return &ConditionalExpression{Test: test, Consequent: cons, Alternate: alt}
}

func (f *Factory) Binary(op string, left, right Expr) *BinaryExpression {
	return &BinaryExpression{Operator: op, Left: left, Right: right}
}

func (f *Factory) Logical(op string, left, right Expr) *LogicalExpression {
	return &LogicalExpression{Operator: op, Left: left, Right: right}
}

func (f *Factory) Assign(left, right Expr) *AssignmentExpression {
	return &AssignmentExpression{Operator: "=", Left: left, Right: right}
}

func (f *Factory) Call(callee Expr, args ...Expr) *CallExpression {
	if args == nil {
		args = []Expr{}
	}
	return &CallExpression{Callee: callee, Arguments: args}
}

func (f *Factory) Array(elems ...Expr) *ArrayExpression {
	if elems == nil {
		elems = []Expr{}
	}
	return &ArrayExpression{Elements: elems}
}

func (f *Factory) Object(props ...Expr) *ObjectExpression {
	if props == nil {
		props = []Expr{}
	}
	return &ObjectExpression{Properties: props}
}

// Function creates an anonymous function expression.
func (f *Factory) Function(params []*Identifier, body ...Stmt) *FunctionExpression {
	ps := make([]Expr, len(params))
	for i, p := range params {
		ps[i] = p
	}
	return &FunctionExpression{Params: ps, Body: f.Block(body...)}
}

func (f *Factory) Block(body ...Stmt) *BlockStatement {
	if body == nil {
		body = []Stmt{}
	}
	return &BlockStatement{Body: body}
}

func (f *Factory) ExprStmt(e Expr) *ExpressionStatement {
	return &ExpressionStatement{Expression: e}
}

func (f *Factory) Return(e Expr) *ReturnStatement {
	return &ReturnStatement{Argument: e}
}

func (f *Factory) Empty() *EmptyStatement { return &EmptyStatement{} }

// Var creates `var name = init;`.
func (f *Factory) Var(name string, init Expr) *VariableDeclaration {
	return &VariableDeclaration{
		Kind:         "var",
		Declarations: []*VariableDeclarator{{ID: f.Ident(name), Init: init}},
	}
}

// TryCatch creates `try { block } catch (param) { handler }`.
func (f *Factory) TryCatch(block []Stmt, param string, handler ...Stmt) *TryStatement {
	return &TryStatement{
		Block:   f.Block(block...),
		Handler: &CatchClause{Param: f.Ident(param), Body: f.Block(handler...)},
	}
}

// ProgramOf creates a Program from statements.
func (f *Factory) ProgramOf(body ...Stmt) *Program {
	if body == nil {
		body = []Stmt{}
	}
	return &Program{Body: body}
}
