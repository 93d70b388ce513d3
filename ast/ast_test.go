package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTree() *Program {
	f := NewFactory()
	// var x = a.b(1, "s");
	return f.ProgramOf(
		f.Var("x", f.Call(f.Member(f.Ident("a"), "b"), f.Number(1), f.String("s"))),
	)
}

func TestEquivalentIgnoresPositionsAndRaw(t *testing.T) {
	a := sampleTree()
	b := sampleTree()
	b.Loc = Loc{Start: 3, End: 9, Line: 2, Column: 4}
	call := b.Body[0].(*VariableDeclaration).Declarations[0].Init.(*CallExpression)
	call.Arguments[0].(*Literal).Raw = "1.0"
	call.Arguments[1].(*Literal).Raw = "'s'"
	b.Errors = []Diagnostic{{Message: "tolerated"}}
	assert.True(t, Equivalent(a, b))
	assert.True(t, Equivalent(b, a))
}

func TestEquivalentDetectsDifferences(t *testing.T) {
	f := NewFactory()
	tests := []struct {
		name string
		a, b Node
	}{
		{"identifier name", f.Ident("a"), f.Ident("b")},
		{"node type", f.Ident("a"), f.This()},
		{"literal value", f.Number(1), f.Number(2)},
		{"literal kind", f.Number(1), f.String("1")},
		{"operator", f.Binary("+", f.Ident("a"), f.Ident("b")), f.Binary("-", f.Ident("a"), f.Ident("b"))},
		{"argument count", f.Call(f.Ident("a")), f.Call(f.Ident("a"), f.Ident("b"))},
		{"nil slot", &ReturnStatement{}, f.Return(f.Ident("a"))},
		{"computed flag", &MemberExpression{Object: f.Ident("a"), Property: f.Ident("b"), Computed: true}, f.Member(f.Ident("a"), "b")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Equivalent(tt.a, tt.b))
		})
	}
}

func TestEquivalentNilAndEmptySlices(t *testing.T) {
	assert.True(t, Equivalent(&ArrayExpression{}, &ArrayExpression{Elements: []Expr{}}))
	assert.True(t, Equivalent(nil, nil))
	assert.False(t, Equivalent(nil, &EmptyStatement{}))
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleTree()
	cp := Clone(orig)
	assert.True(t, Equivalent(orig, cp))

	decl := cp.Body[0].(*VariableDeclaration).Declarations[0]
	decl.ID.(*Identifier).Name = "y"
	assert.Equal(t, "x", orig.Body[0].(*VariableDeclaration).Declarations[0].ID.(*Identifier).Name)
	assert.False(t, Equivalent(orig, cp))
}

func TestWalkVisitsInSourceOrder(t *testing.T) {
	var names []string
	Walk(sampleTree(), func(n, _ Node) bool {
		if id, ok := n.(*Identifier); ok {
			names = append(names, id.Name)
		}
		return true
	})
	assert.Equal(t, []string{"x", "a", "b"}, names)
}

func TestWalkParentsAndSkip(t *testing.T) {
	f := NewFactory()
	fn := f.Function(nil, f.Return(f.Ident("inner")))
	prog := f.ProgramOf(f.ExprStmt(f.Binary("+", f.Ident("outer"), fn)))

	var seen []string
	parents := map[string]string{}
	Walk(prog, func(n, parent Node) bool {
		if id, ok := n.(*Identifier); ok {
			seen = append(seen, id.Name)
			parents[id.Name] = parent.Type()
		}
		_, isFn := n.(*FunctionExpression)
		return !isFn
	})
	assert.Equal(t, []string{"outer"}, seen)
	assert.Equal(t, "BinaryExpression", parents["outer"])
}

func TestAny(t *testing.T) {
	isCall := func(n Node) bool { _, ok := n.(*CallExpression); return ok }
	isThis := func(n Node) bool { _, ok := n.(*ThisExpression); return ok }
	assert.True(t, Any(sampleTree(), isCall))
	assert.False(t, Any(sampleTree(), isThis))
}

func TestChildrenTemplateOrder(t *testing.T) {
	f := NewFactory()
	q := func(s string, tail bool) *TemplateElement {
		return &TemplateElement{Value: TemplateValue{Raw: s, Cooked: &s}, Tail: tail}
	}
	tl := &TemplateLiteral{
		Quasis:      []*TemplateElement{q("a", false), q("b", true)},
		Expressions: []Expr{f.Ident("x")},
	}
	kids := Children(tl)
	if assert.Len(t, kids, 3) {
		assert.Equal(t, "TemplateElement", kids[0].Type())
		assert.Equal(t, "Identifier", kids[1].Type())
		assert.Equal(t, "TemplateElement", kids[2].Type())
	}
}

func TestChildrenSkipsHolesAndNilPointers(t *testing.T) {
	f := NewFactory()
	arr := &ArrayExpression{Elements: []Expr{nil, f.Ident("a"), nil}}
	assert.Len(t, Children(arr), 1)
	assert.Empty(t, Children(&BreakStatement{}))
	try := &TryStatement{Block: f.Block(), Handler: &CatchClause{Body: f.Block()}}
	assert.Len(t, Children(try), 2)
}
