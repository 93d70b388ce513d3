package compiler

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rubiojr/tourney/ast"
)

// Print serializes a tree to script text. Output is deterministic: the
// same tree always prints the same bytes.
func Print(n ast.Node) string {
	p := &printer{}
	switch x := n.(type) {
	case *ast.Program:
		p.program(x)
	case ast.Stmt:
		p.stmt(x)
	case ast.Expr:
		p.expr(x, levelLowest)
	}
	return p.sb.String()
}

// Binding levels, weakest first. A child printed in a slot that needs a
// stronger level than its own is parenthesized.
type level int

const (
	levelLowest level = iota
	levelComma
	levelSpread
	levelYield
	levelAssign
	levelConditional
	levelNullish
	levelLogicalOr
	levelLogicalAnd
	levelBitwiseOr
	levelBitwiseXor
	levelBitwiseAnd
	levelEquals
	levelCompare
	levelShift
	levelAdd
	levelMultiply
	levelExponent
	levelPrefix
	levelPostfix
	levelNew
	levelCall
	levelMember
	levelPrimary
)

var binaryLevels = map[string]level{
	"??": levelNullish,
	"||": levelLogicalOr,
	"&&": levelLogicalAnd,
	"|":  levelBitwiseOr,
	"^":  levelBitwiseXor,
	"&":  levelBitwiseAnd,
	"==": levelEquals, "!=": levelEquals, "===": levelEquals, "!==": levelEquals,
	"<": levelCompare, ">": levelCompare, "<=": levelCompare, ">=": levelCompare,
	"in": levelCompare, "instanceof": levelCompare,
	"<<": levelShift, ">>": levelShift, ">>>": levelShift,
	"+": levelAdd, "-": levelAdd,
	"*": levelMultiply, "/": levelMultiply, "%": levelMultiply,
	"**": levelExponent,
}

func exprLevel(e ast.Expr) level {
	switch x := e.(type) {
	case *ast.SequenceExpression:
		return levelComma
	case *ast.YieldExpression:
		return levelYield
	case *ast.AssignmentExpression, *ast.ArrowFunctionExpression, *ast.AssignmentPattern:
		return levelAssign
	case *ast.ConditionalExpression:
		return levelConditional
	case *ast.BinaryExpression:
		return binaryLevels[x.Operator]
	case *ast.LogicalExpression:
		return binaryLevels[x.Operator]
	case *ast.UnaryExpression, *ast.AwaitExpression:
		return levelPrefix
	case *ast.UpdateExpression:
		if x.Prefix {
			return levelPrefix
		}
		return levelPostfix
	case *ast.ChainExpression:
		// An optional chain used as an object or callee must keep its
		// parentheses or the chain would extend over the outer access.
		return levelPostfix
	case *ast.NewExpression, *ast.CallExpression, *ast.TaggedTemplateExpression:
		return levelCall
	case *ast.MemberExpression:
		return levelMember
	}
	return levelPrimary
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) raw(s string) { p.sb.WriteString(s) }

func (p *printer) newline() {
	p.sb.WriteByte('\n')
	for range p.indent {
		p.sb.WriteString("  ")
	}
}

func (p *printer) program(prog *ast.Program) {
	for i, s := range prog.Body {
		if i > 0 {
			p.newline()
		}
		p.stmt(s)
	}
}

// --- Statements ---

func (p *printer) block(b *ast.BlockStatement) {
	p.stmtList(b.Body)
}

func (p *printer) stmtList(body []ast.Stmt) {
	if len(body) == 0 {
		p.raw("{}")
		return
	}
	p.raw("{")
	p.indent++
	for _, s := range body {
		p.newline()
		p.stmt(s)
	}
	p.indent--
	p.newline()
	p.raw("}")
}

func (p *printer) stmt(s ast.Stmt) {
	switch x := s.(type) {
	case *ast.ExpressionStatement:
		if startsAmbiguously(x.Expression) {
			p.raw("(")
			p.expr(x.Expression, levelLowest)
			p.raw(")")
		} else {
			p.expr(x.Expression, levelLowest)
		}
		p.raw(";")
	case *ast.BlockStatement:
		p.block(x)
	case *ast.EmptyStatement:
		p.raw(";")
	case *ast.DebuggerStatement:
		p.raw("debugger;")
	case *ast.VariableDeclaration:
		p.varDecl(x, false)
		p.raw(";")
	case *ast.FunctionDeclaration:
		p.function(x.ID, x.Params, x.Body, x.Async, x.Generator)
	case *ast.ReturnStatement:
		p.raw("return")
		if x.Argument != nil {
			p.raw(" ")
			p.expr(x.Argument, levelLowest)
		}
		p.raw(";")
	case *ast.IfStatement:
		p.raw("if (")
		p.expr(x.Test, levelLowest)
		p.raw(") ")
		cons := x.Consequent
		if inner, ok := cons.(*ast.IfStatement); ok && x.Alternate != nil && inner.Alternate == nil {
			// Keep the else bound to this if.
			cons = &ast.BlockStatement{Body: []ast.Stmt{inner}}
		}
		p.stmt(cons)
		if x.Alternate != nil {
			if _, ok := cons.(*ast.BlockStatement); ok {
				p.raw(" ")
			} else {
				p.newline()
			}
			p.raw("else ")
			p.stmt(x.Alternate)
		}
	case *ast.ForStatement:
		p.raw("for (")
		if x.Init != nil {
			p.forInit(x.Init)
		}
		p.raw(";")
		if x.Test != nil {
			p.raw(" ")
			p.expr(x.Test, levelLowest)
		}
		p.raw(";")
		if x.Update != nil {
			p.raw(" ")
			p.expr(x.Update, levelLowest)
		}
		p.raw(") ")
		p.stmt(x.Body)
	case *ast.ForInStatement:
		p.raw("for (")
		p.forInit(x.Left)
		p.raw(" in ")
		p.expr(x.Right, levelLowest)
		p.raw(") ")
		p.stmt(x.Body)
	case *ast.ForOfStatement:
		p.raw("for ")
		if x.Await {
			p.raw("await ")
		}
		p.raw("(")
		p.forInit(x.Left)
		p.raw(" of ")
		p.expr(x.Right, levelAssign)
		p.raw(") ")
		p.stmt(x.Body)
	case *ast.WhileStatement:
		p.raw("while (")
		p.expr(x.Test, levelLowest)
		p.raw(") ")
		p.stmt(x.Body)
	case *ast.DoWhileStatement:
		p.raw("do ")
		p.stmt(x.Body)
		p.raw(" while (")
		p.expr(x.Test, levelLowest)
		p.raw(");")
	case *ast.BreakStatement:
		p.jump("break", x.Label)
	case *ast.ContinueStatement:
		p.jump("continue", x.Label)
	case *ast.ThrowStatement:
		p.raw("throw ")
		p.expr(x.Argument, levelLowest)
		p.raw(";")
	case *ast.TryStatement:
		p.raw("try ")
		p.block(x.Block)
		if h := x.Handler; h != nil {
			p.raw(" catch ")
			if h.Param != nil {
				p.raw("(")
				p.expr(h.Param, levelLowest)
				p.raw(") ")
			}
			p.block(h.Body)
		}
		if x.Finalizer != nil {
			p.raw(" finally ")
			p.block(x.Finalizer)
		}
	case *ast.SwitchStatement:
		p.raw("switch (")
		p.expr(x.Discriminant, levelLowest)
		p.raw(") {")
		p.indent++
		for _, c := range x.Cases {
			p.newline()
			if c.Test != nil {
				p.raw("case ")
				p.expr(c.Test, levelLowest)
				p.raw(":")
			} else {
				p.raw("default:")
			}
			p.indent++
			for _, s := range c.Consequent {
				p.newline()
				p.stmt(s)
			}
			p.indent--
		}
		p.indent--
		p.newline()
		p.raw("}")
	case *ast.LabeledStatement:
		p.raw(x.Label.Name)
		p.raw(": ")
		p.stmt(x.Body)
	}
}

func (p *printer) jump(keyword string, label *ast.Identifier) {
	p.raw(keyword)
	if label != nil {
		p.raw(" ")
		p.raw(label.Name)
	}
	p.raw(";")
}

func (p *printer) varDecl(d *ast.VariableDeclaration, noIn bool) {
	p.raw(d.Kind)
	p.raw(" ")
	for i, decl := range d.Declarations {
		if i > 0 {
			p.raw(", ")
		}
		p.expr(decl.ID, levelAssign)
		if decl.Init != nil {
			p.raw(" = ")
			if noIn && containsIn(decl.Init) {
				p.raw("(")
				p.expr(decl.Init, levelLowest)
				p.raw(")")
				continue
			}
			p.expr(decl.Init, levelAssign)
		}
	}
}

// forInit prints a loop head without its semicolon. A bare `in` in the
// head would be read as a for-in, so such expressions get parentheses.
func (p *printer) forInit(n ast.Node) {
	switch x := n.(type) {
	case *ast.VariableDeclaration:
		p.varDecl(x, true)
	case ast.Expr:
		if containsIn(x) {
			p.raw("(")
			p.expr(x, levelLowest)
			p.raw(")")
			return
		}
		p.expr(x, levelLowest)
	}
}

func containsIn(e ast.Expr) bool {
	return ast.Any(e, func(n ast.Node) bool {
		b, ok := n.(*ast.BinaryExpression)
		return ok && b.Operator == "in"
	})
}

// startsAmbiguously reports whether an expression statement would begin
// with `{` or `function` and be read as a block or declaration.
func startsAmbiguously(e ast.Expr) bool {
	for {
		switch x := e.(type) {
		case *ast.ObjectExpression, *ast.ObjectPattern, *ast.FunctionExpression:
			return true
		case *ast.BinaryExpression:
			e = x.Left
		case *ast.LogicalExpression:
			e = x.Left
		case *ast.AssignmentExpression:
			e = x.Left
		case *ast.ConditionalExpression:
			e = x.Test
		case *ast.SequenceExpression:
			e = x.Expressions[0]
		case *ast.CallExpression:
			e = x.Callee
		case *ast.MemberExpression:
			e = x.Object
		case *ast.ChainExpression:
			e = x.Expression
		case *ast.TaggedTemplateExpression:
			e = x.Tag
		case *ast.UpdateExpression:
			if x.Prefix {
				return false
			}
			e = x.Argument
		default:
			return false
		}
	}
}

// --- Expressions ---

func (p *printer) expr(e ast.Expr, min level) {
	if e == nil {
		return
	}
	if exprLevel(e) < min {
		p.raw("(")
		p.exprInner(e)
		p.raw(")")
		return
	}
	p.exprInner(e)
}

func (p *printer) exprInner(e ast.Expr) {
	switch x := e.(type) {
	case *ast.Identifier:
		p.raw(x.Name)
	case *ast.ThisExpression:
		p.raw("this")
	case *ast.Super:
		p.raw("super")
	case *ast.Literal:
		p.raw(literalText(x))
	case *ast.TemplateLiteral:
		p.template(x)
	case *ast.TaggedTemplateExpression:
		p.expr(x.Tag, levelCall)
		p.template(x.Quasi)
	case *ast.ArrayExpression:
		p.elements(x.Elements)
	case *ast.ArrayPattern:
		p.elements(x.Elements)
	case *ast.ObjectExpression:
		p.properties(x.Properties)
	case *ast.ObjectPattern:
		p.properties(x.Properties)
	case *ast.Property:
		p.property(x)
	case *ast.FunctionExpression:
		p.function(x.ID, x.Params, x.Body, x.Async, x.Generator)
	case *ast.ArrowFunctionExpression:
		p.arrow(x)
	case *ast.UnaryExpression:
		p.raw(x.Operator)
		if len(x.Operator) > 1 {
			p.raw(" ")
		} else if needsUnarySpace(x.Operator, x.Argument) {
			p.raw(" ")
		}
		p.expr(x.Argument, levelPrefix)
	case *ast.UpdateExpression:
		if x.Prefix {
			p.raw(x.Operator)
			p.expr(x.Argument, levelPrefix)
		} else {
			p.expr(x.Argument, levelPostfix)
			p.raw(x.Operator)
		}
	case *ast.BinaryExpression:
		p.binary(x.Operator, x.Left, x.Right)
	case *ast.LogicalExpression:
		p.binary(x.Operator, x.Left, x.Right)
	case *ast.AssignmentExpression:
		p.expr(x.Left, levelPostfix)
		p.raw(" " + x.Operator + " ")
		p.expr(x.Right, levelAssign)
	case *ast.AssignmentPattern:
		p.expr(x.Left, levelPostfix)
		p.raw(" = ")
		p.expr(x.Right, levelAssign)
	case *ast.ConditionalExpression:
		p.expr(x.Test, levelNullish)
		p.raw(" ? ")
		p.expr(x.Consequent, levelAssign)
		p.raw(" : ")
		p.expr(x.Alternate, levelAssign)
	case *ast.CallExpression:
		p.expr(x.Callee, levelCall)
		if x.Optional {
			p.raw("?.")
		}
		p.arguments(x.Arguments)
	case *ast.NewExpression:
		p.raw("new ")
		if callInChain(x.Callee) {
			p.raw("(")
			p.exprInner(x.Callee)
			p.raw(")")
		} else {
			p.expr(x.Callee, levelMember)
		}
		p.arguments(x.Arguments)
	case *ast.MemberExpression:
		p.member(x)
	case *ast.ChainExpression:
		p.exprInner(x.Expression)
	case *ast.SequenceExpression:
		for i, item := range x.Expressions {
			if i > 0 {
				p.raw(", ")
			}
			p.expr(item, levelAssign)
		}
	case *ast.SpreadElement:
		p.raw("...")
		p.expr(x.Argument, levelAssign)
	case *ast.RestElement:
		p.raw("...")
		p.expr(x.Argument, levelAssign)
	case *ast.YieldExpression:
		p.raw("yield")
		if x.Delegate {
			p.raw("*")
		}
		if x.Argument != nil {
			p.raw(" ")
			p.expr(x.Argument, levelYield)
		}
	case *ast.AwaitExpression:
		p.raw("await ")
		p.expr(x.Argument, levelPrefix)
	case *ast.ImportExpression:
		p.raw("import(")
		p.expr(x.Source, levelAssign)
		p.raw(")")
	case *ast.MetaProperty:
		p.raw(x.Meta.Name + "." + x.Property.Name)
	}
}

func needsUnarySpace(op string, arg ast.Expr) bool {
	switch a := arg.(type) {
	case *ast.UnaryExpression:
		return a.Operator == op
	case *ast.UpdateExpression:
		return a.Prefix && a.Operator[:1] == op
	}
	return false
}

func (p *printer) binary(op string, left, right ast.Expr) {
	lv := binaryLevels[op]
	leftMin, rightMin := lv, lv+1
	if op == "**" {
		leftMin, rightMin = lv+1, lv
	}
	p.operand(op, left, leftMin)
	p.raw(" " + op + " ")
	p.operand(op, right, rightMin)
}

// operand prints one side of a binary operator. `??` cannot mix with
// `||` or `&&` without parentheses, and a unary operand of `**` needs
// them too.
func (p *printer) operand(op string, e ast.Expr, min level) {
	force := false
	if l, ok := e.(*ast.LogicalExpression); ok {
		force = (op == "??") != (l.Operator == "??") && (op == "??" || l.Operator == "??")
	}
	if op == "**" {
		switch e.(type) {
		case *ast.UnaryExpression, *ast.AwaitExpression:
			force = true
		}
	}
	if force {
		p.raw("(")
		p.exprInner(e)
		p.raw(")")
		return
	}
	p.expr(e, min)
}

func (p *printer) member(m *ast.MemberExpression) {
	if lit, ok := m.Object.(*ast.Literal); ok && isIntegerText(literalText(lit)) {
		p.raw("(")
		p.exprInner(lit)
		p.raw(")")
	} else {
		p.expr(m.Object, levelCall)
	}
	switch {
	case m.Computed:
		if m.Optional {
			p.raw("?.")
		}
		p.raw("[")
		p.expr(m.Property, levelLowest)
		p.raw("]")
	default:
		if m.Optional {
			p.raw("?.")
		} else {
			p.raw(".")
		}
		p.expr(m.Property, levelLowest)
	}
}

func isIntegerText(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// callInChain reports whether a `new` callee contains a call that the
// arguments of `new` would otherwise capture.
func callInChain(e ast.Expr) bool {
	for {
		switch x := e.(type) {
		case *ast.CallExpression, *ast.ChainExpression, *ast.TaggedTemplateExpression:
			return true
		case *ast.MemberExpression:
			e = x.Object
		default:
			return false
		}
	}
}

func (p *printer) arguments(args []ast.Expr) {
	p.raw("(")
	for i, a := range args {
		if i > 0 {
			p.raw(", ")
		}
		p.expr(a, levelAssign)
	}
	p.raw(")")
}

func (p *printer) elements(elems []ast.Expr) {
	p.raw("[")
	for i, el := range elems {
		if i > 0 {
			p.raw(", ")
		}
		if el != nil {
			p.expr(el, levelAssign)
		}
	}
	if n := len(elems); n > 0 && elems[n-1] == nil {
		p.raw(",")
	}
	p.raw("]")
}

func (p *printer) properties(props []ast.Expr) {
	if len(props) == 0 {
		p.raw("{}")
		return
	}
	p.raw("{ ")
	for i, prop := range props {
		if i > 0 {
			p.raw(", ")
		}
		p.expr(prop, levelAssign)
	}
	p.raw(" }")
}

func (p *printer) property(x *ast.Property) {
	if fn, ok := x.Value.(*ast.FunctionExpression); ok && (x.Kind != "init" || x.Method) {
		if x.Kind != "init" {
			p.raw(x.Kind + " ")
		}
		if fn.Async {
			p.raw("async ")
		}
		if fn.Generator {
			p.raw("*")
		}
		p.propertyKey(x)
		p.params(fn.Params)
		p.raw(" ")
		p.block(fn.Body)
		return
	}
	if x.Shorthand && shorthandMatches(x) {
		p.expr(x.Value, levelAssign)
		return
	}
	p.propertyKey(x)
	p.raw(": ")
	p.expr(x.Value, levelAssign)
}

// shorthandMatches reports whether a shorthand property still has the
// shape `{a}` or `{a = def}` with the key's own name.
func shorthandMatches(x *ast.Property) bool {
	key, ok := x.Key.(*ast.Identifier)
	if !ok || x.Computed {
		return false
	}
	v := x.Value
	if ap, ok := v.(*ast.AssignmentPattern); ok {
		v = ap.Left
	}
	id, ok := v.(*ast.Identifier)
	return ok && id.Name == key.Name
}

func (p *printer) propertyKey(x *ast.Property) {
	if x.Computed {
		p.raw("[")
		p.expr(x.Key, levelAssign)
		p.raw("]")
		return
	}
	p.exprInner(x.Key)
}

func (p *printer) params(params []ast.Expr) {
	p.raw("(")
	for i, param := range params {
		if i > 0 {
			p.raw(", ")
		}
		p.expr(param, levelAssign)
	}
	p.raw(")")
}

func (p *printer) function(id *ast.Identifier, params []ast.Expr, body *ast.BlockStatement, async, generator bool) {
	if async {
		p.raw("async ")
	}
	p.raw("function")
	if generator {
		p.raw("*")
	}
	p.raw(" ")
	if id != nil {
		p.raw(id.Name)
	}
	p.params(params)
	p.raw(" ")
	p.block(body)
}

func (p *printer) arrow(x *ast.ArrowFunctionExpression) {
	if x.Async {
		p.raw("async ")
	}
	p.params(x.Params)
	p.raw(" => ")
	switch body := x.Body.(type) {
	case *ast.BlockStatement:
		p.block(body)
	case ast.Expr:
		if startsAmbiguously(body) {
			p.raw("(")
			p.exprInner(body)
			p.raw(")")
			return
		}
		p.expr(body, levelAssign)
	}
}

func (p *printer) template(t *ast.TemplateLiteral) {
	p.raw("`")
	for i, q := range t.Quasis {
		p.raw(q.Value.Raw)
		if i < len(t.Expressions) {
			p.raw("${")
			p.expr(t.Expressions[i], levelLowest)
			p.raw("}")
		}
	}
	p.raw("`")
}

func literalText(l *ast.Literal) string {
	switch {
	case l.Regex != nil:
		return "/" + l.Regex.Pattern + "/" + l.Regex.Flags
	case l.Bigint != "":
		return l.Bigint + "n"
	}
	switch v := l.Value.(type) {
	case string:
		return quote(v)
	case float64:
		if l.Raw != "" {
			return l.Raw
		}
		return formatNumber(v)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "null"
	}
	return l.Raw
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) && f < 1e21 && f > -1e21 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// quote renders s as a double-quoted string literal.
func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		case 0x2028:
			sb.WriteString(`\u2028`)
		case 0x2029:
			sb.WriteString(`\u2029`)
		default:
			if r < 0x20 || r == 0x7f {
				sb.WriteString(`\x`)
				sb.WriteString(strconv.FormatInt(int64(r)>>4, 16))
				sb.WriteString(strconv.FormatInt(int64(r)&0xf, 16))
				continue
			}
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], r)
			sb.Write(buf[:n])
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
