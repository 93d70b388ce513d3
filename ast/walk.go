package ast

// Walk traverses the tree rooted at n in pre-order, calling fn with each
// node and its parent (nil for n itself). When fn returns false the
// node's children are skipped.
func Walk(n Node, fn func(n, parent Node) bool) {
	walk(n, nil, fn)
}

func walk(n, parent Node, fn func(n, parent Node) bool) {
	if !fn(n, parent) {
		return
	}
	for _, c := range Children(n) {
		walk(c, n, fn)
	}
}

// Any reports whether pred holds for some node in the tree rooted at n.
// The walk stops at the first match.
func Any(n Node, pred func(Node) bool) bool {
	found := false
	Walk(n, func(n, _ Node) bool {
		if found {
			return false
		}
		if pred(n) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Children returns the direct child nodes of n in source order. Nil
// slots, such as array holes or a missing else branch, are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if !isNil(c) {
				out = append(out, c)
			}
		}
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			if e != nil {
				add(e)
			}
		}
	}
	addStmts := func(ss []Stmt) {
		for _, s := range ss {
			add(s)
		}
	}

	switch x := n.(type) {
	case *Program:
		addStmts(x.Body)
	case *ExpressionStatement:
		add(x.Expression)
	case *BlockStatement:
		addStmts(x.Body)
	case *VariableDeclaration:
		for _, d := range x.Declarations {
			add(d)
		}
	case *VariableDeclarator:
		add(x.ID, x.Init)
	case *FunctionDeclaration:
		add(x.ID)
		addExprs(x.Params)
		add(x.Body)
	case *ReturnStatement:
		add(x.Argument)
	case *IfStatement:
		add(x.Test, x.Consequent, x.Alternate)
	case *ForStatement:
		add(x.Init, x.Test, x.Update, x.Body)
	case *ForInStatement:
		add(x.Left, x.Right, x.Body)
	case *ForOfStatement:
		add(x.Left, x.Right, x.Body)
	case *WhileStatement:
		add(x.Test, x.Body)
	case *DoWhileStatement:
		add(x.Body, x.Test)
	case *BreakStatement:
		add(x.Label)
	case *ContinueStatement:
		add(x.Label)
	case *ThrowStatement:
		add(x.Argument)
	case *TryStatement:
		add(x.Block, x.Handler, x.Finalizer)
	case *CatchClause:
		add(x.Param, x.Body)
	case *SwitchStatement:
		add(x.Discriminant)
		for _, c := range x.Cases {
			add(c)
		}
	case *SwitchCase:
		add(x.Test)
		addStmts(x.Consequent)
	case *LabeledStatement:
		add(x.Label, x.Body)
	case *TemplateLiteral:
		// Chunks and substitutions interleave in source order.
		for i, q := range x.Quasis {
			add(q)
			if i < len(x.Expressions) {
				add(x.Expressions[i])
			}
		}
	case *TaggedTemplateExpression:
		add(x.Tag, x.Quasi)
	case *ArrayExpression:
		addExprs(x.Elements)
	case *ObjectExpression:
		addExprs(x.Properties)
	case *Property:
		if x.Shorthand && x.Value != nil {
			add(x.Value)
		} else {
			add(x.Key, x.Value)
		}
	case *FunctionExpression:
		add(x.ID)
		addExprs(x.Params)
		add(x.Body)
	case *ArrowFunctionExpression:
		addExprs(x.Params)
		add(x.Body)
	case *UnaryExpression:
		add(x.Argument)
	case *UpdateExpression:
		add(x.Argument)
	case *BinaryExpression:
		add(x.Left, x.Right)
	case *LogicalExpression:
		add(x.Left, x.Right)
	case *AssignmentExpression:
		add(x.Left, x.Right)
	case *ConditionalExpression:
		add(x.Test, x.Consequent, x.Alternate)
	case *CallExpression:
		add(x.Callee)
		addExprs(x.Arguments)
	case *NewExpression:
		add(x.Callee)
		addExprs(x.Arguments)
	case *MemberExpression:
		add(x.Object, x.Property)
	case *ChainExpression:
		add(x.Expression)
	case *SequenceExpression:
		addExprs(x.Expressions)
	case *SpreadElement:
		add(x.Argument)
	case *YieldExpression:
		add(x.Argument)
	case *AwaitExpression:
		add(x.Argument)
	case *ImportExpression:
		add(x.Source)
	case *MetaProperty:
		add(x.Meta, x.Property)
	case *ObjectPattern:
		addExprs(x.Properties)
	case *ArrayPattern:
		addExprs(x.Elements)
	case *RestElement:
		add(x.Argument)
	case *AssignmentPattern:
		add(x.Left, x.Right)
	}
	return out
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch x := n.(type) {
	case *Identifier:
		return x == nil
	case *BlockStatement:
		return x == nil
	case *CatchClause:
		return x == nil
	case *TemplateLiteral:
		return x == nil
	case *VariableDeclarator:
		return x == nil
	case *SwitchCase:
		return x == nil
	case *TemplateElement:
		return x == nil
	}
	return false
}
