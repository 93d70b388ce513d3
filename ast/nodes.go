// Package ast defines the ESTree-shaped syntax tree shared by the parser,
// the compiler and the structural differ.
package ast

// Loc is the source position of a node. Nodes built by the compiler have
// a zero Loc.
type Loc struct {
	Start  int // byte offset
	End    int // byte offset, exclusive
	Line   int // 1-based
	Column int // 1-based
}

// Location returns the node's position. It is promoted to every node type.
func (l *Loc) Location() *Loc { return l }

// Node is the interface for all tree nodes.
type Node interface {
	// Type returns the ESTree node type name.
	Type() string
	Location() *Loc
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt()
}

// Expr is the interface for expression nodes. Patterns and properties
// also satisfy it so they can sit in binding and target slots.
type Expr interface {
	Node
	expr()
}

// Diagnostic is a recoverable problem recorded by a tolerant parse.
type Diagnostic struct {
	Loc
	Message string
}

// Program is the root node.
type Program struct {
	Loc
	Body []Stmt
	// Errors holds problems the parser tolerated, such as a return
	// outside of a function.
	Errors []Diagnostic
}

func (*Program) Type() string { return "Program" }

// --- Statements ---

type ExpressionStatement struct {
	Loc
	Expression Expr
	Directive  string
}

type BlockStatement struct {
	Loc
	Body []Stmt
}

type EmptyStatement struct {
	Loc
}

type DebuggerStatement struct {
	Loc
}

// VariableDeclaration is a var, let or const declaration.
type VariableDeclaration struct {
	Loc
	Kind         string
	Declarations []*VariableDeclarator
}

type VariableDeclarator struct {
	Loc
	ID   Expr // Identifier or pattern
	Init Expr
}

type FunctionDeclaration struct {
	Loc
	ID        *Identifier
	Params    []Expr
	Body      *BlockStatement
	Generator bool
	Async     bool
}

type ReturnStatement struct {
	Loc
	Argument Expr
}

type IfStatement struct {
	Loc
	Test       Expr
	Consequent Stmt
	Alternate  Stmt
}

type ForStatement struct {
	Loc
	Init   Node // *VariableDeclaration or Expr
	Test   Expr
	Update Expr
	Body   Stmt
}

type ForInStatement struct {
	Loc
	Left  Node // *VariableDeclaration or Expr
	Right Expr
	Body  Stmt
}

type ForOfStatement struct {
	Loc
	Left  Node
	Right Expr
	Body  Stmt
	Await bool
}

type WhileStatement struct {
	Loc
	Test Expr
	Body Stmt
}

type DoWhileStatement struct {
	Loc
	Body Stmt
	Test Expr
}

type BreakStatement struct {
	Loc
	Label *Identifier
}

type ContinueStatement struct {
	Loc
	Label *Identifier
}

type ThrowStatement struct {
	Loc
	Argument Expr
}

type TryStatement struct {
	Loc
	Block     *BlockStatement
	Handler   *CatchClause
	Finalizer *BlockStatement
}

type CatchClause struct {
	Loc
	Param Expr // nil for `catch {`
	Body  *BlockStatement
}

type SwitchStatement struct {
	Loc
	Discriminant Expr
	Cases        []*SwitchCase
}

// SwitchCase is one case clause; Test is nil for default.
type SwitchCase struct {
	Loc
	Test       Expr
	Consequent []Stmt
}

type LabeledStatement struct {
	Loc
	Label *Identifier
	Body  Stmt
}

// --- Expressions ---

type Identifier struct {
	Loc
	Name string
}

// RegexLiteral holds the parts of a regular expression literal.
type RegexLiteral struct {
	Pattern string
	Flags   string
}

// Literal is a string, number, boolean, null, regex or bigint literal.
// Value is a string, float64, bool or nil. Regex and bigint literals have
// a nil Value and set Regex or Bigint instead.
type Literal struct {
	Loc
	Value  any
	Raw    string
	Regex  *RegexLiteral
	Bigint string
}

type TemplateLiteral struct {
	Loc
	Quasis      []*TemplateElement
	Expressions []Expr
}

// TemplateValue is the text of a template chunk. Cooked is nil when the
// chunk has an escape only legal in tagged templates.
type TemplateValue struct {
	Raw    string
	Cooked *string
}

type TemplateElement struct {
	Loc
	Value TemplateValue
	Tail  bool
}

type TaggedTemplateExpression struct {
	Loc
	Tag   Expr
	Quasi *TemplateLiteral
}

type ThisExpression struct {
	Loc
}

type Super struct {
	Loc
}

// ArrayExpression elements may be nil for holes.
type ArrayExpression struct {
	Loc
	Elements []Expr
}

// ObjectExpression properties are *Property or *SpreadElement.
type ObjectExpression struct {
	Loc
	Properties []Expr
}

// Property is an object literal member or an object pattern member.
// Kind is "init", "get" or "set".
type Property struct {
	Loc
	Key       Expr
	Value     Expr
	Kind      string
	Computed  bool
	Method    bool
	Shorthand bool
}

type FunctionExpression struct {
	Loc
	ID        *Identifier
	Params    []Expr
	Body      *BlockStatement
	Generator bool
	Async     bool
}

// ArrowFunctionExpression has a *BlockStatement body, or an Expr body
// when Expression is set.
type ArrowFunctionExpression struct {
	Loc
	Params     []Expr
	Body       Node
	Expression bool
	Async      bool
}

type UnaryExpression struct {
	Loc
	Operator string
	Argument Expr
	Prefix   bool
}

type UpdateExpression struct {
	Loc
	Operator string
	Argument Expr
	Prefix   bool
}

type BinaryExpression struct {
	Loc
	Operator string
	Left     Expr
	Right    Expr
}

// LogicalExpression covers &&, || and ??.
type LogicalExpression struct {
	Loc
	Operator string
	Left     Expr
	Right    Expr
}

type AssignmentExpression struct {
	Loc
	Operator string
	Left     Expr
	Right    Expr
}

type ConditionalExpression struct {
	Loc
	Test       Expr
	Consequent Expr
	Alternate  Expr
}

type CallExpression struct {
	Loc
	Callee    Expr
	Arguments []Expr
	Optional  bool
}

type NewExpression struct {
	Loc
	Callee    Expr
	Arguments []Expr
}

type MemberExpression struct {
	Loc
	Object   Expr
	Property Expr
	Computed bool
	Optional bool
}

// ChainExpression wraps an optional chain such as a?.b.c.
type ChainExpression struct {
	Loc
	Expression Expr
}

type SequenceExpression struct {
	Loc
	Expressions []Expr
}

type SpreadElement struct {
	Loc
	Argument Expr
}

type YieldExpression struct {
	Loc
	Argument Expr
	Delegate bool
}

type AwaitExpression struct {
	Loc
	Argument Expr
}

type ImportExpression struct {
	Loc
	Source Expr
}

// MetaProperty is new.target or import.meta.
type MetaProperty struct {
	Loc
	Meta     *Identifier
	Property *Identifier
}

// --- Patterns ---

type ObjectPattern struct {
	Loc
	Properties []Expr // *Property or *RestElement
}

// ArrayPattern elements may be nil for holes.
type ArrayPattern struct {
	Loc
	Elements []Expr
}

type RestElement struct {
	Loc
	Argument Expr
}

type AssignmentPattern struct {
	Loc
	Left  Expr
	Right Expr
}

func (*ExpressionStatement) Type() string      { return "ExpressionStatement" }
func (*BlockStatement) Type() string           { return "BlockStatement" }
func (*EmptyStatement) Type() string           { return "EmptyStatement" }
func (*DebuggerStatement) Type() string        { return "DebuggerStatement" }
func (*VariableDeclaration) Type() string      { return "VariableDeclaration" }
func (*VariableDeclarator) Type() string       { return "VariableDeclarator" }
func (*FunctionDeclaration) Type() string      { return "FunctionDeclaration" }
func (*ReturnStatement) Type() string          { return "ReturnStatement" }
func (*IfStatement) Type() string              { return "IfStatement" }
func (*ForStatement) Type() string             { return "ForStatement" }
func (*ForInStatement) Type() string           { return "ForInStatement" }
func (*ForOfStatement) Type() string           { return "ForOfStatement" }
func (*WhileStatement) Type() string           { return "WhileStatement" }
func (*DoWhileStatement) Type() string         { return "DoWhileStatement" }
func (*BreakStatement) Type() string           { return "BreakStatement" }
func (*ContinueStatement) Type() string        { return "ContinueStatement" }
func (*ThrowStatement) Type() string           { return "ThrowStatement" }
func (*TryStatement) Type() string             { return "TryStatement" }
func (*CatchClause) Type() string              { return "CatchClause" }
func (*SwitchStatement) Type() string          { return "SwitchStatement" }
func (*SwitchCase) Type() string               { return "SwitchCase" }
func (*LabeledStatement) Type() string         { return "LabeledStatement" }
func (*Identifier) Type() string               { return "Identifier" }
func (*Literal) Type() string                  { return "Literal" }
func (*TemplateLiteral) Type() string          { return "TemplateLiteral" }
func (*TemplateElement) Type() string          { return "TemplateElement" }
func (*TaggedTemplateExpression) Type() string { return "TaggedTemplateExpression" }
func (*ThisExpression) Type() string           { return "ThisExpression" }
func (*Super) Type() string                    { return "Super" }
func (*ArrayExpression) Type() string          { return "ArrayExpression" }
func (*ObjectExpression) Type() string         { return "ObjectExpression" }
func (*Property) Type() string                 { return "Property" }
func (*FunctionExpression) Type() string       { return "FunctionExpression" }
func (*ArrowFunctionExpression) Type() string  { return "ArrowFunctionExpression" }
func (*UnaryExpression) Type() string          { return "UnaryExpression" }
func (*UpdateExpression) Type() string         { return "UpdateExpression" }
func (*BinaryExpression) Type() string         { return "BinaryExpression" }
func (*LogicalExpression) Type() string        { return "LogicalExpression" }
func (*AssignmentExpression) Type() string     { return "AssignmentExpression" }
func (*ConditionalExpression) Type() string    { return "ConditionalExpression" }
func (*CallExpression) Type() string           { return "CallExpression" }
func (*NewExpression) Type() string            { return "NewExpression" }
func (*MemberExpression) Type() string         { return "MemberExpression" }
func (*ChainExpression) Type() string          { return "ChainExpression" }
func (*SequenceExpression) Type() string       { return "SequenceExpression" }
func (*SpreadElement) Type() string            { return "SpreadElement" }
func (*YieldExpression) Type() string          { return "YieldExpression" }
func (*AwaitExpression) Type() string          { return "AwaitExpression" }
func (*ImportExpression) Type() string         { return "ImportExpression" }
func (*MetaProperty) Type() string             { return "MetaProperty" }
func (*ObjectPattern) Type() string            { return "ObjectPattern" }
func (*ArrayPattern) Type() string             { return "ArrayPattern" }
func (*RestElement) Type() string              { return "RestElement" }
func (*AssignmentPattern) Type() string        { return "AssignmentPattern" }

func (*ExpressionStatement) stmt() {}
func (*BlockStatement) stmt()      {}
func (*EmptyStatement) stmt()      {}
func (*DebuggerStatement) stmt()   {}
func (*VariableDeclaration) stmt() {}
func (*FunctionDeclaration) stmt() {}
func (*ReturnStatement) stmt()     {}
func (*IfStatement) stmt()         {}
func (*ForStatement) stmt()        {}
func (*ForInStatement) stmt()      {}
func (*ForOfStatement) stmt()      {}
func (*WhileStatement) stmt()      {}
func (*DoWhileStatement) stmt()    {}
func (*BreakStatement) stmt()      {}
func (*ContinueStatement) stmt()   {}
func (*ThrowStatement) stmt()      {}
func (*TryStatement) stmt()        {}
func (*SwitchStatement) stmt()     {}
func (*LabeledStatement) stmt()    {}

func (*Identifier) expr()               {}
func (*Literal) expr()                  {}
func (*TemplateLiteral) expr()          {}
func (*TaggedTemplateExpression) expr() {}
func (*ThisExpression) expr()           {}
func (*Super) expr()                    {}
func (*ArrayExpression) expr()          {}
func (*ObjectExpression) expr()         {}
func (*Property) expr()                 {}
func (*FunctionExpression) expr()       {}
func (*ArrowFunctionExpression) expr()  {}
func (*UnaryExpression) expr()          {}
func (*UpdateExpression) expr()         {}
func (*BinaryExpression) expr()         {}
func (*LogicalExpression) expr()        {}
func (*AssignmentExpression) expr()     {}
func (*ConditionalExpression) expr()    {}
func (*CallExpression) expr()           {}
func (*NewExpression) expr()            {}
func (*MemberExpression) expr()         {}
func (*ChainExpression) expr()          {}
func (*SequenceExpression) expr()       {}
func (*SpreadElement) expr()            {}
func (*YieldExpression) expr()          {}
func (*AwaitExpression) expr()          {}
func (*ImportExpression) expr()         {}
func (*MetaProperty) expr()             {}
func (*ObjectPattern) expr()            {}
func (*ArrayPattern) expr()             {}
func (*RestElement) expr()              {}
func (*AssignmentPattern) expr()        {}
