// Package scanner tokenizes the expression dialect embedded in templates.
//
// The parser drives the scanner one token at a time: a `/` in primary
// position is rescanned as a regular expression with ScanRegex, and the
// text after the `}` of a template substitution is read with ScanTemplate.
// Tokenize runs a standalone pass for callers that only need the token
// stream (the sanitizer).
package scanner

import (
	"fmt"

	mscanner "modernc.org/scanner"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Identifier
	Keyword
	Punctuator
	Numeric
	BigInt
	String
	Template
	RegularExpression
)

var kindNames = [...]string{
	EOF:               "EOF",
	Identifier:        "Identifier",
	Keyword:           "Keyword",
	Punctuator:        "Punctuator",
	Numeric:           "Numeric",
	BigInt:            "BigInt",
	String:            "String",
	Template:          "Template",
	RegularExpression: "RegularExpression",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexical token.
//
// Value holds the identifier name, keyword, punctuator, decoded string
// value, number source (separators removed) or, for templates, the raw
// text between the delimiters.
type Token struct {
	Kind  Kind
	Value string
	Raw   string

	Start, End   int // byte offsets into the source
	Line, Column int // 1-based position of Start

	// NewlineBefore is set when a line terminator separates this token
	// from the previous one. The parser needs it for ASI.
	NewlineBefore bool

	// Escaped is set for identifiers spelled with \u escapes.
	Escaped bool

	// Number is the numeric value of Numeric tokens.
	Number float64

	// Template chunks. Cooked is nil when the chunk holds an escape that
	// is only legal in tagged templates.
	Cooked *string
	Head   bool // chunk opened by a backtick
	Tail   bool // chunk closed by a backtick

	// Regular expressions.
	Pattern string
	Flags   string
}

// Is reports whether t is the punctuator or keyword v.
func (t Token) Is(v string) bool {
	return (t.Kind == Punctuator || t.Kind == Keyword) && t.Value == v
}

// IsIdent reports whether t is the (unescaped) identifier name.
func (t Token) IsIdent(name string) bool {
	return t.Kind == Identifier && !t.Escaped && t.Value == name
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Raw)
}

// Error is a tokenization failure. Pos.Column counts runes.
type Error struct {
	mscanner.ErrWithPosition
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d:%d: %v", e.Pos.Line, e.Pos.Column, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var keywords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true,
}

// IsKeyword reports whether name is a reserved word of the dialect.
func IsKeyword(name string) bool { return keywords[name] }

// punctuators ordered longest first so the first prefix match wins.
var punctuators = []string{
	">>>=",
	"...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "**",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-", "*", "/",
	"%", "&", "|", "^", "!", "~", "?", ":", "=", ".", "@", "#",
}
