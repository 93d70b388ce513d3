// Package splitter cuts template text into literal and code spans on
// `{{ ... }}` delimiters, following the escaping rules of the legacy
// template interpreter, and joins spans back into template text.
package splitter

import (
	"iter"
	"slices"
	"strings"
)

const (
	openBracket  = "{{"
	closeBracket = "}}"
)

// Kind tells literal text spans from code spans.
type Kind int

const (
	Text Kind = iota
	Code
)

func (k Kind) String() string {
	if k == Code {
		return "code"
	}
	return "text"
}

// Span is one contiguous fragment of a template.
type Span struct {
	Kind Kind
	Text string
	// HasClosingBrackets is false for a trailing code span whose `}}`
	// never appeared. The legacy interpreter accepts those, so do we.
	HasClosingBrackets bool
}

// Spans returns a lazy sequence over the spans of template. The sequence
// can be ranged over any number of times.
//
// A delimiter preceded by an odd number of backslashes is literal text.
// Text spans ending at an opening delimiter have every `\\` collapsed to
// `\`; code spans have their first `\}}` unescaped to `}}`.
func Spans(template string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		seeking := openBracket
		var buf strings.Builder
		index := 0
		for index < len(template) {
			rest := template[index:]
			at := strings.Index(rest, seeking)
			if at < 0 {
				buf.WriteString(rest)
				if seeking == openBracket {
					yield(Span{Kind: Text, Text: buf.String()})
				} else {
					yield(Span{Kind: Code, Text: unescapeCode(buf.String())})
				}
				return
			}

			before := rest[:at]
			if trailingBackslashes(before)%2 == 1 {
				buf.WriteString(rest[:at+len(seeking)])
				index += at + len(seeking)
				continue
			}

			buf.WriteString(before)
			index += at + len(seeking)
			var span Span
			if seeking == openBracket {
				span = Span{Kind: Text, Text: collapseBackslashes(buf.String())}
				seeking = closeBracket
			} else {
				span = Span{Kind: Code, Text: unescapeCode(buf.String()), HasClosingBrackets: true}
				seeking = openBracket
			}
			buf.Reset()
			if !yield(span) {
				return
			}
		}
	}
}

// Split collects Spans(template) into a slice.
func Split(template string) []Span {
	return slices.Collect(Spans(template))
}

// Join rebuilds template text from spans. Only closing delimiters inside
// code spans are re-escaped.
func Join(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		if s.Kind == Text {
			sb.WriteString(s.Text)
			continue
		}
		sb.WriteString(openBracket)
		sb.WriteString(strings.Replace(s.Text, closeBracket, `\`+closeBracket, 1))
		if s.HasClosingBrackets {
			sb.WriteString(closeBracket)
		}
	}
	return sb.String()
}

// CodeSpans reports how many code spans the template holds.
func CodeSpans(spans []Span) int {
	n := 0
	for _, s := range spans {
		if s.Kind == Code {
			n++
		}
	}
	return n
}

func trailingBackslashes(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n
}

func collapseBackslashes(s string) string {
	return strings.ReplaceAll(s, `\\`, `\`)
}

func unescapeCode(s string) string {
	return strings.Replace(s, `\`+closeBracket, closeBracket, 1)
}
