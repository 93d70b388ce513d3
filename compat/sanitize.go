package compat

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rubiojr/tourney/scanner"
	"github.com/rubiojr/tourney/splitter"
)

// Sanitized is a template with its literal content masked. Only this
// package can produce one.
type Sanitized struct {
	value string
}

func (s *Sanitized) String() string { return s.value }

// MarshalText lets reports embed the masked template.
func (s *Sanitized) MarshalText() ([]byte, error) { return []byte(s.value), nil }

// Sanitize masks every literal character of expr: template text, string
// literal contents and template string chunks have each non-whitespace
// rune replaced by `v`. Code structure is kept byte for byte.
func Sanitize(expr string) (*Sanitized, error) {
	spans := splitter.Split(expr)
	for i, s := range spans {
		if s.Kind == splitter.Text {
			spans[i].Text = mask(s.Text)
			continue
		}
		code, err := sanitizeCode(s.Text)
		if err != nil {
			return nil, fmt.Errorf("span %d: %w", i, err)
		}
		spans[i].Text = code
	}
	return &Sanitized{value: splitter.Join(spans)}, nil
}

// maskAll masks every non-whitespace rune of expr, code included.
func maskAll(expr string) *Sanitized {
	spans := splitter.Split(expr)
	for i := range spans {
		spans[i].Text = mask(spans[i].Text)
	}
	return &Sanitized{value: splitter.Join(spans)}
}

func sanitizeCode(code string) (string, error) {
	toks, err := scanner.Tokenize(code)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	last := 0
	for _, tok := range toks {
		if tok.Kind == scanner.EOF {
			break
		}
		sb.WriteString(code[last:tok.Start])
		last = tok.End
		switch tok.Kind {
		case scanner.String:
			q := code[tok.Start : tok.Start+1]
			sb.WriteString(q)
			sb.WriteString(escapeSpace(mask(tok.Value)))
			sb.WriteString(q)
		case scanner.Template:
			head, tail := "}", "${"
			if tok.Head {
				head = "`"
			}
			if tok.Tail {
				tail = "`"
			}
			sb.WriteString(head)
			sb.WriteString(mask(code[tok.Start+len(head) : tok.End-len(tail)]))
			sb.WriteString(tail)
		default:
			sb.WriteString(code[tok.Start:tok.End])
		}
	}
	sb.WriteString(code[last:])
	return sb.String(), nil
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func mask(s string) string {
	return strings.Map(func(r rune) rune {
		if isSpace(r) {
			return r
		}
		return 'v'
	}, s)
}

// escapeSpace spells out the whitespace a quoted string cannot hold
// literally.
func escapeSpace(s string) string {
	r := strings.NewReplacer(
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
		"\v", `\v`,
		"\f", `\f`,
		"\u2028", `\u2028`,
		"\u2029", `\u2029`,
	)
	return r.Replace(s)
}
