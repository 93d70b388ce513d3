package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []Span
	}{
		{
			"lone expression",
			`{{ "" }}`,
			[]Span{
				{Kind: Text, Text: ""},
				{Kind: Code, Text: ` "" `, HasClosingBrackets: true},
			},
		},
		{
			"multiple expressions",
			`{{ "test".toSnakeCase() }} you have ${{ (100).format() }}.`,
			[]Span{
				{Kind: Text, Text: ""},
				{Kind: Code, Text: ` "test".toSnakeCase() `, HasClosingBrackets: true},
				{Kind: Text, Text: " you have $"},
				{Kind: Code, Text: " (100).format() ", HasClosingBrackets: true},
				{Kind: Text, Text: "."},
			},
		},
		{
			"unclosed expression",
			`{{ "test".toSnakeCase() }} you have ${{ (100).format()`,
			[]Span{
				{Kind: Text, Text: ""},
				{Kind: Code, Text: ` "test".toSnakeCase() `, HasClosingBrackets: true},
				{Kind: Text, Text: " you have $"},
				{Kind: Code, Text: " (100).format()", HasClosingBrackets: false},
			},
		},
		{
			"escaped opening bracket",
			`test \{{ no code }}`,
			[]Span{{Kind: Text, Text: `test \{{ no code }}`}},
		},
		{
			"escaped opening bracket with no prefix",
			`x\{{ y }}`,
			[]Span{{Kind: Text, Text: `x\{{ y }}`}},
		},
		{
			"escaped closing bracket",
			`test {{ code.test("\}}") }}`,
			[]Span{
				{Kind: Text, Text: "test "},
				{Kind: Code, Text: ` code.test("}}") `, HasClosingBrackets: true},
			},
		},
		{
			"even backslashes before opening bracket",
			`C:\\Users\\Administrator\\Desktop\\abc\\{{ $json.files[0].fileName }}`,
			[]Span{
				{Kind: Text, Text: `C:\Users\Administrator\Desktop\abc\`},
				{Kind: Code, Text: " $json.files[0].fileName ", HasClosingBrackets: true},
			},
		},
		{
			"plain text",
			"no brackets here",
			[]Span{{Kind: Text, Text: "no brackets here"}},
		},
		{
			"empty template",
			"",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Split(tt.input))
		})
	}
}

func TestJoinRoundTrip(t *testing.T) {
	inputs := []string{
		`{{ "" }}`,
		`{{ "test".toSnakeCase() }} you have ${{ (100).format() }}.`,
		`{{ "test".toSnakeCase() }} you have ${{ (100).format()`,
		`test \{{ no code }}`,
		`test {{ code.test("\}}") }}`,
		"total: {{ count }}",
		"plain",
		"",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, in, Join(Split(in)))
		})
	}
}

func TestSpansIsRestartable(t *testing.T) {
	seq := Spans("a {{ b }} c")
	var first, second []Span
	for s := range seq {
		first = append(first, s)
	}
	for s := range seq {
		second = append(second, s)
	}
	assert.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestSpansStopsEarly(t *testing.T) {
	n := 0
	for range Spans("a {{ b }} c {{ d }} e") {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestCodeSpans(t *testing.T) {
	assert.Equal(t, 2, CodeSpans(Split("{{ a }} and {{ b }}")))
	assert.Equal(t, 0, CodeSpans(Split("text")))
}
