package scanner

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Kind)
	}
	return out
}

func values(toks []Token) []string {
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if t.Kind == EOF {
			continue
		}
		out = append(out, t.Value)
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		values []string
		kinds  []Kind
	}{
		{
			name:   "member call",
			src:    "$json.name.toUpperCase()",
			values: []string{"$json", ".", "name", ".", "toUpperCase", "(", ")"},
		},
		{
			name:   "keywords and identifiers",
			src:    "typeof let",
			values: []string{"typeof", "let"},
			kinds:  []Kind{Keyword, Identifier, EOF},
		},
		{
			name:   "longest punctuator",
			src:    "a>>>=b??=c",
			values: []string{"a", ">>>=", "b", "??=", "c"},
		},
		{
			name:   "optional chain vs conditional",
			src:    "a?.b:a?.5:1",
			values: []string{"a", "?.", "b", ":", "a", "?", ".5", ":", "1"},
		},
		{
			name:   "comments skipped",
			src:    "a /* x */ + // y\n b",
			values: []string{"a", "+", "b"},
		},
		{
			name:   "division after identifier",
			src:    "a / b / c",
			values: []string{"a", "/", "b", "/", "c"},
		},
		{
			name:   "regex after paren open",
			src:    "(/a[/]b/gi)",
			values: []string{"(", "/a[/]b/gi", ")"},
			kinds:  []Kind{Punctuator, RegularExpression, Punctuator, EOF},
		},
		{
			name:   "unicode escape identifier",
			src:    `\u0061b`,
			values: []string{"ab"},
			kinds:  []Kind{Identifier, EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.values, values(toks))
			if tt.kinds != nil {
				assert.Equal(t, tt.kinds, kinds(toks))
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		src  string
		want float64
		kind Kind
	}{
		{"0", 0, Numeric},
		{"42", 42, Numeric},
		{"1_000", 1000, Numeric},
		{"3.25", 3.25, Numeric},
		{".5", 0.5, Numeric},
		{"1e3", 1000, Numeric},
		{"2E-2", 0.02, Numeric},
		{"0x1F", 31, Numeric},
		{"0o17", 15, Numeric},
		{"0b101", 5, Numeric},
		{"017", 15, Numeric},
		{"019", 19, Numeric},
		{"10n", 10, BigInt},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tok, err := New(tt.src).Next()
			require.NoError(t, err)
			assert.Equal(t, tt.kind, tok.Kind)
			assert.InDelta(t, tt.want, tok.Number, 1e-12)
			assert.Equal(t, tt.src, tok.Raw)
		})
	}
}

func TestNumberFollowedByIdentifier(t *testing.T) {
	for _, src := range []string{"3in x", "0x", "1e", "1.5n"} {
		_, err := New(src).Next()
		assert.Error(t, err, src)
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"plain"`, "plain"},
		{`'single'`, "single"},
		{`"a\nb"`, "a\nb"},
		{`"\x41B\u{43}"`, "ABC"},
		{`"\uD83D\uDE00"`, "\U0001F600"},
		{`"\101"`, "A"},
		{`"\0"`, "\x00"},
		{`"it\'s"`, "it's"},
		{"\"line\\\ncontinued\"", "linecontinued"},
		{`"}}"`, "}}"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tok, err := New(tt.src).Next()
			require.NoError(t, err)
			assert.Equal(t, String, tok.Kind)
			assert.Equal(t, tt.want, tok.Value)
			assert.Equal(t, tt.src, tok.Raw)
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	for _, src := range []string{`"abc`, "'a\nb'", `"\u12"`} {
		_, err := New(src).Next()
		var serr *Error
		require.ErrorAs(t, err, &serr, src)
		assert.Equal(t, 1, serr.Pos.Line)
	}
}

func TestTemplate(t *testing.T) {
	toks, err := Tokenize("`a${ {b: 1}.b }c${d}`")
	require.NoError(t, err)

	var chunks []Token
	for _, tok := range toks {
		if tok.Kind == Template {
			chunks = append(chunks, tok)
		}
	}
	require.Len(t, chunks, 3)
	assert.True(t, chunks[0].Head)
	assert.False(t, chunks[0].Tail)
	assert.Equal(t, "a", *chunks[0].Cooked)
	assert.Equal(t, "c", chunks[1].Value)
	assert.False(t, chunks[1].Head)
	assert.True(t, chunks[2].Tail)
	assert.Equal(t, "", *chunks[2].Cooked)
}

func TestTemplateEscapes(t *testing.T) {
	tok, err := New("`a\\nb`").Next()
	require.NoError(t, err)
	require.NotNil(t, tok.Cooked)
	assert.Equal(t, "a\nb", *tok.Cooked)
	assert.Equal(t, `a\nb`, tok.Value)

	tok, err = New("`\\unicode`").Next()
	require.NoError(t, err)
	assert.Nil(t, tok.Cooked)

	tok, err = New("`a\r\nb`").Next()
	require.NoError(t, err)
	assert.Equal(t, "a\nb", *tok.Cooked)
	assert.Equal(t, "a\nb", tok.Value)
}

func TestUnterminatedTemplate(t *testing.T) {
	_, err := Tokenize("`abc")
	assert.Error(t, err)
}

func TestRegex(t *testing.T) {
	s := New("/[a-z]+\\//g.test")
	tok, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, "/", tok.Value)

	re, err := s.ScanRegex(tok)
	require.NoError(t, err)
	assert.Equal(t, RegularExpression, re.Kind)
	assert.Equal(t, `[a-z]+\/`, re.Pattern)
	assert.Equal(t, "g", re.Flags)

	next, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, ".", next.Value)
}

func TestRegexErrors(t *testing.T) {
	for _, src := range []string{"/abc", "/a\nb/", "/a/gg", "/a/q"} {
		s := New(src)
		tok, err := s.Next()
		require.NoError(t, err)
		_, err = s.ScanRegex(tok)
		assert.Error(t, err, src)
	}
}

func TestNewlineBefore(t *testing.T) {
	toks, err := Tokenize("a\nb c /*\n*/ d")
	require.NoError(t, err)
	require.Len(t, toks, 5)
	assert.False(t, toks[0].NewlineBefore)
	assert.True(t, toks[1].NewlineBefore)
	assert.False(t, toks[2].NewlineBefore)
	assert.True(t, toks[3].NewlineBefore)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 3, toks[3].Line)
}

func TestPositions(t *testing.T) {
	toks, err := Tokenize("foo +\n  bar")
	require.NoError(t, err)
	assert.Equal(t, 1, toks[0].Column)
	assert.Equal(t, 5, toks[1].Column)
	assert.Equal(t, 2, toks[2].Line)
	assert.Equal(t, 3, toks[2].Column)
	assert.Equal(t, 8, toks[2].Start)
}

func TestErrorPosition(t *testing.T) {
	_, err := Tokenize("a +\n  \u00ac")
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 2, serr.Pos.Line)
	assert.Equal(t, 3, serr.Pos.Column)
	assert.Equal(t, 6, serr.Pos.Offset)
	assert.Equal(t, "line 2:3: Invalid or unexpected token", serr.Error())
	assert.Equal(t, "2:3: Invalid or unexpected token", serr.ErrWithPosition.Error())
}

func TestEOFAfterNewline(t *testing.T) {
	toks, err := Tokenize("a\n")
	require.NoError(t, err)
	eof := toks[len(toks)-1]
	assert.Equal(t, EOF, eof.Kind)
	assert.Equal(t, 2, eof.Line)
	assert.Equal(t, 1, eof.Column)
}

func TestSlashAfterToken(t *testing.T) {
	tests := []struct {
		src   string
		regex bool
	}{
		{"a / 2", false},
		{"a++ / 2", false},
		{"a-- / 2", false},
		{"(a) / 2", false},
		{"a.return / 2", false},
		{"a?.default / 2", false},
		{"this / 2", false},
		{"`t` / 2", false},
		{"/re/", true},
		{"a = /re/", true},
		{"typeof /re/", true},
		{"a ? /re/ : 1", true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks, err := Tokenize(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.regex, slices.Contains(kinds(toks), RegularExpression))
		})
	}
}

func TestSaveRestore(t *testing.T) {
	s := New("a b")
	st := s.Save()
	first, err := s.Next()
	require.NoError(t, err)
	s.Restore(st)
	again, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestEOFRepeats(t *testing.T) {
	s := New("")
	for i := 0; i < 3; i++ {
		tok, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, EOF, tok.Kind)
	}
}

func TestInvalidCharacter(t *testing.T) {
	_, err := Tokenize("a ¬ b")
	assert.Error(t, err)
}
