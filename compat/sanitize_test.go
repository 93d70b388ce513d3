package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"text masked", "hello {{ name }}", "vvvvv {{ name }}"},
		{"unicode text", "héllo wörld", "vvvvv vvvvv"},
		{"double quoted string", `{{ "abc" + x }}`, `{{ "vvv" + x }}`},
		{"single quoted string keeps spaces", `{{ 'a b' }}`, `{{ 'v v' }}`},
		{"escapes are decoded first", `{{ "A\x42" }}`, `{{ "vv" }}`},
		{"escaped newline stays escaped", `{{ "a\nb" }}`, `{{ "v\nv" }}`},
		{"template chunks", "{{ `t${x}uu` }}", "{{ `v${x}vv` }}"},
		{"nested template", "{{ `a${`b${c}`}d` }}", "{{ `v${`v${c}`}v` }}"},
		{"numbers and regexes kept", "{{ /ab/.test(s) || 42 }}", "{{ /ab/.test(s) || 42 }}"},
		{"identifiers kept", "{{ user.name }}", "{{ user.name }}"},
		{"object keys kept", `{{ { key: "val" } }}`, `{{ { key: "vvv" } }}`},
		{"unclosed code span", "a {{ 'b'", "v {{ 'v'"},
		{"division after postfix increment", "{{ a++ / 2 + 'secret' }}", "{{ a++ / 2 + 'vvvvvv' }}"},
		{"division after keyword property", "{{ a.return / 2 + 'secret' }}", "{{ a.return / 2 + 'vvvvvv' }}"},
		{"division after optional keyword property", `{{ $json?.default / 2 + "x y" }}`, `{{ $json?.default / 2 + "v v" }}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestSanitizeTokenError(t *testing.T) {
	_, err := Sanitize(`{{ "abc }}`)
	require.Error(t, err)
	assert.Equal(t, `{{ vvvv }}`, maskAll(`{{ "abc }}`).String())
}

func TestSanitizedMarshalText(t *testing.T) {
	s, err := Sanitize("ab")
	require.NoError(t, err)
	b, err := s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "vv", string(b))
}
