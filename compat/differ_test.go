package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/tourney/compiler"
)

func ours(t *testing.T, tmpl string) string {
	t.Helper()
	code, _, err := compiler.Generate(tmpl, compiler.DefaultDataNodeName, compiler.Hooks{})
	require.NoError(t, err)
	return code
}

const resolvedA = `("a" in this ? this : global).a`

func TestIsDifferent(t *testing.T) {
	tests := []struct {
		name   string
		oracle string
		ours   string
		want   bool
	}{
		{
			"quote style ignored",
			"var global = {};\nreturn 'x';",
			"var global = {};\nreturn \"x\";",
			false,
		},
		{
			"layout ignored",
			"var global={};return 1",
			"var global = {};\n\nreturn 1;",
			false,
		},
		{
			"different value",
			"var global = {};\nreturn 1;",
			"var global = {};\nreturn 2;",
			true,
		},
		{
			"our single value wrapped",
			"var global = {};\nreturn " + resolvedA + ";",
			ours(t, "{{ a }}"),
			false,
		},
		{
			"oracle single value wrapped",
			ours(t, "{{ a }}"),
			"var global = {};\nreturn " + resolvedA + ";",
			false,
		},
		{
			"wrapped statement differs",
			"var global = {};\nreturn " + resolvedA + " + 1;",
			ours(t, "{{ a }}"),
			true,
		},
		{
			"parts wrapped on our side only",
			"var global = {};\nreturn [\"x \", function (v) { v = " + resolvedA + "; return v || v === 0 || v === false ? v : \"\"; }.call(this)].join(\"\");",
			ours(t, "x {{ a }}"),
			false,
		},
		{
			"parts differ",
			"var global = {};\nreturn [\"y \", function (v) { v = " + resolvedA + "; return v; }.call(this)].join(\"\");",
			ours(t, "x {{ a }}"),
			true,
		},
		{
			"part counts differ",
			"var global = {};\nreturn [\"x \"].join(\"\");",
			ours(t, "x {{ a }}"),
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsDifferent(tt.oracle, tt.ours)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDifferentParseErrors(t *testing.T) {
	_, err := IsDifferent("return (", "return 1;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")

	_, err = IsDifferent("return 1;", "return (")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generated")
}
