package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rubiojr/tourney/compat"
	"github.com/rubiojr/tourney/compiler"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp("test")
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(context.Background(), append([]string{"tourney"}, args...))
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestEmit(t *testing.T) {
	want, _, err := compiler.Generate("hi {{ name }}", compiler.DefaultDataNodeName, compiler.Hooks{})
	require.NoError(t, err)

	r := run(t, "", "emit", "hi {{ name }}")
	require.NoError(t, r.err)
	assert.Equal(t, want+"\n", r.stdout)
}

func TestEmitAnalysis(t *testing.T) {
	r := run(t, "", "emit", "--analysis", "{{ [1].map(x => `${x}`) }}")
	require.NoError(t, r.err)
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	assert.Equal(t, `{"has_function":true,"has_template_string":true}`, lines[len(lines)-1])
	assert.Contains(t, r.stdout, "var ___tourney_data = this;")
}

func TestEmitDataNode(t *testing.T) {
	r := run(t, "", "--data-node", "holder", "emit", "{{ () => a }}")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "var holder = this;")

	t.Setenv("TOURNEY_DATA_NODE", "fromenv")
	r = run(t, "", "emit", "{{ () => a }}")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "var fromenv = this;")
}

func TestEmitSyntaxError(t *testing.T) {
	r := run(t, "", "emit", "{{ a + }}")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "span 1")
}

func TestEmitMissingArgument(t *testing.T) {
	r := run(t, "", "emit")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "missing expression")
}

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"number", []string{"--data", `{"a":1,"b":2}`, "{{ a + b }}"}, "3"},
		{"interpolation", []string{"-d", `{"a":1}`, "total: {{ a }}"}, `"total: 1"`},
		{"no data", []string{"{{ 'x'.repeat(2) }}"}, `"xx"`},
		{"object", []string{"{{ { k: 1 } }}"}, `{"k":1}`},
		{"function", []string{"{{ () => 1 }}"}, "[function]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, "", append([]string{"eval"}, tt.args...)...)
			require.NoError(t, r.err)
			assert.Equal(t, tt.want+"\n", r.stdout)
		})
	}
}

func TestEvalReportsCaughtErrors(t *testing.T) {
	r := run(t, "", "eval", "x{{ a.b.c }}")
	require.NoError(t, r.err)
	assert.Equal(t, `"x"`+"\n", r.stdout)
	assert.Contains(t, r.stderr, "TypeError")
	assert.NotContains(t, r.stderr, colorRed)
}

func TestEvalStdin(t *testing.T) {
	r := run(t, "{{ n * 2 }}\n", "eval", "--data", `{"n":21}`, "-")
	require.NoError(t, r.err)
	assert.Equal(t, "42\n", r.stdout)
}

func TestEvalDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"tourney"}`), 0o644))

	r := run(t, "", "eval", "--data-file", path, "{{ name }}")
	require.NoError(t, r.err)
	assert.Equal(t, `"tourney"`+"\n", r.stdout)
}

func TestEvalDataErrors(t *testing.T) {
	r := run(t, "", "eval", "--data", "{", "{{ a }}")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "decoding data")

	r = run(t, "", "eval", "--data", "{}", "--data-file", "x.json", "{{ a }}")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "mutually exclusive")
}

func TestEvalSloppy(t *testing.T) {
	r := run(t, "", "eval", "--sloppy", "{{ (function () { return this === undefined })() }}")
	require.NoError(t, r.err)
	assert.Equal(t, "false\n", r.stdout)

	r = run(t, "", "eval", "{{ (function () { return this === undefined })() }}")
	require.NoError(t, r.err)
	assert.Equal(t, "true\n", r.stdout)
}

func TestSplit(t *testing.T) {
	r := run(t, "", "split", "a {{ b }} c {{ d")
	require.NoError(t, r.err)
	want := "" +
		"text \"a \"\n" +
		"code \" b \"\n" +
		"text \" c \"\n" +
		"code \" d\" (unclosed)\n"
	assert.Equal(t, want, r.stdout)
}

func writeFixtures(t *testing.T, fixtures []compat.Fixture) string {
	t.Helper()
	b, err := yaml.Marshal(fixtures)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestDiff(t *testing.T) {
	same, _, err := compiler.Generate("hello {{ name }}", compiler.DefaultDataNodeName, compiler.Hooks{})
	require.NoError(t, err)

	t.Run("all same", func(t *testing.T) {
		path := writeFixtures(t, []compat.Fixture{
			{Expression: "hello {{ name }}", Oracle: same},
		})
		r := run(t, "", "diff", "--fixtures", path)
		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, `same none`)
		assert.Contains(t, r.stdout, `"vvvvv {{ name }}"`)
		assert.Contains(t, r.stdout, "1 expressions, 0 different")
	})

	t.Run("differences", func(t *testing.T) {
		path := writeFixtures(t, []compat.Fixture{
			{Expression: "hello {{ name }}", Oracle: same},
			{Expression: "{{ 1 + 2 }}", Oracle: "var global = {};\nreturn 4;"},
			{Expression: "{{ x }}", OracleError: "unexpected token"},
			{Expression: "{{ () => 1 }}", Oracle: "return 1;"},
		})
		r := run(t, "", "diff", "--fixtures", path)
		require.ErrorIs(t, r.err, errDifferent)

		lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
		require.Len(t, lines, 5)
		assert.True(t, strings.HasPrefix(lines[0], "same"))
		assert.Contains(t, lines[1], "output mismatch")
		assert.Contains(t, lines[2], "parser incompatibility")
		assert.Contains(t, lines[3], "unsupported construct")
		assert.Contains(t, lines[3], "[function]")
		assert.Equal(t, "4 expressions, 3 different", lines[4])
	})

	t.Run("bad fixtures", func(t *testing.T) {
		path := writeFixtures(t, []compat.Fixture{{Expression: "{{ a }}"}})
		r := run(t, "", "diff", "--fixtures", path)
		require.Error(t, r.err)
		assert.Contains(t, r.err.Error(), "needs oracle")
	})
}
