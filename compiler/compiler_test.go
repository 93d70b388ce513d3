package compiler

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/tourney/ast"
)

type recordingEvaluator struct {
	codes  []string
	data   []any
	result any
	err    error
	closed bool
}

func (r *recordingEvaluator) Evaluate(code string, data any) (any, error) {
	r.codes = append(r.codes, code)
	r.data = append(r.data, data)
	return r.result, r.err
}

func (r *recordingEvaluator) Close() error {
	r.closed = true
	return nil
}

func TestCompileCachesUnits(t *testing.T) {
	c := New(WithEvaluator(&recordingEvaluator{}))

	first, err := c.Compile("a {{ b }}")
	require.NoError(t, err)
	second, err := c.Compile("a {{ b }}")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "a {{ b }}", first.Source)
	assert.Equal(t, 1, c.cache.len())

	other, err := c.Compile("a {{ b}}")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, c.cache.len())
}

func TestCompileFailuresNotCached(t *testing.T) {
	c := New(WithEvaluator(&recordingEvaluator{}))
	_, err := c.Compile("{{ a + }}")
	require.Error(t, err)
	assert.Equal(t, 0, c.cache.len())
}

func TestCacheBound(t *testing.T) {
	c := New(WithEvaluator(&recordingEvaluator{}), WithCacheSize(2))
	a, _ := c.Compile("{{ a }}")
	_, _ = c.Compile("{{ b }}")
	_, _ = c.Compile("{{ a }}") // a is now most recent
	_, _ = c.Compile("{{ c }}") // evicts b
	assert.Equal(t, 2, c.cache.len())

	again, _ := c.Compile("{{ a }}")
	assert.Same(t, a, again)
	_, ok := c.cache.get("{{ b }}")
	assert.False(t, ok)
}

func TestCacheUnbounded(t *testing.T) {
	cache := newUnitCache(0)
	for _, src := range []string{"a", "b", "c", "d"} {
		cache.put(&Unit{Source: src})
	}
	assert.Equal(t, 4, cache.len())

	cache.put(&Unit{Source: "a", Code: "replaced"})
	u, ok := cache.get("a")
	require.True(t, ok)
	assert.Equal(t, "replaced", u.Code)
	assert.Equal(t, 4, cache.len())
}

func TestExecuteDelegates(t *testing.T) {
	ev := &recordingEvaluator{result: "ok"}
	c := New(WithEvaluator(ev))
	data := map[string]any{"x": 1}

	got, err := c.Execute("{{ x }}", data)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	require.Len(t, ev.codes, 1)
	assert.Contains(t, ev.codes[0], `("x" in this ? this : global).x`)
	assert.Equal(t, data, ev.data[0])

	require.NoError(t, c.Close())
	assert.True(t, ev.closed)
}

func TestExecuteErrors(t *testing.T) {
	boom := errors.New("boom")
	ev := &recordingEvaluator{err: boom}
	c := New(WithEvaluator(ev))

	_, err := c.Execute("{{ x }}", nil)
	assert.ErrorIs(t, err, boom)

	_, err = c.Execute("{{ ) }}", nil)
	require.Error(t, err)
	assert.Len(t, ev.codes, 1)
}

func TestDataNodeName(t *testing.T) {
	c := New(WithEvaluator(&recordingEvaluator{}), WithDataNodeName("d"))
	code, analysis, err := c.ExpressionCode("{{ () => k }}")
	require.NoError(t, err)
	assert.True(t, analysis.HasFunction)
	assert.Contains(t, code, "var d = this;")
	assert.Contains(t, code, `("k" in d ? d : global).k`)
}

func TestCompilerHooks(t *testing.T) {
	called := 0
	c := New(WithEvaluator(&recordingEvaluator{}), WithHooks(Hooks{
		Before: []BeforeHook{func(*ast.Program, ast.Expr) { called++ }},
	}))
	_, err := c.Compile("{{ a }} {{ b }}")
	require.NoError(t, err)
	assert.Equal(t, 2, called)
}

func TestCompileLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := New(WithEvaluator(&recordingEvaluator{}), WithLogger(logger))

	_, _ = c.Compile("{{ a }}")
	_, _ = c.Compile("{{ a }}")
	_, _ = c.Compile("{{ + }}")

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "compile cache miss"))
	assert.Equal(t, 1, strings.Count(out, "compile cache hit"))
	assert.Contains(t, out, "compile failed")
}
