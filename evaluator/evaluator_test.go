package evaluator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		code string
		data any
		want any
	}{
		{"reads this", "return this.a + 1;", map[string]any{"a": 1}, 2},
		{"nil data is an object", "return typeof this;", nil, "object"},
		{"in operator on data", `return "a" in this;`, map[string]any{"a": nil}, true},
		{"undefined result", "return;", nil, nil},
		{"string join", `return ["a", 1].join("");`, nil, "a1"},
		{"struct data uses json names", "return this.full_name;", struct {
			FullName string `json:"full_name"`
		}{"ada"}, "ada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(nil)
			defer e.Close()
			got, err := e.Evaluate(tt.code, tt.data)
			require.NoError(t, err)
			assert.EqualValues(t, tt.want, got)
		})
	}
}

func TestErrorCallback(t *testing.T) {
	var caught []error
	e := New(func(err error) { caught = append(caught, err) })
	defer e.Close()

	got, err := e.Evaluate("try { return null.x; } catch (e) { E(e, this); }", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	require.Len(t, caught, 1)

	var xe *ExpressionError
	require.True(t, errors.As(caught[0], &xe))
	assert.Equal(t, "TypeError", xe.Name)
	assert.NotEmpty(t, xe.Message)
}

func TestErrorCallbackNonError(t *testing.T) {
	var caught []error
	e := New(func(err error) { caught = append(caught, err) })
	defer e.Close()

	_, err := e.Evaluate(`try { throw "plain"; } catch (e) { E(e, this); }`, nil)
	require.NoError(t, err)
	require.Len(t, caught, 1)
	xe := caught[0].(*ExpressionError)
	assert.Equal(t, "", xe.Name)
	assert.Equal(t, "plain", xe.Message)
	assert.Equal(t, "plain", xe.Value)
}

func TestUncaughtError(t *testing.T) {
	e := New(nil)
	defer e.Close()

	_, err := e.Evaluate(`throw new Error("boom");`, nil)
	require.Error(t, err)
	var re *RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Contains(t, err.Error(), "boom")
}

func TestCompileError(t *testing.T) {
	e := New(nil)
	defer e.Close()

	_, err := e.Evaluate("return (;", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling program")
	assert.Empty(t, e.cache)
}

func TestStrictMode(t *testing.T) {
	code := "undeclared = 1; return undeclared;"

	strict := New(nil)
	defer strict.Close()
	_, err := strict.Evaluate(code, nil)
	var re *RuntimeError
	require.True(t, errors.As(err, &re), "got %v", err)

	sloppy := New(nil, WithStrict(false))
	defer sloppy.Close()
	got, err := sloppy.Evaluate(code, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got)
}

func TestFunctionCache(t *testing.T) {
	e := New(nil)
	defer e.Close()

	for i := range 3 {
		got, err := e.Evaluate("return this.n;", map[string]any{"n": i})
		require.NoError(t, err)
		assert.EqualValues(t, i, got)
	}
	assert.Len(t, e.cache, 1)
}

func TestCallableResult(t *testing.T) {
	e := New(nil)
	defer e.Close()

	got, err := e.Evaluate("var k = this.k; return function (x) { return k + x; };", map[string]any{"k": 40})
	require.NoError(t, err)
	fn, ok := got.(*Function)
	require.True(t, ok, "got %T", got)

	res, err := fn.Call(nil, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 42, res)
}

func TestClose(t *testing.T) {
	e := New(nil)
	got, err := e.Evaluate("return function () { return 1; };", nil)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = e.Evaluate("return 1;", nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = got.(*Function).Call(nil)
	assert.ErrorIs(t, err, ErrClosed)
}
