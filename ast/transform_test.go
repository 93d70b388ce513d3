package ast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainEmpty(t *testing.T) {
	prog := &Program{}
	require.NoError(t, Chain().Apply(prog))
	assert.Empty(t, prog.Body)
}

func TestChainOrdering(t *testing.T) {
	var order []string
	pass := func(name string) Pass {
		return PassFunc{N: name, F: func(*Program) error {
			order = append(order, name)
			return nil
		}}
	}
	require.NoError(t, Chain(pass("first"), pass("second"), pass("third")).Apply(&Program{}))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestChainMutatesInPlace(t *testing.T) {
	f := NewFactory()
	appendStmt := PassFunc{N: "append", F: func(prog *Program) error {
		prog.Body = append(prog.Body, f.Empty())
		return nil
	}}
	prog := f.ProgramOf()
	require.NoError(t, Chain(appendStmt, Chain(appendStmt, appendStmt)).Apply(prog))
	assert.Len(t, prog.Body, 3)
}

func TestChainStopsAtError(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	err := Chain(
		PassFunc{N: "fail", F: func(*Program) error { return boom }},
		PassFunc{N: "after", F: func(*Program) error { ran = true; return nil }},
	).Apply(&Program{})
	require.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "fail: boom")
	assert.False(t, ran)
}

func TestChainName(t *testing.T) {
	assert.Equal(t, "chain", Chain().Name())
	assert.Equal(t, "my-pass", PassFunc{N: "my-pass"}.Name())
}
