// Package compiler turns templates into script programs: it resolves free
// identifiers against a data value, generates the program tree, prints it
// and caches the result per template.
package compiler

import (
	"log/slog"

	"github.com/rubiojr/tourney/evaluator"
)

// DefaultDataNodeName holds `this` in programs that define functions.
const DefaultDataNodeName = "___tourney_data"

// Evaluator runs generated program text against a data value.
type Evaluator interface {
	Evaluate(code string, data any) (any, error)
	Close() error
}

// Unit is the result of compiling one template.
type Unit struct {
	Source   string
	Code     string
	Analysis Analysis
}

// Compiler orchestrates the pipeline: split, parse, resolve, generate and
// print. Compiled units are cached by source text.
type Compiler struct {
	dataNodeName string
	hooks        Hooks
	cacheSize    int
	logger       *slog.Logger
	eval         Evaluator
	handler      func(error)

	cache *unitCache
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDataNodeName sets the identifier that holds `this` when a template
// defines functions.
func WithDataNodeName(name string) Option {
	return func(c *Compiler) { c.dataNodeName = name }
}

// WithHooks sets the tree hooks applied to every code span.
func WithHooks(h Hooks) Option {
	return func(c *Compiler) { c.hooks = h }
}

// WithCacheSize bounds the compile cache. Zero, the default, never evicts.
func WithCacheSize(n int) Option {
	return func(c *Compiler) { c.cacheSize = n }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithEvaluator replaces the default execution backend.
func WithEvaluator(e Evaluator) Option {
	return func(c *Compiler) { c.eval = e }
}

// WithErrorHandler sets the function the default backend passes errors
// caught inside a template to. Ignored when WithEvaluator is used.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Compiler) { c.handler = fn }
}

// New returns a Compiler. Without WithEvaluator it executes programs on
// the embedded strict-mode backend.
func New(opts ...Option) *Compiler {
	c := &Compiler{dataNodeName: DefaultDataNodeName}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.handler == nil {
		c.handler = func(error) {}
	}
	if c.eval == nil {
		c.eval = evaluator.New(c.handler)
	}
	c.cache = newUnitCache(c.cacheSize)
	return c
}

// ExpressionCode generates the program for expr with the compiler's data
// node name and hooks. The result is not cached.
func (c *Compiler) ExpressionCode(expr string) (string, Analysis, error) {
	return Generate(expr, c.dataNodeName, c.hooks)
}

// Compile returns the unit for expr, generating it on a cache miss.
// Failures are not cached.
func (c *Compiler) Compile(expr string) (*Unit, error) {
	if u, ok := c.cache.get(expr); ok {
		c.logger.Debug("compile cache hit", "expression", expr)
		return u, nil
	}
	c.logger.Debug("compile cache miss", "expression", expr)

	code, analysis, err := c.ExpressionCode(expr)
	if err != nil {
		c.logger.Debug("compile failed", "expression", expr, "error", err)
		return nil, err
	}
	u := &Unit{Source: expr, Code: code, Analysis: analysis}
	c.cache.put(u)
	return u, nil
}

// Execute compiles expr and evaluates it against data.
func (c *Compiler) Execute(expr string, data any) (any, error) {
	u, err := c.Compile(expr)
	if err != nil {
		return nil, err
	}
	return c.eval.Evaluate(u.Code, data)
}

// Close releases the execution backend.
func (c *Compiler) Close() error {
	return c.eval.Close()
}
