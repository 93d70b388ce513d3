// Package evaluator executes generated template programs on an embedded
// ECMAScript engine.
//
// A program is the body of a function taking the error callback E and
// reading its data through `this`:
//
//	(function (E) { <program> })
//
// Compiled functions are cached by program text for the life of the
// evaluator.
package evaluator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// ErrClosed is returned by Evaluate after Close.
var ErrClosed = errors.New("evaluator: closed")

// ExpressionError is an error a program caught and reported through E.
type ExpressionError struct {
	// Name is the script error's constructor name, such as TypeError.
	Name    string
	Message string
	// Value is the thrown value exported to Go.
	Value any
}

func (e *ExpressionError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// RuntimeError is an error a program let escape.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string { return "runtime error: " + e.Err.Error() }

func (e *RuntimeError) Unwrap() error { return e.Err }

// FunctionEvaluator compiles each program into a function on a single
// runtime. Calls are serialized.
type FunctionEvaluator struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	handler func(error)
	strict  bool
	cache   map[string]goja.Callable
	closed  bool
}

// Option configures a FunctionEvaluator.
type Option func(*FunctionEvaluator)

// WithStrict selects strict mode compilation. The default is true.
func WithStrict(strict bool) Option {
	return func(e *FunctionEvaluator) { e.strict = strict }
}

// New returns an evaluator passing caught errors to handler. A nil
// handler drops them.
func New(handler func(error), opts ...Option) *FunctionEvaluator {
	if handler == nil {
		handler = func(error) {}
	}
	e := &FunctionEvaluator{
		vm:      goja.New(),
		handler: handler,
		strict:  true,
		cache:   make(map[string]goja.Callable),
	}
	for _, o := range opts {
		o(e)
	}
	e.vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	return e
}

// Evaluate runs code with `this` bound to data. A nil data value is an
// empty object. Callable results are returned as *Function.
func (e *FunctionEvaluator) Evaluate(code string, data any) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	fn, err := e.function(code)
	if err != nil {
		return nil, err
	}

	var this goja.Value
	if data == nil {
		this = e.vm.NewObject()
	} else {
		this = e.vm.ToValue(data)
	}
	res, err := fn(this, e.vm.ToValue(e.report))
	if err != nil {
		return nil, &RuntimeError{Err: err}
	}
	return e.export(res), nil
}

// Close drops the compiled functions. Later calls to Evaluate fail.
func (e *FunctionEvaluator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	clear(e.cache)
	return nil
}

func (e *FunctionEvaluator) function(code string) (goja.Callable, error) {
	if fn, ok := e.cache[code]; ok {
		return fn, nil
	}
	prog, err := goja.Compile("", "(function (E) { "+code+"\n})", e.strict)
	if err != nil {
		return nil, fmt.Errorf("compiling program: %w", err)
	}
	v, err := e.vm.RunProgram(prog)
	if err != nil {
		return nil, &RuntimeError{Err: err}
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("compiling program: not a function")
	}
	e.cache[code] = fn
	return fn, nil
}

// report is the E callback seen by programs.
func (e *FunctionEvaluator) report(call goja.FunctionCall) goja.Value {
	e.handler(e.expressionError(call.Argument(0)))
	return goja.Undefined()
}

func (e *FunctionEvaluator) expressionError(v goja.Value) *ExpressionError {
	xe := &ExpressionError{Value: v.Export()}
	obj, ok := v.(*goja.Object)
	if !ok {
		xe.Message = v.String()
		return xe
	}
	if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
		xe.Name = name.String()
	}
	if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
		xe.Message = msg.String()
	} else {
		xe.Message = v.String()
	}
	return xe
}

func (e *FunctionEvaluator) export(v goja.Value) any {
	if fn, ok := goja.AssertFunction(v); ok {
		return &Function{e: e, fn: fn}
	}
	return v.Export()
}

// Function is a script function returned by a template.
type Function struct {
	e  *FunctionEvaluator
	fn goja.Callable
}

// Call invokes the function with the given receiver and arguments. It
// must not be called from inside an error handler.
func (f *Function) Call(this any, args ...any) (any, error) {
	f.e.mu.Lock()
	defer f.e.mu.Unlock()
	if f.e.closed {
		return nil, ErrClosed
	}
	vm := f.e.vm
	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = vm.ToValue(a)
	}
	var recv goja.Value = goja.Undefined()
	if this != nil {
		recv = vm.ToValue(this)
	}
	res, err := f.fn(recv, vals...)
	if err != nil {
		return nil, &RuntimeError{Err: err}
	}
	return f.e.export(res), nil
}
