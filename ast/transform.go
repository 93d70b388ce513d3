package ast

import "fmt"

// Pass rewrites a program in place.
type Pass interface {
	Name() string
	Apply(prog *Program) error
}

// PassFunc adapts a named function to the Pass interface.
type PassFunc struct {
	N string
	F func(*Program) error
}

func (p PassFunc) Name() string              { return p.N }
func (p PassFunc) Apply(prog *Program) error { return p.F(prog) }

// Chain composes passes left-to-right into a single Pass. Each pass sees
// the program as left by the previous one; the first error stops the
// chain and is returned prefixed with the failing pass name.
func Chain(passes ...Pass) Pass {
	return PassFunc{
		N: "chain",
		F: func(prog *Program) error {
			for _, p := range passes {
				if err := p.Apply(prog); err != nil {
					return fmt.Errorf("%s: %w", p.Name(), err)
				}
			}
			return nil
		},
	}
}
