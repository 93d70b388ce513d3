package compiler

import "fmt"

// UnsupportedError reports a construct that compiled templates cannot
// contain.
type UnsupportedError struct {
	Construct string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported construct: %s", e.Construct)
}

// ContractError reports a node kind the resolver has no rule for, either
// as the parent of identifier Name or, when Name is empty, as a node
// itself. It means the tree was built by something other than the
// parser, usually a hook.
type ContractError struct {
	Parent string
	Name   string
}

func (e *ContractError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("unhandled node kind %s", e.Parent)
	}
	return fmt.Sprintf("identifier %q under unhandled parent %s", e.Name, e.Parent)
}
