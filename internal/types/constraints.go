package types

import "fmt"

// ClassConstraint is an unresolved type class obligation collected during
// inference: "this type must have an instance of this class". Checker
// resolves each one against instanceEnv after generalization, defaulting
// ambiguous numeric variables per DefaultingConfig.
type ClassConstraint struct {
	Class string
	Type  Type
	Path  []string // field/expression path, for error reporting
}

func (c ClassConstraint) String() string { return fmt.Sprintf("%s[%s]", c.Class, c.Type) }
