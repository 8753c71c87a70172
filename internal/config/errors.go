package config

import "fmt"

// UnknownTargetError reports a reference to a target name that was never
// declared: a dependency, an inherits entry, a group member, or a name given
// on the command line.
type UnknownTargetError struct {
	// Name is the unresolved target name.
	Name string
	// ReferencedBy identifies the target or group holding the reference.
	// Empty when the name came directly from the invocation.
	ReferencedBy string
}

func (e *UnknownTargetError) Error() string {
	if e.ReferencedBy == "" {
		return fmt.Sprintf("unknown target %q", e.Name)
	}
	return fmt.Sprintf("unknown target %q referenced by %q", e.Name, e.ReferencedBy)
}

// VariableResolutionError reports an interpolation that could not be
// resolved while decoding configuration.
type VariableResolutionError struct {
	// Subject is the block the expression appeared in, e.g. `target "api"`.
	Subject string
	// Detail carries the underlying diagnostic text.
	Detail string
}

func (e *VariableResolutionError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("variable resolution failed: %s", e.Detail)
	}
	return fmt.Sprintf("variable resolution failed in %s: %s", e.Subject, e.Detail)
}
