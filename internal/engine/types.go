package engine

import (
	"sort"
	"strings"
)

// Task is the opaque node handle handed to operators. The engine never
// inspects or mutates it.
type Task any

// Operator is a named, stateless predicate. Implementations must be safe for
// concurrent use.
type Operator interface {
	Check(task Task, args map[string]any) (bool, error)
	Args() ArgSpec
}

// ArgSpec declares the argument names an operator accepts.
type ArgSpec struct {
	Required []string
	Optional []string
}

// String renders the argument names as "a, b, [c]" for listings.
func (s ArgSpec) String() string {
	parts := make([]string, 0, len(s.Required)+len(s.Optional))
	parts = append(parts, s.Required...)
	for _, name := range s.Optional {
		parts = append(parts, "["+name+"]")
	}
	return strings.Join(parts, ", ")
}

// validate checks args against the declared names: every required name must
// be present and no undeclared name may appear.
func (s ArgSpec) validate(op string, args map[string]any) error {
	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return shapeError(op, "missing required argument %q", name)
		}
	}

	var unknown []string
	for name := range args {
		if !s.accepts(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return shapeError(op, "unexpected argument(s): %s", strings.Join(unknown, ", "))
	}
	return nil
}

func (s ArgSpec) accepts(name string) bool {
	for _, n := range s.Required {
		if n == name {
			return true
		}
	}
	for _, n := range s.Optional {
		if n == name {
			return true
		}
	}
	return false
}
