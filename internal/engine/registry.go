package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TimurManjosov/inspectrules/internal/rules"
)

// Registry maps canonical operator names to implementations. It is built
// once and never modified, so concurrent lookups need no locking.
type Registry struct {
	operators map[rules.Operator]Operator
}

var defaultRegistry = NewRegistry(builtinOperators())

// DefaultRegistry returns the process-wide registry of built-in operators.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// NewRegistry builds a registry from a copy of ops.
func NewRegistry(ops map[rules.Operator]Operator) *Registry {
	table := make(map[rules.Operator]Operator, len(ops))
	for name, op := range ops {
		table[name] = op
	}
	return &Registry{operators: table}
}

// Lookup returns the operator registered under name. Names are matched
// exactly; inversion markers must already be stripped.
func (r *Registry) Lookup(name string) (Operator, error) {
	op, ok := r.operators[rules.Operator(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, name)
	}
	return op, nil
}

// Names returns the registered operator names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.operators))
	for name := range r.operators {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
