package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"
)

// ArgResolver binds a condition's args against the inspection facts before
// the operator sees them. Implementations must not mutate their inputs.
type ArgResolver interface {
	ResolveArgs(task Task, args map[string]any, inventory, pluginData map[string]any) (map[string]any, error)
}

// PassthroughResolver is used when args arrive fully resolved. It returns a
// shallow copy so operators never share the caller's map.
type PassthroughResolver struct{}

// ResolveArgs implements ArgResolver.
func (PassthroughResolver) ResolveArgs(_ Task, args map[string]any, _, _ map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out, nil
}

// placeholderPattern matches {inventory.a.b} and {plugin_data.x.0}.
var placeholderPattern = regexp.MustCompile(`\{((?:inventory|plugin_data)(?:\.[^{}\s.]+)*)\}`)

// TemplateResolver substitutes fact placeholders inside args. A string that
// is exactly one placeholder is replaced by the typed value found at that
// path; placeholders embedded in longer strings are interpolated using the
// value's string form. Sequences and mappings are resolved recursively.
//
// Paths are dotted, rooted at "inventory" or "plugin_data", and may index
// lists numerically. A path with no value (or a null value) is an
// ErrRuleExecutionFailure.
type TemplateResolver struct{}

// ResolveArgs implements ArgResolver.
func (TemplateResolver) ResolveArgs(_ Task, args map[string]any, inventory, pluginData map[string]any) (map[string]any, error) {
	data := map[string]any{
		"inventory":   orEmpty(inventory),
		"plugin_data": orEmpty(pluginData),
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		resolved, err := resolveTemplates(v, data)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func resolveTemplates(v any, data map[string]any) (any, error) {
	switch x := v.(type) {
	case string:
		return resolveString(x, data)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			resolved, err := resolveTemplates(item, data)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			resolved, err := resolveTemplates(item, data)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

func resolveString(s string, data map[string]any) (any, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		return lookupPath(s[matches[0][2]:matches[0][3]], data)
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		value, err := lookupPath(s[m[2]:m[3]], data)
		if err != nil {
			return nil, err
		}
		b.WriteString(StringForm(value))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

func lookupPath(path string, data map[string]any) (any, error) {
	missing, err := jsonlogic.ApplyInterface(map[string]any{"missing": []any{path}}, data)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve %q: %v", ErrRuleExecutionFailure, path, err)
	}
	if keys, ok := asSequence(missing); ok && len(keys) > 0 {
		return nil, fmt.Errorf("%w: no value at %q", ErrRuleExecutionFailure, path)
	}

	value, err := jsonlogic.ApplyInterface(map[string]any{"var": path}, data)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve %q: %v", ErrRuleExecutionFailure, path, err)
	}
	return value, nil
}
