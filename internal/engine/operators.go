package engine

import (
	"net/netip"
	"strings"

	"github.com/TimurManjosov/inspectrules/internal/rules"
)

// Argument names shared by several operators.
const (
	argValue        = "value"
	argValues       = "values"
	argRegex        = "regex"
	argAddress      = "address"
	argSubnet       = "subnet"
	argForceStrings = "force_strings"
	// argForceStringsAlt is the camel-case spelling accepted for documents
	// produced by JSON-first tooling.
	argForceStringsAlt = "forceStrings"
)

var valueArg = ArgSpec{Required: []string{argValue}}

func builtinOperators() map[rules.Operator]Operator {
	return map[rules.Operator]Operator{
		rules.OpEq:       chainOperator{name: rules.OpEq, cmp: chainEq},
		rules.OpLt:       chainOperator{name: rules.OpLt, cmp: chainLt},
		rules.OpGt:       chainOperator{name: rules.OpGt, cmp: chainGt},
		rules.OpIsEmpty:  emptyOperator{},
		rules.OpInNet:    netOperator{},
		rules.OpMatches:  matchesOperator{},
		rules.OpContains: containsOperator{},
		rules.OpOneOf:    oneOfOperator{},
		rules.OpIsNone:   isNoneOperator{},
		rules.OpIsTrue:   isTrueOperator{},
		rules.OpIsFalse:  isFalseOperator{},
	}
}

// chainOperator applies a binary comparator to every consecutive pair of
// "values" and ANDs the results.
type chainOperator struct {
	name rules.Operator
	cmp  func(a, b any) (bool, error)
}

func chainEq(a, b any) (bool, error) {
	return valuesEqual(a, b), nil
}

func chainLt(a, b any) (bool, error) {
	c, err := compareOrder(a, b)
	return c < 0, err
}

func chainGt(a, b any) (bool, error) {
	c, err := compareOrder(a, b)
	return c == 1, err
}

func (o chainOperator) Args() ArgSpec {
	return ArgSpec{Required: []string{argValues}, Optional: []string{argForceStrings, argForceStringsAlt}}
}

func (o chainOperator) Check(_ Task, args map[string]any) (bool, error) {
	op := string(o.name)
	if err := o.Args().validate(op, args); err != nil {
		return false, err
	}

	values, ok := asSequence(args[argValues])
	if !ok {
		return false, shapeError(op, "expected list for 'values', got: %s", typeName(args[argValues]))
	}
	if len(values) < 2 {
		return true, nil
	}

	if truthy(args[argForceStrings]) || truthy(args[argForceStringsAlt]) {
		coerced := make([]any, len(values))
		for i, v := range values {
			s, err := Coerce(v, "")
			if err != nil {
				return false, execError(op, "cannot coerce %s to string: %v", StringForm(v), err)
			}
			coerced[i] = s
		}
		values = coerced
	}

	for i := 0; i < len(values)-1; i++ {
		ok, err := o.cmp(values[i], values[i+1])
		if err != nil {
			return false, execError(op, "%v", err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

type emptyOperator struct{}

func (emptyOperator) Args() ArgSpec { return valueArg }

func (o emptyOperator) Check(_ Task, args map[string]any) (bool, error) {
	if err := o.Args().validate(string(rules.OpIsEmpty), args); err != nil {
		return false, err
	}
	switch StringForm(args[argValue]) {
	case "", "None", "[]", "{}":
		return true, nil
	}
	return false, nil
}

// netOperator checks CIDR membership. Despite the name no network access
// happens; both inputs are parsed in memory.
type netOperator struct{}

func (netOperator) Args() ArgSpec {
	return ArgSpec{Required: []string{argAddress, argSubnet}}
}

func (o netOperator) Check(_ Task, args map[string]any) (bool, error) {
	op := string(rules.OpInNet)
	if err := o.Args().validate(op, args); err != nil {
		return false, err
	}

	network, err := parseNetwork(StringForm(args[argSubnet]))
	if err != nil {
		return false, execError(op, "invalid value: %v", err)
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(StringForm(args[argAddress])))
	if err != nil {
		return false, execError(op, "invalid address: %v", err)
	}
	return network.Contains(addr), nil
}

func regexArgs(op string, o Operator, args map[string]any) (string, error) {
	if err := o.Args().validate(op, args); err != nil {
		return "", err
	}
	pattern, ok := args[argRegex].(string)
	if !ok {
		return "", shapeError(op, "expected string for 'regex', got: %s", typeName(args[argRegex]))
	}
	if _, err := compileRegex(pattern); err != nil {
		return "", execError(op, "invalid regular expression: %v", err)
	}
	return pattern, nil
}

// matchesOperator requires the pattern to match from the start of the value.
// A trailing "$" is added unless already present, so the whole value must
// match.
type matchesOperator struct{}

func (matchesOperator) Args() ArgSpec {
	return ArgSpec{Required: []string{argValue, argRegex}}
}

func (o matchesOperator) Check(_ Task, args map[string]any) (bool, error) {
	op := string(rules.OpMatches)
	pattern, err := regexArgs(op, o, args)
	if err != nil {
		return false, err
	}

	if !strings.HasSuffix(pattern, "$") {
		pattern += "$"
	}
	rx, err := compileRegex(`\A(?:` + pattern + `)`)
	if err != nil {
		return false, execError(op, "invalid regular expression: %v", err)
	}
	return rx.MatchString(StringForm(args[argValue])), nil
}

// containsOperator searches for the pattern anywhere in the value.
type containsOperator struct{}

func (containsOperator) Args() ArgSpec {
	return ArgSpec{Required: []string{argValue, argRegex}}
}

func (o containsOperator) Check(_ Task, args map[string]any) (bool, error) {
	pattern, err := regexArgs(string(rules.OpContains), o, args)
	if err != nil {
		return false, err
	}
	rx, err := compileRegex(pattern)
	if err != nil {
		return false, execError(string(rules.OpContains), "invalid regular expression: %v", err)
	}
	return rx.MatchString(StringForm(args[argValue])), nil
}

// oneOfOperator checks membership of "value" in "values". A missing "values"
// is an empty list; a mapping checks its keys.
type oneOfOperator struct{}

func (oneOfOperator) Args() ArgSpec {
	return ArgSpec{Required: []string{argValue}, Optional: []string{argValues}}
}

func (o oneOfOperator) Check(_ Task, args map[string]any) (bool, error) {
	op := string(rules.OpOneOf)
	if err := o.Args().validate(op, args); err != nil {
		return false, err
	}

	raw, present := args[argValues]
	if !present {
		return false, nil
	}

	value := args[argValue]
	if values, ok := asSequence(raw); ok {
		for _, candidate := range values {
			if valuesEqual(value, candidate) {
				return true, nil
			}
		}
		return false, nil
	}
	if m, ok := asMapping(raw); ok {
		key, ok := value.(string)
		if !ok {
			return false, nil
		}
		_, found := m[key]
		return found, nil
	}
	return false, shapeError(op, "expected list for 'values', got: %s", typeName(raw))
}

// isNoneOperator is a sentinel-string check: nil and the string "None" both
// render as "None".
type isNoneOperator struct{}

func (isNoneOperator) Args() ArgSpec { return valueArg }

func (o isNoneOperator) Check(_ Task, args map[string]any) (bool, error) {
	if err := o.Args().validate(string(rules.OpIsNone), args); err != nil {
		return false, err
	}
	return StringForm(args[argValue]) == "None", nil
}

type isTrueOperator struct{}

func (isTrueOperator) Args() ArgSpec { return valueArg }

func (o isTrueOperator) Check(_ Task, args map[string]any) (bool, error) {
	if err := o.Args().validate(string(rules.OpIsTrue), args); err != nil {
		return false, err
	}

	switch v := args[argValue].(type) {
	case bool:
		return v, nil
	case string:
		s := strings.ToLower(v)
		return s == "yes" || s == "true", nil
	default:
		if f, ok := toFloat64(v); ok {
			return f != 0, nil
		}
		return false, nil
	}
}

// isFalseOperator mirrors isTrueOperator; an absent or nil value counts as
// false.
type isFalseOperator struct{}

func (isFalseOperator) Args() ArgSpec {
	return ArgSpec{Optional: []string{argValue}}
}

func (o isFalseOperator) Check(_ Task, args map[string]any) (bool, error) {
	if err := o.Args().validate(string(rules.OpIsFalse), args); err != nil {
		return false, err
	}

	switch v := args[argValue].(type) {
	case nil:
		return true, nil
	case bool:
		return !v, nil
	case string:
		s := strings.ToLower(v)
		return s == "no" || s == "false", nil
	default:
		if f, ok := toFloat64(v); ok {
			return f == 0, nil
		}
		return false, nil
	}
}
