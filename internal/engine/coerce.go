package engine

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/netip"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cast"
)

// regexCache keeps compiled regex by pattern for the hot evaluation path.
// Expected value type is *regexp.Regexp.
var regexCache sync.Map

func compileRegex(pattern string) (*regexp.Regexp, error) {
	if cached, ok := regexCache.Load(pattern); ok {
		if rx, ok := cached.(*regexp.Regexp); ok {
			return rx, nil
		}
	}

	rx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, rx)
	return rx, nil
}

// Coerce converts value to the type of expected. expected is an example
// value, not a type: a float example yields float64, an integer example
// yields int64 and a string example yields the value's string form. Any
// other example returns value unchanged.
func Coerce(value, expected any) (any, error) {
	switch expected.(type) {
	case float32, float64:
		return cast.ToFloat64E(value)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToInt64E(value)
	case string:
		return StringForm(value), nil
	default:
		return value, nil
	}
}

// StringForm renders v the way inspection data has always been rendered in
// rule documents: strings as-is, nil as "None", booleans as "True"/"False",
// sequences as "[1, 'a']" and mappings as "{'k': 1}" with sorted keys.
func StringForm(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return repr(v)
}

func repr(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return quote(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case json.Number:
		return x.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	}

	if seq, ok := asSequence(v); ok {
		parts := make([]string, len(seq))
		for i, item := range seq {
			parts[i] = repr(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}

	if m, ok := asMapping(v); ok {
		keys := sortedKeys(m)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = quote(k) + ": " + repr(m[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}

	return fmt.Sprint(v)
}

// formatFloat uses fixed notation between 1e-4 and 1e16 and always keeps a
// fractional part, so 1.0 renders as "1.0" rather than "1".
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, bits)
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	q := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.WriteRune(q)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case q:
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(q)
	return b.String()
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// unordered is returned by compareOrder when either side is NaN. It is
// neither less than nor greater than anything.
const unordered = 2

// toNumber reads v as an exact number. Integers of any width stay exact,
// floats are held without rounding and booleans count as 0 and 1. A nil
// result with ok set means NaN.
func toNumber(v any) (n *big.Float, ok bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return big.NewFloat(1), true
		}
		return new(big.Float), true
	case int:
		return new(big.Float).SetInt64(int64(x)), true
	case int8:
		return new(big.Float).SetInt64(int64(x)), true
	case int16:
		return new(big.Float).SetInt64(int64(x)), true
	case int32:
		return new(big.Float).SetInt64(int64(x)), true
	case int64:
		return new(big.Float).SetInt64(x), true
	case uint:
		return new(big.Float).SetUint64(uint64(x)), true
	case uint8:
		return new(big.Float).SetUint64(uint64(x)), true
	case uint16:
		return new(big.Float).SetUint64(uint64(x)), true
	case uint32:
		return new(big.Float).SetUint64(uint64(x)), true
	case uint64:
		return new(big.Float).SetUint64(x), true
	case float32:
		return floatNumber(float64(x)), true
	case float64:
		return floatNumber(x), true
	case json.Number:
		if i, ok := new(big.Int).SetString(string(x), 10); ok {
			return new(big.Float).SetInt(i), true
		}
		f, err := x.Float64()
		if err != nil {
			return nil, false
		}
		return floatNumber(f), true
	default:
		return nil, false
	}
}

func floatNumber(f float64) *big.Float {
	if math.IsNaN(f) {
		return nil
	}
	return big.NewFloat(f)
}

func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil, string:
		return nil, false
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, item := range m {
			out[k] = item
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[StringForm(iter.Key().Interface())] = iter.Value().Interface()
	}
	return out, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truthy follows the usual dynamic-language truthiness: nil, false, zero,
// and empty strings or collections are false.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	if f, ok := toFloat64(v); ok {
		return f != 0
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	if seq, ok := asSequence(v); ok {
		return len(seq) > 0
	}
	if m, ok := asMapping(v); ok {
		return len(m) > 0
	}
	return true
}

// valuesEqual reports structural equality. Numbers compare by value across
// kinds (1 == 1.0 == true), nil only equals nil, and values of unrelated
// kinds are simply unequal.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if an, ok := toNumber(a); ok {
		bn, ok := toNumber(b)
		return ok && an != nil && bn != nil && an.Cmp(bn) == 0
	}

	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}

	if aSeq, ok := asSequence(a); ok {
		bSeq, ok := asSequence(b)
		if !ok || len(aSeq) != len(bSeq) {
			return false
		}
		for i := range aSeq {
			if !valuesEqual(aSeq[i], bSeq[i]) {
				return false
			}
		}
		return true
	}

	if aMap, ok := asMapping(a); ok {
		bMap, ok := asMapping(b)
		if !ok || len(aMap) != len(bMap) {
			return false
		}
		for k, av := range aMap {
			bv, ok := bMap[k]
			if !ok || !valuesEqual(av, bv) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// compareOrder returns -1, 0 or +1, or unordered when NaN is involved.
// Numbers, strings and sequences of comparable elements are ordered;
// anything else is an error.
func compareOrder(a, b any) (int, error) {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			if an == nil || bn == nil {
				return unordered, nil
			}
			return an.Cmp(bn), nil
		}
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), nil
		}
	}

	if aSeq, ok := asSequence(a); ok {
		if bSeq, ok := asSequence(b); ok {
			for i := 0; i < len(aSeq) && i < len(bSeq); i++ {
				if valuesEqual(aSeq[i], bSeq[i]) {
					continue
				}
				return compareOrder(aSeq[i], bSeq[i])
			}
			return cmp.Compare(len(aSeq), len(bSeq)), nil
		}
	}

	return 0, fmt.Errorf("ordering not supported between %s and %s", typeName(a), typeName(b))
}

// typeName names the dynamic kind of v for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "none"
	case bool:
		return "bool"
	case string:
		return "string"
	}
	if _, ok := toFloat64(v); ok {
		return "number"
	}
	if _, ok := asSequence(v); ok {
		return "list"
	}
	if _, ok := asMapping(v); ok {
		return "mapping"
	}
	return fmt.Sprintf("%T", v)
}

// parseNetwork parses a CIDR network. A bare address is treated as a
// single-host network. Host bits are masked off.
func parseNetwork(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
