package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Operator is the canonical name of a condition operator, without any
// inversion marker.
type Operator string

// Supported condition operators.
const (
	OpEq       Operator = "eq"
	OpLt       Operator = "lt"
	OpGt       Operator = "gt"
	OpIsEmpty  Operator = "is-empty"
	OpInNet    Operator = "in-net"
	OpMatches  Operator = "matches"
	OpContains Operator = "contains"
	OpOneOf    Operator = "one-of"
	OpIsNone   Operator = "is-none"
	OpIsTrue   Operator = "is-true"
	OpIsFalse  Operator = "is-false"
)

// Strategy is the aggregation policy for looped conditions.
type Strategy string

const (
	StrategyAny   Strategy = "any"
	StrategyAll   Strategy = "all"
	StrategyFirst Strategy = "first"
	StrategyLast  Strategy = "last"
)

// Normalize maps the empty string and any unrecognised value to StrategyAny.
// Names match exactly, so "ALL" is unrecognised.
func (s Strategy) Normalize() Strategy {
	switch s {
	case StrategyAll:
		return StrategyAll
	case StrategyFirst:
		return StrategyFirst
	case StrategyLast:
		return StrategyLast
	default:
		return StrategyAny
	}
}

// Known reports whether s is one of the four named strategies (or empty),
// using the same exact match as Normalize.
func (s Strategy) Known() bool {
	switch s {
	case "", StrategyAny, StrategyAll, StrategyFirst, StrategyLast:
		return true
	}
	return false
}

// Loop expands a condition over a collection. Items that are a sequence or
// a mapping produce one evaluation per element, with the element used as the
// condition's args. Any other Items value disables the loop.
type Loop struct {
	Items    any      `json:"items" yaml:"items"`
	Strategy Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// Condition is a single declarative test over resolved inspection facts.
//
// Op may carry an inversion marker (e.g. "!eq"); interpreting it is the job
// of the token parser, not of this type.
type Condition struct {
	ID   string         `json:"id,omitempty" yaml:"id,omitempty"`
	Op   string         `json:"op" yaml:"op"`
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
	Loop *Loop          `json:"loop,omitempty" yaml:"loop,omitempty"`
}

// rawCondition accepts both the structured loop block
// ({"loop": {"items": [...], "strategy": "all"}}) and the flat layout used by
// older rule documents ({"loop": [...], "multiple": "all"}).
type rawCondition struct {
	ID       string         `json:"id,omitempty" yaml:"id,omitempty"`
	Op       string         `json:"op" yaml:"op"`
	Args     map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
	Loop     any            `json:"loop,omitempty" yaml:"loop,omitempty"`
	Multiple Strategy       `json:"multiple,omitempty" yaml:"multiple,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw rawCondition
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return c.fromRaw(raw)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw rawCondition
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return c.fromRaw(raw)
}

func (c *Condition) fromRaw(raw rawCondition) error {
	*c = Condition{ID: raw.ID, Op: raw.Op, Args: raw.Args}
	if raw.Loop == nil {
		return nil
	}

	if block, ok := raw.Loop.(map[string]any); ok && isLoopBlock(block) {
		loop := &Loop{Items: block["items"], Strategy: raw.Multiple}
		if st, ok := block["strategy"]; ok {
			str, ok := st.(string)
			if !ok {
				return fmt.Errorf("%w: loop strategy must be a string, got %T", ErrInvalidLoop, st)
			}
			loop.Strategy = Strategy(str)
		}
		c.Loop = loop
		return nil
	}

	c.Loop = &Loop{Items: raw.Loop, Strategy: raw.Multiple}
	return nil
}

// isLoopBlock reports whether m is a structured {items, strategy} block
// rather than a flat mapping of loop items that happens to use "items" as a
// key.
func isLoopBlock(m map[string]any) bool {
	if _, ok := m["items"]; !ok {
		return false
	}
	for k := range m {
		if k != "items" && k != "strategy" {
			return false
		}
	}
	return true
}

// IsInverted reports whether the raw op token starts with marker. Result
// listings use it; evaluation goes through a token parser.
func (c Condition) IsInverted(marker string) bool {
	return marker != "" && strings.HasPrefix(strings.TrimSpace(c.Op), marker)
}
