package rules

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

func TestConditionJSON_StructuredLoop(t *testing.T) {
	data := []byte(`{
		"op": "!eq",
		"loop": {"items": [{"values": [1, 1]}, {"values": [1, 2]}], "strategy": "all"}
	}`)

	var c Condition
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Op != "!eq" {
		t.Errorf("op: got %q, want %q", c.Op, "!eq")
	}
	if c.Loop == nil {
		t.Fatal("loop: got nil")
	}
	if c.Loop.Strategy != StrategyAll {
		t.Errorf("strategy: got %q, want %q", c.Loop.Strategy, StrategyAll)
	}
	items, ok := c.Loop.Items.([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("items: got %#v", c.Loop.Items)
	}
}

func TestConditionJSON_FlatLoop(t *testing.T) {
	data := []byte(`{"op": "eq", "loop": [{"values": [2, 2]}], "multiple": "first"}`)

	var c Condition
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Loop == nil || c.Loop.Strategy != StrategyFirst {
		t.Fatalf("loop: got %#v", c.Loop)
	}
	if items, ok := c.Loop.Items.([]any); !ok || len(items) != 1 {
		t.Errorf("items: got %#v", c.Loop.Items)
	}
}

func TestConditionJSON_MappingLoopWithoutItemsKey(t *testing.T) {
	data := []byte(`{"op": "is-true", "loop": {"a": {"value": true}, "b": {"value": false}}}`)

	var c Condition
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m, ok := c.Loop.Items.(map[string]any)
	if !ok || len(m) != 2 {
		t.Fatalf("items: got %#v", c.Loop.Items)
	}
	if c.Loop.Strategy != "" {
		t.Errorf("strategy: got %q, want empty", c.Loop.Strategy)
	}
}

func TestConditionJSON_FlatMappingLoopWithItemsKey(t *testing.T) {
	data := []byte(`{
		"op": "is-true",
		"loop": {"items": {"value": true}, "other": {"value": false}},
		"multiple": "all"
	}`)

	var c Condition
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m, ok := c.Loop.Items.(map[string]any)
	if !ok || len(m) != 2 {
		t.Fatalf("items: got %#v, want the whole mapping", c.Loop.Items)
	}
	if c.Loop.Strategy != StrategyAll {
		t.Errorf("strategy: got %q, want %q", c.Loop.Strategy, StrategyAll)
	}
}

func TestConditionJSON_NonStringStrategy(t *testing.T) {
	data := []byte(`{"op": "eq", "loop": {"items": [], "strategy": 3}}`)

	var c Condition
	err := json.Unmarshal(data, &c)
	if !errors.Is(err, ErrInvalidLoop) {
		t.Fatalf("expected ErrInvalidLoop, got %v", err)
	}
}

func TestConditionYAML(t *testing.T) {
	doc := `
id: nic-check
op: in-net
args:
  address: 10.0.0.5
  subnet: 10.0.0.0/24
`
	var c Condition
	if err := yaml.Unmarshal([]byte(doc), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.ID != "nic-check" || c.Op != "in-net" {
		t.Errorf("got id=%q op=%q", c.ID, c.Op)
	}
	if c.Args["subnet"] != "10.0.0.0/24" {
		t.Errorf("subnet: got %v", c.Args["subnet"])
	}
	if c.Loop != nil {
		t.Errorf("loop: got %#v, want nil", c.Loop)
	}
}

func TestConditionYAML_FlatLoop(t *testing.T) {
	doc := `
op: lt
multiple: last
loop:
  - values: [1, 2]
  - values: [3, 2]
`
	var c Condition
	if err := yaml.Unmarshal([]byte(doc), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Loop == nil || c.Loop.Strategy != StrategyLast {
		t.Fatalf("loop: got %#v", c.Loop)
	}
	items, ok := c.Loop.Items.([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("items: got %#v", c.Loop.Items)
	}
}

// ---------------------------------------------------------------------------
// Strategy
// ---------------------------------------------------------------------------

func TestStrategyNormalize(t *testing.T) {
	tests := []struct {
		in   Strategy
		want Strategy
	}{
		{"", StrategyAny},
		{"any", StrategyAny},
		{"all", StrategyAll},
		{"first", StrategyFirst},
		{"ALL", StrategyAny},
		{" first ", StrategyAny},
		{"last", StrategyLast},
		{"sometimes", StrategyAny},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStrategyKnown_ExactNames(t *testing.T) {
	for _, s := range []Strategy{"", "any", "all", "first", "last"} {
		if !s.Known() {
			t.Errorf("Known(%q) = false, want true", s)
		}
	}
	for _, s := range []Strategy{"ALL", "First", " last", "sometimes"} {
		if s.Known() {
			t.Errorf("Known(%q) = true, want false", s)
		}
	}
}

func TestConditionIsInverted(t *testing.T) {
	if !(Condition{Op: " !eq"}).IsInverted("!") {
		t.Error("expected inverted")
	}
	if (Condition{Op: "eq"}).IsInverted("!") {
		t.Error("expected not inverted")
	}
	if (Condition{Op: "!eq"}).IsInverted("") {
		t.Error("empty marker never inverts")
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateCondition(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr error
	}{
		{name: "plain", cond: Condition{Op: "eq", Args: map[string]any{"values": []any{1, 1}}}},
		{name: "empty op", cond: Condition{Op: "  "}, wantErr: ErrInvalidCondition},
		{
			name: "sequence loop",
			cond: Condition{Op: "eq", Loop: &Loop{Items: []any{map[string]any{"values": []any{}}}, Strategy: StrategyAll}},
		},
		{
			name:    "unknown strategy",
			cond:    Condition{Op: "eq", Loop: &Loop{Items: []any{}, Strategy: "most"}},
			wantErr: ErrInvalidStrategy,
		},
		{
			name:    "scalar loop item",
			cond:    Condition{Op: "eq", Loop: &Loop{Items: []any{1}}},
			wantErr: ErrInvalidLoop,
		},
		{
			name:    "scalar mapping loop item",
			cond:    Condition{Op: "eq", Loop: &Loop{Items: map[string]any{"a": "b"}}},
			wantErr: ErrInvalidLoop,
		},
		{name: "scalar items disable the loop", cond: Condition{Op: "eq", Loop: &Loop{Items: "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCondition(0, tt.cond)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
