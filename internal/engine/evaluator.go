package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/inspectrules/internal/rules"
)

// Observer is notified after every operator check, including each loop
// iteration. result is the value after inversion.
type Observer interface {
	ObserveCheck(op string, result bool, err error, elapsed time.Duration)
}

// Evaluator resolves conditions into booleans. The zero value is not usable;
// construct with New. An Evaluator holds no mutable state and is safe for
// concurrent use.
type Evaluator struct {
	registry *Registry
	parser   TokenParser
	resolver ArgResolver
	logger   zerolog.Logger
	observer Observer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRegistry replaces the built-in operator table.
func WithRegistry(r *Registry) Option {
	return func(e *Evaluator) {
		e.registry = r
	}
}

// WithTokenParser sets the parser used to strip inversion markers.
func WithTokenParser(p TokenParser) Option {
	return func(e *Evaluator) {
		e.parser = p
	}
}

// WithArgResolver sets how args are bound to inspection facts.
func WithArgResolver(r ArgResolver) Option {
	return func(e *Evaluator) {
		e.resolver = r
	}
}

// WithLogger sets the logger. Iterations are logged at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithObserver registers a hook called after each check.
func WithObserver(o Observer) Option {
	return func(e *Evaluator) {
		e.observer = o
	}
}

// New creates an Evaluator with the default registry, the "!" token parser
// and pass-through argument resolution.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		registry: DefaultRegistry(),
		parser:   DefaultTokenParser,
		resolver: PassthroughResolver{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEvaluator = New()

// Evaluate evaluates cond with the default evaluator.
func Evaluate(task Task, cond rules.Condition, inventory, pluginData map[string]any) (bool, error) {
	return defaultEvaluator.Evaluate(task, cond, inventory, pluginData)
}

// boundOperator is an op token resolved against the registry.
type boundOperator struct {
	name     string
	inverted bool
	op       Operator
}

func (e *Evaluator) bind(raw string) (boundOperator, error) {
	name, inverted, err := e.parser.ParseOperatorToken(raw)
	if err != nil {
		return boundOperator{}, err
	}
	op, err := e.registry.Lookup(name)
	if err != nil {
		return boundOperator{}, err
	}
	return boundOperator{name: name, inverted: inverted, op: op}, nil
}

// Evaluate resolves cond to a boolean. When cond.Loop.Items is a sequence or
// mapping the condition is checked once per element, with the element used
// as args, and the per-iteration results (inversion already applied) are
// combined with the loop strategy:
//
//   - any (default, and any unknown strategy): at least one true; empty is false
//   - all: every result true; empty is true
//   - first: true on the first true result, which stops the loop; else false
//   - last: the final iteration's result; empty is false
//
// Mapping items are visited in ascending key order. Any error aborts the
// whole evaluation.
func (e *Evaluator) Evaluate(task Task, cond rules.Condition, inventory, pluginData map[string]any) (bool, error) {
	bound, err := e.bind(cond.Op)
	if err != nil {
		return false, err
	}

	items, looped := loopItems(cond.Loop)
	if !looped {
		return e.check(task, bound, cond.Args, inventory, pluginData)
	}

	strategy := cond.Loop.Strategy.Normalize()
	results := make([]bool, 0, len(items))
	for i, item := range items {
		args, ok := asMapping(item)
		if !ok {
			err := shapeError(bound.name, "loop item %d must be a mapping of arguments, got: %s", i, typeName(item))
			e.logger.Error().Err(err).Str("op", bound.name).Int("iteration", i).Msg("failed to check condition")
			return false, err
		}

		result, err := e.check(task, bound, args, inventory, pluginData)
		if err != nil {
			return false, err
		}
		e.logger.Debug().
			Str("op", bound.name).
			Bool("inverted", bound.inverted).
			Int("iteration", i).
			Bool("result", result).
			Msg("loop iteration evaluated")

		results = append(results, result)
		switch strategy {
		case rules.StrategyFirst:
			if result {
				return true, nil
			}
		case rules.StrategyLast:
			results = results[len(results)-1:]
		}
	}

	return aggregate(strategy, results), nil
}

func aggregate(strategy rules.Strategy, results []bool) bool {
	switch strategy {
	case rules.StrategyAll:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	case rules.StrategyFirst, rules.StrategyLast:
		// first: no result was true, so results[0] is false.
		// last: only the most recent result is kept.
		if len(results) == 0 {
			return false
		}
		return results[0]
	default:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}
}

// EvaluateOnce checks cond a single time with its own args, ignoring any
// loop block.
func (e *Evaluator) EvaluateOnce(task Task, cond rules.Condition, inventory, pluginData map[string]any) (bool, error) {
	bound, err := e.bind(cond.Op)
	if err != nil {
		return false, err
	}
	return e.check(task, bound, cond.Args, inventory, pluginData)
}

func (e *Evaluator) check(task Task, bound boundOperator, args map[string]any, inventory, pluginData map[string]any) (bool, error) {
	start := time.Now()

	result, err := e.checkResolved(task, bound, args, inventory, pluginData)
	if err != nil && errors.Is(err, ErrConditionCheckFailure) {
		e.logger.Error().Err(err).Str("op", bound.name).Msg("failed to check condition")
	}
	if e.observer != nil {
		e.observer.ObserveCheck(bound.name, result, err, time.Since(start))
	}
	return result, err
}

func (e *Evaluator) checkResolved(task Task, bound boundOperator, args map[string]any, inventory, pluginData map[string]any) (bool, error) {
	resolved, err := e.resolver.ResolveArgs(task, args, inventory, pluginData)
	if err != nil {
		return false, err
	}

	result, err := bound.op.Check(task, resolved)
	if err != nil {
		return false, err
	}
	if bound.inverted {
		result = !result
	}
	return result, nil
}

// loopItems returns the elements to iterate, or false when the condition
// should be evaluated once.
func loopItems(loop *rules.Loop) ([]any, bool) {
	if loop == nil {
		return nil, false
	}
	if seq, ok := asSequence(loop.Items); ok {
		return seq, true
	}
	if m, ok := asMapping(loop.Items); ok {
		keys := sortedKeys(m)
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = m[k]
		}
		return items, true
	}
	return nil, false
}

// CheckAll reports whether every condition holds. Conditions are evaluated
// in order and evaluation stops at the first false result or error. An
// empty list holds.
func (e *Evaluator) CheckAll(task Task, conditions []rules.Condition, inventory, pluginData map[string]any) (bool, error) {
	for i, cond := range conditions {
		ok, err := e.Evaluate(task, cond, inventory, pluginData)
		if err != nil {
			return false, fmt.Errorf("condition[%d]: %w", i, err)
		}
		if !ok {
			e.logger.Debug().Int("condition", i).Str("op", cond.Op).Msg("condition did not hold")
			return false, nil
		}
	}
	return true, nil
}

// Validate checks a condition without evaluating it: structure, operator
// name, and argument names (of args, or of every loop item when looping).
// Argument values are not inspected.
func (e *Evaluator) Validate(cond rules.Condition) error {
	if err := rules.ValidateCondition(0, cond); err != nil {
		return err
	}

	bound, err := e.bind(cond.Op)
	if err != nil {
		return err
	}
	spec := bound.op.Args()

	items, looped := loopItems(cond.Loop)
	if !looped {
		return spec.validate(bound.name, cond.Args)
	}
	for i, item := range items {
		args, ok := asMapping(item)
		if !ok {
			return shapeError(bound.name, "loop item %d must be a mapping of arguments, got: %s", i, typeName(item))
		}
		if err := spec.validate(bound.name, args); err != nil {
			return fmt.Errorf("loop item %d: %w", i, err)
		}
	}
	return nil
}
