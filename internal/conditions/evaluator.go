// Package conditions decides field visibility from conditional-logic
// records. Evaluation is deterministic: the same condition and value map
// always produce the same answer, whichever call site asks (validation,
// rendering, export).
package conditions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/formforge/formforge/internal/expressions"
	"github.com/formforge/formforge/pkg/schema"
)

// ExpressionEngine evaluates expression-operator conditions. Satisfied by
// the engines in internal/expressions.
type ExpressionEngine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Evaluator applies conditional-logic records against a field-value map.
// The zero options give a fully functional evaluator for the fixed
// operator set; an expression engine is only consulted for OpExpression.
type Evaluator struct {
	engine ExpressionEngine
	logger *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithExpressionEngine sets the engine used for expression-operator
// conditions. Without one, expression conditions fail open.
func WithExpressionEngine(engine ExpressionEngine) Option {
	return func(e *Evaluator) {
		e.engine = engine
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Evaluate returns true when the field guarded by cond should be visible.
// Absent or disabled conditions, empty trigger references, and unknown
// operators all fail open: the field stays visible.
func (e *Evaluator) Evaluate(cond *schema.ConditionalLogic, values map[string]any) bool {
	if cond == nil || !cond.Enabled {
		return true
	}
	if cond.Field == "" {
		return true
	}

	// A dangling trigger (deleted or later field) resolves to the absent
	// value: comparison operators see nil, empty/not_empty test its
	// emptiness.
	actual := values[cond.Field]

	switch cond.Operator {
	case schema.OpEquals:
		return looseEqual(actual, cond.Value)
	case schema.OpNotEquals:
		return !looseEqual(actual, cond.Value)
	case schema.OpContains:
		return strings.Contains(coerceString(actual), coerceString(cond.Value))
	case schema.OpNotContains:
		return !strings.Contains(coerceString(actual), coerceString(cond.Value))
	case schema.OpEmpty:
		return IsEmpty(actual)
	case schema.OpNotEmpty:
		return !IsEmpty(actual)
	case schema.OpGreaterThan:
		a, b := toNumber(actual), toNumber(cond.Value)
		return !math.IsNaN(a) && !math.IsNaN(b) && a > b
	case schema.OpLessThan:
		a, b := toNumber(actual), toNumber(cond.Value)
		return !math.IsNaN(a) && !math.IsNaN(b) && a < b
	case schema.OpStartsWith:
		return strings.HasPrefix(coerceString(actual), coerceString(cond.Value))
	case schema.OpEndsWith:
		return strings.HasSuffix(coerceString(actual), coerceString(cond.Value))
	case schema.OpExpression:
		return e.evaluateExpression(cond, values)
	default:
		return true
	}
}

// evaluateExpression runs the condition value as an expression program
// against the full value map. Any failure fails open so a broken rule
// never hides a field permanently.
func (e *Evaluator) evaluateExpression(cond *schema.ConditionalLogic, values map[string]any) bool {
	expr, ok := cond.Value.(string)
	if !ok || expr == "" || e.engine == nil {
		return true
	}

	data := expressions.ValueScope(values, cond.Field)
	out, err := e.engine.Evaluate(context.Background(), expr, data)
	if err != nil {
		e.logger.Warn("expression condition failed, treating as visible",
			slog.String("engine", e.engine.Name()),
			slog.String("expression", expr),
			slog.String("error", err.Error()))
		return true
	}

	return truthy(out)
}

// IsEmpty is the shared emptiness predicate: nil is empty, strings are
// empty when blank after trimming, slices and maps when they have no
// entries. Everything else, including 0 and false, is not empty.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

// looseEqual compares two values, treating numeric types of different
// widths as equal when their values match. Strings never equal numbers.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	na, aNum := strictNumber(a)
	nb, bNum := strictNumber(b)
	if aNum != bNum {
		return false
	}
	if aNum {
		return na == nb
	}

	return reflect.DeepEqual(a, b)
}

// strictNumber converts actual numeric types only; strings stay strings.
func strictNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// toNumber coerces for ordering comparisons: numeric types directly,
// numeric strings parsed, everything else NaN.
func toNumber(v any) float64 {
	if n, ok := strictNumber(v); ok {
		return n
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

// coerceString renders a value for substring tests; absent values become
// the empty string.
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case []any:
		parts := make([]string, len(s))
		for i, item := range s {
			parts[i] = coerceString(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(s, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truthy maps expression results to visibility: booleans directly,
// numbers by non-zero, strings by non-emptiness, nil false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}
	if n, ok := strictNumber(v); ok {
		return n != 0
	}
	return true
}
