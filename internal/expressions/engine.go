package expressions

import "context"

// Engine evaluates expressions against a data map.
// Three implementations: Expr (expression conditions, default), CEL
// (expression conditions, alternate), GoJQ (snapshot path queries).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// ForName returns the condition-expression engine for the given name.
// Unknown names fall back to Expr.
func ForName(name string) (Engine, error) {
	switch name {
	case "cel":
		return NewCELEngine()
	default:
		return NewExprEngine(), nil
	}
}
