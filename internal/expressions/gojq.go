package expressions

import (
	"context"
	"strings"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/formforge/formforge/pkg/schema"
)

// GoJQEngine implements the Engine interface using GoJQ. It backs the
// builder's dotted-path snapshot queries: a path like "header.title.text"
// or "steps.0.fields.1.label" is translated to a jq program and run
// against the JSON form of the snapshot.
// Thread-safe: compiled *Code objects are cached and reused.
type GoJQEngine struct {
	mu    sync.RWMutex
	cache map[string]*gojq.Code
}

// NewGoJQEngine creates a new GoJQ expression engine.
func NewGoJQEngine() *GoJQEngine {
	return &GoJQEngine{
		cache: make(map[string]*gojq.Code),
	}
}

// Name returns the engine identifier.
func (e *GoJQEngine) Name() string {
	return "jq"
}

// Evaluate compiles (or retrieves from cache) a jq expression and runs it
// against the provided data. Multiple outputs are collected into []any;
// a single output is returned directly.
func (e *GoJQEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty jq expression")
	}

	code, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, data)

	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"jq evaluation failed for %q: %s", expression, err.Error()).
				WithCause(err).
				WithDetails(map[string]any{"expression": expression})
		}
		results = append(results, val)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// QueryPath evaluates a dotted path against a document and returns the
// value, or def when the path is missing, resolves to null, or fails to
// parse.
func (e *GoJQEngine) QueryPath(ctx context.Context, doc map[string]any, path string, def any) any {
	expr := PathExpression(path)
	if expr == "" {
		return def
	}

	out, err := e.Evaluate(ctx, expr, doc)
	if err != nil || out == nil {
		return def
	}
	return out
}

// PathExpression translates a dotted path into a jq getpath program.
// Numeric segments become array indices: "steps.0.fields.2.label" ->
// `getpath(["steps",0,"fields",2,"label"])`, which resolves missing
// paths to null instead of erroring. Returns "" for an empty path.
func PathExpression(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	var segs []string
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		if isDigits(seg) {
			segs = append(segs, seg)
			continue
		}
		segs = append(segs, `"`+seg+`"`)
	}
	if len(segs) == 0 {
		return ""
	}
	return "getpath([" + strings.Join(segs, ",") + "])"
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// getOrCompile returns a cached compiled code or compiles and caches a new one.
func (e *GoJQEngine) getOrCompile(expression string) (*gojq.Code, error) {
	e.mu.RLock()
	if code, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return code, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if code, ok := e.cache[expression]; ok {
		return code, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq parse error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	code, err := gojq.Compile(query,
		// Sandbox: return empty env to block $ENV and env access.
		gojq.WithEnvironLoader(func() []string { return nil }),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq compile error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	e.cache[expression] = code
	return code, nil
}

var _ Engine = (*GoJQEngine)(nil)
