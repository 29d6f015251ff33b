// Package validation checks submitted values against field rule sets.
// Results are data, never errors: a failing rule produces a user-facing
// message, and the worst internal outcome (a malformed user regex) is a
// logged, always-passing rule.
package validation

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/formforge/formforge/internal/conditions"
	"github.com/formforge/formforge/pkg/schema"
)

// Result is the outcome of validating one field.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// FormResult aggregates per-field outcomes for a whole submission.
type FormResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

var pass = Result{Valid: true}

func fail(msg string) Result { return Result{Error: msg} }

// Validator validates field values. Safe for concurrent use; compiled
// user patterns are cached, including the ones that failed to compile.
type Validator struct {
	evaluator *conditions.Evaluator
	logger    *slog.Logger
	patterns  *patternCache
}

// Option configures a Validator.
type Option func(*Validator)

// WithConditionEvaluator sets the evaluator used to skip hidden fields.
func WithConditionEvaluator(e *conditions.Evaluator) Option {
	return func(v *Validator) {
		v.evaluator = e
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		patterns: newPatternCache(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if v.evaluator == nil {
		v.evaluator = conditions.New(conditions.WithLogger(v.logger))
	}
	return v
}

// Validate checks one value against a field's rule set. Checks run in a
// fixed order and the first failure wins:
// hidden-by-condition, required, emptiness short-circuit, type formats
// (email, mobile, url), length bounds, numeric bounds, user pattern,
// domain formats (gst, pan, pincode, alphanumeric, alpha, numeric).
func (v *Validator) Validate(value any, field *schema.Field, allValues map[string]any) Result {
	if field == nil {
		return pass
	}

	// A field hidden by its conditional logic is always valid.
	if field.ConditionalLogic != nil && field.ConditionalLogic.Enabled &&
		!v.evaluator.Evaluate(field.ConditionalLogic, allValues) {
		return pass
	}

	rules := field.Validation
	if rules == nil {
		rules = &schema.Validation{}
	}

	if field.Required && conditions.IsEmpty(value) {
		return fail(requiredMessage(field, rules))
	}
	if conditions.IsEmpty(value) {
		return pass
	}

	str := forceString(value)

	if rules.Email && !emailRe.MatchString(str) {
		return fail("Enter a valid email address")
	}
	if rules.Mobile {
		digits := stripNonDigits(str)
		if len(digits) != 10 {
			return fail("Enter a valid 10-digit mobile number")
		}
		// Length bounds see the digits, not the separators the user typed.
		str = digits
	}
	if rules.URL && !urlRe.MatchString(str) {
		return fail("Enter a valid URL")
	}

	if rules.MinLength != nil && len([]rune(str)) < *rules.MinLength {
		return fail(fmt.Sprintf("Minimum %d characters required", *rules.MinLength))
	}
	if rules.MaxLength != nil && len([]rune(str)) > *rules.MaxLength {
		return fail(fmt.Sprintf("Maximum %d characters allowed", *rules.MaxLength))
	}

	if rules.Min != nil || rules.Max != nil {
		n := toFloat(value)
		if rules.Min != nil && (math.IsNaN(n) || n < *rules.Min) {
			return fail(fmt.Sprintf("Value must be at least %s", trimFloat(*rules.Min)))
		}
		if rules.Max != nil && (math.IsNaN(n) || n > *rules.Max) {
			return fail(fmt.Sprintf("Value must be at most %s", trimFloat(*rules.Max)))
		}
	}

	if rules.Pattern != "" {
		re, err := v.patterns.get(rules.Pattern)
		if err != nil {
			// Malformed user pattern: downgrade to always-pass.
			v.logger.Warn("malformed validation pattern, rule skipped",
				slog.String("field_id", field.ID),
				slog.String("pattern", rules.Pattern),
				slog.String("error", err.Error()))
		} else if !re.MatchString(str) {
			return fail(patternMessage(rules))
		}
	}

	if rules.GST && !gstRe.MatchString(strings.ToUpper(str)) {
		return fail("Enter a valid GST number")
	}
	if rules.PAN && !panRe.MatchString(strings.ToUpper(str)) {
		return fail("Enter a valid PAN number")
	}
	if rules.Pincode && !pincodeRe.MatchString(str) {
		return fail("Enter a valid 6-digit pincode")
	}
	if rules.Alphanumeric && !alphanumericRe.MatchString(str) {
		return fail("Only letters and numbers allowed")
	}
	if rules.Alpha && !alphaRe.MatchString(str) {
		return fail("Only letters allowed")
	}
	if rules.Numeric && !numericRe.MatchString(str) {
		return fail("Only numbers allowed")
	}

	return pass
}

// ValidateForm validates every field definition against the submitted
// value map, in field order. Hidden fields always report valid.
func (v *Validator) ValidateForm(values map[string]any, fields []*schema.Field) FormResult {
	out := FormResult{Valid: true, Errors: map[string]string{}}

	for _, field := range fields {
		if field == nil || field.Type.IsPseudo() {
			continue
		}
		res := v.Validate(values[field.ID], field, values)
		if !res.Valid {
			out.Valid = false
			out.Errors[field.ID] = res.Error
		}
	}

	return out
}

// requiredMessage prefers the rule's custom message over the built-in.
func requiredMessage(field *schema.Field, rules *schema.Validation) string {
	if rules.ErrorMessage != "" {
		return rules.ErrorMessage
	}
	label := field.Label
	if label == "" {
		label = "This field"
	}
	return label + " is required"
}

// patternMessage prefers the rule's custom message over the built-in.
func patternMessage(rules *schema.Validation) string {
	if rules.ErrorMessage != "" {
		return rules.ErrorMessage
	}
	return "Invalid format"
}

// forceString renders a value for string-based checks.
func forceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toFloat coerces for numeric bound checks; non-numeric becomes NaN so the
// bound comparison fails.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// patternCache caches compiled user regexes, remembering failures so a
// broken pattern is only compiled (and logged) once per validator.
type patternCache struct {
	mu      sync.RWMutex
	entries map[string]*patternEntry
}

type patternEntry struct {
	re  *regexp.Regexp
	err error
}

func newPatternCache() *patternCache {
	return &patternCache{entries: make(map[string]*patternEntry)}
}

func (c *patternCache) get(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	if e, ok := c.entries[pattern]; ok {
		c.mu.RUnlock()
		return e.re, e.err
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := c.entries[pattern]; ok {
		return e.re, e.err
	}

	re, err := compilePattern(pattern)
	if err != nil {
		err = schema.NewErrorf(schema.ErrCodeMalformedPattern,
			"cannot compile pattern %q: %s", pattern, err.Error()).WithCause(err)
	}
	c.entries[pattern] = &patternEntry{re: re, err: err}
	return re, err
}
