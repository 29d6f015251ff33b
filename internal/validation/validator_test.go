package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formforge/formforge/pkg/schema"
)

func textField(required bool) *schema.Field {
	f := schema.NewField(schema.FieldText)
	f.Required = required
	return f
}

func TestValidate_RequiredEmpty(t *testing.T) {
	v := New()
	f := textField(true)

	for _, val := range []any{nil, "", "   "} {
		res := v.Validate(val, f, nil)
		assert.False(t, res.Valid)
		assert.Equal(t, "Text Field is required", res.Error)
	}
}

func TestValidate_RequiredCustomMessage(t *testing.T) {
	v := New()
	f := textField(true)
	f.Validation.ErrorMessage = "Please fill this in"

	res := v.Validate("", f, nil)
	assert.Equal(t, "Please fill this in", res.Error)
}

func TestValidate_OptionalEmptySkipsRules(t *testing.T) {
	v := New()
	f := textField(false)
	f.Validation.MinLength = schema.IntPtr(5)

	res := v.Validate("", f, nil)
	assert.True(t, res.Valid)
}

func TestValidate_Email(t *testing.T) {
	v := New()
	f := schema.NewField(schema.FieldEmail)
	f.Required = true

	assert.True(t, v.Validate("user@example.com", f, nil).Valid)

	res := v.Validate("not-an-email", f, nil)
	assert.False(t, res.Valid)
	assert.Equal(t, "Enter a valid email address", res.Error)
}

func TestValidate_MobileStripsNonDigits(t *testing.T) {
	v := New()
	f := schema.NewField(schema.FieldMobile)
	f.Required = true

	// Separators are stripped before the 10-digit check.
	assert.True(t, v.Validate("98-765-43210", f, nil).Valid)

	res := v.Validate("12345", f, nil)
	assert.False(t, res.Valid)
	assert.Equal(t, "Enter a valid 10-digit mobile number", res.Error)
}

func TestValidate_LengthBounds(t *testing.T) {
	v := New()
	f := textField(false)
	f.Validation.MinLength = schema.IntPtr(3)
	f.Validation.MaxLength = schema.IntPtr(5)

	res := v.Validate("ab", f, nil)
	assert.Equal(t, "Minimum 3 characters required", res.Error)

	res = v.Validate("abcdef", f, nil)
	assert.Equal(t, "Maximum 5 characters allowed", res.Error)

	assert.True(t, v.Validate("abcd", f, nil).Valid)
}

func TestValidate_NumericBounds(t *testing.T) {
	v := New()
	f := schema.NewField(schema.FieldNumber)
	f.Validation.Min = schema.FloatPtr(18)
	f.Validation.Max = schema.FloatPtr(99)

	assert.True(t, v.Validate("21", f, nil).Valid)
	assert.Equal(t, "Value must be at least 18", v.Validate("17", f, nil).Error)
	assert.Equal(t, "Value must be at most 99", v.Validate(120.5, f, nil).Error)

	// Non-numeric fails the bound check, not the coercion.
	assert.False(t, v.Validate("abc", f, nil).Valid)
}

func TestValidate_UserPattern(t *testing.T) {
	v := New()
	f := textField(false)
	f.Validation.Pattern = `^[A-Z]{3}-\d{2}$`

	assert.True(t, v.Validate("ABC-12", f, nil).Valid)

	res := v.Validate("abc", f, nil)
	assert.False(t, res.Valid)
	assert.Equal(t, "Invalid format", res.Error)
}

func TestValidate_PatternCustomMessage(t *testing.T) {
	v := New()
	f := textField(false)
	f.Validation.Pattern = `^\d+$`
	f.Validation.ErrorMessage = "Digits only, please"

	assert.Equal(t, "Digits only, please", v.Validate("x", f, nil).Error)
}

func TestValidate_MalformedPatternAlwaysPasses(t *testing.T) {
	v := New()
	f := textField(false)
	f.Validation.Pattern = `([unclosed`

	assert.True(t, v.Validate("anything", f, nil).Valid)
	// Second call hits the failure cache, same outcome.
	assert.True(t, v.Validate("anything else", f, nil).Valid)
}

func TestValidate_BuiltinMessageIgnoresCustomForLengths(t *testing.T) {
	v := New()
	f := textField(false)
	f.Validation.MinLength = schema.IntPtr(4)
	f.Validation.ErrorMessage = "custom"

	// Custom message only applies to required and pattern failures.
	assert.Equal(t, "Minimum 4 characters required", v.Validate("ab", f, nil).Error)
}

func TestValidate_DomainFormats(t *testing.T) {
	v := New()

	cases := []struct {
		name    string
		set     func(*schema.Validation)
		ok, bad string
		msg     string
	}{
		{"gst", func(r *schema.Validation) { r.GST = true }, "22AAAAA0000A1Z5", "12345", "Enter a valid GST number"},
		{"pan", func(r *schema.Validation) { r.PAN = true }, "ABCDE1234F", "AB12", "Enter a valid PAN number"},
		{"pincode", func(r *schema.Validation) { r.Pincode = true }, "560001", "056001", "Enter a valid 6-digit pincode"},
		{"alphanumeric", func(r *schema.Validation) { r.Alphanumeric = true }, "abc123", "abc 123!", "Only letters and numbers allowed"},
		{"alpha", func(r *schema.Validation) { r.Alpha = true }, "John Doe", "John99", "Only letters allowed"},
		{"numeric", func(r *schema.Validation) { r.Numeric = true }, "-12.5", "12a", "Only numbers allowed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := textField(false)
			tc.set(f.Validation)

			assert.True(t, v.Validate(tc.ok, f, nil).Valid)
			res := v.Validate(tc.bad, f, nil)
			assert.False(t, res.Valid)
			assert.Equal(t, tc.msg, res.Error)
		})
	}
}

func TestValidate_HiddenFieldSkipsRules(t *testing.T) {
	v := New()
	f := schema.NewField(schema.FieldMobile)
	f.Required = true
	f.ConditionalLogic = &schema.ConditionalLogic{
		Enabled:  true,
		Field:    "plan",
		Operator: schema.OpEquals,
		Value:    "pro",
	}

	// Condition false -> hidden -> always valid, even with a bad value.
	res := v.Validate("12345", f, map[string]any{"plan": "free"})
	assert.True(t, res.Valid)

	// Condition true -> rules apply again.
	res = v.Validate("12345", f, map[string]any{"plan": "pro"})
	assert.False(t, res.Valid)
}

func TestValidateForm_Aggregates(t *testing.T) {
	v := New()
	name := textField(true)
	email := schema.NewField(schema.FieldEmail)
	email.Required = true

	values := map[string]any{
		name.ID:  "",
		email.ID: "nope",
	}
	res := v.ValidateForm(values, []*schema.Field{name, email})

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[name.ID], "required")
	assert.Equal(t, "Enter a valid email address", res.Errors[email.ID])

	res = v.ValidateForm(map[string]any{name.ID: "Ann", email.ID: "a@b.co"}, []*schema.Field{name, email})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidateForm_HiddenFieldReportsValid(t *testing.T) {
	v := New()
	trigger := textField(false)
	dependent := textField(true)
	dependent.ConditionalLogic = &schema.ConditionalLogic{
		Enabled:  true,
		Field:    trigger.ID,
		Operator: schema.OpEquals,
		Value:    "show",
	}

	res := v.ValidateForm(map[string]any{trigger.ID: "hide"}, []*schema.Field{trigger, dependent})
	assert.True(t, res.Valid)
}

func TestValidate_EmptyPartialNoRules(t *testing.T) {
	v := New()
	f := &schema.Field{ID: "f1", Type: schema.FieldText}

	assert.True(t, v.Validate("anything", f, nil).Valid)
	assert.True(t, v.Validate(nil, nil, nil).Valid)
}
