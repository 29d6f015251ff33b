package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formforge/formforge/pkg/schema"
)

func buildSampleProject() *schema.Project {
	p := schema.NewProject()
	p.Name = "Insurance Quote"
	p.Header.Title.Text = "Get Covered Today"
	p.Settings.WebhookURL = "https://hooks.example.com/submit"

	email := schema.NewField(schema.FieldEmail)
	email.Label = "Work Email"
	email.Required = true

	plan := schema.NewField(schema.FieldDropdown)
	plan.Label = "Plan"
	plan.Options = []schema.Option{
		{Value: "basic", Label: "Basic"},
		{Value: "premium", Label: "Premium"},
	}

	reason := schema.NewField(schema.FieldTextarea)
	reason.Label = "Why premium?"
	reason.Validation = &schema.Validation{
		MinLength:    schema.IntPtr(20),
		ErrorMessage: "Tell us a bit more",
	}
	reason.ConditionalLogic = &schema.ConditionalLogic{
		Enabled:  true,
		Field:    plan.ID,
		Operator: schema.OpEquals,
		Value:    "premium",
	}

	p.Steps[0].Fields = []*schema.Field{email, plan}
	p.Steps = append(p.Steps, &schema.Step{
		ID:     schema.NewStepID(),
		Name:   "Details",
		Fields: []*schema.Field{reason},
	})
	return p
}

// --- export ---

func TestExportShape(t *testing.T) {
	p := buildSampleProject()

	doc := Export(p)

	assert.Equal(t, schema.SchemaVersion, doc.SchemaVersion)
	assert.Equal(t, "Insurance Quote", doc.ProjectName)
	assert.Equal(t, "Get Covered Today", doc.Title.Text)
	require.Len(t, doc.Steps, 2)
	assert.Equal(t, "Step 1", doc.Steps[0].StepName)
	assert.Equal(t, "Details", doc.Steps[1].StepName)
	require.Len(t, doc.Steps[0].Fields, 2)
	assert.Equal(t, "email", doc.Steps[0].Fields[0].Type)
	assert.Equal(t, "https://hooks.example.com/submit", doc.Settings.WebhookURL)
}

func TestExportOmitsDisabledConditionalLogic(t *testing.T) {
	p := buildSampleProject()

	doc := Export(p)

	// email field has the default disabled record
	assert.Nil(t, doc.Steps[0].Fields[0].ConditionalLogic)
	// the textarea's enabled record is carried
	require.NotNil(t, doc.Steps[1].Fields[0].ConditionalLogic)
	assert.Equal(t, schema.OpEquals, doc.Steps[1].Fields[0].ConditionalLogic.Operator)
}

// --- import ---

func TestImportRoundTrip(t *testing.T) {
	p := buildSampleProject()
	data, err := ExportJSON(p)
	require.NoError(t, err)

	got, err := Import(data)
	require.NoError(t, err)

	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Header.Title.Text, got.Header.Title.Text)
	require.Len(t, got.Steps, 2)
	require.Len(t, got.Steps[0].Fields, 2)
	require.Len(t, got.Steps[1].Fields, 1)

	email := got.Steps[0].Fields[0]
	assert.Equal(t, "Work Email", email.Label)
	assert.True(t, email.Required)
	assert.True(t, email.Validation.Email)

	reason := got.Steps[1].Fields[0]
	require.NotNil(t, reason.Validation.MinLength)
	assert.Equal(t, 20, *reason.Validation.MinLength)
	assert.Equal(t, "Tell us a bit more", reason.Validation.ErrorMessage)
	require.NotNil(t, reason.ConditionalLogic)
	assert.True(t, reason.ConditionalLogic.Enabled)
	assert.Equal(t, "premium", reason.ConditionalLogic.Value)

	assert.Equal(t, p.Settings.WebhookURL, got.Settings.WebhookURL)
}

func TestImportMinimalDocumentFallsBackToDefaults(t *testing.T) {
	got, err := Import([]byte(`{"schema_version": "1.0"}`))
	require.NoError(t, err)

	defaults := schema.NewProject()
	assert.Equal(t, defaults.Name, got.Name)
	assert.Equal(t, defaults.Header.Title.Text, got.Header.Title.Text)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "Step 1", got.Steps[0].Name)
	assert.Equal(t, defaults.Settings.SubmitButtonText, got.Settings.SubmitButtonText)
}

func TestImportEmptyStepsKeepsSeededStep(t *testing.T) {
	got, err := Import([]byte(`{"steps": []}`))
	require.NoError(t, err)

	require.Len(t, got.Steps, 1)
	assert.NotEmpty(t, got.Steps[0].ID)
}

func TestImportRegeneratesMissingIDs(t *testing.T) {
	got, err := Import([]byte(`{
		"steps": [
			{"step_name": "One", "fields": [{"type": "text"}, {"type": "email"}]}
		]
	}`))
	require.NoError(t, err)

	require.Len(t, got.Steps, 1)
	assert.NotEmpty(t, got.Steps[0].ID)
	require.Len(t, got.Steps[0].Fields, 2)
	a, b := got.Steps[0].Fields[0], got.Steps[0].Fields[1]
	assert.NotEmpty(t, a.ID)
	assert.NotEmpty(t, b.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestImportRegeneratesDuplicateIDs(t *testing.T) {
	got, err := Import([]byte(`{
		"steps": [
			{"fields": [
				{"id": "field_same", "type": "text"},
				{"id": "field_same", "type": "text"}
			]}
		]
	}`))
	require.NoError(t, err)

	fields := got.Steps[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, "field_same", fields[0].ID)
	assert.NotEqual(t, fields[0].ID, fields[1].ID)
}

func TestImportFieldDefaultsFill(t *testing.T) {
	got, err := Import([]byte(`{
		"steps": [{"fields": [{"type": "mobile"}]}]
	}`))
	require.NoError(t, err)

	f := got.Steps[0].Fields[0]
	assert.Equal(t, "Mobile Number", f.Label)
	assert.True(t, f.Validation.Mobile)
	require.NotNil(t, f.Validation.MaxLength)
	assert.Equal(t, 10, *f.Validation.MaxLength)
}

func TestImportMalformedJSON(t *testing.T) {
	_, err := Import([]byte(`{"steps": [`))
	assert.Equal(t, schema.ErrCodeImportParse, schema.CodeOf(err))
}

func TestImportSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"steps not an array":   `{"steps": "nope"}`,
		"unknown field type":   `{"steps": [{"fields": [{"type": "slider"}]}]}`,
		"field without type":   `{"steps": [{"fields": [{"label": "x"}]}]}`,
		"bad operator":         `{"steps": [{"fields": [{"type": "text", "conditional_logic": {"operator": "matches"}}]}]}`,
		"negative min_length":  `{"steps": [{"fields": [{"type": "text", "validation": {"min_length": -1}}]}]}`,
		"non-boolean required": `{"steps": [{"fields": [{"type": "text", "required": "yes"}]}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Import([]byte(doc))
			assert.Equal(t, schema.ErrCodeImportParse, schema.CodeOf(err))
		})
	}
}

func TestImportToleratesUnknownKeys(t *testing.T) {
	got, err := Import([]byte(`{
		"schema_version": "1.0",
		"generator": "some-other-tool",
		"steps": [{"step_name": "One", "fields": []}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "One", got.Steps[0].Name)
}
