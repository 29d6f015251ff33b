package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/formforge/formforge/pkg/schema"
)

// Import parses an exchange document into a full snapshot. Missing
// optional keys fall back to seeded defaults, missing or duplicated ids
// are regenerated, and at least one step is guaranteed. Malformed input
// yields an IMPORT_PARSE_ERROR and no partial result.
func Import(data []byte) (*schema.Project, error) {
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeImportParse, "document is not valid JSON").WithCause(err)
	}
	if err := importSchema.Validate(value); err != nil {
		return nil, schema.NewError(schema.ErrCodeImportParse, "document does not match the exchange schema").WithCause(err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeImportParse, "decode exchange document").WithCause(err)
	}

	return build(doc), nil
}

// build merges a validated document over a freshly seeded project.
func build(doc *Document) *schema.Project {
	p := schema.NewProject()

	if doc.ProjectName != "" {
		p.Name = doc.ProjectName
	}
	if doc.HeaderImage != "" {
		p.Header.Image.URL = doc.HeaderImage
	}
	if doc.HeaderImageHeight > 0 {
		p.Header.Image.Height = doc.HeaderImageHeight
	}

	if t := doc.Title; t != nil {
		if t.Text != "" {
			p.Header.Title.Text = t.Text
		}
		if t.FontFamily != "" {
			p.Header.Title.FontFamily = t.FontFamily
		}
		if t.FontSize > 0 {
			p.Header.Title.FontSize = t.FontSize
		}
		if t.Color != "" {
			p.Header.Title.Color = t.Color
		}
		if t.Bold != nil {
			p.Header.Title.Bold = *t.Bold
		}
		if t.Italic != nil {
			p.Header.Title.Italic = *t.Italic
		}
		if t.Underline != nil {
			p.Header.Title.Underline = *t.Underline
		}
		if t.Align != "" {
			p.Header.Title.Align = schema.Alignment(t.Align)
		}
	}

	if d := doc.Description; d != nil {
		if d.HTML != "" {
			p.Header.Description.HTML = d.HTML
			p.Header.Description.Text = schema.PlainText(d.HTML)
		}
		if d.FontSize > 0 {
			p.Header.Description.FontSize = d.FontSize
		}
		if d.Color != "" {
			p.Header.Description.Color = d.Color
		}
	}

	if len(doc.Steps) > 0 {
		p.Steps = buildSteps(doc.Steps)
	}

	if s := doc.Settings; s != nil {
		if s.WebhookURL != "" {
			p.Settings.WebhookURL = s.WebhookURL
		}
		if s.SubmitButtonText != "" {
			p.Settings.SubmitButtonText = s.SubmitButtonText
		}
		if s.SuccessMessage != "" {
			p.Settings.SuccessMessage = s.SuccessMessage
		}
		if s.ShowProgressBar != nil {
			p.Settings.ShowProgressBar = *s.ShowProgressBar
		}
		if s.Theme != "" {
			p.Settings.Theme = schema.Theme(s.Theme)
		}
	}

	return p
}

func buildSteps(docs []StepDoc) []*schema.Step {
	seen := make(map[string]bool)
	steps := make([]*schema.Step, 0, len(docs))

	for _, sd := range docs {
		step := &schema.Step{
			ID:     uniqueID(sd.ID, "step_", seen),
			Name:   sd.StepName,
			Fields: make([]*schema.Field, 0, len(sd.Fields)),
		}
		if step.Name == "" {
			step.Name = defaultStepName(len(steps))
		}
		for _, fd := range sd.Fields {
			step.Fields = append(step.Fields, buildField(fd, seen))
		}
		steps = append(steps, step)
	}
	return steps
}

// buildField starts from the type defaults so absent keys keep the same
// values a freshly added field would have.
func buildField(fd FieldDoc, seen map[string]bool) *schema.Field {
	f := schema.NewField(schema.FieldType(fd.Type))
	f.ID = uniqueID(fd.ID, "field_", seen)

	if fd.Label != "" {
		f.Label = fd.Label
	}
	if fd.Placeholder != "" {
		f.Placeholder = fd.Placeholder
	}
	f.Required = fd.Required
	if len(fd.Options) > 0 {
		f.Options = append([]schema.Option(nil), fd.Options...)
	}
	if fd.Accept != "" {
		f.Accept = fd.Accept
	}
	if fd.MaxSize != "" {
		f.MaxSize = fd.MaxSize
	}
	if fd.Validation != nil {
		v := *fd.Validation
		f.Validation = &v
	}
	if fd.ConditionalLogic != nil {
		cl := *fd.ConditionalLogic
		f.ConditionalLogic = &cl
	}
	return f
}

// uniqueID keeps a provided id unless it is missing or already taken.
func uniqueID(id, prefix string, seen map[string]bool) string {
	if id == "" || seen[id] {
		for {
			var fresh string
			if prefix == "step_" {
				fresh = schema.NewStepID()
			} else {
				fresh = schema.NewFieldID()
			}
			if !seen[fresh] {
				id = fresh
				break
			}
		}
	}
	seen[id] = true
	return id
}

func defaultStepName(index int) string {
	return fmt.Sprintf("Step %d", index+1)
}
