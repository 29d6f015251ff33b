package exchange

import (
	"encoding/json"

	"github.com/formforge/formforge/pkg/schema"
)

// Export converts a snapshot into the exchange shape.
func Export(p *schema.Project) *Document {
	doc := &Document{
		SchemaVersion:     schema.SchemaVersion,
		ProjectName:       p.Name,
		HeaderImage:       p.Header.Image.URL,
		HeaderImageHeight: p.Header.Image.Height,
		Title: &Title{
			Text:       p.Header.Title.Text,
			FontFamily: p.Header.Title.FontFamily,
			FontSize:   p.Header.Title.FontSize,
			Color:      p.Header.Title.Color,
			Bold:       schema.BoolPtr(p.Header.Title.Bold),
			Italic:     schema.BoolPtr(p.Header.Title.Italic),
			Underline:  schema.BoolPtr(p.Header.Title.Underline),
			Align:      string(p.Header.Title.Align),
		},
		Description: &Description{
			HTML:     p.Header.Description.HTML,
			FontSize: p.Header.Description.FontSize,
			Color:    p.Header.Description.Color,
		},
		Steps: make([]StepDoc, 0, len(p.Steps)),
		Settings: &SettingsDoc{
			WebhookURL:       p.Settings.WebhookURL,
			SubmitButtonText: p.Settings.SubmitButtonText,
			SuccessMessage:   p.Settings.SuccessMessage,
			ShowProgressBar:  schema.BoolPtr(p.Settings.ShowProgressBar),
			Theme:            string(p.Settings.Theme),
		},
	}

	for _, step := range p.Steps {
		sd := StepDoc{
			ID:       step.ID,
			StepName: step.Name,
			Fields:   make([]FieldDoc, 0, len(step.Fields)),
		}
		for _, f := range step.Fields {
			fd := FieldDoc{
				ID:          f.ID,
				Type:        string(f.Type),
				Label:       f.Label,
				Placeholder: f.Placeholder,
				Required:    f.Required,
				Accept:      f.Accept,
				MaxSize:     f.MaxSize,
			}
			if len(f.Options) > 0 {
				fd.Options = append([]schema.Option(nil), f.Options...)
			}
			if f.Validation != nil {
				v := *f.Validation
				fd.Validation = &v
			}
			if f.ConditionalLogic != nil && f.ConditionalLogic.Enabled {
				cl := *f.ConditionalLogic
				fd.ConditionalLogic = &cl
			}
			sd.Fields = append(sd.Fields, fd)
		}
		doc.Steps = append(doc.Steps, sd)
	}

	return doc
}

// ExportJSON serializes a snapshot into the exchange shape as indented
// JSON.
func ExportJSON(p *schema.Project) ([]byte, error) {
	return json.MarshalIndent(Export(p), "", "  ")
}
