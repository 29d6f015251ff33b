package builder

import (
	"github.com/formforge/formforge/pkg/schema"
)

// mergeOverDefaults lays a stored snapshot over a freshly seeded project.
// Keys a snapshot from an older build never wrote keep their seeded
// defaults instead of decoding to zero values.
func mergeOverDefaults(stored *schema.Project) *schema.Project {
	p := schema.NewProject()

	if stored.Name != "" {
		p.Name = stored.Name
	}
	if stored.ViewMode != "" {
		p.ViewMode = stored.ViewMode
	}

	if stored.Header.Image.URL != "" {
		p.Header.Image.URL = stored.Header.Image.URL
	}
	if stored.Header.Image.Height > 0 {
		p.Header.Image.Height = stored.Header.Image.Height
	}
	if stored.Header.Title.Text != "" {
		p.Header.Title = stored.Header.Title
		if p.Header.Title.FontFamily == "" {
			p.Header.Title.FontFamily = "Inter"
		}
		if p.Header.Title.FontSize == 0 {
			p.Header.Title.FontSize = 28
		}
		if p.Header.Title.Align == "" {
			p.Header.Title.Align = schema.AlignCenter
		}
	}
	if stored.Header.Description.HTML != "" {
		d := stored.Header.Description
		if d.Text == "" {
			d.Text = schema.PlainText(d.HTML)
		}
		if d.FontSize == 0 {
			d.FontSize = p.Header.Description.FontSize
		}
		if d.Color == "" {
			d.Color = p.Header.Description.Color
		}
		p.Header.Description = d
	}

	if len(stored.Steps) > 0 {
		p.Steps = stored.Steps
		for _, step := range p.Steps {
			if step.ID == "" {
				step.ID = schema.NewStepID()
			}
			if step.Fields == nil {
				step.Fields = []*schema.Field{}
			}
			for _, f := range step.Fields {
				if f.ID == "" {
					f.ID = schema.NewFieldID()
				}
				if f.Validation == nil {
					f.Validation = &schema.Validation{}
				}
				if f.ConditionalLogic == nil {
					f.ConditionalLogic = &schema.ConditionalLogic{}
				}
			}
		}
	}

	if stored.CurrentStep >= 0 && stored.CurrentStep < len(p.Steps) {
		p.CurrentStep = stored.CurrentStep
	}
	if p.FieldByID(stored.SelectedElement) != nil || isSentinel(stored.SelectedElement) {
		p.SelectedElement = stored.SelectedElement
	}

	if stored.Settings.SubmitButtonText != "" {
		p.Settings.SubmitButtonText = stored.Settings.SubmitButtonText
	}
	if stored.Settings.SuccessMessage != "" {
		p.Settings.SuccessMessage = stored.Settings.SuccessMessage
	}
	if stored.Settings.WebhookURL != "" {
		p.Settings.WebhookURL = stored.Settings.WebhookURL
	}
	p.Settings.ShowProgressBar = stored.Settings.ShowProgressBar
	if stored.Settings.Theme != "" {
		p.Settings.Theme = stored.Settings.Theme
	}

	return p
}

func isSentinel(id string) bool {
	switch id {
	case schema.SelectHeader, schema.SelectTitle, schema.SelectDescription:
		return true
	}
	return false
}
