package commands

import (
	"github.com/formforge/formforge/pkg/schema"
)

// UpdateHeaderImage merges a partial update into the header image.
func UpdateHeaderImage(p *schema.Project, patch *schema.HeaderImagePatch) *schema.Project {
	next := p.ShallowCopy()
	if patch == nil {
		return next
	}
	if patch.URL != nil {
		next.Header.Image.URL = *patch.URL
	}
	if patch.Height != nil {
		next.Header.Image.Height = *patch.Height
	}
	return next
}

// UpdateHeaderTitle merges a partial update into the header title.
func UpdateHeaderTitle(p *schema.Project, patch *schema.HeaderTitlePatch) *schema.Project {
	next := p.ShallowCopy()
	if patch == nil {
		return next
	}
	t := &next.Header.Title
	if patch.Text != nil {
		t.Text = *patch.Text
	}
	if patch.FontFamily != nil {
		t.FontFamily = *patch.FontFamily
	}
	if patch.FontSize != nil {
		t.FontSize = *patch.FontSize
	}
	if patch.Color != nil {
		t.Color = *patch.Color
	}
	if patch.Bold != nil {
		t.Bold = *patch.Bold
	}
	if patch.Italic != nil {
		t.Italic = *patch.Italic
	}
	if patch.Underline != nil {
		t.Underline = *patch.Underline
	}
	if patch.Align != nil {
		t.Align = *patch.Align
	}
	return next
}

// UpdateHeaderDescription merges a partial update into the header
// description. Whenever the HTML changes, the plain-text form is
// re-derived from it.
func UpdateHeaderDescription(p *schema.Project, patch *schema.HeaderDescriptionPatch) *schema.Project {
	next := p.ShallowCopy()
	if patch == nil {
		return next
	}
	d := &next.Header.Description
	if patch.HTML != nil {
		d.HTML = *patch.HTML
		d.Text = schema.PlainText(*patch.HTML)
	}
	if patch.FontSize != nil {
		d.FontSize = *patch.FontSize
	}
	if patch.Color != nil {
		d.Color = *patch.Color
	}
	return next
}

// UpdateSettings merges a partial update into the project settings.
func UpdateSettings(p *schema.Project, patch *schema.SettingsPatch) *schema.Project {
	next := p.ShallowCopy()
	if patch == nil {
		return next
	}
	s := &next.Settings
	if patch.WebhookURL != nil {
		s.WebhookURL = *patch.WebhookURL
	}
	if patch.SubmitButtonText != nil {
		s.SubmitButtonText = *patch.SubmitButtonText
	}
	if patch.SuccessMessage != nil {
		s.SuccessMessage = *patch.SuccessMessage
	}
	if patch.ShowProgressBar != nil {
		s.ShowProgressBar = *patch.ShowProgressBar
	}
	if patch.Theme != nil {
		s.Theme = *patch.Theme
	}
	return next
}

// ToggleTheme flips the settings theme between light and dark.
func ToggleTheme(p *schema.Project) *schema.Project {
	next := p.ShallowCopy()
	if next.Settings.Theme == schema.ThemeDark {
		next.Settings.Theme = schema.ThemeLight
	} else {
		next.Settings.Theme = schema.ThemeDark
	}
	return next
}
