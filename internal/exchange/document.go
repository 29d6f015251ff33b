// Package exchange implements the external JSON document format. The
// exchange shape is snake_case and deliberately flatter than the internal
// model so third-party producers can hand-write it: import tolerates
// missing optional keys, export round-trips through import modulo
// regenerated ids.
package exchange

import (
	"github.com/formforge/formforge/pkg/schema"
)

// Document is the top-level exchange shape.
type Document struct {
	SchemaVersion     string       `json:"schema_version"`
	ProjectName       string       `json:"project_name,omitempty"`
	HeaderImage       string       `json:"header_image,omitempty"`
	HeaderImageHeight int          `json:"header_image_height,omitempty"`
	Title             *Title       `json:"title,omitempty"`
	Description       *Description `json:"description,omitempty"`
	Steps             []StepDoc    `json:"steps"`
	Settings          *SettingsDoc `json:"settings,omitempty"`
}

// Title mirrors the header title in snake_case.
type Title struct {
	Text       string `json:"text,omitempty"`
	FontFamily string `json:"font_family,omitempty"`
	FontSize   int    `json:"font_size,omitempty"`
	Color      string `json:"color,omitempty"`
	Bold       *bool  `json:"bold,omitempty"`
	Italic     *bool  `json:"italic,omitempty"`
	Underline  *bool  `json:"underline,omitempty"`
	Align      string `json:"align,omitempty"`
}

// Description mirrors the header description in snake_case.
type Description struct {
	HTML     string `json:"html,omitempty"`
	FontSize int    `json:"font_size,omitempty"`
	Color    string `json:"color,omitempty"`
}

// StepDoc is one exported step.
type StepDoc struct {
	ID       string     `json:"id,omitempty"`
	StepName string     `json:"step_name,omitempty"`
	Fields   []FieldDoc `json:"fields"`
}

// FieldDoc is one exported field.
type FieldDoc struct {
	ID               string                   `json:"id,omitempty"`
	Type             string                   `json:"type"`
	Label            string                   `json:"label,omitempty"`
	Placeholder      string                   `json:"placeholder,omitempty"`
	Required         bool                     `json:"required,omitempty"`
	Options          []schema.Option          `json:"options,omitempty"`
	Accept           string                   `json:"accept,omitempty"`
	MaxSize          string                   `json:"max_size,omitempty"`
	Validation       *schema.Validation       `json:"validation,omitempty"`
	ConditionalLogic *schema.ConditionalLogic `json:"conditional_logic,omitempty"`
}

// SettingsDoc mirrors the project settings in snake_case. The webhook URL
// is carried as data only; nothing in this module calls it.
type SettingsDoc struct {
	WebhookURL       string `json:"webhook_url,omitempty"`
	SubmitButtonText string `json:"submit_button_text,omitempty"`
	SuccessMessage   string `json:"success_message,omitempty"`
	ShowProgressBar  *bool  `json:"show_progress_bar,omitempty"`
	Theme            string `json:"theme,omitempty"`
}
