package schema

import "encoding/json"

// ViewMode selects which builder surface is active. Presentational only;
// commands never branch on it.
type ViewMode string

const (
	ViewBuilder ViewMode = "builder"
	ViewPreview ViewMode = "preview"
	ViewCode    ViewMode = "code"
)

// Theme selects the generated form's color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Alignment is the horizontal alignment of header text.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// FieldType enumerates the kinds of form fields. The pseudo types
// (header, title, description, submit) exist only for selection
// bookkeeping and never appear inside a step.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldMobile   FieldType = "mobile"
	FieldTextarea FieldType = "textarea"
	FieldDropdown FieldType = "dropdown"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
	FieldFile     FieldType = "file"

	PseudoHeader      FieldType = "header"
	PseudoTitle       FieldType = "title"
	PseudoDescription FieldType = "description"
	PseudoSubmit      FieldType = "submit"
)

// Selection sentinels. SelectedElement holds one of these or a field id.
const (
	SelectHeader      = "header"
	SelectTitle       = "title"
	SelectDescription = "description"
)

// Operator is a conditional-logic comparison operator.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpEmpty       Operator = "empty"
	OpNotEmpty    Operator = "not_empty"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"

	// OpExpression evaluates the condition value as an expression program
	// against the full value map. Evaluation failures fail open (visible).
	OpExpression Operator = "expression"
)

// Project is the root aggregate of the document model. A published snapshot
// is immutable: commands produce a new root and copy only the branches they
// touch, so older snapshots in history stay valid.
type Project struct {
	Name            string   `json:"name"`
	CurrentStep     int      `json:"current_step"`
	SelectedElement string   `json:"selected_element,omitempty"`
	ViewMode        ViewMode `json:"view_mode"`
	Header          Header   `json:"header"`
	Steps           []*Step  `json:"steps"`
	Settings        Settings `json:"settings"`
}

// Header is the form's top block. Always present, seeded at project creation.
type Header struct {
	Image       HeaderImage       `json:"image"`
	Title       HeaderTitle       `json:"title"`
	Description HeaderDescription `json:"description"`
}

// HeaderImage is the optional banner image. An empty URL means no image.
type HeaderImage struct {
	URL    string `json:"url,omitempty"`
	Height int    `json:"height"`
}

// HeaderTitle is the styled form title.
type HeaderTitle struct {
	Text       string    `json:"text"`
	FontFamily string    `json:"font_family"`
	FontSize   int       `json:"font_size"`
	Color      string    `json:"color"` // 6-hex-digit, e.g. "#1a1a2e"
	Bold       bool      `json:"bold"`
	Italic     bool      `json:"italic"`
	Underline  bool      `json:"underline"`
	Align      Alignment `json:"align"`
}

// HeaderDescription is the rich-text description under the title.
// Text is the plain-text form derived from HTML.
type HeaderDescription struct {
	HTML     string `json:"html"`
	Text     string `json:"text"`
	FontSize int    `json:"font_size"`
	Color    string `json:"color"`
}

// Step is one page of the multi-step form.
type Step struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Fields []*Field `json:"fields"`
}

// Field is a single form input definition. IDs are unique project-wide.
type Field struct {
	ID               string            `json:"id"`
	Type             FieldType         `json:"type"`
	Label            string            `json:"label"`
	Placeholder      string            `json:"placeholder,omitempty"`
	Required         bool              `json:"required"`
	Options          []Option          `json:"options,omitempty"`
	Accept           string            `json:"accept,omitempty"`   // file fields
	MaxSize          string            `json:"max_size,omitempty"` // file fields, human-readable ("10MB")
	Validation       *Validation       `json:"validation,omitempty"`
	ConditionalLogic *ConditionalLogic `json:"conditional_logic,omitempty"`
}

// Option is one choice of a dropdown/radio/checkbox field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Validation is the rule set attached to a field. Numeric bounds are
// pointers so that zero is a usable limit.
type Validation struct {
	MinLength    *int     `json:"min_length,omitempty"`
	MaxLength    *int     `json:"max_length,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Pattern      string   `json:"pattern,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`

	Email        bool `json:"email,omitempty"`
	Mobile       bool `json:"mobile,omitempty"`
	URL          bool `json:"url,omitempty"`
	GST          bool `json:"gst,omitempty"`
	PAN          bool `json:"pan,omitempty"`
	Pincode      bool `json:"pincode,omitempty"`
	Alphanumeric bool `json:"alphanumeric,omitempty"`
	Alpha        bool `json:"alpha,omitempty"`
	Numeric      bool `json:"numeric,omitempty"`
}

// ConditionalLogic hides or shows a field based on another field's value.
type ConditionalLogic struct {
	Enabled  bool     `json:"enabled"`
	Field    string   `json:"field,omitempty"` // trigger field id
	Operator Operator `json:"operator,omitempty"`
	Value    any      `json:"value,omitempty"`
}

// Settings are the project-wide submission options.
type Settings struct {
	WebhookURL       string `json:"webhook_url,omitempty"`
	SubmitButtonText string `json:"submit_button_text"`
	SuccessMessage   string `json:"success_message"`
	ShowProgressBar  bool   `json:"show_progress_bar"`
	Theme            Theme  `json:"theme"`
}

// UnmarshalJSON decodes the progress flag through a pointer so a snapshot
// written before the flag existed keeps its seeded default instead of
// collapsing to false.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var doc struct {
		WebhookURL       string `json:"webhook_url"`
		SubmitButtonText string `json:"submit_button_text"`
		SuccessMessage   string `json:"success_message"`
		ShowProgressBar  *bool  `json:"show_progress_bar"`
		Theme            Theme  `json:"theme"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	s.WebhookURL = doc.WebhookURL
	s.SubmitButtonText = doc.SubmitButtonText
	s.SuccessMessage = doc.SuccessMessage
	s.ShowProgressBar = doc.ShowProgressBar == nil || *doc.ShowProgressBar
	s.Theme = doc.Theme
	return nil
}

// IsPseudo reports whether t is a selection-only pseudo type.
func (t FieldType) IsPseudo() bool {
	switch t {
	case PseudoHeader, PseudoTitle, PseudoDescription, PseudoSubmit:
		return true
	}
	return false
}

// IsChoice reports whether t carries an options list.
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldDropdown, FieldRadio, FieldCheckbox:
		return true
	}
	return false
}

// ValueBearing reports whether fields of this type produce a submission
// value, making them eligible as condition triggers.
func (t FieldType) ValueBearing() bool {
	switch t {
	case FieldText, FieldNumber, FieldEmail, FieldMobile, FieldTextarea,
		FieldDropdown, FieldRadio, FieldCheckbox, FieldDate:
		return true
	}
	return false
}

// FieldByID returns the field with the given id, searching all steps in
// order, or nil if absent.
func (p *Project) FieldByID(id string) *Field {
	for _, step := range p.Steps {
		for _, f := range step.Fields {
			if f.ID == id {
				return f
			}
		}
	}
	return nil
}

// AllFields returns every field across all steps, in evaluation order.
func (p *Project) AllFields() []*Field {
	var out []*Field
	for _, step := range p.Steps {
		out = append(out, step.Fields...)
	}
	return out
}

// StepOf returns the step containing the field id and the field's index
// within it, or (nil, -1).
func (p *Project) StepOf(fieldID string) (*Step, int) {
	for _, step := range p.Steps {
		for i, f := range step.Fields {
			if f.ID == fieldID {
				return step, i
			}
		}
	}
	return nil, -1
}

// FieldPatch is a partial field update. Nil members are left unchanged.
type FieldPatch struct {
	Type             *FieldType        `json:"type,omitempty"`
	Label            *string           `json:"label,omitempty"`
	Placeholder      *string           `json:"placeholder,omitempty"`
	Required         *bool             `json:"required,omitempty"`
	Options          *[]Option         `json:"options,omitempty"`
	Accept           *string           `json:"accept,omitempty"`
	MaxSize          *string           `json:"max_size,omitempty"`
	Validation       *Validation       `json:"validation,omitempty"`
	ConditionalLogic *ConditionalLogic `json:"conditional_logic,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p *FieldPatch) IsZero() bool {
	return p == nil || (p.Type == nil && p.Label == nil && p.Placeholder == nil &&
		p.Required == nil && p.Options == nil && p.Accept == nil &&
		p.MaxSize == nil && p.Validation == nil && p.ConditionalLogic == nil)
}

// StepPatch is a partial step update.
type StepPatch struct {
	Name *string `json:"name,omitempty"`
}

// SettingsPatch is a partial settings update.
type SettingsPatch struct {
	WebhookURL       *string `json:"webhook_url,omitempty"`
	SubmitButtonText *string `json:"submit_button_text,omitempty"`
	SuccessMessage   *string `json:"success_message,omitempty"`
	ShowProgressBar  *bool   `json:"show_progress_bar,omitempty"`
	Theme            *Theme  `json:"theme,omitempty"`
}

// HeaderImagePatch is a partial header-image update.
type HeaderImagePatch struct {
	URL    *string `json:"url,omitempty"`
	Height *int    `json:"height,omitempty"`
}

// HeaderTitlePatch is a partial header-title update.
type HeaderTitlePatch struct {
	Text       *string    `json:"text,omitempty"`
	FontFamily *string    `json:"font_family,omitempty"`
	FontSize   *int       `json:"font_size,omitempty"`
	Color      *string    `json:"color,omitempty"`
	Bold       *bool      `json:"bold,omitempty"`
	Italic     *bool      `json:"italic,omitempty"`
	Underline  *bool      `json:"underline,omitempty"`
	Align      *Alignment `json:"align,omitempty"`
}

// HeaderDescriptionPatch is a partial header-description update.
// Text is always re-derived from HTML when HTML changes.
type HeaderDescriptionPatch struct {
	HTML     *string `json:"html,omitempty"`
	FontSize *int    `json:"font_size,omitempty"`
	Color    *string `json:"color,omitempty"`
}
