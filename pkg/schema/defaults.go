package schema

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Storage key for the persisted snapshot.
const StorageKey = "formforge:project"

// SchemaVersion is written into exported documents.
const SchemaVersion = "1.0"

// NewFieldID generates a project-unique field id.
func NewFieldID() string {
	return "field_" + uuid.NewString()[:8]
}

// NewStepID generates a project-unique step id.
func NewStepID() string {
	return "step_" + uuid.NewString()[:8]
}

// NewProject returns a freshly seeded project: one empty step, default
// header and settings. This is also the base that persisted snapshots are
// merged over on load.
func NewProject() *Project {
	return &Project{
		Name:        "Untitled Form",
		CurrentStep: 0,
		ViewMode:    ViewBuilder,
		Header: Header{
			Image: HeaderImage{Height: 120},
			Title: HeaderTitle{
				Text:       "Get Your Free Quote",
				FontFamily: "Inter",
				FontSize:   28,
				Color:      "#1a1a2e",
				Bold:       true,
				Align:      AlignCenter,
			},
			Description: HeaderDescription{
				HTML:     "<p>Fill in the form below and we&#39;ll get back to you.</p>",
				Text:     "Fill in the form below and we'll get back to you.",
				FontSize: 15,
				Color:    "#4a4a68",
			},
		},
		Steps: []*Step{
			{ID: NewStepID(), Name: "Step 1", Fields: []*Field{}},
		},
		Settings: Settings{
			SubmitButtonText: "Submit",
			SuccessMessage:   "Thank you! Your submission has been received.",
			ShowProgressBar:  true,
			Theme:            ThemeLight,
		},
	}
}

// NewField builds a field of the given type from the type default table,
// with a fresh id and a disabled conditional-logic record.
func NewField(t FieldType) *Field {
	f := &Field{
		ID:               NewFieldID(),
		Type:             t,
		Validation:       &Validation{},
		ConditionalLogic: &ConditionalLogic{},
	}

	switch t {
	case FieldText:
		f.Label = "Text Field"
		f.Placeholder = "Enter text..."
	case FieldNumber:
		f.Label = "Number"
		f.Placeholder = "Enter a number..."
		f.Validation.Numeric = true
	case FieldEmail:
		f.Label = "Email Address"
		f.Placeholder = "you@example.com"
		f.Validation.Email = true
	case FieldMobile:
		f.Label = "Mobile Number"
		f.Placeholder = "10-digit mobile number"
		f.Validation.Mobile = true
		f.Validation.MaxLength = IntPtr(10)
	case FieldTextarea:
		f.Label = "Message"
		f.Placeholder = "Type your message..."
	case FieldDropdown:
		f.Label = "Dropdown"
		f.Options = []Option{
			{Value: "option_1", Label: "Option 1"},
			{Value: "option_2", Label: "Option 2"},
		}
	case FieldRadio:
		f.Label = "Radio Group"
		f.Options = []Option{
			{Value: "option_1", Label: "Option 1"},
			{Value: "option_2", Label: "Option 2"},
		}
	case FieldCheckbox:
		f.Label = "Checkboxes"
		f.Options = []Option{
			{Value: "option_1", Label: "Option 1"},
			{Value: "option_2", Label: "Option 2"},
		}
	case FieldDate:
		f.Label = "Date"
	case FieldFile:
		f.Label = "File Upload"
		f.Accept = "*/*"
		f.MaxSize = "10MB"
	default:
		f.Label = "Field"
	}

	return f
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

// StrPtr returns a pointer to v.
func StrPtr(v string) *string { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }

var (
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	entities = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
)

// PlainText derives the plain-text form of a rich-text HTML fragment.
func PlainText(html string) string {
	return strings.TrimSpace(entities.Replace(tagRe.ReplaceAllString(html, "")))
}
