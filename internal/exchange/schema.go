package exchange

import (
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// importSchemaJSON validates incoming exchange documents. It checks types
// and enums only: optional keys are genuinely optional, and unknown keys
// are ignored so newer producers stay importable.
const importSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://formforge.dev/schemas/exchange.json",
  "type": "object",
  "properties": {
    "schema_version": { "type": "string" },
    "project_name": { "type": "string" },
    "header_image": { "type": "string" },
    "header_image_height": { "type": "integer", "minimum": 0 },
    "title": {
      "type": "object",
      "properties": {
        "text": { "type": "string" },
        "font_family": { "type": "string" },
        "font_size": { "type": "integer", "minimum": 1 },
        "color": { "type": "string" },
        "bold": { "type": "boolean" },
        "italic": { "type": "boolean" },
        "underline": { "type": "boolean" },
        "align": { "type": "string", "enum": ["left", "center", "right"] }
      }
    },
    "description": {
      "type": "object",
      "properties": {
        "html": { "type": "string" },
        "font_size": { "type": "integer", "minimum": 1 },
        "color": { "type": "string" }
      }
    },
    "steps": {
      "type": "array",
      "items": { "$ref": "#/$defs/step" }
    },
    "settings": {
      "type": "object",
      "properties": {
        "webhook_url": { "type": "string" },
        "submit_button_text": { "type": "string" },
        "success_message": { "type": "string" },
        "show_progress_bar": { "type": "boolean" },
        "theme": { "type": "string", "enum": ["light", "dark"] }
      }
    }
  },
  "$defs": {
    "step": {
      "type": "object",
      "properties": {
        "id": { "type": "string" },
        "step_name": { "type": "string" },
        "fields": {
          "type": "array",
          "items": { "$ref": "#/$defs/field" }
        }
      }
    },
    "field": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "id": { "type": "string" },
        "type": {
          "type": "string",
          "enum": ["text", "number", "email", "mobile", "textarea",
                   "dropdown", "radio", "checkbox", "date", "file"]
        },
        "label": { "type": "string" },
        "placeholder": { "type": "string" },
        "required": { "type": "boolean" },
        "options": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["value"],
            "properties": {
              "value": { "type": "string" },
              "label": { "type": "string" }
            }
          }
        },
        "accept": { "type": "string" },
        "max_size": { "type": "string" },
        "validation": { "$ref": "#/$defs/validation" },
        "conditional_logic": { "$ref": "#/$defs/conditional_logic" }
      }
    },
    "validation": {
      "type": "object",
      "properties": {
        "min_length": { "type": "integer", "minimum": 0 },
        "max_length": { "type": "integer", "minimum": 0 },
        "min": { "type": "number" },
        "max": { "type": "number" },
        "pattern": { "type": "string" },
        "error_message": { "type": "string" },
        "email": { "type": "boolean" },
        "mobile": { "type": "boolean" },
        "url": { "type": "boolean" },
        "gst": { "type": "boolean" },
        "pan": { "type": "boolean" },
        "pincode": { "type": "boolean" },
        "alphanumeric": { "type": "boolean" },
        "alpha": { "type": "boolean" },
        "numeric": { "type": "boolean" }
      }
    },
    "conditional_logic": {
      "type": "object",
      "properties": {
        "enabled": { "type": "boolean" },
        "field": { "type": "string" },
        "operator": {
          "type": "string",
          "enum": ["equals", "not_equals", "contains", "not_contains",
                   "empty", "not_empty", "greater_than", "less_than",
                   "starts_with", "ends_with", "expression"]
        },
        "value": {}
      }
    }
  }
}`

var importSchema = mustCompileImportSchema()

func mustCompileImportSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(importSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("unmarshal exchange schema: %v", err))
	}
	if err := c.AddResource("https://formforge.dev/schemas/exchange.json", doc); err != nil {
		panic(fmt.Sprintf("add exchange schema resource: %v", err))
	}
	s, err := c.Compile("https://formforge.dev/schemas/exchange.json")
	if err != nil {
		panic(fmt.Sprintf("compile exchange schema: %v", err))
	}
	return s
}
