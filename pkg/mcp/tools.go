package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/formforge/formforge/internal/logging"
	"github.com/formforge/formforge/pkg/schema"
)

// handleCommand executes one builder command.
func (s *BuilderServer) handleCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := req.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError("command is required"), nil
	}
	args := mcp.ParseStringMap(req, "args", nil)

	if clientID := req.GetString("client_id", ""); clientID != "" {
		s.captureSession(ctx, clientID)
		ctx = logging.WithClientID(ctx, clientID)
	}
	ctx = logging.WithCommand(ctx, command)

	switch command {
	case "addStep":
		id := s.builder.AddStep(ctx, argString(args, "name"))
		return s.commandResult(command, map[string]any{"step_id": id})

	case "updateStep":
		var patch schema.StepPatch
		if err := decodeArgs(args, "patch", &patch); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
		}
		if err := s.builder.UpdateStep(ctx, argInt(args, "index", -1), &patch); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.commandResult(command, nil)

	case "deleteStep":
		if err := s.builder.DeleteStep(ctx, argInt(args, "index", -1)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.commandResult(command, nil)

	case "setCurrentStep":
		if err := s.builder.SetCurrentStep(ctx, argInt(args, "index", -1)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.commandResult(command, nil)

	case "reorderSteps":
		s.builder.ReorderSteps(ctx, argInt(args, "from", 0), argInt(args, "to", 0))
		return s.commandResult(command, nil)

	case "addField", "addFieldAt":
		fieldType := schema.FieldType(argString(args, "type"))
		if fieldType == "" {
			return mcp.NewToolResultError("args.type is required"), nil
		}
		var patch schema.FieldPatch
		if err := decodeArgs(args, "patch", &patch); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
		}
		var field *schema.Field
		var addErr error
		if command == "addFieldAt" {
			field, addErr = s.builder.AddFieldAt(ctx, fieldType, argInt(args, "index", 0), &patch)
		} else {
			field, addErr = s.builder.AddField(ctx, fieldType, &patch)
		}
		if addErr != nil {
			return mcp.NewToolResultError(addErr.Error()), nil
		}
		return s.commandResult(command, map[string]any{"field": field})

	case "duplicateField":
		field, dupErr := s.builder.DuplicateField(ctx, argString(args, "field_id"))
		if dupErr != nil {
			return mcp.NewToolResultError(dupErr.Error()), nil
		}
		return s.commandResult(command, map[string]any{"field": field})

	case "updateField":
		var patch schema.FieldPatch
		if err := decodeArgs(args, "patch", &patch); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
		}
		if err := s.builder.UpdateField(ctx, argString(args, "field_id"), &patch); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.commandResult(command, nil)

	case "deleteField":
		if err := s.builder.DeleteField(ctx, argString(args, "field_id")); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.commandResult(command, nil)

	case "reorderFields":
		s.builder.ReorderFields(ctx, argInt(args, "from", 0), argInt(args, "to", 0))
		return s.commandResult(command, nil)

	case "updateHeaderImage":
		var patch schema.HeaderImagePatch
		if err := decodeArgs(args, "patch", &patch); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
		}
		s.builder.UpdateHeaderImage(ctx, &patch)
		return s.commandResult(command, nil)

	case "updateHeaderTitle":
		var patch schema.HeaderTitlePatch
		if err := decodeArgs(args, "patch", &patch); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
		}
		s.builder.UpdateHeaderTitle(ctx, &patch)
		return s.commandResult(command, nil)

	case "updateHeaderDescription":
		var patch schema.HeaderDescriptionPatch
		if err := decodeArgs(args, "patch", &patch); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
		}
		s.builder.UpdateHeaderDescription(ctx, &patch)
		return s.commandResult(command, nil)

	case "updateSettings":
		var patch schema.SettingsPatch
		if err := decodeArgs(args, "patch", &patch); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
		}
		s.builder.UpdateSettings(ctx, &patch)
		return s.commandResult(command, nil)

	case "selectElement":
		s.builder.SelectElement(ctx, argString(args, "id"))
		return s.commandResult(command, nil)

	case "toggleTheme":
		s.builder.ToggleTheme(ctx)
		return s.commandResult(command, nil)

	case "reset":
		s.builder.Reset(ctx)
		return s.commandResult(command, nil)

	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown command: %s", command)), nil
	}
}

// commandResult builds the standard command response with history status
// and the affected document shape.
func (s *BuilderServer) commandResult(command string, extra map[string]any) (*mcp.CallToolResult, error) {
	snapshot := s.builder.Snapshot()
	out := map[string]any{
		"ok":           true,
		"command":      command,
		"steps":        len(snapshot.Steps),
		"current_step": snapshot.CurrentStep,
		"can_undo":     s.builder.CanUndo(),
		"can_redo":     s.builder.CanRedo(),
	}
	for k, v := range extra {
		out[k] = v
	}
	return marshalResult(out)
}

// handleHistory moves through or reports the undo/redo history.
func (s *BuilderServer) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action is required"), nil
	}

	switch action {
	case "undo":
		if _, undoErr := s.builder.Undo(ctx); undoErr != nil {
			return mcp.NewToolResultError(undoErr.Error()), nil
		}
	case "redo":
		if _, redoErr := s.builder.Redo(ctx); redoErr != nil {
			return mcp.NewToolResultError(redoErr.Error()), nil
		}
	case "status":
		// Fall through to the shared status payload.
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action: %s", action)), nil
	}

	return marshalResult(map[string]any{
		"ok":       true,
		"action":   action,
		"can_undo": s.builder.CanUndo(),
		"can_redo": s.builder.CanRedo(),
	})
}

// handleQuery inspects the document without changing it.
func (s *BuilderServer) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resource, err := req.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError("resource is required"), nil
	}

	switch resource {
	case "document":
		return marshalResult(s.builder.Snapshot())

	case "field":
		fieldID := req.GetString("field_id", "")
		if fieldID == "" {
			return mcp.NewToolResultError("field_id is required for field queries"), nil
		}
		field := s.builder.FieldByID(fieldID)
		if field == nil {
			return mcp.NewToolResultError(fmt.Sprintf("field %q not found", fieldID)), nil
		}
		return marshalResult(field)

	case "fields":
		return marshalResult(map[string]any{"fields": s.builder.AllFields()})

	case "selection":
		return marshalResult(s.builder.SelectedElement())

	case "triggers":
		fieldID := req.GetString("field_id", "")
		if fieldID == "" {
			return mcp.NewToolResultError("field_id is required for triggers queries"), nil
		}
		return marshalResult(map[string]any{"triggers": s.builder.EligibleTriggers(fieldID)})

	case "path":
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required for path queries"), nil
		}
		var def any
		if d := req.GetString("default", ""); d != "" {
			def = d
		}
		return marshalResult(map[string]any{"path": path, "value": s.builder.GetPath(ctx, path, def)})

	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown resource type: %s", resource)), nil
	}
}

// handleValidate checks a field value or a whole submission.
func (s *BuilderServer) handleValidate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope, err := req.RequireString("scope")
	if err != nil {
		return mcp.NewToolResultError("scope is required"), nil
	}

	values := mcp.ParseStringMap(req, "values", nil)

	switch scope {
	case "field":
		fieldID := req.GetString("field_id", "")
		if fieldID == "" {
			return mcp.NewToolResultError("field_id is required for field scope"), nil
		}
		var value any
		if v := req.GetString("value", ""); v != "" {
			value = v
		} else if values != nil {
			value = values[fieldID]
		}
		return marshalResult(s.builder.ValidateField(fieldID, value, values))

	case "form":
		return marshalResult(s.builder.ValidateForm(values))

	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown scope: %s", scope)), nil
	}
}

// handleExport returns the document as portable JSON.
func (s *BuilderServer) handleExport(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.builder.ExportJSON()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleImport replaces the document from portable JSON.
func (s *BuilderServer) handleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError("document is required"), nil
	}

	if importErr := s.builder.ImportJSON(ctx, []byte(doc)); importErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", importErr)), nil
	}

	snapshot := s.builder.Snapshot()
	return marshalResult(map[string]any{
		"ok":    true,
		"name":  snapshot.Name,
		"steps": len(snapshot.Steps),
	})
}

// --- Internal helpers ---

// decodeArgs decodes args[key] into a patch struct using its json tags.
// A missing or nil entry leaves the patch zero, which commands treat as
// a no-op.
func decodeArgs(args map[string]any, key string, dst any) error {
	if args == nil {
		return nil
	}
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}
	src, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("%s must be an object", key)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(src)
}

// argString extracts a string argument, defaulting to "".
func argString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}

// argInt extracts an integer argument. JSON numbers arrive as float64.
func argInt(args map[string]any, key string, defaultVal int) int {
	if args == nil {
		return defaultVal
	}
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return defaultVal
}

// captureSession maps the client ID to its current MCP session for notifications.
func (s *BuilderServer) captureSession(ctx context.Context, clientID string) {
	if session := server.ClientSessionFromContext(ctx); session != nil {
		s.sessions.Register(clientID, session.SessionID())
	}
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
