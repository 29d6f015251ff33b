// Package mcp exposes the form builder to agent clients over the Model
// Context Protocol. Six tools cover the full surface: commands, history,
// queries, validation, export, and import.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/formforge/formforge/internal/builder"
)

// BuilderServerDeps holds the dependencies for creating a BuilderServer.
type BuilderServerDeps struct {
	Builder *builder.Builder
	Logger  *slog.Logger
}

// BuilderServer wraps an MCP server with form-builder tool handlers.
type BuilderServer struct {
	builder   *builder.Builder
	logger    *slog.Logger
	sessions  *SessionRegistry
	mcpServer *server.MCPServer
}

// NewBuilderServer creates a new BuilderServer with all 6 tools registered.
func NewBuilderServer(deps BuilderServerDeps) *BuilderServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &BuilderServer{
		builder:  deps.Builder,
		logger:   logger,
		sessions: NewSessionRegistry(),
	}

	mcpSrv := server.NewMCPServer(
		"formforge",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("FormForge is a headless form builder. Use formforge.command to edit the document, formforge.history to undo/redo, formforge.query to inspect it, formforge.validate to check values, and formforge.export / formforge.import to move whole documents."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *BuilderServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *BuilderServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Sessions returns the client session registry.
func (s *BuilderServer) Sessions() *SessionRegistry {
	return s.sessions
}

// tools returns the 6 registered MCP tools as ServerTool entries.
func (s *BuilderServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: commandTool(), Handler: s.handleCommand},
		{Tool: historyTool(), Handler: s.handleHistory},
		{Tool: queryTool(), Handler: s.handleQuery},
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: exportTool(), Handler: s.handleExport},
		{Tool: importTool(), Handler: s.handleImport},
	}
}

// --- Tool definitions ---

func commandTool() mcp.Tool {
	return mcp.NewTool("formforge.command",
		mcp.WithDescription("Execute a builder command against the form document"),
		mcp.WithString("command", mcp.Required(),
			mcp.Enum(
				"addStep", "updateStep", "deleteStep", "setCurrentStep", "reorderSteps",
				"addField", "addFieldAt", "duplicateField", "updateField", "deleteField",
				"reorderFields", "updateHeaderImage", "updateHeaderTitle",
				"updateHeaderDescription", "updateSettings", "selectElement",
				"toggleTheme", "reset",
			),
			mcp.Description("Command to execute"),
		),
		mcp.WithObject("args", mcp.Description("Command arguments: name, index, from, to, type, field_id, id, and a patch object for update commands")),
		mcp.WithString("client_id", mcp.Description("ID of the calling client, used for change notifications")),
	)
}

func historyTool() mcp.Tool {
	return mcp.NewTool("formforge.history",
		mcp.WithDescription("Undo or redo the last command, or report history status"),
		mcp.WithString("action", mcp.Required(),
			mcp.Enum("undo", "redo", "status"),
			mcp.Description("History action"),
		),
	)
}

func queryTool() mcp.Tool {
	return mcp.NewTool("formforge.query",
		mcp.WithDescription("Inspect the form document"),
		mcp.WithString("resource", mcp.Required(),
			mcp.Enum("document", "field", "fields", "selection", "triggers", "path"),
			mcp.Description("What to query: the whole document, one field, all fields, the current selection, eligible condition triggers for a field, or a dotted path"),
		),
		mcp.WithString("field_id", mcp.Description("Field ID (for field and triggers queries)")),
		mcp.WithString("path", mcp.Description("Dotted path, e.g. steps.0.fields.1.label (for path queries)")),
		mcp.WithString("default", mcp.Description("Fallback value for missing paths")),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("formforge.validate",
		mcp.WithDescription("Validate a single field value or a full submission"),
		mcp.WithString("scope", mcp.Required(),
			mcp.Enum("field", "form"),
			mcp.Description("Validation scope"),
		),
		mcp.WithString("field_id", mcp.Description("Field ID (required for field scope)")),
		mcp.WithString("value", mcp.Description("Value to validate (field scope)")),
		mcp.WithObject("values", mcp.Description("All submission values keyed by field ID")),
	)
}

func exportTool() mcp.Tool {
	return mcp.NewTool("formforge.export",
		mcp.WithDescription("Export the form document as portable JSON"),
	)
}

func importTool() mcp.Tool {
	return mcp.NewTool("formforge.import",
		mcp.WithDescription("Replace the form document from portable JSON. Clears history"),
		mcp.WithString("document", mcp.Required(), mcp.Description("Exchange document as a JSON string")),
	)
}
