package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formforge/formforge/internal/builder"
)

func newTestServer(t *testing.T) *BuilderServer {
	t.Helper()
	b, err := builder.New(context.Background())
	require.NoError(t, err)
	return NewBuilderServer(BuilderServerDeps{Builder: b})
}

func TestNewBuilderServer(t *testing.T) {
	s := newTestServer(t)
	require.NotNil(t, s)
	assert.NotNil(t, s.mcpServer)
	assert.NotNil(t, s.logger)
	assert.NotNil(t, s.sessions)
}

func TestToolRegistration(t *testing.T) {
	s := newTestServer(t)

	tools := s.mcpServer.ListTools()
	require.Len(t, tools, 6)

	expectedTools := []string{
		"formforge.command",
		"formforge.history",
		"formforge.query",
		"formforge.validate",
		"formforge.export",
		"formforge.import",
	}
	for _, name := range expectedTools {
		tool := s.mcpServer.GetTool(name)
		assert.NotNil(t, tool, "tool %s should be registered", name)
	}
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name        string
		toolName    string
		description string
	}{
		{"command", "formforge.command", "Execute a builder command against the form document"},
		{"history", "formforge.history", "Undo or redo the last command, or report history status"},
		{"query", "formforge.query", "Inspect the form document"},
		{"validate", "formforge.validate", "Validate a single field value or a full submission"},
		{"export", "formforge.export", "Export the form document as portable JSON"},
		{"import", "formforge.import", "Replace the form document from portable JSON. Clears history"},
	}

	s := newTestServer(t)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tool := s.mcpServer.GetTool(tc.toolName)
			require.NotNil(t, tool)
			assert.Equal(t, tc.description, tool.Tool.Description)
		})
	}
}
