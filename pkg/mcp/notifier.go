package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/formforge/formforge/internal/streaming"
)

// ClientNotifier pushes notifications to connected clients.
type ClientNotifier interface {
	Notify(ctx context.Context, clientID string, payload map[string]any) error
}

// MCPNotifier implements ClientNotifier using MCP push notifications.
type MCPNotifier struct {
	mcpServer *server.MCPServer
	sessions  *SessionRegistry
	logger    *slog.Logger
}

// NewMCPNotifier creates a notifier that pushes document-change
// notifications to registered sessions.
func NewMCPNotifier(mcpServer *server.MCPServer, sessions *SessionRegistry, logger *slog.Logger) *MCPNotifier {
	return &MCPNotifier{mcpServer: mcpServer, sessions: sessions, logger: logger}
}

// Notify sends a notification to the client's session.
// Best-effort: returns nil if the client is not connected.
func (n *MCPNotifier) Notify(_ context.Context, clientID string, payload map[string]any) error {
	sessionID, ok := n.sessions.SessionFor(clientID)
	if !ok {
		return nil // client not connected, best-effort
	}
	err := n.mcpServer.SendNotificationToSpecificClient(sessionID, "notifications/message", payload)
	if errors.Is(err, server.ErrSessionNotFound) {
		// Session expired between lookup and send — not an error.
		n.sessions.Remove(sessionID)
		return nil
	}
	return err
}

// Watch forwards builder events to every registered session until the
// channel closes or ctx is cancelled. Run it in its own goroutine.
func (n *MCPNotifier) Watch(ctx context.Context, events <-chan streaming.BuilderEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			n.broadcast(event)
		}
	}
}

func (n *MCPNotifier) broadcast(event streaming.BuilderEvent) {
	payload := map[string]any{
		"project_id": event.ProjectID,
		"event_type": event.EventType,
		"command":    event.Command,
	}
	if event.Snapshot != nil {
		payload["steps"] = len(event.Snapshot.Steps)
	}

	for _, sessionID := range n.sessions.All() {
		err := n.mcpServer.SendNotificationToSpecificClient(sessionID, "notifications/message", payload)
		if errors.Is(err, server.ErrSessionNotFound) {
			n.sessions.Remove(sessionID)
			continue
		}
		if err != nil && n.logger != nil {
			n.logger.Warn("change notification failed",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}
}
