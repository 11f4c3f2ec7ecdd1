package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/flagbridge/pkg/resolver"
	"github.com/rendis/flagbridge/pkg/schema"
)

// RecordNotifier is a resolver.Sink that pushes tracked records to the MCP
// client session that triggered the resolution.
type RecordNotifier struct {
	mcpServer *server.MCPServer
}

// NewRecordNotifier creates a notifier bound to mcpServer.
func NewRecordNotifier(mcpServer *server.MCPServer) *RecordNotifier {
	return &RecordNotifier{mcpServer: mcpServer}
}

// Add sends a "notifications/message" with the records.
// Best-effort: returns nil when the call has no client session.
func (n *RecordNotifier) Add(ctx context.Context, flagKey string, records schema.Records) error {
	session := server.ClientSessionFromContext(ctx)
	if session == nil {
		return nil
	}
	err := n.mcpServer.SendNotificationToSpecificClient(session.SessionID(), "notifications/message", map[string]any{
		"level":  "info",
		"logger": "flagbridge.tracking",
		"data": map[string]any{
			"flagKey": flagKey,
			"records": records,
		},
	})
	if errors.Is(err, server.ErrSessionNotFound) {
		// Session closed between lookup and send.
		return nil
	}
	return err
}

var _ resolver.Sink = (*RecordNotifier)(nil)
