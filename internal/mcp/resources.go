package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const schemaURI = "adinsights://schema"

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			schemaURI,
			"Insights Schema",
			mcp.WithResourceDescription(
				"Selectable levels, date presets, time increments, breakdowns, fields " +
					"and conversion goals, with the default selection and field types.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleSchemaResource,
	)
}

// handleSchemaResource returns the registry as JSON.
func (s *MCPServer) handleSchemaResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	b, err := json.MarshalIndent(s.svc.Registry().File(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemaURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
