package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HolgerKurtz/meta-ads-insights/internal/fetch"
	"github.com/HolgerKurtz/meta-ads-insights/internal/service"
)

// Version is reported to MCP clients during initialization.
const Version = "0.1.0"

// Cache is the fetch cache surface the purge tool needs.
type Cache interface {
	Stats() fetch.Stats
	Purge()
}

// Options configures an MCPServer.
type Options struct {
	// AccessToken is used when a tool call does not pass one.
	AccessToken string
	Logger      *slog.Logger
}

// MCPServer wraps the mcp-go server with the insights tools and the schema
// resource, so agents can discover selections, build request URLs and run
// queries.
type MCPServer struct {
	svc         *service.InsightsService
	cache       Cache
	accessToken string
	logger      *slog.Logger
	server      *server.MCPServer
}

// NewMCPServer creates an MCPServer with every tool and resource registered.
// The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(svc *service.InsightsService, cache Cache, opts Options) *MCPServer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &MCPServer{
		svc:         svc,
		cache:       cache,
		accessToken: opts.AccessToken,
		logger:      logger,
	}

	mcpServer := server.NewMCPServer(
		"Meta Ads Insights",
		Version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, for clients that launch
// the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

// remoteReadAnnotation marks tools that read from the Graph API.
func remoteReadAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:  boolPtr(true),
		OpenWorldHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
