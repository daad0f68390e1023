// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the knowledge base and host bridge as tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fernwell/nodeatlas/internal/catalog"
	"github.com/fernwell/nodeatlas/internal/connection"
	"github.com/fernwell/nodeatlas/internal/manager"
	"github.com/fernwell/nodeatlas/internal/resolver"
)

// Server wraps the MCP server with nodeatlas tools.
type Server struct {
	mcp      *server.MCPServer
	res      *resolver.Resolver
	cat      catalog.Catalog
	analyzer *connection.Analyzer
	mgr      *manager.Manager
}

// New creates a new MCP server with all tools registered.
func New(res *resolver.Resolver, cat catalog.Catalog, analyzer *connection.Analyzer, mgr *manager.Manager) *Server {
	s := &Server{res: res, cat: cat, analyzer: analyzer, mgr: mgr}

	s.mcp = server.NewMCPServer(
		"NodeAtlas",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_component",
		mcp.WithDescription("Resolve a human node name to its authoritative type identifier. "+
			"Returns provenance tier, confidence score, and any ambiguity warnings."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name of the node type (e.g. Box)")),
	), s.resolveComponent)

	s.mcp.AddTool(mcp.NewTool("search_types",
		mcp.WithDescription("Search the mined type catalogue by name substring."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Case-insensitive name fragment")),
	), s.searchTypes)

	s.mcp.AddTool(mcp.NewTool("recommend_connections",
		mcp.WithDescription("For a node type, list the types that typically precede and follow it, "+
			"and what usually feeds each of its inputs."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Node type display name")),
	), s.recommendConnections)

	s.mcp.AddTool(mcp.NewTool("top_patterns",
		mcp.WithDescription("List the most common output-to-input connection patterns in the corpus."),
		mcp.WithNumber("limit", mcp.Description("Maximum patterns to return (default 20)")),
	), s.topPatterns)

	s.mcp.AddTool(mcp.NewTool("create_component",
		mcp.WithDescription("Create a component on the live host canvas at the given coordinates. "+
			"Pass a logical_key to register the created id for later assembly steps."),
		mcp.WithString("guid", mcp.Required(), mcp.Description("Authoritative type identifier")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Canvas x coordinate")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Canvas y coordinate")),
		mcp.WithString("logical_key", mcp.Description("Optional logical name for the created component")),
	), s.createComponent)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) resolveComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(s.res.Resolve(ctx, name), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := s.cat.SearchTypes(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no matching types"), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) recommendConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeName, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, ok := s.analyzer.Recommendations(typeName)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("no connection data for type %q", typeName)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) topPatterns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	rows, err := s.cat.TopPatterns(limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	guid, err := req.RequireString("guid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, err := req.RequireFloat("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := req.RequireFloat("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cr := manager.CreateRequest{GUID: guid, X: x, Y: y, LogicalKey: req.GetString("logical_key", "")}
	if err := cr.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hostID, err := s.mgr.Create(ctx, cr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", hostID)), nil
}
