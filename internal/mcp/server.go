// Package mcp exposes the cross-reference index as Model Context Protocol
// tools over stdio, so editors and agents can resolve ids, follow references
// and lint a project without going through HTTP.
package mcp

import (
	"context"

	"github.com/hyperjump/modelindex/internal/config"
	"github.com/hyperjump/modelindex/internal/keyword"
	"github.com/hyperjump/modelindex/internal/project"
	"github.com/hyperjump/modelindex/internal/search"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ServerName is the MCP server name.
const ServerName = "modelindex"

// Server wraps the MCP server with the project it answers for.
type Server struct {
	mcp     *server.MCPServer
	project *project.Project
	search  *search.Engine // nil when no keyword index is configured
	logger  *zap.Logger
}

// NewServer creates an MCP server over p. kw may be nil, which disables the search tool.
func NewServer(p *project.Project, kw keyword.Index, cfg *config.SearchConfig, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp:     server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false)),
		project: p,
		logger:  logger,
	}
	if kw != nil {
		s.search = search.NewEngine(kw, cfg)
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func (s *Server) Serve(_ context.Context) error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("get_status",
			mcp.WithDescription("Summary of the current index: pass id, file count, failures and unresolved links."),
		),
		s.handleStatus,
	)
	s.mcp.AddTool(
		mcp.NewTool("resolve_id",
			mcp.WithDescription("List the files that declare a process, decision, form or RPA script id."),
			mcp.WithString("id", mcp.Required(), mcp.Description("The declared id to resolve")),
		),
		s.handleResolveID,
	)
	s.mcp.AddTool(
		mcp.NewTool("find_references",
			mcp.WithDescription("List where an id is declared and every element that links to it."),
			mcp.WithString("id", mcp.Required(), mcp.Description("The id to look up")),
		),
		s.handleReferences,
	)
	s.mcp.AddTool(
		mcp.NewTool("get_metadata",
			mcp.WithDescription("Metadata extracted from one indexed file."),
			mcp.WithString("uri", mcp.Description("File URI as returned by other tools")),
			mcp.WithString("path", mcp.Description("File path, absolute or relative to the project root; used when uri is empty")),
		),
		s.handleMetadata,
	)
	s.mcp.AddTool(
		mcp.NewTool("lint",
			mcp.WithDescription("Processing errors, parse warnings and links to ids no file declares."),
		),
		s.handleLint,
	)
	if s.search != nil {
		s.mcp.AddTool(
			mcp.NewTool("search",
				mcp.WithDescription("Keyword search over declared ids, script names and link targets."),
				mcp.WithString("query", mcp.Required(), mcp.Description("The search query string")),
				mcp.WithNumber("limit", mcp.Description("Max number of results (default 10)")),
				mcp.WithString("type", mcp.Description("Only files of this type: bpmn, dmn, form or rpa")),
				mcp.WithBoolean("fuzzy", mcp.Description("Enable typo-tolerant matching")),
			),
			s.handleSearch,
		)
	}
	s.mcp.AddTool(
		mcp.NewTool("reindex",
			mcp.WithDescription("Run a full indexing pass over the project root."),
		),
		s.handleReindex,
	)
}
