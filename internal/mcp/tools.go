package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hyperjump/modelindex/internal/cli"
	"github.com/hyperjump/modelindex/internal/fileid"
	"github.com/hyperjump/modelindex/internal/indexer"
	"github.com/hyperjump/modelindex/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

func (s *Server) store() *indexer.Store {
	return s.project.Indexer().Current()
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.store()
	status := map[string]interface{}{
		"root":             s.project.Root(),
		"pass_id":          st.PassID(),
		"generation":       st.Generation(),
		"files":            st.Len(),
		"ids":              len(st.IDs()),
		"failures":         len(st.AllErrors()),
		"warnings":         len(st.Warnings()),
		"unresolved_links": len(st.UnresolvedLinks()),
	}
	persisted, err := s.project.Persisted(ctx)
	if err != nil {
		s.logger.Warn("mcp status: reading stored snapshot failed", zap.Error(err))
	} else if persisted != nil {
		status["persisted"] = persisted
	}
	return jsonResult(status)
}

func (s *Server) handleResolveID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := stringArg(request.GetArguments(), "id")
	if id == "" {
		return mcp.NewToolResultError("id argument required"), nil
	}
	return jsonResult(map[string]interface{}{"id": id, "uris": s.store().ResolveID(id)})
}

func (s *Server) handleReferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := stringArg(request.GetArguments(), "id")
	if id == "" {
		return mcp.NewToolResultError("id argument required"), nil
	}
	return jsonResult(cli.NewRefsReport(s.store(), id))
}

func (s *Server) handleMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	uri := stringArg(args, "uri")
	if uri == "" {
		if path := stringArg(args, "path"); path != "" {
			if !filepath.IsAbs(path) {
				path = filepath.Join(s.project.Root(), path)
			}
			uri = fileid.URI(filepath.Clean(path))
		}
	}
	if uri == "" {
		return mcp.NewToolResultError("uri or path argument required"), nil
	}
	meta, ok := s.store().GetMetadata(uri)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%s is not indexed", uri)), nil
	}
	return jsonResult(map[string]interface{}{"uri": uri, "metadata": meta})
}

func (s *Server) handleLint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(cli.NewLintReport(s.store()))
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query := &models.SearchQuery{
		Query: stringArg(args, "query"),
		Type:  stringArg(args, "type"),
	}
	// JSON numbers decode as float64.
	if l, ok := args["limit"].(float64); ok {
		query.Limit = int(l)
	}
	if f, ok := args["fuzzy"].(bool); ok {
		query.FuzzyEnabled = f
	}
	resp, err := s.search.Search(ctx, s.store(), query)
	if errors.Is(err, models.ErrEmptyQuery) {
		return mcp.NewToolResultError("query argument required"), nil
	}
	if err != nil {
		s.logger.Error("mcp search failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleReindex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := s.project.Reindex(ctx)
	if err != nil {
		s.logger.Error("mcp reindex failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("reindex failed: %v", err)), nil
	}
	return jsonResult(cli.NewIndexSummary(store))
}
