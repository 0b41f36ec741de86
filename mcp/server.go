// Package mcp provides an MCP (Model Context Protocol) server for docdex.
// This allows AI agents to search and sync the document index as a native
// tool.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alpkeskin/gotoon"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yoanbernabeu/docdex/config"
	"github.com/yoanbernabeu/docdex/indexer"
	"github.com/yoanbernabeu/docdex/search"
	"github.com/yoanbernabeu/docdex/store"
)

// Server wraps the MCP server around long-lived docdex clients. The store
// and embedder connections are created once at startup and shared across
// tool calls.
type Server struct {
	mcpServer *server.MCPServer
	cfg       *config.Config
	searcher  *search.Searcher
	syncer    *indexer.Syncer
}

// encodeOutput encodes data in the specified format (json or toon).
func encodeOutput(data any, format string) (string, error) {
	switch format {
	case "toon":
		return gotoon.Encode(data)
	default: // "json"
		jsonBytes, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(jsonBytes), nil
	}
}

// NewServer creates a new MCP server for docdex.
func NewServer(cfg *config.Config, searcher *search.Searcher, syncer *indexer.Syncer) *Server {
	s := &Server{
		cfg:      cfg,
		searcher: searcher,
		syncer:   syncer,
	}

	s.mcpServer = server.NewMCPServer(
		"docdex",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	catalogTool := mcp.NewTool("docdex_catalog_search",
		mcp.WithDescription("Search the document catalog by meaning. Returns whole-document overviews with paths and similarity scores, best for finding which document covers a topic. Omit tenant to search every tenant merged by score."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language search query"),
		),
		mcp.WithString("tenant",
			mcp.Description("Tenant whose corpus to search (omit to search all tenants)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(catalogTool, s.handleCatalogSearch)

	chunksTool := mcp.NewTool("docdex_chunks_search",
		mcp.WithDescription("Search one tenant's document chunks by meaning. Returns fine-grained text spans, best for finding specific passages."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language search query"),
		),
		mcp.WithString("tenant",
			mcp.Required(),
			mcp.Description("Tenant whose corpus to search"),
		),
		mcp.WithString("source",
			mcp.Description("Restrict results to chunks of this exact document path (optional)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(chunksTool, s.handleChunksSearch)

	allChunksTool := mcp.NewTool("docdex_all_chunks_search",
		mcp.WithDescription("Search document chunks across every configured tenant, merged by similarity score. Each result carries its tenant."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of merged results to return (default: 10)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(allChunksTool, s.handleAllChunksSearch)

	statusTool := mcp.NewTool("docdex_status",
		mcp.WithDescription("Report the configured tenants with their catalog and chunk point counts."),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(statusTool, s.handleStatus)

	syncTool := mcp.NewTool("docdex_sync",
		mcp.WithDescription("Synchronize one tenant's corpus with the index. Returns counts of added, updated, skipped, deleted, and failed documents."),
		mcp.WithString("tenant",
			mcp.Required(),
			mcp.Description("Tenant to synchronize"),
		),
		mcp.WithBoolean("overwrite",
			mcp.Description("Re-index every document regardless of fingerprints (default: false)"),
		),
		mcp.WithBoolean("validate_only",
			mcp.Description("Classify changes without writing anything (default: false)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(syncTool, s.handleSync)
}

func (s *Server) handleCatalogSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	tenant := request.GetString("tenant", "")
	limit := request.GetInt("limit", 10)
	format := request.GetString("format", "json")
	if format != "json" && format != "toon" {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	var hits []store.CatalogHit
	if tenant == "" {
		hits, err = s.searcher.AllCatalog(ctx, query, limit)
	} else {
		hits, err = s.searcher.Catalog(ctx, query, tenant, limit)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	output, err := encodeOutput(hits, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleChunksSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	tenant, err := request.RequireString("tenant")
	if err != nil {
		return mcp.NewToolResultError("tenant parameter is required"), nil
	}

	source := request.GetString("source", "")
	limit := request.GetInt("limit", 10)
	format := request.GetString("format", "json")
	if format != "json" && format != "toon" {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	hits, err := s.searcher.Chunks(ctx, query, tenant, source, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	output, err := encodeOutput(hits, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleAllChunksSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	limit := request.GetInt("limit", 10)
	format := request.GetString("format", "json")
	if format != "json" && format != "toon" {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	hits, err := s.searcher.AllChunks(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	output, err := encodeOutput(hits, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "json")
	if format != "json" && format != "toon" {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	stats, err := s.searcher.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}

	output, err := encodeOutput(stats, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleSync(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tenant, err := request.RequireString("tenant")
	if err != nil {
		return mcp.NewToolResultError("tenant parameter is required"), nil
	}

	tc, err := s.cfg.Tenant(tenant)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	overwrite := request.GetBool("overwrite", false)
	validateOnly := request.GetBool("validate_only", false)
	format := request.GetString("format", "json")
	if format != "json" && format != "toon" {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	report, err := s.syncer.Sync(ctx, tenant, tc.Root, indexer.Options{
		Overwrite:    overwrite,
		ValidateOnly: validateOnly,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
	}

	output, err := encodeOutput(report, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode report: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}
