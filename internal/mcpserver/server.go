// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes campaign content tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ravenholt/lorekeep/internal/campaign"
	"github.com/ravenholt/lorekeep/internal/content"
)

// Server wraps the MCP server with content tools.
type Server struct {
	mcp       *server.MCPServer
	mgr       *content.Manager
	campaigns *campaign.Registry
}

// New creates a new MCP server with all content tools registered.
func New(mgr *content.Manager, campaigns *campaign.Registry) *Server {
	s := &Server{mgr: mgr, campaigns: campaigns}

	s.mcp = server.NewMCPServer(
		"Lorekeep",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_content",
		mcp.WithDescription("List content records of a type (npc, monster, player, item, session, note)."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Content type id")),
		mcp.WithString("campaign", mcp.Description("Campaign id (empty for the active campaign)")),
	), s.listContent)

	s.mcp.AddTool(mcp.NewTool("get_content",
		mcp.WithDescription("Read one content record including its Markdown body."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Content type id")),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Record slug")),
		mcp.WithString("campaign", mcp.Description("Campaign id (empty for the active campaign)")),
	), s.getContent)

	s.mcp.AddTool(mcp.NewTool("search_content",
		mcp.WithDescription("Search records of a type by substring across name, description, and body."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Content type id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithString("campaign", mcp.Description("Campaign id (empty for the active campaign)")),
	), s.searchContent)

	s.mcp.AddTool(mcp.NewTool("create_content",
		mcp.WithDescription("Create a content record. Frontmatter fields MUST follow the "+
			"content format contract; read it first via the get_content_contract tool or "+
			"the lorekeep://content-format resource."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Content type id")),
		mcp.WithString("fields", mcp.Required(), mcp.Description(`Frontmatter fields as a JSON object, e.g. {"name": "Elara"}`)),
		mcp.WithString("body", mcp.Description("Markdown body text")),
		mcp.WithString("campaign", mcp.Description("Campaign id (empty for the active campaign)")),
	), s.createContent)

	s.mcp.AddTool(mcp.NewTool("list_campaigns",
		mcp.WithDescription("List registered campaigns."),
	), s.listCampaigns)

	s.mcp.AddTool(mcp.NewTool("get_content_contract",
		mcp.WithDescription("Returns the canonical content format contract. "+
			"Call this before creating content to ensure correct structure."),
	), s.getContentContract)

	// Resource: content format contract.
	s.mcp.AddResource(
		mcp.NewResource("lorekeep://content-format", "Content Format Contract",
			mcp.WithResourceDescription("Canonical frontmatter format that all content records follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormatResource,
	)

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

func (s *Server) listContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeID, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	campaignID := req.GetString("campaign", "")

	result, aerr := s.mgr.Find(ctx, content.Query{Type: typeID, CampaignID: campaignID})
	if aerr != nil {
		return mcp.NewToolResultError(aerr.Error()), nil
	}

	var lines []string
	for _, rec := range result.Items {
		lines = append(lines, fmt.Sprintf("%s\t%s", rec.Slug, rec.Name()))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no content found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeID, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	campaignID := req.GetString("campaign", "")

	rec, aerr := s.mgr.Get(ctx, typeID, slug, campaignID, true)
	if aerr != nil {
		return mcp.NewToolResultError(aerr.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeID, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	campaignID := req.GetString("campaign", "")

	result, aerr := s.mgr.Find(ctx, content.Query{
		Type:       typeID,
		CampaignID: campaignID,
		Search:     query,
		Limit:      20,
	})
	if aerr != nil {
		return mcp.NewToolResultError(aerr.Error()), nil
	}
	out, _ := json.MarshalIndent(result.Items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeID, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldsJSON, err := req.RequireString("fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fields is not a JSON object: %v", err)), nil
	}

	rec, aerr := s.mgr.Create(ctx, content.CreateInput{
		Type:       typeID,
		CampaignID: req.GetString("campaign", ""),
		Fields:     fields,
		Body:       req.GetString("body", ""),
	})
	if aerr != nil {
		return mcp.NewToolResultError(aerr.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s/%s (campaign %s)", rec.Type, rec.Slug, rec.CampaignID)), nil
}

func (s *Server) listCampaigns(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.campaigns.List(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getContentContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentFormatContract), nil
}

func (s *Server) readContentFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "lorekeep://content-format",
			MIMEType: "text/markdown",
			Text:     ContentFormatContract,
		},
	}, nil
}
