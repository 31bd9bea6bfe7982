package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/folio/internal/aggregate"
	"github.com/joescharf/folio/internal/models"
	"github.com/joescharf/folio/internal/portfolio"
	"github.com/joescharf/folio/internal/refresh"
)

// Server exposes the portfolio configuration and pipeline as MCP tools.
// It runs over stdio for the site owner, so no admin session is required.
type Server struct {
	cfg    *portfolio.ConfigStore
	syncer *refresh.Syncer
}

// NewServer creates the MCP server wrapper.
func NewServer(cfg *portfolio.ConfigStore, syncer *refresh.Syncer) *Server {
	return &Server{cfg: cfg, syncer: syncer}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("folio", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listProjectsTool())
	srv.AddTool(s.projectStatsTool())
	srv.AddTool(s.listReposTool())
	srv.AddTool(s.selectRepoTool())
	srv.AddTool(s.toggleFeaturedTool())
	srv.AddTool(s.toggleHiddenTool())
	srv.AddTool(s.shareURLTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// folio_list_projects
func (s *Server) listProjectsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("folio_list_projects",
		mcp.WithDescription("List the projects shown on the portfolio site after selection, hidden and category filters. Returns a JSON array."),
		mcp.WithString("category", mcp.Description("Only projects in this category, e.g. \"Game Development\"")),
		mcp.WithBoolean("featured", mcp.Description("Only featured projects")),
	)
	return tool, s.handleListProjects
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.syncer.Projects(ctx, nil, false)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	projects := res.Projects
	if category := request.GetString("category", ""); category != "" {
		projects = aggregate.ByCategory(projects, models.Category(category))
	}
	if request.GetBool("featured", false) {
		projects = aggregate.Featured(projects)
	}

	type projectOut struct {
		Name     string          `json:"name"`
		Category models.Category `json:"category"`
		Status   models.Status   `json:"status"`
		Featured bool            `json:"featured"`
		Stars    int             `json:"stars"`
		Link     string          `json:"link,omitempty"`
		Custom   bool            `json:"custom,omitempty"`
	}

	out := make([]projectOut, len(projects))
	for i, p := range projects {
		out[i] = projectOut{
			Name:     p.Name,
			Category: p.Category,
			Status:   p.Status,
			Featured: p.Featured,
			Stars:    p.Stars,
			Link:     p.Link,
			Custom:   p.IsCustom,
		}
	}
	return jsonResult(out)
}

// folio_project_stats
func (s *Server) projectStatsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("folio_project_stats",
		mcp.WithDescription("Summarize the visible projects: totals, counts per category and status, stars, forks and languages."),
	)
	return tool, s.handleProjectStats
}

func (s *Server) handleProjectStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.syncer.Projects(ctx, nil, false)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute stats: %v", err)), nil
	}
	return jsonResult(res.Stats)
}

// folio_list_repos
func (s *Server) listReposTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("folio_list_repos",
		mcp.WithDescription("List every public GitHub repository of the owner plus the ones that are neither selected nor hidden yet."),
		mcp.WithBoolean("new_only", mcp.Description("Only return repositories not configured yet")),
	)
	return tool, s.handleListRepos
}

func (s *Server) handleListRepos(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.syncer.AllRepos(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list repositories: %v", err)), nil
	}
	if request.GetBool("new_only", false) {
		return jsonResult(res.NewRepos)
	}
	return jsonResult(res)
}

// folio_select_repo
func (s *Server) selectRepoTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("folio_select_repo",
		mcp.WithDescription("Add a repository to the portfolio, or remove it with remove=true. Removing also clears its featured and hidden flags."),
		mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
		mcp.WithBoolean("remove", mcp.Description("Unselect instead of select")),
	)
	return tool, s.handleSelectRepo
}

func (s *Server) handleSelectRepo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("repo")
	if err != nil {
		return mcp.NewToolResultError("repo is required"), nil
	}

	verb := "Selected"
	if request.GetBool("remove", false) {
		verb = "Unselected"
		err = s.cfg.RemoveSelectedRepo(ctx, name)
	} else {
		err = s.cfg.AddSelectedRepo(ctx, name)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update selection: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %s", verb, name)), nil
}

// folio_toggle_featured
func (s *Server) toggleFeaturedTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("folio_toggle_featured",
		mcp.WithDescription("Toggle whether a repository is featured on the site."),
		mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
	)
	return tool, s.handleToggleFeatured
}

func (s *Server) handleToggleFeatured(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.toggle(ctx, request, "featured", s.cfg.ToggleFeaturedRepo)
}

// folio_toggle_hidden
func (s *Server) toggleHiddenTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("folio_toggle_hidden",
		mcp.WithDescription("Toggle whether a repository is hidden from the site."),
		mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
	)
	return tool, s.handleToggleHidden
}

func (s *Server) handleToggleHidden(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.toggle(ctx, request, "hidden", s.cfg.ToggleHiddenRepo)
}

func (s *Server) toggle(ctx context.Context, request mcp.CallToolRequest, flag string, fn func(context.Context, string) (bool, error)) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("repo")
	if err != nil {
		return mcp.NewToolResultError("repo is required"), nil
	}
	on, err := fn(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to toggle %s: %v", flag, err)), nil
	}
	state := "no longer " + flag
	if on {
		state = "now " + flag
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s is %s", name, state)), nil
}

// folio_share_url
func (s *Server) shareURLTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("folio_share_url",
		mcp.WithDescription("Build a share link that reproduces the current featured, hidden and category choices."),
		mcp.WithString("base", mcp.Required(), mcp.Description("Site base URL, e.g. https://example.dev")),
	)
	return tool, s.handleShareURL
}

func (s *Server) handleShareURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	base, err := request.RequireString("base")
	if err != nil {
		return mcp.NewToolResultError("base is required"), nil
	}
	link, err := s.cfg.GenerateSyncURL(ctx, base)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build share URL: %v", err)), nil
	}
	return mcp.NewToolResultText(link), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
