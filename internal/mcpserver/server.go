// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the manuscript to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/quillmark/internal/autocomplete"
	"github.com/starford/quillmark/internal/project"
)

// ChapterFormatURI identifies the chapter format resource.
const ChapterFormatURI = "quillmark://chapter-format"

// Server wraps the MCP server with manuscript tools.
type Server struct {
	mcp     *server.MCPServer
	project *project.Project
}

// New creates a new MCP server with all tools registered.
func New(p *project.Project, version string) *Server {
	s := &Server{project: p}

	s.mcp = server.NewMCPServer(
		"Quillmark",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_chapters",
		mcp.WithDescription("List chapters in reading order with title, order and word count."),
	), s.listChapters)

	s.mcp.AddTool(mcp.NewTool("read_chapter",
		mcp.WithDescription("Read a chapter's metadata and prose body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Chapter id, the file name without .md (e.g. 001-the-beginning)")),
	), s.readChapter)

	s.mcp.AddTool(mcp.NewTool("create_chapter",
		mcp.WithDescription("Create a chapter ordered after all existing ones. "+
			"Read the format first via get_chapter_contract or the "+ChapterFormatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Chapter title")),
		mcp.WithString("body", mcp.Description("Optional prose body")),
	), s.createChapter)

	s.mcp.AddTool(mcp.NewTool("search_manuscript",
		mcp.WithDescription("Full-text search through chapter titles, tags and prose."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchManuscript)

	s.mcp.AddTool(mcp.NewTool("list_characters",
		mcp.WithDescription("List the character catalog."),
	), s.listCharacters)

	s.mcp.AddTool(mcp.NewTool("list_locations",
		mcp.WithDescription("List the location catalog with its hierarchy."),
	), s.listLocations)

	s.mcp.AddTool(mcp.NewTool("autocomplete_entities",
		mcp.WithDescription("Suggest active characters and locations whose name contains the query."),
		mcp.WithString("query", mcp.Description("Name fragment; empty lists every active entity")),
	), s.autocompleteEntities)

	s.mcp.AddTool(mcp.NewTool("get_chapter_contract",
		mcp.WithDescription("Returns the chapter file format. "+
			"Call this before creating chapters to ensure correct structure."),
	), s.getChapterContract)

	s.mcp.AddResource(
		mcp.NewResource(ChapterFormatURI, "Chapter Format Contract",
			mcp.WithResourceDescription("Frontmatter and body layout every chapter file follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readChapterFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listChapters(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.project.ListChapters()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list), nil
}

func (s *Server) readChapter(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ch, err := s.project.LoadChapter(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\norder: %d\n", ch.Meta.Title, ch.Meta.Order)
	if len(ch.Meta.Tags) > 0 {
		fmt.Fprintf(&b, "tags: %s\n", strings.Join(ch.Meta.Tags, ", "))
	}
	if len(ch.Meta.CharacterIDs) > 0 {
		cat := s.project.Catalog()
		names := make([]string, 0, len(ch.Meta.CharacterIDs))
		for _, cid := range ch.Meta.CharacterIDs {
			if c, ok := cat.Character(cid); ok {
				names = append(names, c.Name)
			} else {
				names = append(names, cid)
			}
		}
		fmt.Fprintf(&b, "characters: %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\n")
	b.WriteString(ch.Body)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) createChapter(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body := req.GetString("body", "")

	ch, err := s.project.AddChapter(title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if body != "" {
		if err := s.project.SaveChapter(ch.ID, ch.Meta, body); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", ch.ID)), nil
}

func (s *Server) searchManuscript(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.project.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) listCharacters(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.project.Catalog().Characters()), nil
}

func (s *Server) listLocations(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.project.Catalog().Locations()), nil
}

func (s *Server) autocompleteEntities(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := autocomplete.Suggest(req.GetString("query", ""), s.project.Catalog())
	if len(items) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return jsonResult(items), nil
}

func (s *Server) getChapterContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ChapterFormatContract), nil
}

func (s *Server) readChapterFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ChapterFormatURI,
			MIMEType: "text/markdown",
			Text:     ChapterFormatContract,
		},
	}, nil
}
