// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes NeuroNote tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/neuronote/internal/apperr"
	"github.com/starford/neuronote/internal/notebook"
	"github.com/starford/neuronote/internal/noteservice"
	"github.com/starford/neuronote/internal/summarizer"
)

// DefaultSummaryTimeout bounds how long summarize_note waits.
const DefaultSummaryTimeout = 30 * time.Second

// Server wraps the MCP server with NeuroNote tools.
type Server struct {
	mcp            *server.MCPServer
	svc            *noteservice.Service
	summaryTimeout time.Duration
}

type noteJSON struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Summary  string `json:"summary,omitempty"`
	Pending  bool   `json:"pending,omitempty"`
	Category string `json:"category"`
}

func noteView(e notebook.Entry) noteJSON {
	return noteJSON{
		Position: e.Position,
		Title:    e.Note.Title,
		Content:  e.Note.Content,
		Summary:  e.Summary,
		Pending:  e.Pending,
		Category: summarizer.Categorize(e.Note),
	}
}

// New creates a new MCP server with all NeuroNote tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc, summaryTimeout: DefaultSummaryTimeout}

	s.mcp = server.NewMCPServer(
		"NeuroNote",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List active notes with their position, title, summary and category."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note by its position in the list."),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("Zero-based note position")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Both title and content are required."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note content; #hashtags set its category")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("edit_note",
		mcp.WithDescription("Replace the title and content of a note. Its summary is cleared."),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("Zero-based note position")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New content")),
	), s.editNote)

	s.mcp.AddTool(mcp.NewTool("trash_note",
		mcp.WithDescription("Move a note to the trash. Positions after it shift down by one."),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("Zero-based note position")),
	), s.trashNote)

	s.mcp.AddTool(mcp.NewTool("list_trash",
		mcp.WithDescription("List trashed notes with their trash position."),
	), s.listTrash)

	s.mcp.AddTool(mcp.NewTool("restore_note",
		mcp.WithDescription("Restore a trashed note to the end of the note list."),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("Zero-based trash position")),
	), s.restoreNote)

	s.mcp.AddTool(mcp.NewTool("summarize_note",
		mcp.WithDescription("Summarize a note and wait for the result."),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("Zero-based note position")),
	), s.summarizeNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles, content and summaries, including the trash."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("import_note",
		mcp.WithDescription("Import a Markdown file as a note. Read the import format first via "+
			"the "+ImportFormatURI+" resource."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or base64 data: URI of the Markdown file")),
		mcp.WithString("name", mcp.Description("File name used as the title when the file has none")),
	), s.importNote)

	s.mcp.AddResource(
		mcp.NewResource(ImportFormatURI, "Import Format",
			mcp.WithResourceDescription("How Markdown files map onto notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readImportFormat,
	)

	return s
}

// ServeStdio serves MCP on stdin/stdout until ctx is cancelled or stdin
// is closed.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Listen(ctx, os.Stdin, os.Stdout)
}

// Listen serves MCP over the given streams.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func position(req mcp.CallToolRequest) (int, error) {
	i, err := req.RequireInt("position")
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, fmt.Errorf("position must not be negative")
	}
	return i, nil
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries := s.svc.List(ctx)
	out := make([]noteJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, noteView(e))
	}
	return jsonResult(out)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := position(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.Get(ctx, i)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no note at position %d", i)), nil
	}
	return jsonResult(noteView(e))
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.Save(ctx, title, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %d", e.Position)), nil
}

func (s *Server) editNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := position(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	changed, err := s.svc.Edit(ctx, i, title, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !changed {
		return mcp.NewToolResultError(fmt.Sprintf("no note at position %d", i)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %d", i)), nil
}

func (s *Server) trashNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := position(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	changed, err := s.svc.MoveToTrash(ctx, i)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !changed {
		return mcp.NewToolResultError(fmt.Sprintf("no note at position %d", i)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("trashed: %d", i)), nil
}

func (s *Server) listTrash(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes := s.svc.Trash(ctx)
	out := make([]noteJSON, 0, len(notes))
	for i, n := range notes {
		out = append(out, noteJSON{Position: i, Title: n.Title, Content: n.Content, Category: summarizer.Categorize(n)})
	}
	return jsonResult(out)
}

func (s *Server) restoreNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := position(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pos, changed, err := s.svc.Restore(ctx, i)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !changed {
		return mcp.NewToolResultError(fmt.Sprintf("no trashed note at position %d", i)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("restored: %d", pos)), nil
}

func (s *Server) summarizeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := position(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := s.svc.Summarize(ctx, i)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no note at position %d", i)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.summaryTimeout)
	defer cancel()
	summary, applied, err := task.Wait(waitCtx)
	if waitCtx.Err() != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary still running: %v", waitCtx.Err())), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary not saved: %v", err)), nil
	}
	if !applied {
		return mcp.NewToolResultError("note changed while summarizing; summary discarded"), nil
	}
	return mcp.NewToolResultText(summary), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readImportFormat(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ImportFormatURI,
			MIMEType: "text/markdown",
			Text:     ImportFormat,
		},
	}, nil
}
