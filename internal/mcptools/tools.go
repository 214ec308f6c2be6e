// Package mcptools exposes the session journal, transcripts and extraction
// results as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jwulff/scribe/internal/db"
	"github.com/jwulff/scribe/internal/doctor"
	"github.com/jwulff/scribe/internal/extract"
)

// Journal is the read side of the session journal.
type Journal interface {
	Session(id string) (*db.Session, error)
	RecentSessions(limit int) ([]db.Session, error)
}

// Files reads flushed transcripts and saved extraction results.
type Files interface {
	ReadTranscript(path string) (string, error)
	LoadResult(path string, v any) error
}

// Tools serves MCP tool calls over the journal and the data directory.
type Tools struct {
	journal Journal
	files   Files
}

// New creates the tool handlers.
func New(journal Journal, files Files) *Tools {
	return &Tools{journal: journal, files: files}
}

// NewServer creates an MCP server with every tool registered.
func NewServer(t *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer("scribe", version, server.WithToolCapabilities(false))
	t.Register(s)
	return s
}

// Register adds the tools to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List recent recording sessions, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions (default 20).")),
	), t.ListSessions)

	s.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get one recording session by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session id.")),
	), t.GetSession)

	s.AddTool(mcp.NewTool("get_transcript",
		mcp.WithDescription("Get the flushed transcript text of a session."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session id.")),
	), t.GetTranscript)

	s.AddTool(mcp.NewTool("get_result",
		mcp.WithDescription("Get the structured extraction result of a finished session."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session id.")),
	), t.GetResult)
}

type sessionView struct {
	ID             string `json:"id"`
	Doctor         string `json:"doctor"`
	Specialization string `json:"specialization"`
	Patient        string `json:"patient"`
	StartedAt      string `json:"startedAt"`
	EndedAt        string `json:"endedAt,omitempty"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	TranscriptPath string `json:"transcriptPath"`
	ResultPath     string `json:"resultPath,omitempty"`
	ReportPath     string `json:"reportPath,omitempty"`
}

func viewOf(s db.Session) sessionView {
	v := sessionView{
		ID:             s.ID,
		Doctor:         s.Doctor,
		Specialization: doctor.Specialization(s.Specialization).Label(),
		Patient:        s.Patient,
		StartedAt:      s.StartedAt.Format(time.RFC3339),
		Status:         s.Status,
		Reason:         s.Reason,
		TranscriptPath: s.TranscriptPath,
		ResultPath:     s.ResultPath,
		ReportPath:     s.ReportPath,
	}
	if s.EndedAt != nil {
		v.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return v
}

// ListSessions handles list_sessions.
func (t *Tools) ListSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	sessions, err := t.journal.RecentSessions(limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, viewOf(s))
	}
	return jsonResult(views)
}

// GetSession handles get_session.
func (t *Tools) GetSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.lookup(req)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(viewOf(*sess))
}

// GetTranscript handles get_transcript.
func (t *Tools) GetTranscript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.lookup(req)
	if errResult != nil {
		return errResult, nil
	}
	text, err := t.files.ReadTranscript(sess.TranscriptPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("transcript of session %s is not available: %v", sess.ID, err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// GetResult handles get_result.
func (t *Tools) GetResult(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.lookup(req)
	if errResult != nil {
		return errResult, nil
	}
	if sess.ResultPath == "" {
		return mcp.NewToolResultError(fmt.Sprintf("session %s has no result (status %s)", sess.ID, sess.Status)), nil
	}
	var res extract.Result
	if err := t.files.LoadResult(sess.ResultPath, &res); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load result: %v", err)), nil
	}
	return jsonResult(res)
}

func (t *Tools) lookup(req mcp.CallToolRequest) (*db.Session, *mcp.CallToolResult) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	sess, err := t.journal.Session(id)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	if sess == nil {
		return nil, mcp.NewToolResultError("session not found: " + id)
	}
	return sess, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
