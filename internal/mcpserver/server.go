// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Upkeep maintenance tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ravlen/upkeep/internal/maintsvc"
	"github.com/ravlen/upkeep/internal/models"
	"github.com/ravlen/upkeep/internal/store"
)

// Server wraps the MCP server with Upkeep tools.
type Server struct {
	mcp *server.MCPServer
	svc *maintsvc.Service
}

// New creates a new MCP server with all Upkeep tools registered.
func New(svc *maintsvc.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Upkeep",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_maintenance",
		mcp.WithDescription("List maintenance records with derived status (pending/overdue/completed)."),
		mcp.WithString("frequency", mcp.Description("Optional frequency filter (daily, weekly, monthly, quarterly, semi_annual, annual, custom)")),
		mcp.WithString("limit", mcp.Description("Optional max number of records (default 20)")),
	), s.listMaintenance)

	s.mcp.AddTool(mcp.NewTool("get_maintenance",
		mcp.WithDescription("Read a single maintenance record by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.getMaintenance)

	s.mcp.AddTool(mcp.NewTool("create_maintenance",
		mcp.WithDescription("Create a new maintenance record. Dates MUST use the wire format "+
			"YYYY-MM-DDTHH:mm with no timezone suffix. Read the record contract first via "+
			"the get_record_contract tool or the upkeep://record-format resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Record title")),
		mcp.WithString("scheduled_date", mcp.Required(), mcp.Description("Scheduled date-time in wire format")),
		mcp.WithString("frequency", mcp.Description("Recurrence frequency (default monthly)")),
		mcp.WithString("custom_days", mcp.Description("Interval in days, only when frequency is custom")),
		mcp.WithString("machine_ids", mcp.Description("Comma-separated machine ids")),
		mcp.WithString("notes", mcp.Description("Free-text notes")),
		mcp.WithString("assignee", mcp.Description("Assignee reference")),
	), s.createMaintenance)

	s.mcp.AddTool(mcp.NewTool("complete_maintenance",
		mcp.WithDescription("Mark a maintenance record completed. The completion date must fall "+
			"within 15 days of the scheduled date. Returns the record plus the next scheduled date."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithString("completed_date", mcp.Required(), mcp.Description("Completion date-time in wire format")),
	), s.completeMaintenance)

	s.mcp.AddTool(mcp.NewTool("search_maintenance",
		mcp.WithDescription("Full-text search through maintenance record titles and notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchMaintenance)

	s.mcp.AddTool(mcp.NewTool("match_templates",
		mcp.WithDescription("Filter the task template catalog to the templates relevant to the "+
			"given machines (by shared group id or explicit machine-template links)."),
		mcp.WithString("machine_ids", mcp.Required(), mcp.Description("Comma-separated machine ids (empty string returns the whole catalog)")),
	), s.matchTemplates)

	s.mcp.AddTool(mcp.NewTool("get_record_contract",
		mcp.WithDescription("Returns the canonical Upkeep record format contract. "+
			"Call this before creating or completing records to get dates and frequencies right."),
	), s.getRecordContract)

	// Resource: record format contract.
	s.mcp.AddResource(
		mcp.NewResource("upkeep://record-format", "Record Format Contract",
			mcp.WithResourceDescription("Canonical maintenance record format that all tool calls must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
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

func (s *Server) listMaintenance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.RecordFilter{}
	if f, err := req.RequireString("frequency"); err == nil {
		filter.Frequency = models.Frequency(f)
	}
	limit := 20
	if l, err := req.RequireString("limit"); err == nil {
		if n, convErr := strconv.Atoi(l); convErr == nil && n > 0 {
			limit = n
		}
	}

	records, total, err := s.svc.List(ctx, limit, 0, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"records": records, "total": total}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getMaintenance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createMaintenance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scheduled, err := req.RequireString("scheduled_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := maintsvc.RecordInput{Title: title, ScheduledDate: scheduled}
	if f, err := req.RequireString("frequency"); err == nil {
		in.Frequency = models.Frequency(f)
	}
	if d, err := req.RequireString("custom_days"); err == nil {
		if n, convErr := strconv.Atoi(d); convErr == nil {
			in.CustomDays = n
		}
	}
	if ids, err := req.RequireString("machine_ids"); err == nil {
		in.MachineIDs = splitIDs(ids)
	}
	if n, err := req.RequireString("notes"); err == nil {
		in.Notes = n
	}
	if a, err := req.RequireString("assignee"); err == nil {
		in.Assignee = a
	}

	rec, err := s.svc.Create(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) completeMaintenance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	completed, err := req.RequireString("completed_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, next, err := s.svc.Complete(ctx, id, completed)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"record": rec, "next_scheduled_date": next}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchMaintenance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) matchTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := req.RequireString("machine_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	templates, err := s.svc.MatchTemplates(ctx, splitIDs(ids))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(templates, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecordContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "upkeep://record-format",
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}

// splitIDs parses a comma-separated id list, dropping empty entries.
func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
