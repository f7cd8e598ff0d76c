package tools

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeindexd/codeindexd/internal/errs"
	"github.com/codeindexd/codeindexd/internal/registry"
)

func (s *Server) registerSessionTools() {
	s.addTool(&mcp.Tool{
		Name:        "create_session",
		Description: "Open a session bound to a working directory. Canonicalizes the path, creates or reuses the resident project at that root (running a synchronous scan so the project is queryable the instant this call returns), and starts background symbol extraction plus a filesystem watcher. Returns a session_id to pass to every other tool.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"cwd": {"type": "string", "description": "Absolute path to the project root."}
			},
			"required": ["cwd"]
		}`),
	}, s.handleCreateSession)

	s.addTool(&mcp.Tool{
		Name:        "destroy_session",
		Description: "Explicitly close a session, unbinding it from its project.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"}
			},
			"required": ["session_id"]
		}`),
	}, s.handleDestroySession)

	s.addTool(&mcp.Tool{
		Name:        "list_roots",
		Description: "List every resident project: root path, file count, symbol count, last-active time, and bound session count.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleListRoots)

	s.addTool(&mcp.Tool{
		Name:        "list_sessions",
		Description: "List every tracked session: session_id, bound root, creation time, and whether its project has since been evicted.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleListSessions)

	s.addTool(&mcp.Tool{
		Name:        "history",
		Description: "Return recorded request history, most recent last. With session_id, returns that session's ring buffer; without it, returns every session's entries merged in chronological order. limit caps the number of entries returned (0 = no cap).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"limit": {"type": "integer"}
			}
		}`),
	}, s.handleHistory)

	s.addTool(&mcp.Tool{
		Name:        "health",
		Description: "Report resident project count, open session count, and the configured max_projects capacity.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleHealth)
}

func (s *Server) handleCreateSession(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	cwd := getStringArg(args, "cwd")
	if cwd == "" {
		return errResult("cwd is required"), nil
	}

	session, err := s.reg.CreateSession(ctx, cwd)
	if err != nil {
		return errForCode(err), nil
	}
	return jsonResult(map[string]any{
		"session_id": session.ID(),
		"root":       session.Root(),
	}), nil
}

func (s *Server) handleDestroySession(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	id := getStringArg(args, "session_id")
	if id == "" {
		return errResult("session_id is required"), nil
	}
	s.reg.DestroySession(id)
	return jsonResult(map[string]any{"destroyed": id}), nil
}

func (s *Server) handleListRoots(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roots := s.reg.ListRoots()
	out := make([]map[string]any, 0, len(roots))
	for _, r := range roots {
		out = append(out, map[string]any{
			"root":          r.Root,
			"file_count":    r.FileCount,
			"symbol_count":  r.SymbolCount,
			"last_active":   r.LastActive,
			"session_count": r.SessionCount,
		})
	}
	return jsonResult(out), nil
}

func (s *Server) handleListSessions(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions := s.reg.ListSessions()
	out := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, map[string]any{
			"session_id": sess.ID,
			"root":       sess.Root,
			"created_at": sess.CreatedAt,
			"evicted":    sess.Evicted,
		})
	}
	return jsonResult(out), nil
}

func (s *Server) handleHistory(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sessionID := getStringArg(args, "session_id")
	limit := getIntArg(args, "limit", 0)

	var entries []registry.HistoryEntry
	if sessionID != "" {
		sess, ok := s.reg.Session(sessionID)
		if !ok {
			return errForCode(errs.New(errs.SessionUnknown, "unknown session: "+sessionID)), nil
		}
		entries = sess.History()
	} else {
		for _, info := range s.reg.ListSessions() {
			sess, ok := s.reg.Session(info.ID)
			if !ok {
				continue
			}
			entries = append(entries, sess.History()...)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"timestamp": e.Timestamp,
			"operation": e.Operation,
			"path":      e.Path,
			"preview":   e.ResponsePreview,
		})
	}
	return jsonResult(out), nil
}

func (s *Server) handleHealth(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h := s.reg.Health()
	return jsonResult(map[string]any{
		"projects_resident": h.ProjectsResident,
		"sessions_open":     h.SessionsOpen,
		"max_projects":      h.MaxProjects,
	}), nil
}
