package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeindexd/codeindexd/internal/content"
	"github.com/codeindexd/codeindexd/internal/errs"
)

func (s *Server) registerContentTools() {
	s.addTool(&mcp.Tool{
		Name:        "peek",
		Description: "Read lines [start, end) of a project-relative file, 0-indexed with an exclusive end. end is clipped to the file's line count.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"file": {"type": "string"},
				"start": {"type": "integer"},
				"end": {"type": "integer"}
			},
			"required": ["session_id", "file", "start", "end"]
		}`),
	}, s.handlePeek)

	s.addTool(&mcp.Tool{
		Name:        "grep",
		Description: "Regex search across every tracked, non-oversize file, skipping binary files. Returns matches with surrounding context lines; truncated is set if more than max_matches lines matched.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"pattern": {"type": "string"},
				"max_matches": {"type": "integer"},
				"context_lines": {"type": "integer"}
			},
			"required": ["session_id", "pattern"]
		}`),
	}, s.handleGrep)

	s.addTool(&mcp.Tool{
		Name:        "chunk_indices",
		Description: "Compute overlapping byte-offset windows [start,end) covering a project-relative file, given a window size and overlap.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"file": {"type": "string"},
				"size": {"type": "integer"},
				"overlap": {"type": "integer"}
			},
			"required": ["session_id", "file", "size"]
		}`),
	}, s.handleChunkIndices)
}

func (s *Server) handlePeek(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sessionID := getStringArg(args, "session_id")
	p, err := s.reg.Resolve(sessionID)
	if err != nil {
		return errForCode(err), nil
	}
	file := getStringArg(args, "file")
	if _, ok := p.Tree.Get(file); !ok {
		return errForCode(errs.New(errs.NotFound, "file not tracked: "+file)), nil
	}
	start := getIntArg(args, "start", 0)
	end := getIntArg(args, "end", 0)

	text, err := content.Peek(filepath.Join(p.Root, filepath.FromSlash(file)), start, end)
	if err != nil {
		return errForCode(err), nil
	}
	s.record(sessionID, "peek", file, "")
	return jsonResult(map[string]any{"file": file, "content": text}), nil
}

func (s *Server) handleGrep(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sessionID := getStringArg(args, "session_id")
	p, err := s.reg.Resolve(sessionID)
	if err != nil {
		return errForCode(err), nil
	}
	pattern := getStringArg(args, "pattern")
	maxMatches := getIntArg(args, "max_matches", 200)
	contextLines := getIntArg(args, "context_lines", 0)

	files := make([]string, 0)
	for _, e := range p.Tree.Snapshot() {
		if e.Oversize {
			continue
		}
		files = append(files, filepath.Join(p.Root, filepath.FromSlash(e.RelPath)))
	}

	result, err := content.Grep(files, pattern, maxMatches, contextLines)
	if err != nil {
		return errForCode(err), nil
	}
	matches := make([]map[string]any, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, map[string]any{
			"file":   p.RelPath(m.File),
			"line":   m.Line,
			"text":   m.Text,
			"before": m.Before,
			"after":  m.After,
		})
	}
	s.record(sessionID, "grep", pattern, "")
	return jsonResult(map[string]any{"matches": matches, "truncated": result.Truncated}), nil
}

func (s *Server) handleChunkIndices(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sessionID := getStringArg(args, "session_id")
	p, err := s.reg.Resolve(sessionID)
	if err != nil {
		return errForCode(err), nil
	}
	file := getStringArg(args, "file")
	if _, ok := p.Tree.Get(file); !ok {
		return errForCode(errs.New(errs.NotFound, "file not tracked: "+file)), nil
	}
	size := getIntArg(args, "size", 0)
	overlap := getIntArg(args, "overlap", 0)

	abs := filepath.Join(p.Root, filepath.FromSlash(file))
	info, statErr := os.Stat(abs)
	if statErr != nil {
		return errForCode(errs.Wrap(errs.IO, "stat file", statErr)), nil
	}

	chunks, err := content.ChunkIndices(info.Size(), int64(size), int64(overlap))
	if err != nil {
		return errForCode(err), nil
	}
	out := make([]map[string]any, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, map[string]any{"index": c.Index, "start": c.Start, "end": c.End})
	}
	s.record(sessionID, "chunk_indices", file, "")
	return jsonResult(map[string]any{"file": file, "chunks": out}), nil
}
