package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/codeindexd/codeindexd/internal/registry"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "util.go"), []byte("package pkg\n\nfunc Helper() {}\n"), 0o644))

	reg := registry.New(registry.Config{MaxProjects: 5})
	return NewServer(reg), dir
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) map[string]any {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	require.NoError(t, err)
	result, err := s.CallTool(context.Background(), name, argsJSON)
	require.NoError(t, err)
	require.False(t, result.IsError, "%v", result.Content)

	text := firstResultText(result)
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &data))
	return data
}

func firstResultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestStructureRendersTreeAndLanguageBreakdown(t *testing.T) {
	s, dir := testServer(t)
	session := mustCreateSession(t, s, dir)

	data := callTool(t, s, "structure", map[string]any{"session_id": session, "depth": 0})
	require.Equal(t, float64(2), data["file_count"])
	tree, _ := data["tree"].(string)
	require.Contains(t, tree, "main.go")
	require.Contains(t, tree, "pkg")
	breakdown, _ := data["language_breakdown"].(map[string]any)
	require.Equal(t, float64(2), breakdown["go"])
}

func TestStructureShowsDefinitionAfterDefineFile(t *testing.T) {
	s, dir := testServer(t)
	session := mustCreateSession(t, s, dir)

	callTool(t, s, "define_file", map[string]any{"session_id": session, "file": "main.go", "text": "entry point"})
	data := callTool(t, s, "structure", map[string]any{"session_id": session})
	tree, _ := data["tree"].(string)
	require.Contains(t, tree, "entry point")
}

func TestListSessionsAndHistoryAndHealth(t *testing.T) {
	s, dir := testServer(t)
	session := mustCreateSession(t, s, dir)
	callTool(t, s, "peek", map[string]any{"session_id": session, "file": "main.go", "start": 0, "end": 1})

	argsJSON, err := json.Marshal(map[string]any{})
	require.NoError(t, err)
	result, err := s.CallTool(context.Background(), "list_sessions", argsJSON)
	require.NoError(t, err)
	require.False(t, result.IsError)

	result, err = s.CallTool(context.Background(), "history", mustJSONArgs(t, map[string]any{"session_id": session}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	data := callTool(t, s, "health", map[string]any{})
	require.Equal(t, float64(1), data["projects_resident"])
	require.Equal(t, float64(1), data["sessions_open"])
}

func mustJSONArgs(t *testing.T, args map[string]any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(args)
	require.NoError(t, err)
	return b
}

func mustCreateSession(t *testing.T, s *Server, dir string) string {
	t.Helper()
	data := callTool(t, s, "create_session", map[string]any{"cwd": dir})
	id, _ := data["session_id"].(string)
	require.NotEmpty(t, id)
	return id
}
