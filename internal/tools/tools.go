// Package tools exposes the operation surface of spec §6 as MCP tools:
// session lifecycle, symbol table queries, and content retrieval. It
// mirrors the teacher's addTool/CallTool/ToolNames dispatch shape so the
// same handler can be driven either over MCP stdio or from the CLI.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeindexd/codeindexd/internal/errs"
	"github.com/codeindexd/codeindexd/internal/metrics"
	"github.com/codeindexd/codeindexd/internal/registry"
)

// Version is the current release version, referenced in the MCP handshake.
const Version = "0.1.0"

// Server wraps the MCP server with tool handlers dispatched against a Registry.
type Server struct {
	mcp      *mcp.Server
	reg      *registry.Registry
	handlers map[string]mcp.ToolHandler
}

// NewServer creates an MCP server with every tool registered against reg.
func NewServer(reg *registry.Registry) *Server {
	srv := &Server{
		reg:      reg,
		handlers: make(map[string]mcp.ToolHandler),
	}

	srv.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "codeindexd",
			Version: Version,
		},
		&mcp.ServerOptions{},
	)

	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server, for wiring a transport.
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// Registry returns the underlying Registry for direct access (CLI mode).
func (s *Server) Registry() *registry.Registry { return s.reg }

func (s *Server) addTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	name := tool.Name
	counted := func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		res, err := handler(ctx, req)
		outcome := "ok"
		if err != nil || (res != nil && res.IsError) {
			outcome = "error"
		}
		metrics.RequestsTotal.WithLabelValues(name, outcome).Inc()
		metrics.RequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		return res, err
	}
	s.mcp.AddTool(tool, counted)
	s.handlers[tool.Name] = counted
}

// CallTool invokes a registered tool handler directly, bypassing the MCP
// transport — used by the CLI wrapper.
func (s *Server) CallTool(ctx context.Context, name string, argsJSON json.RawMessage) (*mcp.CallToolResult, error) {
	handler, ok := s.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	if len(argsJSON) == 0 {
		argsJSON = json.RawMessage(`{}`)
	}
	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: argsJSON},
	}
	return handler(ctx, req)
}

// ToolNames returns every registered tool name, sorted.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) registerTools() {
	s.registerSessionTools()
	s.registerSymbolTools()
	s.registerContentTools()
	s.registerAnnotationTools()
	s.registerStructureTools()
}

func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(b)}}}
}

func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: msg}}, IsError: true}
}

// errForCode renders an error as a tool result, preserving its errs.Kind
// label when it's one of ours so a client can branch on it.
func errForCode(err error) *mcp.CallToolResult {
	var e *errs.Error
	if errors.As(err, &e) {
		return errResult(fmt.Sprintf("%s: %s", e.Kind, e.Detail))
	}
	return errResult(err.Error())
}

func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

func getStringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func getIntArg(args map[string]any, key string, def int) int {
	f, ok := args[key].(float64)
	if !ok {
		return def
	}
	return int(f)
}

// record appends a history entry to sessionID's session, if it still
// exists. A session destroyed after the handler's own Resolve succeeded
// is skipped silently; it is not an error here.
func (s *Server) record(sessionID, operation, path, preview string) {
	if sess, ok := s.reg.Session(sessionID); ok {
		sess.Record(operation, path, preview)
	}
}
