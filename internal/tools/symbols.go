package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeindexd/codeindexd/internal/lang"
	"github.com/codeindexd/codeindexd/internal/model"
	"github.com/codeindexd/codeindexd/internal/project"
)

func (s *Server) registerSymbolTools() {
	s.addTool(&mcp.Tool{
		Name:        "list_symbols",
		Description: "Enumerate extracted symbols, optionally filtered by kind and/or file. Ordered (file asc, line asc) within kind, then kind asc.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"kind": {"type": "string", "description": "function, method, class, struct, enum, trait, interface, constant, variable, type, module"},
				"file": {"type": "string"},
				"limit": {"type": "integer"}
			},
			"required": ["session_id"]
		}`),
	}, s.handleListSymbols)

	s.addTool(&mcp.Tool{
		Name:        "search_symbols",
		Description: "Search symbol names by substring, case-sensitive. Results bucket as exact match, then prefix match, then substring match, each ordered (file asc, line asc).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"query": {"type": "string"},
				"limit": {"type": "integer"}
			},
			"required": ["session_id", "query"]
		}`),
	}, s.handleSearchSymbols)

	s.addTool(&mcp.Tool{
		Name:        "get_implementation",
		Description: "Return the exact source text for a symbol's declaration, read fresh from disk.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"file": {"type": "string"},
				"name": {"type": "string"}
			},
			"required": ["session_id", "file", "name"]
		}`),
	}, s.handleGetImplementation)

	s.addTool(&mcp.Tool{
		Name:        "find_callers",
		Description: "Name-matched textual search for callers of an identifier across all supported files, excluding the declaration's own line range. This is not semantic call-graph analysis.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"file": {"type": "string"},
				"name": {"type": "string"},
				"limit": {"type": "integer"}
			},
			"required": ["session_id", "file", "name"]
		}`),
	}, s.handleFindCallers)

	s.addTool(&mcp.Tool{
		Name:        "find_tests",
		Description: "Name-matched textual search restricted to files marked or recognized as test files, climbing each match to its enclosing function.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"name": {"type": "string"},
				"limit": {"type": "integer"}
			},
			"required": ["session_id", "name"]
		}`),
	}, s.handleFindTests)

	s.addTool(&mcp.Tool{
		Name:        "list_variables",
		Description: "Re-parse a function or method and list the identifiers it declares, in source order, deduplicated.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"file": {"type": "string"},
				"name": {"type": "string"}
			},
			"required": ["session_id", "file", "name"]
		}`),
	}, s.handleListVariables)
}

var kindByName = map[string]lang.Kind{
	"function":  lang.KindFunction,
	"method":    lang.KindMethod,
	"class":     lang.KindClass,
	"struct":    lang.KindStruct,
	"enum":      lang.KindEnum,
	"trait":     lang.KindTrait,
	"interface": lang.KindInterface,
	"constant":  lang.KindConstant,
	"variable":  lang.KindVariable,
	"type":      lang.KindType,
	"module":    lang.KindModule,
}

func symbolJSON(p *project.Project, s *model.Symbol) map[string]any {
	out := map[string]any{
		"name":           s.Name,
		"qualified_name": p.QualifiedName(s.File, s.Name),
		"kind":           string(s.Kind),
		"file":           s.File,
		"start":          s.Start,
		"end":            s.End,
		"signature":      s.Signature,
	}
	if s.HasParent {
		out["parent"] = s.Parent
	}
	if s.HasDefn {
		out["definition"] = s.Definition
	}
	return out
}

func (s *Server) handleListSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sessionID := getStringArg(args, "session_id")
	p, err := s.reg.Resolve(sessionID)
	if err != nil {
		return errForCode(err), nil
	}

	var kind lang.Kind
	hasKind := false
	if k := getStringArg(args, "kind"); k != "" {
		if resolved, ok := kindByName[k]; ok {
			kind, hasKind = resolved, true
		} else {
			return errResult("unknown kind: " + k), nil
		}
	}
	file := getStringArg(args, "file")
	limit := getIntArg(args, "limit", 0)

	symbols := p.Table.List(kind, hasKind, file)
	if limit > 0 && len(symbols) > limit {
		symbols = symbols[:limit]
	}
	out := make([]map[string]any, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, symbolJSON(p, sym))
	}
	s.record(sessionID, "list_symbols", file, "")
	return jsonResult(out), nil
}

func (s *Server) handleSearchSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sessionID := getStringArg(args, "session_id")
	p, err := s.reg.Resolve(sessionID)
	if err != nil {
		return errForCode(err), nil
	}
	query := getStringArg(args, "query")
	limit := getIntArg(args, "limit", 50)

	symbols := p.Table.Search(query, limit)
	out := make([]map[string]any, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, symbolJSON(p, sym))
	}
	s.record(sessionID, "search_symbols", query, "")
	return jsonResult(out), nil
}

func (s *Server) handleGetImplementation(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	name := getStringArg(args, "name")

	text, err := p.Implementation(file, name)
	if err != nil {
		return errForCode(err), nil
	}
	s.record(sessionID, "get_implementation", file+":"+name, "")
	return jsonResult(map[string]any{"file": file, "name": name, "content": text}), nil
}

func (s *Server) handleFindCallers(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	name := getStringArg(args, "name")
	limit := getIntArg(args, "limit", 50)

	matches, err := p.Callers(name, file, limit)
	if err != nil {
		return errForCode(err), nil
	}
	out := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		out = append(out, map[string]any{"file": p.RelPath(m.File), "line": m.Line, "text": m.Text})
	}
	s.record(sessionID, "find_callers", file+":"+name, "")
	return jsonResult(out), nil
}

func (s *Server) handleFindTests(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sessionID := getStringArg(args, "session_id")
	p, err := s.reg.Resolve(sessionID)
	if err != nil {
		return errForCode(err), nil
	}
	name := getStringArg(args, "name")
	limit := getIntArg(args, "limit", 50)

	symbols, err := p.Tests(name, limit)
	if err != nil {
		return errForCode(err), nil
	}
	out := make([]map[string]any, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, symbolJSON(p, sym))
	}
	s.record(sessionID, "find_tests", name, "")
	return jsonResult(out), nil
}

func (s *Server) handleListVariables(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	name := getStringArg(args, "name")

	names, err := p.Variables(file, name)
	if err != nil {
		return errForCode(err), nil
	}
	s.record(sessionID, "list_variables", file+":"+name, "")
	return jsonResult(map[string]any{"function": name, "variables": names}), nil
}
