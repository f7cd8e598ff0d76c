package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeindexd/codeindexd/internal/errs"
	"github.com/codeindexd/codeindexd/internal/model"
)

func (s *Server) registerAnnotationTools() {
	s.addTool(&mcp.Tool{
		Name:        "define_symbol",
		Description: "Attach a human-authored definition to a symbol. Fails with already-defined unless overwrite is true, or symbol-not-found if the symbol doesn't exist.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"file": {"type": "string"},
				"name": {"type": "string"},
				"text": {"type": "string"},
				"overwrite": {"type": "boolean"}
			},
			"required": ["session_id", "file", "name", "text"]
		}`),
	}, s.handleDefineSymbol)

	s.addTool(&mcp.Tool{
		Name:        "define_file",
		Description: "Attach a human-authored definition to a file. Fails with already-defined unless overwrite is true, or not-found if the file isn't tracked.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"file": {"type": "string"},
				"text": {"type": "string"},
				"overwrite": {"type": "boolean"}
			},
			"required": ["session_id", "file", "text"]
		}`),
	}, s.handleDefineFile)

	s.addTool(&mcp.Tool{
		Name:        "mark_file",
		Description: "Classify a tracked file as documentation, ignore, test, config, generated, or custom.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"file": {"type": "string"},
				"mark": {"type": "string", "description": "documentation, ignore, test, config, generated, custom"}
			},
			"required": ["session_id", "file", "mark"]
		}`),
	}, s.handleMarkFile)
}

var validMarks = map[string]model.Mark{
	"documentation": model.MarkDocumentation,
	"ignore":        model.MarkIgnore,
	"test":          model.MarkTest,
	"config":        model.MarkConfig,
	"generated":     model.MarkGenerated,
	"custom":        model.MarkCustom,
}

func (s *Server) handleDefineSymbol(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	text := getStringArg(args, "text")
	overwrite, _ := args["overwrite"].(bool)

	ok, found := p.Table.Define(file, name, text, overwrite)
	if !found {
		return errForCode(errs.New(errs.NotFound, "symbol not found: "+file+" "+name)), nil
	}
	if !ok {
		return errForCode(errs.New(errs.AlreadyDefined, "symbol already defined: "+file+" "+name)), nil
	}
	s.record(sessionID, "define_symbol", file+":"+name, text)
	return jsonResult(map[string]any{"file": file, "name": name, "defined": true}), nil
}

func (s *Server) handleDefineFile(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	text := getStringArg(args, "text")
	overwrite, _ := args["overwrite"].(bool)

	ok, found := p.Tree.Define(file, text, overwrite)
	if !found {
		return errForCode(errs.New(errs.NotFound, "file not tracked: "+file)), nil
	}
	if !ok {
		return errForCode(errs.New(errs.AlreadyDefined, "file already defined: "+file)), nil
	}
	s.record(sessionID, "define_file", file, text)
	return jsonResult(map[string]any{"file": file, "defined": true}), nil
}

func (s *Server) handleMarkFile(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	markName := getStringArg(args, "mark")
	mark, ok := validMarks[markName]
	if !ok {
		return errResult("unknown mark: " + markName), nil
	}

	if !p.Tree.Mark(file, mark) {
		return errForCode(errs.New(errs.NotFound, "file not tracked: "+file)), nil
	}
	s.record(sessionID, "mark_file", file, markName)
	return jsonResult(map[string]any{"file": file, "mark": markName}), nil
}
