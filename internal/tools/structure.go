package tools

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeindexd/codeindexd/internal/model"
)

func (s *Server) registerStructureTools() {
	s.addTool(&mcp.Tool{
		Name:        "structure",
		Description: "Render an ASCII directory tree of every tracked file, alongside a file count and a per-language breakdown. depth limits how many directory levels are expanded (0 = unlimited). A path carrying a define_file annotation shows its definition text inline.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string"},
				"depth": {"type": "integer"}
			},
			"required": ["session_id"]
		}`),
	}, s.handleStructure)
}

type structureNode struct {
	entry    *model.FileEntry
	children map[string]*structureNode
}

func newStructureNode() *structureNode {
	return &structureNode{children: make(map[string]*structureNode)}
}

func (s *Server) handleStructure(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sessionID := getStringArg(args, "session_id")
	p, err := s.reg.Resolve(sessionID)
	if err != nil {
		return errForCode(err), nil
	}
	depth := getIntArg(args, "depth", 0)

	entries := p.Tree.Snapshot()
	root := newStructureNode()
	for _, e := range entries {
		insertStructureEntry(root, e)
	}

	var b strings.Builder
	renderStructure(&b, root, "", depth, 1)

	s.record(sessionID, "structure", "", "")
	return jsonResult(map[string]any{
		"tree":               strings.TrimRight(b.String(), "\n"),
		"file_count":         len(entries),
		"language_breakdown": p.Tree.LanguageBreakdown(),
	}), nil
}

func insertStructureEntry(root *structureNode, e *model.FileEntry) {
	segments := strings.Split(e.RelPath, "/")
	cur := root
	for i, seg := range segments {
		child, ok := cur.children[seg]
		if !ok {
			child = newStructureNode()
			cur.children[seg] = child
		}
		if i == len(segments)-1 {
			child.entry = e
		}
		cur = child
	}
}

// renderStructure writes cur's children in sorted name order. level is 1
// for the first real directory/file level; depth == 0 means unlimited,
// otherwise expansion stops once level reaches depth, collapsing the
// remaining subtree to a single "..." line.
func renderStructure(b *strings.Builder, cur *structureNode, prefix string, depth, level int) {
	names := make([]string, 0, len(cur.children))
	for name := range cur.children {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		child := cur.children[name]
		last := i == len(names)-1
		branch, nextPrefix := "├── ", prefix+"│   "
		if last {
			branch, nextPrefix = "└── ", prefix+"    "
		}

		line := prefix + branch + name
		if child.entry != nil && child.entry.HasDefn {
			line += " — " + firstLine(child.entry.Definition)
		}
		b.WriteString(line)
		b.WriteString("\n")

		if len(child.children) == 0 {
			continue
		}
		if depth > 0 && level >= depth {
			b.WriteString(nextPrefix + "...\n")
			continue
		}
		renderStructure(b, child, nextPrefix, depth, level+1)
	}
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return text
}
