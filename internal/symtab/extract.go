// Package symtab implements the primary (file,name) -> Symbol index plus
// its by-name and by-file secondary indices, and the tree-sitter
// extraction that populates them.
package symtab

import (
	"fmt"
	"log/slog"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codeindexd/codeindexd/internal/lang"
	"github.com/codeindexd/codeindexd/internal/model"
	"github.com/codeindexd/codeindexd/internal/parser"
)

// maxSignatureBytes bounds the signature text captured for a declaration,
// per spec §3's "implementation-defined safe length" (200 bytes).
const maxSignatureBytes = 200

// Extract parses source (already known to be language l) and returns the
// Symbols it declares. Unparsable files (grammar error) are logged here
// and yield (nil, nil): the caller records zero symbols, and the project
// stays queryable (spec §4.4, parse-partial is never escalated).
func Extract(relPath string, l lang.Language, source []byte) ([]*model.Symbol, error) {
	spec := lang.ForLanguage(l)
	if spec == nil || !parser.Supported(l) {
		return nil, nil
	}

	tree, err := parser.Parse(l, source)
	if err != nil {
		slog.Warn("symtab.extract.parse", "file", relPath, "err", err)
		return nil, nil //nolint:nilerr // parse-partial: logged above, never fails the project
	}
	defer tree.Close()

	root := tree.RootNode()
	funcTypes := toSet(spec.FunctionNodeTypes)
	containerTypes := toSet(spec.ContainerNodeTypes)
	constTypes := toSet(spec.ConstantNodeTypes)
	moduleTypes := toSet(spec.ModuleNodeTypes)

	var raw []*model.Symbol
	seen := map[uintptr]bool{} // dedupe overlapping captures by node identity (byte range)

	var visit func(node *tree_sitter.Node, parent *containerCtx)
	visit = func(node *tree_sitter.Node, parentCtx *containerCtx) {
		kind := node.Kind()
		id := nodeIdentity(node)

		switch {
		case funcTypes[kind]:
			if !seen[id] {
				seen[id] = true
				if sym := extractFunction(node, source, relPath, l, parentCtx); sym != nil {
					raw = append(raw, sym)
				}
			}
			// methods never nest further declarations worth descending into
			// beyond their own body, but closures/nested funcs are rare in
			// the supported grammars for these node kinds; stop here.
			return

		case containerTypes[kind]:
			if !seen[id] {
				seen[id] = true
				if sym, ctx := extractContainer(node, source, relPath, l, spec); sym != nil {
					raw = append(raw, sym)
					for i := uint(0); i < node.ChildCount(); i++ {
						visit(node.Child(i), ctx)
					}
					return
				} else if ctx != nil {
					// container produced no Symbol (e.g. Rust impl block) but
					// still establishes a parent context for nested methods.
					for i := uint(0); i < node.ChildCount(); i++ {
						visit(node.Child(i), ctx)
					}
					return
				}
			}

		case constTypes[kind] && parentCtx == nil && hasModuleParent(node, moduleTypes):
			if c := extractConstant(node, source, l); c != nil {
				c.File = relPath
				raw = append(raw, c)
			}
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			visit(node.Child(i), parentCtx)
		}
	}
	visit(root, nil)

	disambiguate(raw)
	return raw, nil
}

type containerCtx struct {
	name string
}

func nodeIdentity(n *tree_sitter.Node) uintptr {
	// StartByte+EndByte is a stable identity for a node's declaration span
	// within one parse: sufficient to dedupe overlapping captures without
	// depending on tree-sitter's internal node handle layout.
	return uintptr(n.StartByte())<<32 | uintptr(n.EndByte())
}

func hasModuleParent(node *tree_sitter.Node, moduleTypes map[string]bool) bool {
	p := node.Parent()
	return p != nil && moduleTypes[p.Kind()]
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func signature(node *tree_sitter.Node, source []byte) string {
	text := parser.NodeText(node, source)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if len(text) > maxSignatureBytes {
		text = text[:maxSignatureBytes]
	}
	return text
}

func funcNameNode(node *tree_sitter.Node) *tree_sitter.Node {
	if n := node.ChildByFieldName("name"); n != nil {
		return n
	}
	// JS/TS: const X = () => {} — name lives on the parent declarator.
	if p := node.Parent(); p != nil && p.Kind() == "variable_declarator" {
		return p.ChildByFieldName("name")
	}
	return nil
}

func extractFunction(node *tree_sitter.Node, source []byte, relPath string, l lang.Language, parentCtx *containerCtx) *model.Symbol {
	nameNode := funcNameNode(node)
	if nameNode == nil {
		return nil
	}
	name := parser.NodeText(nameNode, source)
	if name == "" {
		return nil
	}

	kind := lang.KindFunction
	if parentCtx != nil {
		kind = lang.KindMethod
	}
	// Go: a method_declaration always carries a receiver field, regardless
	// of lexical nesting (Go doesn't nest method bodies inside their type).
	if l == lang.Go && node.ChildByFieldName("receiver") != nil {
		kind = lang.KindMethod
		if recv := receiverTypeName(node, source); recv != "" {
			parentCtx = &containerCtx{name: recv}
		}
	}

	start, end := parser.LineRange(node)
	sym := &model.Symbol{
		Name:      name,
		Kind:      kind,
		File:      relPath,
		Start:     start,
		End:       end,
		Signature: signature(node, source),
	}
	if parentCtx != nil {
		sym.Parent = parentCtx.name
		sym.HasParent = true
	}
	return sym
}

// receiverTypeName extracts the receiver's base type name from a Go method
// declaration, stripping the pointer marker: (r *Foo) -> "Foo".
func receiverTypeName(node *tree_sitter.Node, source []byte) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	text := parser.NodeText(recv, source)
	text = strings.Trim(text, "()")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	typ := fields[len(fields)-1]
	return strings.TrimPrefix(typ, "*")
}

func extractContainer(node *tree_sitter.Node, source []byte, relPath string, l lang.Language, spec *lang.Spec) (*model.Symbol, *containerCtx) {
	var name string
	if l == lang.Rust && node.Kind() == "mod_item" {
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return nil, nil
		}
		name = parser.NodeText(nameNode, source)
		if name == "" {
			return nil, nil
		}
		start, end := parser.LineRange(node)
		// a mod declares a namespace, not a container for method nesting:
		// items inside it are emitted under a nil context, same as if the
		// mod block weren't there.
		return &model.Symbol{
			Name:      name,
			Kind:      lang.KindModule,
			File:      relPath,
			Start:     start,
			End:       end,
			Signature: signature(node, source),
		}, nil
	}
	if l == lang.Rust && node.Kind() == "impl_item" {
		typeNode := node.ChildByFieldName("type")
		if typeNode == nil {
			return nil, nil
		}
		name = parser.NodeText(typeNode, source)
		if name == "" {
			return nil, nil
		}
		// impl blocks contribute methods to the Self type but aren't
		// themselves a declaration distinct from the struct/enum.
		return nil, &containerCtx{name: name}
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, nil
	}
	name = parser.NodeText(nameNode, source)
	if name == "" {
		return nil, nil
	}

	kind := lang.KindClass
	if spec.ContainerKind != nil {
		if k, ok := spec.ContainerKind[node.Kind()]; ok {
			kind = k
		}
	}
	// Go type_spec: refine type/struct/interface from the underlying type node.
	if l == lang.Go && node.Kind() == "type_spec" {
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			switch typeNode.Kind() {
			case "struct_type":
				kind = lang.KindStruct
			case "interface_type":
				kind = lang.KindInterface
			default:
				kind = lang.KindType
			}
		}
	}

	start, end := parser.LineRange(node)
	return &model.Symbol{
		Name:      name,
		Kind:      kind,
		File:      relPath,
		Start:     start,
		End:       end,
		Signature: signature(node, source),
	}, &containerCtx{name: name}
}

func extractConstant(node *tree_sitter.Node, source []byte, l lang.Language) *model.Symbol {
	name := constantName(node, source, l)
	if name == "" {
		return nil
	}
	start, end := parser.LineRange(node)
	return &model.Symbol{
		Name:      name,
		Kind:      lang.KindConstant,
		File:      "", // filled by caller via relPath below
		Start:     start,
		End:       end,
		Signature: signature(node, source),
	}
}

func constantName(node *tree_sitter.Node, source []byte, l lang.Language) string {
	switch l {
	case lang.Go:
		// const_declaration / var_declaration: first const_spec/var_spec's name child.
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			if child.Kind() == "const_spec" || child.Kind() == "var_spec" {
				if n := child.ChildByFieldName("name"); n != nil {
					return parser.NodeText(n, source)
				}
			}
		}
	case lang.Python:
		// expression_statement wrapping an assignment: NAME = value.
		if child := node.Child(0); child != nil && child.Kind() == "assignment" {
			if n := child.ChildByFieldName("left"); n != nil && n.Kind() == "identifier" {
				return parser.NodeText(n, source)
			}
		}
	case lang.TypeScript, lang.TSX, lang.JavaScript:
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "variable_declarator" {
				if n := child.ChildByFieldName("name"); n != nil {
					return parser.NodeText(n, source)
				}
			}
		}
	case lang.Rust:
		if n := node.ChildByFieldName("name"); n != nil {
			return parser.NodeText(n, source)
		}
	}
	return ""
}

// disambiguate resolves (file,name) collisions within one file's freshly
// extracted symbol set, using the same strategy list/implementation/define
// all rely on: qualify by parent when one exists, else suffix by start
// line (spec §9 Naming collisions).
func disambiguate(symbols []*model.Symbol) {
	seen := map[string][]*model.Symbol{}
	for _, s := range symbols {
		seen[s.Name] = append(seen[s.Name], s)
	}
	for name, group := range seen {
		if len(group) < 2 {
			continue
		}
		for i, s := range group {
			if i == 0 {
				continue // first occurrence keeps the bare name
			}
			if s.HasParent {
				s.Name = s.Parent + "." + name
			} else {
				s.Name = fmt.Sprintf("%s:%d", name, s.Start+1)
			}
		}
	}
}
