package symtab

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codeindexd/codeindexd/internal/errs"
	"github.com/codeindexd/codeindexd/internal/lang"
	"github.com/codeindexd/codeindexd/internal/model"
	"github.com/codeindexd/codeindexd/internal/parser"
)

// Variables re-parses source for language l, locates the function/method
// node matching sym's line range, and returns the identifiers bound by
// every declarator node within it, in source order and deduplicated
// (spec §4.4).
func Variables(l lang.Language, source []byte, sym *model.Symbol) ([]string, error) {
	spec := lang.ForLanguage(l)
	if spec == nil || !parser.Supported(l) {
		return nil, errs.New(errs.BadArgument, "unsupported language for variables")
	}

	tree, err := parser.Parse(l, source)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "parse source", err)
	}
	defer tree.Close()

	target := findFunctionNode(tree.RootNode(), toSet(spec.FunctionNodeTypes), sym.Start)
	if target == nil {
		return nil, errs.New(errs.NotFound, "function body not found for "+sym.Name)
	}

	varTypes := toSet(spec.VariableNodeTypes)
	var names []string
	seen := map[string]bool{}

	var visit func(node *tree_sitter.Node)
	visit = func(node *tree_sitter.Node) {
		if varTypes[node.Kind()] {
			for _, n := range declaredNames(node, source, l) {
				if !seen[n] {
					seen[n] = true
					names = append(names, n)
				}
			}
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			visit(node.Child(i))
		}
	}
	visit(target)
	return names, nil
}

func findFunctionNode(root *tree_sitter.Node, funcTypes map[string]bool, startLine int) *tree_sitter.Node {
	var found *tree_sitter.Node
	var visit func(node *tree_sitter.Node)
	visit = func(node *tree_sitter.Node) {
		if found != nil {
			return
		}
		if funcTypes[node.Kind()] {
			start, _ := parser.LineRange(node)
			if start == startLine {
				found = node
				return
			}
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			visit(node.Child(i))
		}
	}
	visit(root)
	return found
}

// declaredNames extracts the identifier(s) bound by a single declarator
// node. Go's var/const declarations and short_var_declaration can bind
// multiple names in one statement; other languages bind one.
func declaredNames(node *tree_sitter.Node, source []byte, l lang.Language) []string {
	switch l {
	case lang.Go:
		if node.Kind() == "short_var_declaration" {
			left := node.ChildByFieldName("left")
			return identifierListNames(left, source)
		}
		var out []string
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && (child.Kind() == "var_spec" || child.Kind() == "const_spec") {
				if n := child.ChildByFieldName("name"); n != nil {
					out = append(out, parser.NodeText(n, source))
				}
			}
		}
		return out
	case lang.Python:
		if node.Kind() == "assignment" || node.Kind() == "augmented_assignment" {
			if n := node.ChildByFieldName("left"); n != nil && n.Kind() == "identifier" {
				return []string{parser.NodeText(n, source)}
			}
		}
	case lang.TypeScript, lang.TSX, lang.JavaScript:
		var out []string
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "variable_declarator" {
				if n := child.ChildByFieldName("name"); n != nil {
					out = append(out, parser.NodeText(n, source))
				}
			}
		}
		return out
	case lang.Rust:
		if node.Kind() == "let_declaration" {
			if n := node.ChildByFieldName("pattern"); n != nil {
				return []string{parser.NodeText(n, source)}
			}
		}
	}
	return nil
}

func identifierListNames(node *tree_sitter.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	if node.Kind() == "identifier" {
		return []string{parser.NodeText(node, source)}
	}
	var out []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "identifier" {
			out = append(out, parser.NodeText(child, source))
		}
	}
	return out
}
