package parser

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codeindexd/codeindexd/internal/lang"
)

func TestParseGo(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}

func Add(a, b int) int {
	return a + b
}
`)
	tree, err := Parse(lang.Go, source)
	if err != nil {
		t.Fatalf("Parse Go: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("root node is nil")
	}

	var funcCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			funcCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_declarations, got %d", funcCount)
	}
}

func TestParsePython(t *testing.T) {
	source := []byte(`def greet(name):
    return f"Hello, {name}"

class MyClass:
    def method(self):
        pass
`)
	tree, err := Parse(lang.Python, source)
	if err != nil {
		t.Fatalf("Parse Python: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var funcCount, classCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "function_definition":
			funcCount++
		case "class_definition":
			classCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_definitions, got %d", funcCount)
	}
	if classCount != 1 {
		t.Errorf("expected 1 class_definition, got %d", classCount)
	}
}

func TestParseRust(t *testing.T) {
	source := []byte(`struct Widget { id: u32 }

impl Widget {
    fn id(&self) -> u32 { self.id }
}

fn build() -> Widget { Widget { id: 1 } }
`)
	tree, err := Parse(lang.Rust, source)
	if err != nil {
		t.Fatalf("Parse Rust: %v", err)
	}
	defer tree.Close()

	var structCount, fnCount int
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "struct_item":
			structCount++
		case "function_item":
			fnCount++
		}
		return true
	})
	if structCount != 1 {
		t.Errorf("expected 1 struct_item, got %d", structCount)
	}
	if fnCount != 2 {
		t.Errorf("expected 2 function_item, got %d", fnCount)
	}
}

func TestSupported(t *testing.T) {
	for _, l := range lang.All() {
		if !Supported(l) {
			t.Errorf("expected %s to be supported", l)
		}
	}
	if Supported(lang.Unknown) {
		t.Error("expected Unknown to be unsupported")
	}
}

func TestNodeTextAndLineRange(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}
`)
	tree, err := Parse(lang.Go, source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				t.Fatal("function has no name node")
			}
			if name := NodeText(nameNode, source); name != "Hello" {
				t.Errorf("expected Hello, got %s", name)
			}
			start, end := LineRange(n)
			if start != 2 || end != 5 {
				t.Errorf("expected [2,5), got [%d,%d)", start, end)
			}
			return false
		}
		return true
	})
}
