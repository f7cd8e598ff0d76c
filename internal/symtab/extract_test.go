package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeindexd/codeindexd/internal/lang"
)

func TestExtractGoFunctionsAndMethods(t *testing.T) {
	source := []byte(`package sample

type Greeter struct {
	Name string
}

func (g *Greeter) Hello() string {
	return "hi " + g.Name
}

func New(name string) *Greeter {
	return &Greeter{Name: name}
}
`)
	syms, err := Extract("greeter.go", lang.Go, source)
	require.NoError(t, err)

	byName := map[string]string{}
	for _, s := range syms {
		byName[s.Name] = string(s.Kind)
	}
	require.Equal(t, string(lang.KindStruct), byName["Greeter"])
	require.Equal(t, string(lang.KindFunction), byName["New"])
	require.Equal(t, string(lang.KindMethod), byName["Hello"])

	for _, s := range syms {
		if s.Name == "Hello" {
			require.True(t, s.HasParent)
			require.Equal(t, "Greeter", s.Parent)
		}
	}
}

func TestExtractRustImplMethodsGetParent(t *testing.T) {
	source := []byte(`struct Counter {
    value: i32,
}

impl Counter {
    fn increment(&mut self) {
        self.value += 1;
    }
}
`)
	syms, err := Extract("counter.rs", lang.Rust, source)
	require.NoError(t, err)

	var found bool
	for _, s := range syms {
		if s.Name == "increment" {
			found = true
			require.True(t, s.HasParent)
			require.Equal(t, "Counter", s.Parent)
			require.Equal(t, string(lang.KindMethod), string(s.Kind))
		}
	}
	require.True(t, found, "expected to find increment method")

	var sawCounter bool
	for _, s := range syms {
		if s.Name == "Counter" {
			sawCounter = true
			require.Equal(t, string(lang.KindStruct), string(s.Kind))
		}
	}
	require.True(t, sawCounter)
}

func TestExtractRustModEmitsModuleSymbolWithoutReparentingChildren(t *testing.T) {
	source := []byte(`mod util {
    fn helper() -> i32 {
        42
    }
}
`)
	syms, err := Extract("lib.rs", lang.Rust, source)
	require.NoError(t, err)

	byName := map[string]*struct {
		kind      string
		hasParent bool
	}{}
	for _, s := range syms {
		byName[s.Name] = &struct {
			kind      string
			hasParent bool
		}{string(s.Kind), s.HasParent}
	}

	require.Equal(t, string(lang.KindModule), byName["util"].kind)
	require.Equal(t, string(lang.KindFunction), byName["helper"].kind)
	require.False(t, byName["helper"].hasParent)
}

func TestExtractPythonClassAndFunction(t *testing.T) {
	source := []byte(`class Widget:
    def render(self):
        return "widget"


def standalone():
    return 1
`)
	syms, err := Extract("widget.py", lang.Python, source)
	require.NoError(t, err)

	var sawClass, sawMethod, sawFunc bool
	for _, s := range syms {
		switch s.Name {
		case "Widget":
			sawClass = true
		case "render":
			sawMethod = true
			require.True(t, s.HasParent)
		case "standalone":
			sawFunc = true
			require.False(t, s.HasParent)
		}
	}
	require.True(t, sawClass)
	require.True(t, sawMethod)
	require.True(t, sawFunc)
}

func TestExtractUnsupportedLanguageReturnsNil(t *testing.T) {
	syms, err := Extract("x.md", lang.Unknown, []byte("# hi"))
	require.NoError(t, err)
	require.Nil(t, syms)
}

func TestDisambiguateQualifiesCollidingNames(t *testing.T) {
	source := []byte(`class A:
    def run(self):
        pass


class B:
    def run(self):
        pass
`)
	syms, err := Extract("two.py", lang.Python, source)
	require.NoError(t, err)

	var names []string
	for _, s := range syms {
		if s.Kind == lang.KindMethod || s.Kind == lang.KindFunction {
			names = append(names, s.Name)
		}
	}
	require.Contains(t, names, "run")
	require.Contains(t, names, "B.run")
}
