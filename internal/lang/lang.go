// Package lang holds the per-language tree-sitter node vocabulary: which
// grammar node kinds denote declarations, containers, and local bindings.
package lang

// Language identifies one of the five grammars this index supports.
type Language string

const (
	Go         Language = "go"
	Python     Language = "python"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	JavaScript Language = "javascript"
	Rust       Language = "rust"
	Unknown    Language = "unknown"
)

// Kind is the coarse declaration category surfaced on a Symbol.
type Kind string

const (
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindClass    Kind = "class"
	KindStruct   Kind = "struct"
	KindEnum     Kind = "enum"
	KindTrait    Kind = "trait"
	KindInterface Kind = "interface"
	KindConstant Kind = "constant"
	KindVariable Kind = "variable"
	KindType     Kind = "type"
	KindModule   Kind = "module"
)

// Spec defines, for one language, which tree-sitter node kinds the walker
// should treat as function/method declarations, which as container types
// (classes/structs/traits/interfaces — used both as declarations in their
// own right and as parents when a function nests inside one), and which
// as local variable declarators (used by the variables() operation).
type Spec struct {
	Language Language

	// FileExtensions maps this language to its source file suffixes.
	FileExtensions []string

	// FunctionNodeTypes are node kinds that denote a function or method
	// declaration.
	FunctionNodeTypes []string

	// ContainerNodeTypes are node kinds that denote a class/struct/trait/
	// interface/enum declaration — both a Symbol in their own right and a
	// possible parent for nested method declarations.
	ContainerNodeTypes []string

	// ContainerKind maps a container node's Kind() to the Symbol Kind it
	// produces; node kinds absent from this map default to KindClass.
	ContainerKind map[string]Kind

	// ConstantNodeTypes are node kinds, only valid directly under a module
	// node, that denote a top-level constant/variable declaration.
	ConstantNodeTypes []string

	// ModuleNodeTypes are the root/compilation-unit node kinds for this
	// grammar (the direct parent constants must sit under).
	ModuleNodeTypes []string

	// VariableNodeTypes are declarator node kinds inside a function body
	// that the variables() operation collects identifiers from.
	VariableNodeTypes []string
}

var registry = map[string]*Spec{}
var byLanguage = map[Language]*Spec{}

// Register adds a Spec to the global registry, keyed by file extension.
func Register(spec *Spec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
	byLanguage[spec.Language] = spec
}

// ForExtension returns the Spec registered for a file extension (e.g. ".go").
func ForExtension(ext string) *Spec { return registry[ext] }

// ForLanguage returns the Spec for a Language tag.
func ForLanguage(l Language) *Spec { return byLanguage[l] }

// ForExtensionTag returns the Language tag for a file extension, or
// (Unknown, false) if the extension is not recognized.
func ForExtensionTag(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return Unknown, false
	}
	return spec.Language, true
}

// All returns every registered language, in a stable order.
func All() []Language {
	return []Language{Go, Python, TypeScript, TSX, JavaScript, Rust}
}
