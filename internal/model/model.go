// Package model holds the data types shared across the index and
// retrieval engine: FileEntry and Symbol, as defined by the data model.
package model

import "github.com/codeindexd/codeindexd/internal/lang"

// Mark classifies a FileEntry for annotation and test-resolution purposes.
type Mark string

const (
	MarkDocumentation Mark = "documentation"
	MarkIgnore        Mark = "ignore"
	MarkTest          Mark = "test"
	MarkConfig        Mark = "config"
	MarkGenerated     Mark = "generated"
	MarkCustom        Mark = "custom"
)

// FileEntry is one indexed file: its size, detected language, and
// optional annotations. RelPath is forward-slash normalized and is the
// canonical key inside a project's FileTree.
type FileEntry struct {
	RelPath    string
	Size       int64
	Language   lang.Language
	Definition string
	HasDefn    bool
	Mark       Mark
	HasMark    bool
	// ContentHash is an xxh3 digest of the file's bytes as of the last
	// successful read, used by the watcher to skip re-extraction when a
	// coalesced Modified event didn't actually change the bytes.
	ContentHash uint64
	// Oversize records that the file exceeded max_file_size: its size is
	// tracked but it produces no symbols.
	Oversize bool
}

// Symbol is one extracted declaration. Line is [Start, End) 0-indexed.
type Symbol struct {
	Name       string
	Kind       lang.Kind
	File       string
	Start      int
	End        int
	Signature  string
	Definition string
	HasDefn    bool
	Parent     string
	HasParent  bool
}

// Key is the primary-index identity of a Symbol: (file, name).
type Key struct {
	File string
	Name string
}
