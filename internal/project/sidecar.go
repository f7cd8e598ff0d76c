package project

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/codeindexd/codeindexd/internal/model"
)

// sidecarDir and sidecarFile hold the optional annotation persistence
// named in spec §6: define_symbol/define_file/mark_file annotations
// survive process restarts via a small YAML sidecar under the project
// root, instead of living only in the in-memory Table/Tree for the
// process lifetime.
const sidecarDir = ".codeindexd"
const sidecarName = "annotations.yaml"

type fileAnnotation struct {
	Definition string     `yaml:"definition,omitempty"`
	Mark       model.Mark `yaml:"mark,omitempty"`
}

type symbolAnnotation struct {
	File       string `yaml:"file"`
	Name       string `yaml:"name"`
	Definition string `yaml:"definition"`
}

type sidecar struct {
	Files   map[string]fileAnnotation `yaml:"files,omitempty"`
	Symbols []symbolAnnotation        `yaml:"symbols,omitempty"`
}

func sidecarPath(root string) string {
	return filepath.Join(root, sidecarDir, sidecarName)
}

// loadSidecar applies any persisted annotations to the FileTree
// immediately (file-level) and returns the symbol-level ones, which the
// caller applies once bulk extraction has populated the SymbolTable.
func loadSidecar(root string, tree interface {
	Get(string) (*model.FileEntry, bool)
	Define(string, string, bool) (bool, bool)
	Mark(string, model.Mark) bool
}) []symbolAnnotation {
	data, err := os.ReadFile(sidecarPath(root))
	if err != nil {
		return nil
	}
	var sc sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		slog.Warn("project.sidecar_load", "root", root, "err", err)
		return nil
	}
	for relPath, ann := range sc.Files {
		if ann.Definition != "" {
			tree.Define(relPath, ann.Definition, true)
		}
		if ann.Mark != "" {
			tree.Mark(relPath, ann.Mark)
		}
	}
	return sc.Symbols
}

// saveSidecar snapshots every file- and symbol-level annotation
// currently held and writes it back to the sidecar file.
func saveSidecar(root string, entries []*model.FileEntry, symbols []*model.Symbol) {
	sc := sidecar{Files: make(map[string]fileAnnotation)}
	for _, e := range entries {
		if e.HasDefn || e.HasMark {
			sc.Files[e.RelPath] = fileAnnotation{Definition: e.Definition, Mark: e.Mark}
		}
	}
	for _, s := range symbols {
		if s.HasDefn {
			sc.Symbols = append(sc.Symbols, symbolAnnotation{File: s.File, Name: s.Name, Definition: s.Definition})
		}
	}
	if len(sc.Files) == 0 && len(sc.Symbols) == 0 {
		return
	}

	dir := filepath.Join(root, sidecarDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("project.sidecar_save", "root", root, "err", err)
		return
	}
	data, err := yaml.Marshal(sc)
	if err != nil {
		slog.Warn("project.sidecar_save", "root", root, "err", err)
		return
	}
	if err := os.WriteFile(sidecarPath(root), data, 0o644); err != nil {
		slog.Warn("project.sidecar_save", "root", root, "err", err)
	}
}
