// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package walk discovers paper and result files in a CORD-19 style tree
// and persists the resulting manifests.
package walk

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/cord-answers/pkg/types"
)

const defaultExtension = "json"

// idPattern matches the corpus paper-id naming convention once the
// digit and letter requirements are checked separately.
var idPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// Filter decides whether a file belongs to a source-type subset.
type Filter struct {
	// Source is the source-type label that must appear as a directory
	// segment of the file's path.
	Source string

	// Extension is the required file suffix (default "json").
	Extension string
}

// Match reports whether the file at path passes the filter.
func (f Filter) Match(path string) bool {
	ext := f.Extension
	if ext == "" {
		ext = defaultExtension
	}
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ext) {
		return false
	}
	if !IsPaperID(stem(name)) {
		return false
	}
	return hasSegment(filepath.Dir(path), f.Source)
}

// IsPaperID reports whether s is made only of lowercase letters and
// digits and contains at least one of each.
func IsPaperID(s string) bool {
	return idPattern.MatchString(s) &&
		strings.ContainsAny(s, "0123456789") &&
		strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz")
}

func stem(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

func hasSegment(dir, segment string) bool {
	if segment == "" {
		return true
	}
	for _, s := range strings.Split(filepath.ToSlash(dir), "/") {
		if s == segment {
			return true
		}
	}
	return false
}

// Files walks root and returns the paths passing f, in lexical walk
// order. In WalkLegacy mode only the first entry of each directory listing
// is inspected, which is how the published CORD-19 answer files were built.
func Files(root string, f Filter, mode types.WalkMode) ([]string, error) {
	var paths []string
	firstSeen := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if mode == types.WalkLegacy {
			dir := filepath.Dir(path)
			if firstSeen[dir] {
				return nil
			}
			firstSeen[dir] = true
		}
		if f.Match(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return paths, nil
}

// BuildManifest discovers the papers of one source type under root. Paths
// are made absolute.
func BuildManifest(root string, f Filter, mode types.WalkMode) (types.Manifest, error) {
	paths, err := Files(root, f, mode)
	if err != nil {
		return types.Manifest{}, err
	}
	m := types.Manifest{Paper: make([]string, 0, len(paths))}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return types.Manifest{}, fmt.Errorf("resolving %s: %w", p, err)
		}
		m.Paper = append(m.Paper, abs)
	}
	return m, nil
}

// ManifestPath returns the manifest location for a source type.
func ManifestPath(workingDir, source string) string {
	return filepath.Join(workingDir, "papers."+source+".json")
}

// WriteManifest writes m as indented JSON, creating parent directories.
func WriteManifest(path string, m types.Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if m.Paper == nil {
		m.Paper = []string{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (types.Manifest, error) {
	var m types.Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}
