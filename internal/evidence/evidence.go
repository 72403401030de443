// Package evidence resolves the proof and file references an obligation
// table points at: theorem names declared in Lean sources and files under
// the repository root.
package evidence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultTheoremDirs are scanned for `theorem` declarations when no
// directories are configured.
var DefaultTheoremDirs = []string{
	"src/LeanCairo/Compiler/Proof",
	"src/LeanCairo/Compiler/Semantics",
	"src/LeanCairo/Compiler/Optimize",
}

var theoremPattern = regexp.MustCompile(`\btheorem\s+([A-Za-z0-9_']+)\b`)

var (
	ErrAbsolutePath  = errors.New("path must be relative")
	ErrParentSegment = errors.New("path must not contain '..'")
	ErrMissingFile   = errors.New("referenced file does not exist")
)

// Index knows the theorems declared under the repository root and resolves
// file references against it.
type Index struct {
	root      string
	theorems  map[string]struct{}
	leanFiles int
}

// BuildIndex scans every *.lean file below the given directories, which are
// relative to root. Directories that do not exist contribute nothing.
func BuildIndex(root string, dirs []string) (*Index, error) {
	if len(dirs) == 0 {
		dirs = DefaultTheoremDirs
	}
	ix := &Index{root: root, theorems: map[string]struct{}{}}
	for _, dir := range dirs {
		base := filepath.Join(root, filepath.FromSlash(dir))
		info, err := os.Stat(base)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("evidence: stat %s: %w", base, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("evidence: theorem directory %s is not a directory", base)
		}
		fsys := os.DirFS(base)
		matches, err := doublestar.Glob(fsys, "**/*.lean", doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("evidence: glob %s: %w", base, err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			data, err := fs.ReadFile(fsys, match)
			if err != nil {
				return nil, fmt.Errorf("evidence: read %s: %w", path.Join(dir, match), err)
			}
			ix.leanFiles++
			for _, m := range theoremPattern.FindAllSubmatch(data, -1) {
				ix.theorems[string(m[1])] = struct{}{}
			}
		}
	}
	return ix, nil
}

// NewIndex builds an index from a fixed theorem list.
func NewIndex(root string, theorems ...string) *Index {
	ix := &Index{root: root, theorems: make(map[string]struct{}, len(theorems))}
	for _, name := range theorems {
		ix.theorems[name] = struct{}{}
	}
	return ix
}

// HasTheorem reports whether a theorem with this exact name is declared.
func (ix *Index) HasTheorem(name string) bool {
	_, ok := ix.theorems[name]
	return ok
}

// TheoremCount reports the number of distinct theorem names.
func (ix *Index) TheoremCount() int {
	return len(ix.theorems)
}

// LeanFiles reports the number of Lean sources scanned.
func (ix *Index) LeanFiles() int {
	return ix.leanFiles
}

// ResolveFile checks that ref names an existing regular file below the root.
func (ix *Index) ResolveFile(ref string) error {
	if filepath.IsAbs(ref) || strings.HasPrefix(ref, "/") {
		return fmt.Errorf("%w, got absolute path", ErrAbsolutePath)
	}
	for _, part := range strings.FieldsFunc(ref, isSeparator) {
		if part == ".." {
			return ErrParentSegment
		}
	}
	info, err := os.Stat(filepath.Join(ix.root, filepath.FromSlash(ref)))
	if err != nil || !info.Mode().IsRegular() {
		return ErrMissingFile
	}
	return nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == filepath.Separator
}
