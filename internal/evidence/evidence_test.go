package evidence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestBuildIndexCollectsTheorems(t *testing.T) {
	root := t.TempDir()
	write(t, root, "proofs/Add.lean", "theorem add_comm : a + b = b + a := by simp\n-- helper proofs\ntheorem  add_zero' : x = x := rfl\n")
	write(t, root, "proofs/nested/Mul.lean", "lemma helper : True := trivial\ntheorem mul_one : True := trivial\n")
	write(t, root, "proofs/README.md", "theorem not_lean\n")

	ix, err := BuildIndex(root, []string{"proofs", "missing/dir"})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	for _, name := range []string{"add_comm", "add_zero", "mul_one"} {
		if !ix.HasTheorem(name) {
			t.Fatalf("expected theorem %s", name)
		}
	}
	if ix.HasTheorem("helper") || ix.HasTheorem("not_lean") {
		t.Fatalf("unexpected theorem indexed")
	}
	if ix.TheoremCount() != 3 || ix.LeanFiles() != 2 {
		t.Fatalf("unexpected counts: theorems=%d files=%d", ix.TheoremCount(), ix.LeanFiles())
	}
}

func TestBuildIndexRejectsFileAsDirectory(t *testing.T) {
	root := t.TempDir()
	write(t, root, "proofs", "not a dir")
	if _, err := BuildIndex(root, []string{"proofs"}); err == nil {
		t.Fatalf("expected error for non-directory theorem path")
	}
}

func TestResolveFile(t *testing.T) {
	root := t.TempDir()
	write(t, root, "tests/run.sh", "#!/bin/sh\n")
	ix := NewIndex(root)

	cases := []struct {
		ref  string
		want error
	}{
		{"tests/run.sh", nil},
		{"tests", ErrMissingFile},
		{"tests/missing.sh", ErrMissingFile},
		{"/etc/passwd", ErrAbsolutePath},
		{"tests/../tests/run.sh", ErrParentSegment},
	}
	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			err := ix.ResolveFile(tc.ref)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("ResolveFile(%q) = %v, want %v", tc.ref, err, tc.want)
			}
		})
	}
}
