package milestone

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleIssue = `---
issue: ISSUE-07
track: Track_A
priority: P0
---
# Lowering issue

### M-07-1 Lower scalar ops
- Status: DONE - 1a2b3c4
- Notes: first step

### M-07-2 Lower integer ops
- Status: NOT DONE

### M-07-3 Lower field ops
`

func TestParseDocumentReadsMilestonesInOrder(t *testing.T) {
	doc, err := parseDocument("issue.md", []byte(sampleIssue))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Meta.Issue != "ISSUE-07" || doc.Meta.Track != "track_a" || !doc.IsP0() {
		t.Fatalf("unexpected frontmatter: %+v", doc.Meta)
	}
	if len(doc.Milestones) != 3 {
		t.Fatalf("expected 3 milestones, got %d", len(doc.Milestones))
	}
	if doc.Milestones[2].HasStatus {
		t.Fatalf("M-07-3 has no status line")
	}
	want := []struct {
		id     string
		status string
	}{
		{"M-07-1", "DONE - 1a2b3c4"},
		{"M-07-2", "NOT DONE"},
		{"M-07-3", "NOT DONE"},
	}
	for i, w := range want {
		got := doc.Milestones[i]
		if got.ID != w.id || got.Status.String() != w.status || got.Position != i {
			t.Fatalf("milestone %d: got %s %q pos %d, want %s %q", i, got.ID, got.Status, got.Position, w.id, w.status)
		}
	}
}

func TestParseDocumentWithoutFrontMatter(t *testing.T) {
	content := "### A1\r\n  - Status: DONE - abcdef0123\r\n### A2\n- Status: maybe\n"
	doc, err := parseDocument("plain.md", []byte(content))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Meta != (DocumentMeta{}) {
		t.Fatalf("expected empty meta, got %+v", doc.Meta)
	}
	if len(doc.Milestones) != 2 {
		t.Fatalf("expected 2 milestones, got %d", len(doc.Milestones))
	}
	if !doc.Milestones[0].Status.Done || doc.Milestones[0].Status.Commit != "abcdef0123" {
		t.Fatalf("expected A1 done, got %v", doc.Milestones[0].Status)
	}
	if !doc.Milestones[0].HasStatus {
		t.Fatalf("expected A1 to carry a status line")
	}
	if doc.Milestones[1].Status.Done || doc.Milestones[1].HasStatus {
		t.Fatalf("unrecognised status line must leave A2 without status, got %+v", doc.Milestones[1])
	}
}

func TestParseDocumentHeadersWithoutStatusAreUnknown(t *testing.T) {
	doc, err := parseDocument("y.md", []byte("### A1\n### A2\n- Status: NOT DONE\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	g, err := Build([]Document{doc}, nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got := messages(Validate(g, Options{}).Violations)
	want := "dependency graph references unknown parent milestone 'A1' (child 'A2')"
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %q, want [%q]", got, want)
	}
}

func TestParseDocumentIgnoresStatusBeforeFirstHeader(t *testing.T) {
	doc, err := parseDocument("x.md", []byte("- Status: DONE - 1234567\n### B1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Milestones) != 1 || doc.Milestones[0].Status.Done {
		t.Fatalf("unexpected milestones: %+v", doc.Milestones)
	}
}

func TestParseDocumentRejectsMistypedFrontMatter(t *testing.T) {
	if _, err := parseDocument("bad.md", []byte("---\nissue: [a, b]\n---\n### A\n")); err == nil {
		t.Fatalf("expected frontmatter error")
	}
}

func TestParseDocumentOnlyAcceptsMappingFrontMatter(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    []string
	}{
		{"rule around header", "---\n### A1\n---\n### A2\n- Status: NOT DONE\n", []string{"A1", "A2"}},
		{"unterminated rule", "---\n\n### A1\n- Status: NOT DONE\n", []string{"A1"}},
		{"mapping with header", "---\nissue: X\n### A1\n---\n### A2\n", []string{"A1", "A2"}},
		{"invalid yaml", "---\nissue: [\n---\n### A\n", []string{"A"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := parseDocument("z.md", []byte(tc.content))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if doc.Meta != (DocumentMeta{}) {
				t.Fatalf("expected no frontmatter, got %+v", doc.Meta)
			}
			var ids []string
			for _, m := range doc.Milestones {
				ids = append(ids, m.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("got %v, want %v", ids, tc.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		done bool
		ok   bool
	}{
		{"NOT DONE", false, true},
		{"DONE - 1234567", true, true},
		{"DONE - 123456", false, false},
		{"DONE - ABCDEF0", false, false},
		{"done", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseStatus(tc.in)
			if (err == nil) != tc.ok {
				t.Fatalf("ParseStatus(%q) error = %v, want ok=%v", tc.in, err, tc.ok)
			}
			if tc.ok && got.Done != tc.done {
				t.Fatalf("ParseStatus(%q) done = %v", tc.in, got.Done)
			}
			if tc.ok && got.String() != tc.in {
				t.Fatalf("String() = %q, want %q", got.String(), tc.in)
			}
		})
	}
}

func TestDiscoverSortsAndDeduplicates(t *testing.T) {
	root := t.TempDir()
	writeIssue(t, root, "roadmap/executable-issues/b/02.issue.md", "### B1\n")
	writeIssue(t, root, "roadmap/executable-issues/a/01.issue.md", "### A1\n")
	writeIssue(t, root, "roadmap/executable-issues/a/notes.md", "### X\n")

	paths, err := Discover(root, []string{DefaultIssuePattern, "roadmap/executable-issues/a/*.issue.md"})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{
		filepath.Join(root, "roadmap/executable-issues/a/01.issue.md"),
		filepath.Join(root, "roadmap/executable-issues/b/02.issue.md"),
	}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("got %v, want %v", paths, want)
		}
	}

	docs, err := ParseDocuments(paths)
	if err != nil {
		t.Fatalf("parse documents: %v", err)
	}
	if docs[0].Milestones[0].ID != "A1" || docs[1].Milestones[0].ID != "B1" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestDiscoverWithoutMatchesFails(t *testing.T) {
	if _, err := Discover(t.TempDir(), nil); err == nil {
		t.Fatalf("expected error when no issue files exist")
	}
}

func writeIssue(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
