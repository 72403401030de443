package milestone

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kingrea/roadmap-gate/internal/artifact"
)

// DefaultIssuePattern locates executable issue documents under the repository root.
const DefaultIssuePattern = "roadmap/executable-issues/**/*.issue.md"

var (
	headerPattern = regexp.MustCompile(`^###\s+([A-Za-z0-9-]+)\b`)
	statusPattern = regexp.MustCompile(`^\s*-\s+Status:\s+(NOT DONE|DONE - [0-9a-f]{7,40})\s*$`)
)

// DocumentMeta is the optional YAML frontmatter of an issue document.
type DocumentMeta struct {
	Issue    string `yaml:"issue"`
	Track    string `yaml:"track"`
	Priority string `yaml:"priority"`
}

// Document is one parsed issue document. Milestones keep their declaration
// order, which drives the implicit sequential edges.
type Document struct {
	Path       string
	Meta       DocumentMeta
	Milestones []Milestone
}

// IsP0 reports whether the document is tagged as a P0 issue.
func (d Document) IsP0() bool {
	return d.Meta.Priority == "p0"
}

// ParseDocument reads an issue document from disk.
func ParseDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("milestone: read %s: %w", path, err)
	}
	return parseDocument(path, data)
}

// ParseDocuments parses every path in order.
func ParseDocuments(paths []string) ([]Document, error) {
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		doc, err := ParseDocument(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func parseDocument(path string, data []byte) (Document, error) {
	doc := Document{Path: path}
	body, err := artifact.DecodeFrontMatter(data, &doc.Meta, withoutHeaders)
	if err != nil {
		return Document{}, fmt.Errorf("milestone: %s: %w", path, err)
	}
	doc.Meta.normalize()

	current := -1
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if match := headerPattern.FindStringSubmatch(line); match != nil {
			doc.Milestones = append(doc.Milestones, Milestone{
				ID:       match[1],
				Status:   NotDone,
				Document: path,
				Position: len(doc.Milestones),
			})
			current = len(doc.Milestones) - 1
			continue
		}
		if current < 0 {
			continue
		}
		if match := statusPattern.FindStringSubmatch(line); match != nil {
			status, err := ParseStatus(match[1])
			if err != nil {
				return Document{}, fmt.Errorf("milestone: %s: %w", path, err)
			}
			doc.Milestones[current].Status = status
			doc.Milestones[current].HasStatus = true
		}
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("milestone: scan %s: %w", path, err)
	}
	return doc, nil
}

// withoutHeaders rejects a fenced block that declares milestones, so a
// document opening with a horizontal rule keeps its first sections.
func withoutHeaders(front []byte) bool {
	for _, line := range strings.Split(string(front), "\n") {
		if headerPattern.MatchString(line) {
			return false
		}
	}
	return true
}

func (m *DocumentMeta) normalize() {
	m.Issue = strings.TrimSpace(m.Issue)
	m.Track = strings.ToLower(strings.TrimSpace(m.Track))
	m.Priority = strings.ToLower(strings.TrimSpace(m.Priority))
}

// Discover expands the glob patterns against root and returns the matching
// files sorted and de-duplicated. Finding no document at all is an error.
func Discover(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{DefaultIssuePattern}
	}
	seen := map[string]struct{}{}
	var out []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("milestone: glob %s: %w", pattern, err)
		}
		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			out = append(out, match)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("milestone: no issue files found for %s", strings.Join(patterns, ", "))
	}
	sort.Strings(out)
	return out, nil
}
