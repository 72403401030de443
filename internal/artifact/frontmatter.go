package artifact

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("artifact: missing frontmatter")
	// ErrMalformedFrontMatter indicates an unterminated fence, or a mapping
	// whose values do not fit the target type.
	ErrMalformedFrontMatter = errors.New("artifact: malformed frontmatter")
)

// SplitFrontMatter separates a leading `---` fenced YAML block from the body
// of a document. Documents that do not open with a fence return the whole
// (newline-normalized) content as body together with ErrMissingFrontMatter.
func SplitFrontMatter(content []byte) ([]byte, []byte, error) {
	normalized := normalizeNewlines(content)
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, normalized, ErrMissingFrontMatter
	}
	rest := normalized[4:]
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return nil, rest[4:], nil
	}
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) == 2 {
		return parts[0], parts[1], nil
	}
	if trimmed := bytes.TrimSuffix(rest, []byte("\n---")); len(trimmed) != len(rest) {
		return trimmed, nil, nil
	}
	return nil, nil, ErrMalformedFrontMatter
}

// DecodeFrontMatter unmarshals a leading fenced YAML block into out and
// returns the document body. The block only counts as frontmatter when it
// holds a YAML mapping and accept, if set, approves its raw text. Anything
// else, including a missing or unterminated fence, leaves out untouched and
// returns the full content as body.
func DecodeFrontMatter(content []byte, out any, accept func(front []byte) bool) ([]byte, error) {
	whole := normalizeNewlines(content)
	front, body, err := SplitFrontMatter(content)
	if err != nil {
		return whole, nil
	}
	if accept != nil && !accept(front) {
		return whole, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(front, &node); err != nil {
		return whole, nil
	}
	if len(node.Content) != 1 || node.Content[0].Kind != yaml.MappingNode {
		return whole, nil
	}
	if err := node.Decode(out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
	}
	return body, nil
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
