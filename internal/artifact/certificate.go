package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kingrea/roadmap-gate/internal/readiness"
)

// CertificateVersion is the schema version of written certificates.
const CertificateVersion = 1

// certificateNamespace seeds the name-based certificate ids.
var certificateNamespace = uuid.MustParse("6f1d3c2a-8e4b-5a7c-9d0e-1b2c3d4e5f60")

// Input is one evidence file the certificate was computed from.
type Input struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// Certificate is the persisted readiness verdict. It carries no timestamps:
// identical inputs always produce an identical certificate, id included.
type Certificate struct {
	Version       int    `json:"version"`
	CertificateID string `json:"certificate_id"`
	readiness.Program
	Inputs []Input `json:"inputs"`
}

// Digest hashes the file at rel, resolved against root unless absolute.
func Digest(root, rel string) (Input, error) {
	full := rel
	if !filepath.IsAbs(rel) {
		full = filepath.Join(root, filepath.FromSlash(rel))
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return Input{}, fmt.Errorf("artifact: digest %s: %w", rel, err)
	}
	sum := sha256.Sum256(data)
	return Input{Path: filepath.ToSlash(rel), SHA256: hex.EncodeToString(sum[:])}, nil
}

// NewCertificate wraps a program verdict and derives its id from the
// encoded content.
func NewCertificate(program readiness.Program, inputs []Input) (Certificate, error) {
	cert := Certificate{Version: CertificateVersion, Program: program, Inputs: append([]Input{}, inputs...)}
	encoded, err := json.Marshal(cert)
	if err != nil {
		return Certificate{}, fmt.Errorf("artifact: encode certificate: %w", err)
	}
	cert.CertificateID = uuid.NewSHA1(certificateNamespace, encoded).String()
	return cert, nil
}

// WriteCertificate writes the JSON certificate to path and a Markdown
// rendering next to it. It returns the Markdown path.
func WriteCertificate(path string, cert Certificate) (string, error) {
	encoded, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		return "", fmt.Errorf("artifact: encode certificate: %w", err)
	}
	encoded = append(encoded, '\n')
	if err := writeFileAtomic(path, encoded); err != nil {
		return "", err
	}
	mdPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".md"
	if err := writeFileAtomic(mdPath, []byte(RenderMarkdown(cert))); err != nil {
		return "", err
	}
	return mdPath, nil
}

// RenderMarkdown renders the human-readable certificate.
func RenderMarkdown(cert Certificate) string {
	var b strings.Builder
	b.WriteString("# Program Completion Certificate\n\n")
	fmt.Fprintf(&b, "- Result: `%s`\n", cert.Result)
	fmt.Fprintf(&b, "- Certificate: `%s`\n\n", cert.CertificateID)
	b.WriteString("## Closure Summary\n\n")
	fmt.Fprintf(&b, "- Mandatory dimensions ready: `%d` / `%d`\n", cert.ReadyDimensions, cert.TargetDimensions)
	for _, track := range []string{"track_a", "track_b", "program"} {
		summary := cert.ClosureSummary[track]
		fmt.Fprintf(&b, "- %s: `%d` / `%d`\n", track, summary.Ready, summary.Target)
	}
	b.WriteString("\n## Mandatory Dimensions\n\n| Dimension | Status |\n| --- | --- |\n")
	for _, id := range cert.MandatoryDims {
		status, ok := cert.DimensionStatuses[id]
		if !ok {
			status = readiness.Missing
		}
		fmt.Fprintf(&b, "| `%s` | `%s` |\n", id, status)
	}
	b.WriteString("\n## Blocking Reasons\n\n")
	if len(cert.BlockingReasons) == 0 {
		b.WriteString("- none\n")
	}
	for _, reason := range cert.BlockingReasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	b.WriteString("\n## Evidence\n\n")
	if len(cert.Inputs) == 0 {
		b.WriteString("- none\n")
	}
	for _, input := range cert.Inputs {
		fmt.Fprintf(&b, "- `%s` (sha256 `%s`)\n", input.Path, input.SHA256)
	}
	return b.String()
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("artifact: ensure dir for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("artifact: chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("artifact: rename %s: %w", path, err)
	}
	return nil
}
