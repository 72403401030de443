// Package config loads the project configuration from roadmap.yaml. Every
// setting has a default, so a repository without the file still gates with
// the standard layout.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFileName is looked up under the repository root.
	DefaultFileName = "roadmap.yaml"

	defaultIssuePattern    = "roadmap/executable-issues/**/*.issue.md"
	defaultRegistryPath    = "roadmap/capabilities/registry.json"
	defaultObligationsPath = "roadmap/capabilities/obligations.json"
	defaultCertificatePath = "roadmap/reports/program-completion-certificate.json"
	defaultLogLevel        = "warn"
)

var defaultTheoremDirs = []string{
	"src/LeanCairo/Compiler/Proof",
	"src/LeanCairo/Compiler/Semantics",
	"src/LeanCairo/Compiler/Optimize",
}

var defaultMandatoryDimensions = []string{
	"milestone_dag_closure",
	"milestone_status_closure",
	"capability_registry_closure",
	"capability_obligation_closure",
	"program_p0_issue_closure",
}

var dimensionIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var projectValidate *validator.Validate

func init() {
	projectValidate = validator.New()
	_ = projectValidate.RegisterValidation("dimension_id", func(fl validator.FieldLevel) bool {
		return dimensionIDPattern.MatchString(fl.Field().String())
	})
}

// MilestoneConfig locates issue documents and declares cross-document edges.
type MilestoneConfig struct {
	Issues        []string            `yaml:"issues" validate:"dive,required"`
	ExplicitEdges map[string][]string `yaml:"explicit_edges" validate:"dive,keys,required,endkeys,dive,required"`
}

// CapabilityConfig locates the capability registry and obligations table.
type CapabilityConfig struct {
	Registry    string `yaml:"registry" validate:"required"`
	Obligations string `yaml:"obligations" validate:"required"`
	Previous    string `yaml:"previous,omitempty"`
}

// EvidenceConfig lists the directories scanned for theorem declarations.
type EvidenceConfig struct {
	TheoremDirs []string `yaml:"theorem_dirs" validate:"dive,required"`
}

// ReadinessConfig selects the dimensions that gate a release.
type ReadinessConfig struct {
	MandatoryDimensions []string `yaml:"mandatory_dimensions" validate:"min=1,dive,dimension_id"`
	Checks              string   `yaml:"checks,omitempty"`
	Certificate         string   `yaml:"certificate"`
}

// ProjectConfig models roadmap.yaml.
type ProjectConfig struct {
	Version      int              `yaml:"version" validate:"eq=1"`
	LogLevel     string           `yaml:"log_level" validate:"oneof=debug info warn error"`
	Milestones   MilestoneConfig  `yaml:"milestones"`
	Capabilities CapabilityConfig `yaml:"capabilities"`
	Evidence     EvidenceConfig   `yaml:"evidence"`
	Readiness    ReadinessConfig  `yaml:"readiness"`
}

// Config is the resolved configuration of one run.
type Config struct {
	// Root is the repository root every relative path resolves against.
	Root string
	// Path is the configuration file consulted, whether or not it exists.
	Path string
	// Loaded reports whether Path was found and parsed.
	Loaded  bool
	Project ProjectConfig
}

// Load reads the configuration for root. An empty path selects
// roadmap.yaml under root, which may be absent. An explicitly named file
// must exist.
func Load(root, path string) (*Config, error) {
	root = filepath.Clean(root)
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = filepath.Join(root, DefaultFileName)
	} else {
		path = resolvePath(root, path)
	}
	cfg := &Config{Root: root, Path: path, Project: defaultProjectConfig()}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Project = parsed
	cfg.Loaded = true
	return cfg, nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.LogLevel) == "" {
		pc.LogLevel = defaultLogLevel
	}
	if len(pc.Milestones.Issues) == 0 {
		pc.Milestones.Issues = []string{defaultIssuePattern}
	}
	if pc.Milestones.ExplicitEdges == nil {
		pc.Milestones.ExplicitEdges = map[string][]string{}
	}
	if strings.TrimSpace(pc.Capabilities.Registry) == "" {
		pc.Capabilities.Registry = defaultRegistryPath
	}
	if strings.TrimSpace(pc.Capabilities.Obligations) == "" {
		pc.Capabilities.Obligations = defaultObligationsPath
	}
	if len(pc.Evidence.TheoremDirs) == 0 {
		pc.Evidence.TheoremDirs = append([]string{}, defaultTheoremDirs...)
	}
	if len(pc.Readiness.MandatoryDimensions) == 0 {
		pc.Readiness.MandatoryDimensions = append([]string{}, defaultMandatoryDimensions...)
	}
	if strings.TrimSpace(pc.Readiness.Certificate) == "" {
		pc.Readiness.Certificate = defaultCertificatePath
	}
}

func (pc *ProjectConfig) normalize() {
	pc.LogLevel = strings.ToLower(strings.TrimSpace(pc.LogLevel))
	pc.Milestones.Issues = trimAll(pc.Milestones.Issues)
	edges := make(map[string][]string, len(pc.Milestones.ExplicitEdges))
	for child, parents := range pc.Milestones.ExplicitEdges {
		child = strings.TrimSpace(child)
		edges[child] = append(edges[child], trimAll(parents)...)
	}
	pc.Milestones.ExplicitEdges = edges
	pc.Capabilities.Registry = strings.TrimSpace(pc.Capabilities.Registry)
	pc.Capabilities.Obligations = strings.TrimSpace(pc.Capabilities.Obligations)
	pc.Capabilities.Previous = strings.TrimSpace(pc.Capabilities.Previous)
	pc.Evidence.TheoremDirs = trimAll(pc.Evidence.TheoremDirs)
	pc.Readiness.MandatoryDimensions = trimAll(pc.Readiness.MandatoryDimensions)
	pc.Readiness.Checks = strings.TrimSpace(pc.Readiness.Checks)
	pc.Readiness.Certificate = strings.TrimSpace(pc.Readiness.Certificate)
}

func (pc *ProjectConfig) validate() error {
	if err := projectValidate.Struct(pc); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return fmt.Errorf("%s fails %q validation (value %v)", first.Namespace(), first.Tag(), first.Value())
		}
		return err
	}
	seen := map[string]struct{}{}
	for _, id := range pc.Readiness.MandatoryDimensions {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("readiness.mandatory_dimensions lists %q twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// LogLevel returns the configured diagnostics level.
func (c *Config) LogLevel() string {
	return c.Project.LogLevel
}

// IssuePatterns returns the glob patterns locating issue documents,
// relative to Root.
func (c *Config) IssuePatterns() []string {
	return append([]string{}, c.Project.Milestones.Issues...)
}

// ExplicitEdges returns a copy of the cross-document edge table.
func (c *Config) ExplicitEdges() map[string][]string {
	out := make(map[string][]string, len(c.Project.Milestones.ExplicitEdges))
	for child, parents := range c.Project.Milestones.ExplicitEdges {
		out[child] = append([]string{}, parents...)
	}
	return out
}

// RegistryPath returns the absolute registry location.
func (c *Config) RegistryPath() string {
	return resolvePath(c.Root, c.Project.Capabilities.Registry)
}

// PreviousRegistryPath returns the configured previous registry, or "".
func (c *Config) PreviousRegistryPath() string {
	return resolvePath(c.Root, c.Project.Capabilities.Previous)
}

// ObligationsPath returns the absolute obligations table location.
func (c *Config) ObligationsPath() string {
	return resolvePath(c.Root, c.Project.Capabilities.Obligations)
}

// TheoremDirs returns the theorem directories relative to Root.
func (c *Config) TheoremDirs() []string {
	return append([]string{}, c.Project.Evidence.TheoremDirs...)
}

// MandatoryDimensions returns the dimensions that gate a release.
func (c *Config) MandatoryDimensions() []string {
	return append([]string{}, c.Project.Readiness.MandatoryDimensions...)
}

// ChecksPath returns the external readiness checks file, or "".
func (c *Config) ChecksPath() string {
	return resolvePath(c.Root, c.Project.Readiness.Checks)
}

// CertificatePath returns where the readiness certificate is written.
func (c *Config) CertificatePath() string {
	return resolvePath(c.Root, c.Project.Readiness.Certificate)
}

// ResolvePath anchors a user supplied path at Root.
func (c *Config) ResolvePath(candidate string) string {
	return resolvePath(c.Root, candidate)
}

// Rel renders path relative to Root when it lies below it. Reports use it
// so output does not depend on where the repository is checked out.
func (c *Config) Rel(path string) string {
	rel, err := filepath.Rel(c.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
