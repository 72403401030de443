package capability

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// SupportVersion is the only registry schema version accepted.
const SupportVersion = 1

// SupportState holds the raw per-channel state names of a capability.
type SupportState struct {
	Sierra  string `json:"sierra"`
	Cairo   string `json:"cairo"`
	Overall string `json:"overall"`
}

// Get returns the raw state name of one channel.
func (s SupportState) Get(ch Channel) string {
	switch ch {
	case Sierra:
		return s.Sierra
	case Cairo:
		return s.Cairo
	default:
		return s.Overall
	}
}

// Capability is one registry entry. Only the identity, family and support
// states are mandatory; the descriptive metadata is checked when present.
type Capability struct {
	ID                    string        `json:"capability_id"`
	FamilyGroup           FamilyGroup   `json:"family_group"`
	SupportState          *SupportState `json:"support_state"`
	DivergenceConstraints []string      `json:"divergence_constraints,omitempty"`
	MIRNodes              []string      `json:"mir_nodes,omitempty"`
	ResourceRequirements  []string      `json:"resource_requirements,omitempty"`
	SemanticClass         string        `json:"semantic_class,omitempty"`
	ProofClass            *string       `json:"proof_class,omitempty"`
	ProofStatus           string        `json:"proof_status,omitempty"`
	TestClass             *string       `json:"test_class,omitempty"`
	BenchmarkClass        *string       `json:"benchmark_class,omitempty"`
}

// Registry is one snapshot of the capability registry.
type Registry struct {
	Path         string       `json:"-"`
	Version      int          `json:"version"`
	Capabilities []Capability `json:"capabilities"`
}

// Load reads and decodes a registry file. Unreadable files, invalid JSON and
// values of the wrong JSON type are structural errors.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capability: read registry: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes registry JSON; path is only used for messages.
func Parse(path string, data []byte) (*Registry, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("capability: parse %s: %w", path, err)
	}
	reg.Path = path
	return &reg, nil
}

// Lookup returns the first capability declared with id.
func (r *Registry) Lookup(id string) (Capability, bool) {
	for _, capability := range r.Capabilities {
		if capability.ID == id {
			return capability, true
		}
	}
	return Capability{}, false
}

// States maps every well-formed capability id to its support states. The
// first declaration wins for duplicated ids.
func (r *Registry) States() map[string]SupportState {
	out := make(map[string]SupportState, len(r.Capabilities))
	for _, capability := range r.Capabilities {
		if !ValidID(capability.ID) {
			continue
		}
		if _, seen := out[capability.ID]; seen {
			continue
		}
		if capability.SupportState == nil {
			out[capability.ID] = SupportState{}
			continue
		}
		out[capability.ID] = *capability.SupportState
	}
	return out
}

// IDs returns every well-formed capability id in sorted order.
func (r *Registry) IDs() []string {
	states := r.States()
	out := make([]string, 0, len(states))
	for id := range states {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// OverallImplemented returns the sorted ids whose overall state is implemented.
func (r *Registry) OverallImplemented() []string {
	states := r.States()
	var out []string
	for _, id := range r.IDs() {
		if states[id].Overall == Implemented.String() {
			out = append(out, id)
		}
	}
	return out
}
