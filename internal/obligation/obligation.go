// Package obligation checks that every capability claiming a support state
// carries the proof, test and benchmark evidence that state requires.
package obligation

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kingrea/roadmap-gate/internal/capability"
)

// SupportVersion is the only obligations schema version accepted.
const SupportVersion = 1

// Entry maps one capability to the evidence backing its support states.
type Entry struct {
	CapabilityID      string   `json:"capability_id"`
	RequiredForStates []string `json:"required_for_states"`
	ProofRefs         []string `json:"proof_refs"`
	TestRefs          []string `json:"test_refs"`
	BenchmarkRefs     []string `json:"benchmark_refs"`
	Notes             string   `json:"notes,omitempty"`

	missing []string
}

// requiredKeys must appear in every entry, even when their list is empty.
var requiredKeys = []string{"benchmark_refs", "proof_refs", "required_for_states", "test_refs"}

// UnmarshalJSON decodes an entry and records which required keys were absent.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*e = Entry(decoded)
	e.missing = nil
	for _, key := range requiredKeys {
		if _, ok := keys[key]; !ok {
			e.missing = append(e.missing, key)
		}
	}
	return nil
}

// Requires reports whether the entry lists state among its required states.
func (e Entry) Requires(state capability.State) bool {
	for _, name := range e.RequiredForStates {
		if strings.TrimSpace(name) == state.String() {
			return true
		}
	}
	return false
}

// Table is the decoded obligations file.
type Table struct {
	Path        string  `json:"-"`
	Version     int     `json:"version"`
	Obligations []Entry `json:"obligations"`
}

// Load reads and decodes an obligations file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("obligation: read table: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes obligations JSON; path is only used for messages.
func Parse(path string, data []byte) (*Table, error) {
	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("obligation: parse %s: %w", path, err)
	}
	table.Path = path
	return &table, nil
}

// Resolver answers whether evidence references exist.
type Resolver interface {
	HasTheorem(name string) bool
	ResolveFile(ref string) error
}

// MissingObligationError reports an implemented capability with no entry.
type MissingObligationError struct {
	ID string
}

func (e *MissingObligationError) Error() string {
	return fmt.Sprintf("missing obligation entry for implemented capability '%s'", e.ID)
}

// UnsatisfiedStateError reports an entry that does not cover the state the
// registry claims for its capability.
type UnsatisfiedStateError struct {
	ID    string
	State capability.State
}

func (e *UnsatisfiedStateError) Error() string {
	return fmt.Sprintf("obligation entry for capability '%s' does not cover required state '%s'", e.ID, e.State)
}

// Check validates the table against the registry and the evidence resolver
// and returns every violation. Entries are checked in capability id order so
// the output does not depend on their order in the file.
func Check(reg *capability.Registry, table *Table, resolver Resolver) []error {
	var errs []error
	if table.Version != SupportVersion {
		errs = append(errs, fmt.Errorf("%s: version must be %d", table.Path, SupportVersion))
	}
	if len(table.Obligations) == 0 {
		errs = append(errs, fmt.Errorf("%s: obligations must be a non-empty list", table.Path))
	}

	entries := make([]Entry, len(table.Obligations))
	copy(entries, table.Obligations)
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.TrimSpace(entries[i].CapabilityID) < strings.TrimSpace(entries[j].CapabilityID)
	})

	byID := map[string]Entry{}
	for _, entry := range entries {
		id := strings.TrimSpace(entry.CapabilityID)
		if id == "" {
			errs = append(errs, fmt.Errorf("%s: obligation entry has an empty capability_id", table.Path))
			continue
		}
		ctx := fmt.Sprintf("%s: obligations[%s]", table.Path, id)
		if _, dup := byID[id]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate capability_id '%s'", ctx, id))
			continue
		}
		byID[id] = entry
		if _, ok := reg.Lookup(id); !ok {
			errs = append(errs, fmt.Errorf("%s: unknown capability_id '%s'", ctx, id))
		}
		if len(entry.missing) > 0 {
			errs = append(errs, fmt.Errorf("%s: missing keys: %s", ctx, strings.Join(entry.missing, ", ")))
			continue
		}
		errs = append(errs, checkEntry(ctx, entry, resolver)...)
	}

	for _, id := range reg.OverallImplemented() {
		entry, ok := byID[id]
		switch {
		case !ok:
			errs = append(errs, &MissingObligationError{ID: id})
		case !entry.Requires(capability.Implemented):
			errs = append(errs, &UnsatisfiedStateError{ID: id, State: capability.Implemented})
		}
	}
	return errs
}

func checkEntry(ctx string, entry Entry, resolver Resolver) []error {
	stateErrs, states := refList(ctx+".required_for_states", entry.RequiredForStates)
	errs := stateErrs
	var invalid []string
	for _, state := range states {
		if _, ok := capability.ParseState(state); !ok {
			invalid = append(invalid, state)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		errs = append(errs, fmt.Errorf("%s.required_for_states: invalid states: %s", ctx, strings.Join(invalid, ", ")))
	}

	proofErrs, proofs := refList(ctx+".proof_refs", entry.ProofRefs)
	testErrs, tests := refList(ctx+".test_refs", entry.TestRefs)
	benchErrs, benches := refList(ctx+".benchmark_refs", entry.BenchmarkRefs)
	errs = append(errs, proofErrs...)
	errs = append(errs, testErrs...)
	errs = append(errs, benchErrs...)

	for _, theorem := range proofs {
		if !resolver.HasTheorem(theorem) {
			errs = append(errs, fmt.Errorf("%s.proof_refs: unknown theorem reference '%s'", ctx, theorem))
		}
	}
	for _, ref := range tests {
		if err := resolver.ResolveFile(ref); err != nil {
			errs = append(errs, fmt.Errorf("%s.test_refs: %w: '%s'", ctx, err, ref))
		}
	}
	for _, ref := range benches {
		if err := resolver.ResolveFile(ref); err != nil {
			errs = append(errs, fmt.Errorf("%s.benchmark_refs: %w: '%s'", ctx, err, ref))
		}
	}

	if entry.Requires(capability.Implemented) {
		if len(proofs) == 0 {
			errs = append(errs, fmt.Errorf("%s: implemented obligations require non-empty proof_refs", ctx))
		}
		if len(tests) == 0 {
			errs = append(errs, fmt.Errorf("%s: implemented obligations require non-empty test_refs", ctx))
		}
		if len(benches) == 0 {
			errs = append(errs, fmt.Errorf("%s: implemented obligations require non-empty benchmark_refs", ctx))
		}
	}
	if entry.Requires(capability.FailFast) && len(tests) == 0 {
		errs = append(errs, fmt.Errorf("%s: fail_fast obligations require non-empty test_refs", ctx))
	}
	return errs
}

// refList trims the values and reports blank and duplicated entries.
func refList(ctx string, values []string) ([]error, []string) {
	var (
		errs []error
		out  []string
	)
	seen := map[string]struct{}{}
	duplicated := false
	for index, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: expected non-empty string", ctx, index))
			continue
		}
		if _, ok := seen[value]; ok {
			duplicated = true
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	if duplicated {
		errs = append(errs, fmt.Errorf("%s: values must be unique", ctx))
	}
	return errs, out
}
