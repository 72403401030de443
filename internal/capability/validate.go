package capability

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var idPattern = regexp.MustCompile(`^cap\.[a-z0-9_.-]+$`)

// ValidID reports whether id is a well-formed capability id.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// ValidateSnapshot checks one registry on its own and returns every problem
// found, in registry order.
func ValidateSnapshot(reg *Registry) []error {
	var errs []error
	if reg.Version != SupportVersion {
		errs = append(errs, fmt.Errorf("%s: version must be %d", reg.Path, SupportVersion))
	}
	if len(reg.Capabilities) == 0 {
		return append(errs, fmt.Errorf("%s: capabilities must be a non-empty list", reg.Path))
	}

	seen := map[string]struct{}{}
	var ordered []string
	for index, capability := range reg.Capabilities {
		ctx := fmt.Sprintf("%s: capabilities[%d]", reg.Path, index)
		switch {
		case !ValidID(capability.ID):
			errs = append(errs, fmt.Errorf("%s.capability_id: invalid capability id '%s'", ctx, capability.ID))
		default:
			if _, dup := seen[capability.ID]; dup {
				errs = append(errs, fmt.Errorf("%s.capability_id: duplicate capability id '%s'", ctx, capability.ID))
				break
			}
			seen[capability.ID] = struct{}{}
			ordered = append(ordered, capability.ID)
		}
		if !capability.FamilyGroup.Valid() {
			errs = append(errs, fmt.Errorf("%s.family_group: invalid value '%s'", ctx, capability.FamilyGroup))
		}
		errs = append(errs, validateSupport(ctx, capability)...)
		errs = append(errs, validateMetadata(ctx, capability)...)
	}
	if !sort.StringsAreSorted(ordered) {
		errs = append(errs, fmt.Errorf("%s: capabilities must be sorted by capability_id", reg.Path))
	}
	return errs
}

func validateSupport(ctx string, capability Capability) []error {
	if capability.SupportState == nil {
		return []error{fmt.Errorf("%s.support_state: expected object", ctx)}
	}
	support := *capability.SupportState
	var errs []error
	for _, ch := range Channels {
		if _, ok := ParseState(support.Get(ch)); !ok {
			errs = append(errs, fmt.Errorf("%s.support_state.%s: invalid state '%s'", ctx, ch, support.Get(ch)))
		}
	}
	implemented := Implemented.String()
	if support.Overall == implemented && (support.Sierra != implemented || support.Cairo != implemented) {
		errs = append(errs, fmt.Errorf("%s.support_state: overall=implemented requires sierra=implemented and cairo=implemented", ctx))
	}
	if support.Overall == Planned.String() && support.Sierra == implemented && support.Cairo == implemented {
		errs = append(errs, fmt.Errorf("%s.support_state: overall=planned is inconsistent with both backends implemented", ctx))
	}

	constraintErrs, constraints := stringList(ctx+".divergence_constraints", capability.DivergenceConstraints)
	errs = append(errs, constraintErrs...)
	if support.Sierra != support.Cairo && len(constraints) == 0 {
		errs = append(errs, fmt.Errorf("%s: divergent backend states require non-empty divergence_constraints", ctx))
	}
	return errs
}

func validateMetadata(ctx string, capability Capability) []error {
	var errs []error
	if capability.MIRNodes != nil {
		listErrs, nodes := stringList(ctx+".mir_nodes", capability.MIRNodes)
		errs = append(errs, listErrs...)
		if len(nodes) == 0 {
			errs = append(errs, fmt.Errorf("%s.mir_nodes: list must be non-empty", ctx))
		}
	}
	listErrs, _ := stringList(ctx+".resource_requirements", capability.ResourceRequirements)
	errs = append(errs, listErrs...)
	if capability.SemanticClass != "" {
		if _, ok := semanticClasses[capability.SemanticClass]; !ok {
			errs = append(errs, fmt.Errorf("%s.semantic_class: invalid value '%s'", ctx, capability.SemanticClass))
		}
	}
	if capability.ProofStatus != "" {
		if _, ok := proofStatuses[capability.ProofStatus]; !ok {
			errs = append(errs, fmt.Errorf("%s.proof_status: invalid value '%s'", ctx, capability.ProofStatus))
		}
	}
	for _, class := range []struct {
		key   string
		value *string
	}{
		{"proof_class", capability.ProofClass},
		{"test_class", capability.TestClass},
		{"benchmark_class", capability.BenchmarkClass},
	} {
		if class.value != nil && strings.TrimSpace(*class.value) == "" {
			errs = append(errs, fmt.Errorf("%s.%s: expected non-empty string", ctx, class.key))
		}
	}
	return errs
}

// stringList reports blank and duplicated entries and returns the usable ones.
func stringList(ctx string, values []string) ([]error, []string) {
	var (
		errs []error
		out  []string
	)
	seen := map[string]struct{}{}
	duplicated := false
	for index, value := range values {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: expected non-empty string", ctx, index))
			continue
		}
		if _, ok := seen[value]; ok {
			duplicated = true
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	if duplicated {
		errs = append(errs, fmt.Errorf("%s: list entries must be unique", ctx))
	}
	return errs, out
}
