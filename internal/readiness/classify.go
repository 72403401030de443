// Package readiness reduces boolean readiness checks into per-dimension
// closure verdicts and combines mandatory dimensions into one program result.
package readiness

// Status is the closure verdict of one dimension.
type Status string

const (
	Ready              Status = "ready"
	ConditionallyReady Status = "conditionally_ready"
	NotReady           Status = "not_ready"
	Missing            Status = "missing"
)

const noChecksDiagnostic = "no readiness checks recorded"

// Check is one boolean predicate backing a dimension.
type Check struct {
	Name       string `json:"name" yaml:"name"`
	Passed     bool   `json:"passed" yaml:"passed"`
	Diagnostic string `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
}

// DimensionRow is the classified state of one dimension.
type DimensionRow struct {
	ID          string   `json:"dimension_id"`
	Checks      []Check  `json:"checks"`
	Status      Status   `json:"status"`
	Diagnostics []string `json:"diagnostics"`
}

// ClassifyResults reduces predicate results to a verdict. An empty list is
// never ready.
func ClassifyResults(results []bool) Status {
	if len(results) == 0 {
		return NotReady
	}
	passed := 0
	for _, ok := range results {
		if ok {
			passed++
		}
	}
	switch passed {
	case len(results):
		return Ready
	case 0:
		return NotReady
	default:
		return ConditionallyReady
	}
}

// Classify builds the row of one dimension. When located is false the
// dimension's inputs could not be found and the row is missing regardless of
// checks. Diagnostics are those of the failing checks, in check order.
func Classify(id string, checks []Check, located bool) DimensionRow {
	row := DimensionRow{ID: id, Checks: append([]Check(nil), checks...), Diagnostics: []string{}}
	if row.Checks == nil {
		row.Checks = []Check{}
	}
	if !located {
		row.Status = Missing
		for _, check := range checks {
			if check.Diagnostic != "" {
				row.Diagnostics = append(row.Diagnostics, check.Diagnostic)
			}
		}
		return row
	}
	results := make([]bool, len(checks))
	for i, check := range checks {
		results[i] = check.Passed
		if !check.Passed && check.Diagnostic != "" {
			row.Diagnostics = append(row.Diagnostics, check.Diagnostic)
		}
	}
	row.Status = ClassifyResults(results)
	if len(checks) == 0 {
		row.Diagnostics = append(row.Diagnostics, noChecksDiagnostic)
	}
	return row
}

// MissingRow is the row of a dimension whose inputs could not be located.
func MissingRow(id, diagnostic string) DimensionRow {
	row := Classify(id, nil, false)
	if diagnostic != "" {
		row.Diagnostics = append(row.Diagnostics, diagnostic)
	}
	return row
}
