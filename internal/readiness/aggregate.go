package readiness

import (
	"fmt"
	"strings"
)

// Result is the program verdict.
type Result string

const (
	Pass    Result = "PASS"
	Blocked Result = "BLOCKED"
)

// Track prefixes group mandatory dimensions in the closure summary.
var trackPrefixes = []struct {
	name   string
	prefix string
}{
	{"track_a", "track_a_"},
	{"track_b", "track_b_"},
	{"program", "program_"},
}

// TrackSummary counts ready mandatory dimensions of one track.
type TrackSummary struct {
	Ready  int `json:"ready"`
	Target int `json:"target"`
}

// Program is the aggregated readiness verdict.
type Program struct {
	Result            Result                  `json:"result"`
	MandatoryDims     []string                `json:"mandatory_dimensions"`
	DimensionStatuses map[string]Status       `json:"dimension_statuses"`
	ReadyDimensions   int                     `json:"ready_dimensions"`
	TargetDimensions  int                     `json:"target_dimensions"`
	BlockingReasons   []string                `json:"blocking_reasons"`
	ClosureSummary    map[string]TrackSummary `json:"closure_summary"`
	Rows              []DimensionRow          `json:"rows"`
}

// Aggregate combines rows into the program verdict. The result is PASS only
// when every mandatory dimension is ready; a mandatory dimension without a
// row counts as missing. Reasons follow mandatory order, and the
// diagnostics of blocking dimensions follow the reasons.
func Aggregate(mandatory []string, rows []DimensionRow) Program {
	byID := make(map[string]DimensionRow, len(rows))
	for _, row := range rows {
		if _, seen := byID[row.ID]; !seen {
			byID[row.ID] = row
		}
	}

	program := Program{
		MandatoryDims:     append([]string{}, mandatory...),
		DimensionStatuses: make(map[string]Status, len(mandatory)),
		TargetDimensions:  len(mandatory),
		BlockingReasons:   []string{},
		ClosureSummary:    map[string]TrackSummary{},
		Rows:              append([]DimensionRow{}, rows...),
	}
	for _, track := range trackPrefixes {
		program.ClosureSummary[track.name] = TrackSummary{}
	}

	var details []string
	for _, id := range mandatory {
		status := Missing
		row, ok := byID[id]
		if ok {
			status = row.Status
		}
		program.DimensionStatuses[id] = status
		if status == Ready {
			program.ReadyDimensions++
		} else {
			program.BlockingReasons = append(program.BlockingReasons, fmt.Sprintf("mandatory dimension not ready: %s=%s", id, status))
			for _, diagnostic := range row.Diagnostics {
				details = append(details, fmt.Sprintf("%s: %s", id, diagnostic))
			}
		}
		for _, track := range trackPrefixes {
			if !strings.HasPrefix(id, track.prefix) {
				continue
			}
			summary := program.ClosureSummary[track.name]
			summary.Target++
			if status == Ready {
				summary.Ready++
			}
			program.ClosureSummary[track.name] = summary
		}
	}
	program.BlockingReasons = append(program.BlockingReasons, details...)
	program.Result = Pass
	if len(program.BlockingReasons) > 0 {
		program.Result = Blocked
	}
	return program
}

// Passed reports whether the program may proceed.
func (p Program) Passed() bool {
	return p.Result == Pass
}
