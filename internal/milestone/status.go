package milestone

import (
	"fmt"
	"regexp"
)

const notDoneText = "NOT DONE"

var doneStatusPattern = regexp.MustCompile(`^DONE - ([0-9a-f]{7,40})$`)

// Status is a milestone's completion state. A done milestone carries the
// commit hash that proves completion.
type Status struct {
	Done   bool
	Commit string
}

// NotDone is the status of every milestone that has not been completed, and of
// milestones whose document carries no status line.
var NotDone = Status{}

// Done returns the status of a milestone completed at commit.
func Done(commit string) Status {
	return Status{Done: true, Commit: commit}
}

// ParseStatus decodes the text that follows "Status:" in an issue document.
func ParseStatus(text string) (Status, error) {
	if text == notDoneText {
		return NotDone, nil
	}
	if match := doneStatusPattern.FindStringSubmatch(text); match != nil {
		return Done(match[1]), nil
	}
	return Status{}, fmt.Errorf("milestone: invalid status %q", text)
}

// String renders the status the way issue documents spell it.
func (s Status) String() string {
	if !s.Done {
		return notDoneText
	}
	return "DONE - " + s.Commit
}
