package capability

import (
	"fmt"
	"sort"
)

// RemovedWithoutMigrationError reports a capability present in the previous
// snapshot and absent from the current one.
type RemovedWithoutMigrationError struct {
	ID string
}

func (e *RemovedWithoutMigrationError) Error() string {
	return fmt.Sprintf("transition: capability removed without migration policy: %s", e.ID)
}

// IllegalTransitionError reports a channel that moved down the lattice.
type IllegalTransitionError struct {
	ID      string
	Channel Channel
	From    State
	To      State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("transition: illegal state change for %s.%s: %s -> %s", e.ID, e.Channel, e.From, e.To)
}

// ValidateTransitions compares two snapshots. Removed ids come first, sorted;
// then each shared id, sorted, channel by channel. Channels whose state does
// not parse on either side are left to ValidateSnapshot.
func ValidateTransitions(prev, cur *Registry) []error {
	before := prev.States()
	after := cur.States()

	var removed, shared []string
	for id := range before {
		if _, ok := after[id]; ok {
			shared = append(shared, id)
			continue
		}
		removed = append(removed, id)
	}
	sort.Strings(removed)
	sort.Strings(shared)

	var errs []error
	for _, id := range removed {
		errs = append(errs, &RemovedWithoutMigrationError{ID: id})
	}
	for _, id := range shared {
		for _, ch := range Channels {
			from, okFrom := ParseState(before[id].Get(ch))
			to, okTo := ParseState(after[id].Get(ch))
			if !okFrom || !okTo {
				continue
			}
			if !CanTransition(from, to) {
				errs = append(errs, &IllegalTransitionError{ID: id, Channel: ch, From: from, To: to})
			}
		}
	}
	return errs
}

// Validate checks cur and, when prev is given, prev plus the transitions
// between them. Transitions are only compared when prev is itself valid.
func Validate(cur, prev *Registry) []error {
	errs := ValidateSnapshot(cur)
	if prev == nil {
		return errs
	}
	prevErrs := ValidateSnapshot(prev)
	errs = append(errs, prevErrs...)
	if len(prevErrs) == 0 {
		errs = append(errs, ValidateTransitions(prev, cur)...)
	}
	return errs
}
