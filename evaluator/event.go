// evaluator/event.go
package evaluator

import "shelfquest/models"

// Event is one candidate award produced by an evaluator for one user-cycle.
// Events are transient: evaluators may re-emit the same achievement every
// cycle and rely on the ledger to collapse duplicates.
type Event struct {
	Rule     models.Achievement
	Evidence models.Evidence
}

func newEvent(rule models.Achievement, evidence models.Evidence) Event {
	return Event{Rule: rule, Evidence: evidence}
}
