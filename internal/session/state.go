// Package session holds per-user conversation state.
//
// A conversation is always in exactly one of three states:
//
//	Idle                     no flow active
//	Creating{Step, Draft}    collecting the card field by field
//	Editing{Field}           waiting for a new value of one field
//
// State is a sealed interface; only the three types above implement it, so
// a type switch over State with those three cases is exhaustive.
package session

import (
	"fmt"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
)

// State is the conversation state of one user.
type State interface {
	// stateMarker is a private method to restrict implementers
	stateMarker()

	// Name is a short label for logs and scenario assertions
	// ("idle", "creating/phone", "editing/name").
	Name() string
}

// Idle means no flow is active.
type Idle struct{}

// Creating is an active create flow waiting for Step.
// Draft holds the fields collected before Step.
type Creating struct {
	Step  card.Field
	Draft card.Card
}

// Editing is an active edit flow waiting for a new value of Field.
type Editing struct {
	Field card.Field
}

func (Idle) stateMarker()     {}
func (Creating) stateMarker() {}
func (Editing) stateMarker()  {}

func (Idle) Name() string { return "idle" }

func (s Creating) Name() string { return fmt.Sprintf("creating/%s", s.Step) }

func (s Editing) Name() string { return fmt.Sprintf("editing/%s", s.Field) }

// StartCreating returns the initial state of a create flow.
func StartCreating() Creating {
	return Creating{Step: card.First()}
}

// Advance records value for the current step and moves to the next one.
// done is true when Step was the last field; the returned draft is then
// complete and the returned state must not be stored.
func (s Creating) Advance(value string) (next Creating, done bool) {
	next = Creating{Draft: s.Draft.With(s.Step, value)}
	step, ok := s.Step.Next()
	if !ok {
		next.Step = s.Step
		return next, true
	}
	next.Step = step
	return next, false
}
