// Package machine implements a minimal allowed-transition state machine
// used to drive the interactive resolution flow.
package machine

import "errors"

type State interface {
	~string
}

var ErrInvalidTransition = errors.New("invalid state transition")

// Allowable maps where a from state is allowed to transition to.
type Allowable[S State] struct {
	from S
	to   []S
}

// TransitionBuilder helps in creating a from-to relationship for state transitions.
type TransitionBuilder[S State] struct {
	transition Allowable[S]
}

// From initializes a transition from a specific state.
func From[S State](from S) *TransitionBuilder[S] {
	return &TransitionBuilder[S]{transition: Allowable[S]{from: from}}
}

// To sets the possible destination states and returns the configured transition.
func (tb *TransitionBuilder[S]) To(to ...S) Allowable[S] {
	tb.transition.to = to
	return tb.transition
}

// StateMachine tracks a current state and its allowed transitions.
type StateMachine[S State] struct {
	current     S
	transitions []Allowable[S]
}

func New[S State](initial S, transitions ...Allowable[S]) *StateMachine[S] {
	return &StateMachine[S]{current: initial, transitions: transitions}
}

// Current returns the state the machine is in.
func (m *StateMachine[S]) Current() S {
	return m.current
}

// CanTransition reports whether the machine may move to s from its current state.
func (m *StateMachine[S]) CanTransition(s S) bool {
	for _, t := range m.transitions {
		if t.from != m.current {
			continue
		}
		for _, to := range t.to {
			if to == s {
				return true
			}
		}
	}
	return false
}

// Transition moves the machine to s if the move is allowed.
func (m *StateMachine[S]) Transition(s S) error {
	if !m.CanTransition(s) {
		return ErrInvalidTransition
	}
	m.current = s
	return nil
}
