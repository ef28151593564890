package core

import (
	"fmt"
	"strings"
)

// State is the workflow keyword carried by a block, right after its bullet.
type State string

const (
	StateNone  State = ""
	StateTodo  State = "TODO"
	StateDoing State = "DOING"
	StateNow   State = "NOW"
	StateLater State = "LATER"
	StateDone  State = "DONE"
)

// States lists the workflow keywords in matching order.
var States = []State{StateTodo, StateDoing, StateNow, StateLater, StateDone}

// Valid reports whether s is one of the workflow keywords or StateNone.
func (s State) Valid() bool {
	if s == StateNone {
		return true
	}
	for _, k := range States {
		if s == k {
			return true
		}
	}
	return false
}

// Open reports whether s marks a task that is not finished.
func (s State) Open() bool {
	return s != StateNone && s != StateDone && s.Valid()
}

// ParseState converts a keyword (case-insensitive) to a State.
// "" and "none" map to StateNone.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return StateNone, nil
	}
	st := State(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return StateNone, fmt.Errorf("%w: unknown workflow state %q", ErrInvalidInput, s)
	}
	return st, nil
}

// marker is the text that carries the state in a block line.
func (s State) marker() string {
	if s == StateNone {
		return "- "
	}
	return "- " + string(s) + " "
}

// matchState returns the keyword directly following the bullet of an
// unindented line.
func matchState(text string) State {
	for _, s := range States {
		if strings.HasPrefix(text, s.marker()) {
			return s
		}
	}
	return StateNone
}
