package session

import "fmt"

// State is a render session lifecycle phase.
type State string

const (
	StateIdle            State = "idle"
	StatePreparing       State = "preparing"
	StateProxyBuilding   State = "proxy-building"
	StateNativeRendering State = "native-rendering"
	StatePlaying         State = "playing"
	StateReconfiguring   State = "reconfiguring"
	StateStopping        State = "stopping"
	StateStopped         State = "stopped"
)

// transitions lists the legal moves out of each state.
var transitions = map[State][]State{
	StateIdle:            {StatePreparing},
	StatePreparing:       {StateProxyBuilding, StateNativeRendering, StateIdle, StateStopped},
	StateProxyBuilding:   {StatePlaying, StateStopped},
	StateNativeRendering: {StatePlaying, StateStopped},
	StatePlaying:         {StateReconfiguring, StateStopping, StateStopped},
	StateReconfiguring:   {StateStopping},
	StateStopping:        {StateStopped},
	StateStopped:         nil,
}

// canTransition reports whether moving from one state to the next is legal.
// A zero-value session has never transitioned, which is the same as idle.
func canTransition(from, to State) bool {
	if from == "" {
		from = StateIdle
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s == StateStopped
}

func (s State) String() string { return string(s) }

// invalidTransition builds the error for an illegal state move.
func invalidTransition(from, to State) error {
	return fmt.Errorf("invalid session transition %s -> %s", from, to)
}
