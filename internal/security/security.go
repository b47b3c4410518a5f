// Package security holds the behavioural model shared by every
// security-capable device: four latching states and the table that moves
// between them.
package security

import "fmt"

type State int

const (
	StateOff State = iota
	StateArmed
	StateDetected
	StateBlocked

	numStates = iota
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "OFF"
	case StateArmed:
		return "ARMED"
	case StateDetected:
		return "DETECTED"
	case StateBlocked:
		return "BLOCKED"
	default:
		return fmt.Sprintf("Unknown State(%d)", s)
	}
}

func (s State) valid() bool {
	return s >= 0 && s < numStates
}

type Action int

const (
	ActionArm Action = iota
	ActionDisarm
	ActionTrigger
	ActionUnblock

	numActions = iota
)

func (a Action) String() string {
	switch a {
	case ActionArm:
		return "arm"
	case ActionDisarm:
		return "disarm"
	case ActionTrigger:
		return "trigger"
	case ActionUnblock:
		return "unblock"
	default:
		return fmt.Sprintf("Unknown Action(%d)", a)
	}
}

func (a Action) valid() bool {
	return a >= 0 && a < numActions
}

// Outcome tells a caller what an action did to the state.
type Outcome int

const (
	OutcomeChanged Outcome = iota
	OutcomeNoOp
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeChanged:
		return "changed"
	case OutcomeNoOp:
		return "no-op"
	case OutcomeRejected:
		return "rejected"
	default:
		return fmt.Sprintf("Unknown Outcome(%d)", o)
	}
}

type rule struct {
	next    State
	outcome Outcome
	// format receives the device name.
	format string
}

func change(next State, format string) rule {
	return rule{next: next, outcome: OutcomeChanged, format: format}
}

func stay(s State, format string) rule {
	return rule{next: s, outcome: OutcomeNoOp, format: format}
}

func reject(s State, format string) rule {
	return rule{next: s, outcome: OutcomeRejected, format: format}
}

// table is indexed [state][action]; every cell must be filled.
var table = [numStates][numActions]rule{
	StateOff: {
		ActionArm:     change(StateArmed, "%s is now ARMED."),
		ActionDisarm:  stay(StateOff, "%s is already OFF."),
		ActionTrigger: stay(StateOff, "%s is OFF; ignoring trigger."),
		ActionUnblock: stay(StateOff, "%s is not blocked."),
	},
	StateArmed: {
		ActionArm:     stay(StateArmed, "%s is already ARMED."),
		ActionDisarm:  change(StateOff, "%s is now DISARMED."),
		ActionTrigger: change(StateDetected, "%s has DETECTED a breach!"),
		ActionUnblock: stay(StateArmed, "%s is not blocked."),
	},
	StateDetected: {
		ActionArm:     reject(StateDetected, "%s: clear the alert first."),
		ActionDisarm:  change(StateOff, "Alert cleared. %s is now OFF."),
		ActionTrigger: stay(StateDetected, "%s is already triggered."),
		ActionUnblock: stay(StateDetected, "%s is not blocked."),
	},
	StateBlocked: {
		ActionArm:     reject(StateBlocked, "%s: system is locked down!"),
		ActionDisarm:  reject(StateBlocked, "%s: system is locked down!"),
		ActionTrigger: reject(StateBlocked, "%s is blocked."),
		ActionUnblock: change(StateOff, "%s has been UNBLOCKED."),
	},
}

// Transition is the pure form of the table.
func Transition(s State, a Action) (State, Outcome) {
	if !s.valid() || !a.valid() {
		return s, OutcomeRejected
	}
	r := table[s][a]
	return r.next, r.outcome
}

// Result describes one applied action.
type Result struct {
	Action  Action
	From    State
	To      State
	Outcome Outcome
	Message string
}

// Changed reports whether the action moved the machine to another state.
func (r Result) Changed() bool {
	return r.Outcome == OutcomeChanged
}

// Entered reports whether the action moved the machine into s.
func (r Result) Entered(s State) bool {
	return r.Changed() && r.To == s && r.From != s
}

// Machine owns exactly one authoritative state. The zero value is Off.
type Machine struct {
	state State
}

func (m *Machine) State() State {
	return m.state
}

// Apply runs a through the table on behalf of the named device.
func (m *Machine) Apply(name string, a Action) Result {
	res := Result{Action: a, From: m.state}
	if !m.state.valid() || !a.valid() {
		res.To = m.state
		res.Outcome = OutcomeRejected
		res.Message = fmt.Sprintf("%s: cannot %s from %s.", name, a, m.state)
		return res
	}
	r := table[m.state][a]
	m.state = r.next
	res.To = r.next
	res.Outcome = r.outcome
	res.Message = fmt.Sprintf(r.format, name)
	return res
}

// Force replaces the state regardless of the table and returns the previous
// one.
func (m *Machine) Force(s State) State {
	from := m.state
	m.state = s
	return from
}
