package core

// AgentState tracks where an agent is in its lifecycle.
//
// There is no separate error-terminal state: an unrecoverable backend
// failure also forces StateFinished, with the failure surfaced through the
// message log.
type AgentState string

const (
	// StateIdle is the initial state; Run transitions it to StateRunning.
	StateIdle AgentState = "IDLE"
	// StateRunning is active think/act cycling.
	StateRunning AgentState = "RUNNING"
	// StateFinished is terminal, reached through a special tool, an
	// unrecoverable model failure, or normal completion.
	StateFinished AgentState = "FINISHED"
)

// IsTerminal reports whether no further steps will execute.
func (s AgentState) IsTerminal() bool { return s == StateFinished }

func (s AgentState) String() string { return string(s) }
