package plan

// StepStatus is the lifecycle state of a single plan step.
type StepStatus string

const (
	StatusNotStarted StepStatus = "not_started"
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
	StatusBlocked    StepStatus = "blocked"
)

// Valid reports whether s is one of the defined statuses.
func (s StepStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// Active reports whether a step with this status is still eligible for
// execution.
func (s StepStatus) Active() bool {
	return s == StatusNotStarted || s == StatusInProgress
}

// Glyph returns the rendering symbol for the status. The symbols are a
// compatibility contract with existing plan renderers and must not change.
func (s StepStatus) Glyph() string {
	switch s {
	case StatusInProgress:
		return "[→]"
	case StatusCompleted:
		return "[✓]"
	case StatusBlocked:
		return "[!]"
	default:
		return "[ ]"
	}
}
