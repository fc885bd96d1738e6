package plan

import (
	"fmt"
	"strings"
)

// Plan is a titled, ordered list of steps with per-step statuses and notes.
// The Statuses and Notes slices always have the same length as Steps; callers
// mutating Steps must call normalize afterwards to restore the invariant.
type Plan struct {
	ID       string       `json:"plan_id"`
	Title    string       `json:"title"`
	Steps    []string     `json:"steps"`
	Statuses []StepStatus `json:"step_statuses"`
	Notes    []string     `json:"step_notes"`
}

// NewPlan creates a plan with all steps not started.
func NewPlan(id, title string, steps []string) *Plan {
	p := &Plan{
		ID:    id,
		Title: title,
		Steps: append([]string(nil), steps...),
	}
	p.normalize()
	return p
}

// normalize pads or trims Statuses and Notes to match the step count. New
// positions default to not_started with empty notes.
func (p *Plan) normalize() {
	n := len(p.Steps)
	for len(p.Statuses) < n {
		p.Statuses = append(p.Statuses, StatusNotStarted)
	}
	p.Statuses = p.Statuses[:n]
	for len(p.Notes) < n {
		p.Notes = append(p.Notes, "")
	}
	p.Notes = p.Notes[:n]
}

// Clone returns an independent deep copy.
func (p *Plan) Clone() *Plan {
	return &Plan{
		ID:       p.ID,
		Title:    p.Title,
		Steps:    append([]string(nil), p.Steps...),
		Statuses: append([]StepStatus(nil), p.Statuses...),
		Notes:    append([]string(nil), p.Notes...),
	}
}

// CountByStatus returns how many steps currently carry the given status.
func (p *Plan) CountByStatus(status StepStatus) int {
	count := 0
	for _, s := range p.Statuses {
		if s == status {
			count++
		}
	}
	return count
}

// NextActiveStep returns the index of the first step whose status is still
// active (not_started or in_progress), or -1 when every step is settled.
func (p *Plan) NextActiveStep() int {
	for i, s := range p.Statuses {
		if s.Active() {
			return i
		}
	}
	return -1
}

// Format renders the plan as human-readable text with a progress header and
// one glyph-prefixed line per step.
func (p *Plan) Format() string {
	var b strings.Builder

	header := fmt.Sprintf("Plan: %s (ID: %s)\n", p.Title, p.ID)
	b.WriteString(header)
	b.WriteString(strings.Repeat("=", len(header)) + "\n\n")

	total := len(p.Steps)
	completed := p.CountByStatus(StatusCompleted)
	inProgress := p.CountByStatus(StatusInProgress)
	blocked := p.CountByStatus(StatusBlocked)
	notStarted := p.CountByStatus(StatusNotStarted)

	b.WriteString(fmt.Sprintf("Progress: %d/%d steps completed ", completed, total))
	if total > 0 {
		b.WriteString(fmt.Sprintf("(%.1f%%)\n", float64(completed)/float64(total)*100))
	} else {
		b.WriteString("(0%)\n")
	}

	b.WriteString(fmt.Sprintf("Status: %d completed, %d in progress, %d blocked, %d not started\n\n",
		completed, inProgress, blocked, notStarted))
	b.WriteString("Steps:\n")

	for i, step := range p.Steps {
		b.WriteString(fmt.Sprintf("%d. %s %s\n", i, p.Statuses[i].Glyph(), step))
		if p.Notes[i] != "" {
			b.WriteString(fmt.Sprintf("   Notes: %s\n", p.Notes[i]))
		}
	}

	return b.String()
}
