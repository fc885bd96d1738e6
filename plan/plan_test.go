package plan

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanPaddingInvariant(t *testing.T) {
	p := NewPlan("plan_1", "Test plan", []string{"one", "two", "three"})

	require.Len(t, p.Statuses, 3)
	require.Len(t, p.Notes, 3)
	for _, s := range p.Statuses {
		assert.Equal(t, StatusNotStarted, s)
	}

	// Growing the step list and renormalizing restores the invariant.
	p.Steps = append(p.Steps, "four")
	p.normalize()
	require.Len(t, p.Statuses, 4)
	require.Len(t, p.Notes, 4)
	assert.Equal(t, StatusNotStarted, p.Statuses[3])
}

func TestStepStatusGlyphs(t *testing.T) {
	tests := []struct {
		status StepStatus
		glyph  string
	}{
		{StatusNotStarted, "[ ]"},
		{StatusInProgress, "[→]"},
		{StatusCompleted, "[✓]"},
		{StatusBlocked, "[!]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.glyph, tt.status.Glyph())
	}
}

func TestPlanFormat(t *testing.T) {
	p := NewPlan("plan_1", "Demo", []string{"first", "second"})
	p.Statuses[0] = StatusCompleted
	p.Statuses[1] = StatusInProgress
	p.Notes[1] = "waiting on input"

	text := p.Format()

	assert.Contains(t, text, "Plan: Demo (ID: plan_1)")
	assert.Contains(t, text, "Progress: 1/2 steps completed (50.0%)")
	assert.Contains(t, text, "Status: 1 completed, 1 in progress, 0 blocked, 0 not started")
	assert.Contains(t, text, "0. [✓] first")
	assert.Contains(t, text, "1. [→] second")
	assert.Contains(t, text, "   Notes: waiting on input")
}

func TestPlanNextActiveStep(t *testing.T) {
	p := NewPlan("plan_1", "Demo", []string{"a", "b", "c"})
	assert.Equal(t, 0, p.NextActiveStep())

	p.Statuses[0] = StatusCompleted
	assert.Equal(t, 1, p.NextActiveStep())

	p.Statuses[1] = StatusBlocked
	assert.Equal(t, 2, p.NextActiveStep())

	p.Statuses[2] = StatusCompleted
	assert.Equal(t, -1, p.NextActiveStep())
}

func TestStoreCreateAndGet(t *testing.T) {
	s := NewStore()

	created, err := s.Create("plan_1", "Test", []string{"one", "two"})
	require.NoError(t, err)
	assert.Equal(t, "plan_1", created.ID)
	assert.Equal(t, "plan_1", s.ActiveID())

	// Empty id resolves to the active plan.
	got, err := s.Get("")
	require.NoError(t, err)
	assert.Equal(t, "plan_1", got.ID)

	_, err = s.Create("plan_1", "Dup", []string{"x"})
	assert.Error(t, err)
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore()
	_, err := s.Create("plan_1", "Test", []string{"one"})
	require.NoError(t, err)

	got, err := s.Get("plan_1")
	require.NoError(t, err)
	got.Statuses[0] = StatusCompleted

	again, err := s.Get("plan_1")
	require.NoError(t, err)
	assert.Equal(t, StatusNotStarted, again.Statuses[0])
}

func TestStoreUpdatePreservesStatuses(t *testing.T) {
	s := NewStore()
	_, err := s.Create("plan_1", "Test", []string{"keep", "replace"})
	require.NoError(t, err)

	_, err = s.MarkStep("plan_1", 0, StatusCompleted, "")
	require.NoError(t, err)

	updated, err := s.Update("plan_1", "", []string{"keep", "changed", "added"})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, updated.Statuses[0])
	assert.Equal(t, StatusNotStarted, updated.Statuses[1])
	assert.Equal(t, StatusNotStarted, updated.Statuses[2])
}

func TestStoreMarkStepValidation(t *testing.T) {
	s := NewStore()
	_, err := s.Create("plan_1", "Test", []string{"one"})
	require.NoError(t, err)

	_, err = s.MarkStep("plan_1", 5, StatusCompleted, "")
	assert.ErrorContains(t, err, "invalid step_index")

	_, err = s.MarkStep("plan_1", 0, StepStatus("bogus"), "")
	assert.ErrorContains(t, err, "invalid step_status")

	p, err := s.MarkStep("plan_1", 0, "", "just a note")
	require.NoError(t, err)
	assert.Equal(t, StatusNotStarted, p.Statuses[0])
	assert.Equal(t, "just a note", p.Notes[0])
}

func TestStoreMissingPlan(t *testing.T) {
	s := NewStore()

	_, err := s.Get("nope")
	assert.ErrorContains(t, err, "no plan found with ID: nope")

	_, err = s.Get("")
	assert.ErrorContains(t, err, "no active plan")
}

func TestStoreDeleteClearsActive(t *testing.T) {
	s := NewStore()
	_, err := s.Create("plan_1", "Test", []string{"one"})
	require.NoError(t, err)

	require.NoError(t, s.Delete("plan_1"))
	assert.Empty(t, s.ActiveID())
	assert.Error(t, s.Delete("plan_1"))
}

func TestToolCreateAndMarkStep(t *testing.T) {
	pt := NewTool(NewStore())
	ctx := context.Background()

	result, err := pt.Execute(ctx, map[string]any{
		"command": "create",
		"plan_id": "plan_1",
		"title":   "Demo",
		"steps":   []any{"one", "two"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Output, "Plan created successfully with ID: plan_1"))

	result, err = pt.Execute(ctx, map[string]any{
		"command":     "mark_step",
		"step_index":  float64(0),
		"step_status": "completed",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Output, "Step 0 updated in plan 'plan_1'.")
	assert.Contains(t, result.Output, "0. [✓] one")
}

func TestToolUnknownCommand(t *testing.T) {
	pt := NewTool(NewStore())

	_, err := pt.Execute(context.Background(), map[string]any{"command": "explode"})
	assert.ErrorContains(t, err, "unrecognized command")
}
