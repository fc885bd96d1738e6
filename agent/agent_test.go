package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/plan"
	"github.com/hupe1980/taskmesh/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietOptions(o *ToolCallOptions) {
	o.Logger = logging.NewNoOpLogger()
}

func callFor(id, name, args string) core.ToolCall {
	return core.ToolCall{
		ID:   id,
		Type: "function",
		Function: core.ToolCallFunction{
			Name:      name,
			Arguments: args,
		},
	}
}

func recorderTool(name string, log *[]string) tool.Tool {
	return tool.NewFunctionTool(
		name,
		"Record the invocation",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (core.ToolResult, error) {
			*log = append(*log, name)
			return core.ToolResult{Output: "done " + name}, nil
		},
	)
}

func TestRunTerminatesOnSpecialTool(t *testing.T) {
	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		Content:   "finishing up",
		ToolCalls: []core.ToolCall{callFor("call_1", "terminate", `{"status":"success"}`)},
	})

	a := NewToolCallAgent(m, quietOptions)

	result, err := a.Run(context.Background(), "do the thing")
	require.NoError(t, err)

	assert.Equal(t, core.StateFinished, a.State())
	assert.Contains(t, result, "The interaction has been completed with status: success")
	// The loop must not call think again after the terminal transition.
	assert.Len(t, m.Requests(), 1)
}

func TestUnknownToolBecomesErrorObservation(t *testing.T) {
	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{
			callFor("call_1", "frobnicate", `{}`),
			callFor("call_2", "terminate", `{"status":"success"}`),
		},
	})

	a := NewToolCallAgent(m, quietOptions)

	result, err := a.Run(context.Background(), "frobnicate please")
	require.NoError(t, err)
	assert.Contains(t, result, "Error: Unknown tool 'frobnicate'")
}

func TestInvalidArgumentsBecomeErrorObservation(t *testing.T) {
	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{
			callFor("call_1", "terminate", `not json`),
		},
	})

	a := NewToolCallAgent(m, quietOptions, func(o *ToolCallOptions) { o.MaxSteps = 1 })

	result, err := a.Run(context.Background(), "go")
	require.NoError(t, err)
	assert.Contains(t, result, "Error: Error parsing arguments for terminate: Invalid JSON format")
}

func TestMalformedCallBecomesErrorObservation(t *testing.T) {
	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{callFor("call_1", "", `{}`)},
	})

	a := NewToolCallAgent(m, quietOptions, func(o *ToolCallOptions) { o.MaxSteps = 1 })

	result, err := a.Run(context.Background(), "go")
	require.NoError(t, err)
	assert.Contains(t, result, "Error: Invalid command format")
}

func TestTokenLimitForcesFinished(t *testing.T) {
	m := model.NewMockModel("test")
	m.EnqueueError(fmt.Errorf("request rejected: %w", model.ErrTokenLimit))

	a := NewToolCallAgent(m, quietOptions)

	result, err := a.Run(context.Background(), "long request")
	require.NoError(t, err)

	assert.Equal(t, core.StateFinished, a.State())
	assert.Contains(t, result, "Thinking complete - no action needed")

	last, ok := a.Memory().Last()
	require.True(t, ok)
	assert.Equal(t, core.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "Maximum token limit reached, cannot continue execution:")
	assert.Contains(t, last.Content, "token limit")
}

func TestGenericModelFailurePropagates(t *testing.T) {
	m := model.NewMockModel("test")
	m.EnqueueError(errors.New("backend unavailable"))

	a := NewToolCallAgent(m, quietOptions)

	_, err := a.Run(context.Background(), "go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")
	assert.Equal(t, core.StateFinished, a.State())
}

func TestToolChoiceNoneDiscardsCalls(t *testing.T) {
	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		Content:   "I would use a tool here",
		ToolCalls: []core.ToolCall{callFor("call_1", "terminate", `{"status":"success"}`)},
	})

	a := NewToolCallAgent(m, quietOptions, func(o *ToolCallOptions) {
		o.ToolChoice = model.ToolChoiceNone
		o.MaxSteps = 1
	})

	_, err := a.Run(context.Background(), "chat only")
	require.NoError(t, err)

	// No tool-role message may appear; the content is kept as an assistant turn.
	for _, msg := range a.Memory().Messages() {
		assert.NotEqual(t, core.RoleTool, msg.Role)
	}
	assert.Equal(t, core.StateRunning, a.State())
}

func TestToolChoiceRequiredWithoutCallsFails(t *testing.T) {
	m := model.NewMockModel("test")
	m.Enqueue(model.Response{Content: "no tools for you"})

	a := NewToolCallAgent(m, quietOptions, func(o *ToolCallOptions) {
		o.ToolChoice = model.ToolChoiceRequired
	})

	_, err := a.Run(context.Background(), "go")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolCallsRequired))
}

func TestToolCallsExecuteInProposalOrder(t *testing.T) {
	var log []string

	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{
			callFor("call_1", "gamma", `{}`),
			callFor("call_2", "alpha", `{}`),
			callFor("call_3", "beta", `{}`),
			callFor("call_4", "terminate", `{"status":"success"}`),
		},
	})

	a := NewToolCallAgent(m, quietOptions, func(o *ToolCallOptions) {
		o.Tools = []tool.Tool{
			recorderTool("alpha", &log),
			recorderTool("beta", &log),
			recorderTool("gamma", &log),
		}
	})

	result, err := a.Run(context.Background(), "run them all")
	require.NoError(t, err)

	assert.Equal(t, []string{"gamma", "alpha", "beta"}, log)

	// Observations appear in the same order in the step result.
	gammaIdx := strings.Index(result, "done gamma")
	alphaIdx := strings.Index(result, "done alpha")
	betaIdx := strings.Index(result, "done beta")
	require.True(t, gammaIdx >= 0 && alphaIdx >= 0 && betaIdx >= 0)
	assert.Less(t, gammaIdx, alphaIdx)
	assert.Less(t, alphaIdx, betaIdx)
}

func TestMaxStepsDepletionLeavesStateUntouched(t *testing.T) {
	m := model.NewMockModel("test")
	// The exhausted script replies with plain content every cycle, so the
	// agent keeps thinking until the budget runs out.

	a := NewToolCallAgent(m, quietOptions, func(o *ToolCallOptions) {
		o.MaxSteps = 3
	})

	result, err := a.Run(context.Background(), "never finish")
	require.NoError(t, err)

	assert.Contains(t, result, "Terminated: Reached max steps (3)")
	assert.Equal(t, core.StateRunning, a.State())
	assert.Equal(t, 3, a.CurrentStep())
}

func TestMaxObserveTruncatesObservation(t *testing.T) {
	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{callFor("call_1", "terminate", `{"status":"success"}`)},
	})

	a := NewToolCallAgent(m, quietOptions, func(o *ToolCallOptions) {
		o.MaxObserve = 10
	})

	_, err := a.Run(context.Background(), "go")
	require.NoError(t, err)

	last, ok := a.Memory().Last()
	require.True(t, ok)
	assert.Equal(t, core.RoleTool, last.Role)
	assert.Len(t, last.Content, 10)
}

func TestSpecialToolCleanupHook(t *testing.T) {
	cleanedUp := false

	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{callFor("call_1", "terminate", `{"status":"success"}`)},
	})

	a := NewToolCallAgent(m, quietOptions, func(o *ToolCallOptions) {
		o.OnSpecialTool = func(ctx context.Context, name string, result core.ToolResult) {
			cleanedUp = true
		}
	})

	_, err := a.Run(context.Background(), "go")
	require.NoError(t, err)
	assert.True(t, cleanedUp)
}

func TestSpecialToolPredicateCanVeto(t *testing.T) {
	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{callFor("call_1", "terminate", `{"status":"failure"}`)},
	})

	a := NewToolCallAgent(m, quietOptions, func(o *ToolCallOptions) {
		o.MaxSteps = 1
		o.ShouldFinish = func(name string, result core.ToolResult) bool { return false }
	})

	_, err := a.Run(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, core.StateRunning, a.State())
}

func TestRunRejectsNonIdleState(t *testing.T) {
	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{callFor("call_1", "terminate", `{"status":"success"}`)},
	})

	a := NewToolCallAgent(m, quietOptions)

	_, err := a.Run(context.Background(), "first")
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot run agent from state")
}

func TestPlanningAgentCreatesPlanAndTracksSteps(t *testing.T) {
	var log []string

	m := model.NewMockModel("test")
	// Plan creation proposes the planning tool.
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{callFor("call_1", "planning",
			`{"command":"create","plan_id":"ignored","title":"Demo","steps":["Run the tool","Wrap up"]}`)},
	})
	// First cycle executes a work tool for step 0.
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{callFor("call_2", "worker", `{}`)},
	})
	// Second cycle terminates.
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{callFor("call_3", "terminate", `{"status":"success"}`)},
	})

	a := NewPlanningAgent(m, func(o *PlanningAgentOptions) {
		o.Logger = logging.NewNoOpLogger()
		o.PlanID = "plan_test"
		o.Tools = []tool.Tool{recorderTool("worker", &log)}
	})

	_, err := a.Run(context.Background(), "demo request")
	require.NoError(t, err)

	// The plan id is forced to the agent's own id.
	p, err := a.Store().Get("plan_test")
	require.NoError(t, err)
	require.Len(t, p.Steps, 2)

	// Step 0 was marked completed through the verified tool execution.
	assert.Equal(t, plan.StatusCompleted, p.Statuses[0])

	rec, ok := a.Tracker()["call_2"]
	require.True(t, ok)
	assert.Equal(t, 0, rec.StepIndex)
	assert.Equal(t, "worker", rec.ToolName)
	assert.Equal(t, "completed", rec.Status)
	assert.Contains(t, rec.Result, "done worker")
}

func TestPlanningAgentPrefixesPlanStatus(t *testing.T) {
	m := model.NewMockModel("test")
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{callFor("call_1", "planning",
			`{"command":"create","title":"Demo","steps":["Only step"]}`)},
	})
	m.Enqueue(model.Response{
		ToolCalls: []core.ToolCall{callFor("call_2", "terminate", `{"status":"success"}`)},
	})

	a := NewPlanningAgent(m, func(o *PlanningAgentOptions) {
		o.Logger = logging.NewNoOpLogger()
		o.PlanID = "plan_test"
	})

	_, err := a.Run(context.Background(), "demo request")
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 2)

	// The think cycle embeds the rendered plan status ahead of the step prompt.
	var sawStatus bool
	for _, msg := range reqs[1].Messages {
		if msg.Role == core.RoleUser && strings.Contains(msg.Content, "CURRENT PLAN STATUS:") {
			sawStatus = true
			assert.Contains(t, msg.Content, "Plan: Demo (ID: plan_test)")
		}
	}
	assert.True(t, sawStatus)
}
