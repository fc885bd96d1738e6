package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/plan"
	"github.com/hupe1980/taskmesh/prompt"
)

// StepExecutionRecord binds a concrete tool invocation to the plan step it
// was performed for. Step completion is derived from verified tool success,
// not from the model's self-report.
type StepExecutionRecord struct {
	StepIndex int
	ToolName  string
	Status    string // "pending" until the call executed, then "completed"
	Result    string
}

// PlanningAgentOptions configure a PlanningAgent.
type PlanningAgentOptions struct {
	ToolCallOptions

	// PlanID overrides the generated active plan id.
	PlanID string
	// Store overrides the plan store backing the planning tool.
	Store *plan.Store
}

// PlanningAgent is a tool-calling agent that creates a plan for the incoming
// request and tracks progress through it while executing steps.
type PlanningAgent struct {
	*ToolCallAgent

	store        *plan.Store
	activePlanID string
	stepPrompt   string

	tracker          map[string]*StepExecutionRecord
	currentStepIndex int
}

// NewPlanningAgent creates a planning agent with the planning and terminate
// tools registered.
func NewPlanningAgent(m model.Model, optFns ...func(o *PlanningAgentOptions)) *PlanningAgent {
	opts := PlanningAgentOptions{
		ToolCallOptions: ToolCallOptions{
			Options: Options{
				Name:         "planning",
				Description:  "an agent that creates and manages plans to solve tasks",
				SystemPrompt: prompt.PlanningSystem,
				MaxSteps:     20,
			},
			ToolChoice: model.ToolChoiceAuto,
		},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	store := opts.Store
	if store == nil {
		store = plan.NewStore()
	}

	planID := opts.PlanID
	if planID == "" {
		planID = fmt.Sprintf("plan_%d", time.Now().Unix())
	}

	// The combined plan-status prompt is assembled per cycle, so the base
	// agent carries no next-step prompt of its own.
	stepPrompt := opts.NextStepPrompt
	if stepPrompt == "" {
		stepPrompt = prompt.PlanningNextStep
	}
	opts.NextStepPrompt = ""
	opts.Tools = append(opts.Tools, plan.NewTool(store))

	a := &PlanningAgent{
		ToolCallAgent:    NewToolCallAgent(m, func(o *ToolCallOptions) { *o = opts.ToolCallOptions }),
		store:            store,
		activePlanID:     planID,
		stepPrompt:       stepPrompt,
		tracker:          make(map[string]*StepExecutionRecord),
		currentStepIndex: -1,
	}
	a.SetStepper(a)

	return a
}

// Store returns the plan store backing the agent's planning tool.
func (a *PlanningAgent) Store() *plan.Store { return a.store }

// ActivePlanID returns the id of the plan the agent is working on.
func (a *PlanningAgent) ActivePlanID() string { return a.activePlanID }

// Tracker returns the step execution records keyed by tool-call id.
func (a *PlanningAgent) Tracker() map[string]*StepExecutionRecord { return a.tracker }

// Run creates the initial plan from the request, then executes the regular
// ReAct loop.
func (a *PlanningAgent) Run(ctx context.Context, request string) (string, error) {
	if request != "" {
		if err := a.createInitialPlan(ctx, request); err != nil {
			return "", err
		}
	}
	return a.BaseAgent.Run(ctx, "")
}

// Think implements Stepper. It prefixes the cycle prompt with the rendered
// plan status, records which step the upcoming tool call serves, then defers
// to the tool-call think.
func (a *PlanningAgent) Think(ctx context.Context) (bool, error) {
	cyclePrompt := a.stepPrompt
	if text, err := a.planText(); err == nil {
		cyclePrompt = fmt.Sprintf("CURRENT PLAN STATUS:\n%s\n\n%s", text, a.stepPrompt)
	}
	a.Memory().Add(core.UserMessage(cyclePrompt))

	a.currentStepIndex = a.findCurrentStepIndex()

	shouldAct, err := a.ToolCallAgent.Think(ctx)
	if err != nil || !shouldAct {
		return shouldAct, err
	}

	// Associate the first non-planning, non-special call with the active
	// step so its completion can be verified in Act.
	if calls := a.ToolCalls(); len(calls) > 0 && a.currentStepIndex >= 0 {
		latest := calls[0]
		name := latest.Function.Name
		if name != plan.ToolName && !a.isSpecialTool(name) {
			a.tracker[latest.ID] = &StepExecutionRecord{
				StepIndex: a.currentStepIndex,
				ToolName:  name,
				Status:    "pending",
			}
		}
	}

	return shouldAct, nil
}

// Act implements Stepper. After dispatch it resolves the tracker entry for
// the executed call and marks the associated plan step completed.
func (a *PlanningAgent) Act(ctx context.Context) (string, error) {
	result, err := a.ToolCallAgent.Act(ctx)
	if err != nil {
		return "", err
	}

	if calls := a.ToolCalls(); len(calls) > 0 {
		latest := calls[0]
		if rec, ok := a.tracker[latest.ID]; ok {
			rec.Status = "completed"
			rec.Result = result
			a.updatePlanStatus(latest.ID)
		}
	}

	return result, nil
}

// planText renders the active plan.
func (a *PlanningAgent) planText() (string, error) {
	if a.activePlanID == "" {
		return "", fmt.Errorf("no active plan")
	}
	return a.store.Format(a.activePlanID)
}

// findCurrentStepIndex reads the plan's status array, marks the first active
// step in_progress, and returns its index. Returns -1 when the plan is
// missing or fully settled.
func (a *PlanningAgent) findCurrentStepIndex() int {
	p, err := a.store.Get(a.activePlanID)
	if err != nil {
		return -1
	}

	idx := p.NextActiveStep()
	if idx < 0 {
		return -1
	}

	if _, err := a.store.MarkStep(a.activePlanID, idx, plan.StatusInProgress, ""); err != nil {
		a.Logger().Warn("agent.plan.mark_in_progress_failed", "agent", a.Name(), "error", err.Error())
	}
	return idx
}

// updatePlanStatus marks the tracked step completed once its tool call has
// verifiably executed.
func (a *PlanningAgent) updatePlanStatus(toolCallID string) {
	rec, ok := a.tracker[toolCallID]
	if !ok || rec.Status != "completed" {
		return
	}

	if _, err := a.store.MarkStep(a.activePlanID, rec.StepIndex, plan.StatusCompleted, ""); err != nil {
		a.Logger().Warn("agent.plan.mark_completed_failed", "agent", a.Name(), "step_index", rec.StepIndex, "error", err.Error())
		return
	}
	a.Logger().Info("agent.plan.step_completed", "agent", a.Name(), "plan_id", a.activePlanID, "step_index", rec.StepIndex)
}

// createInitialPlan asks the model to create the plan through the planning
// tool. The plan id is forced to the agent's own id before dispatch.
func (a *PlanningAgent) createInitialPlan(ctx context.Context, request string) error {
	a.Logger().Info("agent.plan.create", "agent", a.Name(), "plan_id", a.activePlanID)

	userMsg := core.UserMessage(fmt.Sprintf(
		"Analyze the request and create a plan with ID %s: %s", a.activePlanID, request))
	a.Memory().Add(userMsg)

	req := model.Request{
		Messages:   []core.Message{userMsg},
		SystemMsgs: []core.Message{core.SystemMessage(a.SystemPrompt())},
		Tools:      a.Registry().Definitions(),
		ToolChoice: model.ToolChoiceAuto,
	}

	resp, err := a.Model().Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("plan creation failed: %w", err)
	}

	if len(resp.ToolCalls) > 0 {
		a.Memory().Add(core.FromToolCalls(resp.Content, resp.ToolCalls))
	} else {
		a.Memory().Add(core.AssistantMessage(resp.Content))
	}

	for _, call := range resp.ToolCalls {
		if call.Function.Name != plan.ToolName {
			continue
		}

		forced := forcePlanID(call, a.activePlanID)
		observation, _ := a.executeTool(ctx, forced)
		a.Memory().Add(core.ToolMessage(observation, call.Function.Name, call.ID, ""))
		return nil
	}

	a.Logger().Warn("agent.plan.not_created", "agent", a.Name())
	a.Memory().Add(core.AssistantMessage("Error: Parameter `plan_id` is required for command: create"))
	return nil
}

// forcePlanID rewrites the call's plan_id argument so the created plan lands
// under the agent's own id regardless of what the model chose.
func forcePlanID(call core.ToolCall, planID string) core.ToolCall {
	args := map[string]any{}
	if raw := call.Function.Arguments; raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return call
		}
	}
	args["plan_id"] = planID

	encoded, err := json.Marshal(args)
	if err != nil {
		return call
	}
	call.Function.Arguments = string(encoded)
	return call
}
