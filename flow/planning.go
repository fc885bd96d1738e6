package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/util"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/plan"
	"github.com/hupe1980/taskmesh/prompt"
)

// stepTypeRe extracts a bracketed category tag from a step's text, e.g.
// "[SEARCH] find the docs".
var stepTypeRe = regexp.MustCompile(`\[([A-Z_]+)\]`)

// PlanningFlowOptions configure a PlanningFlow.
type PlanningFlowOptions struct {
	// PlanID overrides the generated plan id.
	PlanID string
	// Store overrides the default in-memory plan store.
	Store PlanStore
	// ExecutorKeys restricts and orders which agents serve as step
	// executors. Defaults to all registered agent keys.
	ExecutorKeys []string
	Logger       logging.Logger
}

// PlanningFlow orchestrates plan-based task execution: create the plan, then
// select, route, and execute steps strictly sequentially until the plan is
// settled or an executor finishes the run.
type PlanningFlow struct {
	model        model.Model
	store        PlanStore
	agents       map[string]Executor
	agentKeys    []string
	primaryKey   string
	executorKeys []string
	activePlanID string
	logger       logging.Logger

	// Last successfully read plan, mutated directly when the store fails so
	// orchestration never stalls on store errors.
	cached *plan.Plan
	// Status writes the store rejected, replayed on the next successful
	// interaction until both sides converge.
	pending map[int]plan.StepStatus
}

// NewPlanningFlow creates a planning flow. The first agent key is the primary
// executor; agents keyed by a step's type tag take precedence for matching
// steps.
func NewPlanningFlow(m model.Model, agents map[string]Executor, primaryKey string, optFns ...func(o *PlanningFlowOptions)) (*PlanningFlow, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("at least one agent is required")
	}
	if _, ok := agents[primaryKey]; !ok {
		return nil, fmt.Errorf("primary agent %q not found", primaryKey)
	}

	opts := PlanningFlowOptions{
		PlanID: fmt.Sprintf("plan_%d", time.Now().Unix()),
		Logger: logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Store == nil {
		opts.Store = plan.NewStore()
	}

	keys := make([]string, 0, len(agents))
	for key := range agents {
		keys = append(keys, key)
	}

	executorKeys := opts.ExecutorKeys
	if len(executorKeys) == 0 {
		executorKeys = keys
	}

	return &PlanningFlow{
		model:        m,
		store:        opts.Store,
		agents:       agents,
		agentKeys:    keys,
		primaryKey:   primaryKey,
		executorKeys: executorKeys,
		activePlanID: opts.PlanID,
		logger:       opts.Logger,
		pending:      make(map[int]plan.StepStatus),
	}, nil
}

// PlanID returns the id of the plan this flow orchestrates.
func (f *PlanningFlow) PlanID() string { return f.activePlanID }

// Execute implements Flow.
func (f *PlanningFlow) Execute(ctx context.Context, input string) (string, error) {
	primary := f.agents[f.primaryKey]

	if input != "" {
		f.createInitialPlan(ctx, input)

		if _, err := f.store.Get(f.activePlanID); err != nil {
			f.logger.Error("flow.plan.create_failed", "plan_id", f.activePlanID, "error", err.Error())
			return fmt.Sprintf("Failed to create plan for: %s", input), nil
		}
	}

	var result strings.Builder
	for {
		index, stepText, stepType := f.nextStepInfo()
		if index < 0 {
			result.WriteString(f.finalizePlan(ctx, primary))
			break
		}

		executor := f.executorFor(stepType)
		stepResult := f.executeStep(ctx, executor, index, stepText)
		result.WriteString(stepResult + "\n")

		if executor.State() == core.StateFinished {
			break
		}
	}

	return result.String(), nil
}

// createInitialPlan asks the model to propose a plan through the planning
// tool schema; a deterministic default plan is created when it does not.
func (f *PlanningFlow) createInitialPlan(ctx context.Context, request string) {
	f.logger.Info("flow.plan.create", "plan_id", f.activePlanID)

	req := model.Request{
		Messages: []core.Message{core.UserMessage(
			fmt.Sprintf("Create a reasonable plan with clear steps to accomplish the task: %s", request))},
		SystemMsgs: []core.Message{core.SystemMessage(prompt.FlowPlanningSystem)},
		Tools:      []model.ToolDefinition{plan.Definition()},
		ToolChoice: model.ToolChoiceAuto,
	}

	resp, err := f.model.Generate(ctx, req)
	if err == nil && resp != nil {
		for _, call := range resp.ToolCalls {
			if call.Function.Name != plan.ToolName {
				continue
			}

			args := map[string]any{}
			if jsonErr := json.Unmarshal([]byte(call.Function.Arguments), &args); jsonErr != nil {
				f.logger.Error("flow.plan.bad_arguments", "arguments", call.Function.Arguments)
				continue
			}

			title, _ := args["title"].(string)
			steps := stringSlice(args["steps"])
			if title == "" || len(steps) == 0 {
				continue
			}

			// The plan id is forced to the flow's own id regardless of what
			// the model chose.
			if created, createErr := f.store.Create(f.activePlanID, title, steps); createErr == nil {
				f.cached = created.Clone()
				f.logger.Info("flow.plan.created", "plan_id", f.activePlanID, "steps", len(steps))
				return
			} else {
				f.logger.Warn("flow.plan.create_error", "error", createErr.Error())
			}
		}
	} else if err != nil {
		f.logger.Warn("flow.plan.model_error", "error", err.Error())
	}

	f.logger.Warn("flow.plan.default", "plan_id", f.activePlanID)

	title := fmt.Sprintf("Plan for: %s", request)
	if len(request) > 50 {
		title = fmt.Sprintf("Plan for: %s...", request[:50])
	}
	created, createErr := f.store.Create(f.activePlanID, title,
		[]string{"Analyze request", "Execute task", "Verify results"})
	if createErr != nil {
		f.logger.Error("flow.plan.default_failed", "error", createErr.Error())
		return
	}
	f.cached = created.Clone()
}

// nextStepInfo scans the step-status array in order and returns the first
// active step, marking it in_progress (a no-op when already so). Returns
// index -1 when every step is settled.
func (f *PlanningFlow) nextStepInfo() (index int, stepText, stepType string) {
	p, err := f.getPlan()
	if err != nil {
		f.logger.Error("flow.plan.missing", "plan_id", f.activePlanID, "error", err.Error())
		return -1, "", ""
	}

	index = p.NextActiveStep()
	if index < 0 {
		return -1, "", ""
	}

	stepText = p.Steps[index]
	if match := stepTypeRe.FindStringSubmatch(stepText); match != nil {
		stepType = strings.ToLower(match[1])
	}

	f.markStep(index, plan.StatusInProgress)

	return index, stepText, stepType
}

// executorFor routes a step to an agent: a type-tagged agent when present,
// otherwise the first configured executor key, otherwise the primary agent.
func (f *PlanningFlow) executorFor(stepType string) Executor {
	if stepType != "" {
		if a, ok := f.agents[stepType]; ok {
			return a
		}
	}
	for _, key := range f.executorKeys {
		if a, ok := f.agents[key]; ok {
			return a
		}
	}
	return f.agents[f.primaryKey]
}

// executeStep delegates a full independent run to the executor. Success marks
// the step completed; a failure is recorded as the step's result without a
// status change.
func (f *PlanningFlow) executeStep(ctx context.Context, executor Executor, index int, stepText string) string {
	planStatus := f.planText()

	stepPrompt, err := util.RenderTemplate(prompt.FlowStepTemplate, map[string]any{
		"PlanStatus": planStatus,
		"StepIndex":  index,
		"StepText":   stepText,
	})
	if err != nil {
		stepPrompt = fmt.Sprintf("CURRENT PLAN STATUS:\n%s\n\nYou are now working on step %d: %q", planStatus, index, stepText)
	}

	executor.Reset()

	result, err := executor.Run(ctx, stepPrompt)
	if err != nil {
		f.logger.Error("flow.step.failed", "plan_id", f.activePlanID, "step_index", index, "error", err.Error())
		return fmt.Sprintf("Error executing step %d: %v", index, err)
	}

	f.markStep(index, plan.StatusCompleted)
	f.logger.Info("flow.step.completed", "plan_id", f.activePlanID, "step_index", index)

	return result
}

// finalizePlan produces the completion summary: model first, primary agent
// as fallback, generic notice as last resort.
func (f *PlanningFlow) finalizePlan(ctx context.Context, primary Executor) string {
	planStatus := f.planText()

	summaryPrompt, err := util.RenderTemplate(prompt.FlowFinalizeTemplate, map[string]any{
		"PlanStatus": planStatus,
	})
	if err != nil {
		summaryPrompt = fmt.Sprintf("The plan has been completed. Here is the final plan status:\n\n%s\n\nPlease provide a summary of what was accomplished and any final thoughts.", planStatus)
	}

	resp, err := f.model.Generate(ctx, model.Request{
		Messages:   []core.Message{core.UserMessage(summaryPrompt)},
		SystemMsgs: []core.Message{core.SystemMessage(prompt.FlowFinalizeSystem)},
	})
	if err == nil && resp != nil {
		return fmt.Sprintf("Plan completed:\n\n%s", resp.Content)
	}
	if err != nil {
		f.logger.Warn("flow.finalize.model_failed", "error", err.Error())
	}

	primary.Reset()
	if summary, runErr := primary.Run(ctx, summaryPrompt); runErr == nil {
		return fmt.Sprintf("Plan completed:\n\n%s", summary)
	} else {
		f.logger.Error("flow.finalize.agent_failed", "error", runErr.Error())
	}

	return "Plan completed. Error generating summary."
}

// getPlan reads the plan from the store, refreshing the local cache. On store
// failure the cached snapshot keeps orchestration moving; pending fallback
// writes are replayed before the read so a recovered store is never read
// while it still lags the orchestrator's view.
func (f *PlanningFlow) getPlan() (*plan.Plan, error) {
	f.flushPending()

	p, err := f.store.Get(f.activePlanID)
	if err != nil {
		if f.cached != nil {
			f.logger.Warn("flow.plan.get_fallback", "plan_id", f.activePlanID, "error", err.Error())
			return f.cached.Clone(), nil
		}
		return nil, err
	}

	// Overlay writes the store still hasn't accepted so selection sees the
	// orchestrator's view of progress.
	for index, status := range f.pending {
		if index < len(p.Statuses) {
			p.Statuses[index] = status
		}
	}

	f.cached = p.Clone()
	return p, nil
}

// flushPending replays rejected status writes against the store, dropping the
// ones that now succeed.
func (f *PlanningFlow) flushPending() {
	for index, status := range f.pending {
		if _, err := f.store.MarkStep(f.activePlanID, index, status, ""); err == nil {
			delete(f.pending, index)
		}
	}
}

// planText renders the current plan for prompt embedding.
func (f *PlanningFlow) planText() string {
	p, err := f.getPlan()
	if err != nil {
		return fmt.Sprintf("Error: Unable to retrieve plan with ID %s", f.activePlanID)
	}
	return p.Format()
}

// markStep writes a step status to the store; when the store fails, the
// cached snapshot is mutated directly so the states converge on the next
// successful call.
func (f *PlanningFlow) markStep(index int, status plan.StepStatus) {
	if _, err := f.store.MarkStep(f.activePlanID, index, status, ""); err != nil {
		f.logger.Warn("flow.plan.mark_fallback", "plan_id", f.activePlanID, "step_index", index, "error", err.Error())

		f.pending[index] = status
		if f.cached != nil {
			for len(f.cached.Statuses) <= index {
				f.cached.Statuses = append(f.cached.Statuses, plan.StatusNotStarted)
			}
			f.cached.Statuses[index] = status
		}
		return
	}
	delete(f.pending, index)

	if p, err := f.store.Get(f.activePlanID); err == nil {
		f.cached = p.Clone()
	}
}

// stringSlice tolerates both []string and the []any shape produced by JSON
// decoding.
func stringSlice(v any) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
