package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/prompt"
	"github.com/hupe1980/taskmesh/tool"
)

// ErrToolCallsRequired is returned by Act when the tool-choice policy is
// REQUIRED but the model proposed no tool calls.
var ErrToolCallsRequired = errors.New("tool calls required but none provided")

// ToolCallOptions configure a ToolCallAgent beyond the shared agent options.
type ToolCallOptions struct {
	Options

	// Tools are registered in addition to the terminate tool.
	Tools []tool.Tool
	// ToolChoice is the tool-choice policy sent to the model.
	ToolChoice model.ToolChoice
	// SpecialTools are tool names whose successful execution ends the run.
	// The terminate tool is always included.
	SpecialTools []string
	// MaxObserve truncates each observation to this many bytes when positive.
	MaxObserve int
	// ShouldFinish decides whether a special tool execution terminates the
	// run. Defaults to always true.
	ShouldFinish func(name string, result core.ToolResult) bool
	// OnSpecialTool runs before the terminal transition, for cleanup such as
	// releasing an external session.
	OnSpecialTool func(ctx context.Context, name string, result core.ToolResult)
}

// ToolCallAgent drives a reasoning model in a think/act cycle and dispatches
// the tool calls it proposes, strictly in proposal order.
type ToolCallAgent struct {
	*BaseAgent

	registry      *tool.Registry
	toolChoice    model.ToolChoice
	specialTools  []string
	maxObserve    int
	shouldFinish  func(name string, result core.ToolResult) bool
	onSpecialTool func(ctx context.Context, name string, result core.ToolResult)

	// Pending calls from the last think cycle, consumed by Act.
	toolCalls []core.ToolCall
}

// NewToolCallAgent creates a tool-calling agent. The terminate tool is always
// registered and always treated as special.
func NewToolCallAgent(m model.Model, optFns ...func(o *ToolCallOptions)) *ToolCallAgent {
	opts := ToolCallOptions{
		Options: Options{
			Name:           "toolcall",
			Description:    "an agent that can execute tool calls",
			SystemPrompt:   prompt.ToolCallSystem,
			NextStepPrompt: prompt.ToolCallNextStep,
			MaxSteps:       30,
		},
		ToolChoice: model.ToolChoiceAuto,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry(tool.NewTerminate())
	for _, t := range opts.Tools {
		registry.Register(t)
	}

	specials := []string{tool.TerminateName}
	for _, name := range opts.SpecialTools {
		if name != tool.TerminateName {
			specials = append(specials, name)
		}
	}

	shouldFinish := opts.ShouldFinish
	if shouldFinish == nil {
		shouldFinish = func(string, core.ToolResult) bool { return true }
	}

	a := &ToolCallAgent{
		BaseAgent:     NewBaseAgent(m, opts.Options),
		registry:      registry,
		toolChoice:    opts.ToolChoice,
		specialTools:  specials,
		maxObserve:    opts.MaxObserve,
		shouldFinish:  shouldFinish,
		onSpecialTool: opts.OnSpecialTool,
	}
	a.SetStepper(a)

	return a
}

// Registry returns the agent's tool registry.
func (a *ToolCallAgent) Registry() *tool.Registry { return a.registry }

// ToolCalls returns the calls proposed by the last think cycle.
func (a *ToolCallAgent) ToolCalls() []core.ToolCall { return a.toolCalls }

// Think implements Stepper. It queries the model with the message log, the
// tool descriptors, and the tool-choice policy, then decides whether Act
// should run.
func (a *ToolCallAgent) Think(ctx context.Context) (bool, error) {
	if p := a.NextStepPrompt(); p != "" {
		a.Memory().Add(core.UserMessage(p))
	}

	req := model.Request{
		Messages:   a.Memory().Messages(),
		Tools:      a.registry.Definitions(),
		ToolChoice: a.toolChoice,
	}
	if sp := a.SystemPrompt(); sp != "" {
		req.SystemMsgs = []core.Message{core.SystemMessage(sp)}
	}

	resp, err := a.Model().Generate(ctx, req)
	if err != nil {
		if errors.Is(err, model.ErrTokenLimit) {
			a.Logger().Error("agent.think.token_limit", "agent", a.Name(), "error", err.Error())
			a.Memory().Add(core.AssistantMessage(
				fmt.Sprintf("Maximum token limit reached, cannot continue execution: %v", err)))
			a.SetState(core.StateFinished)
			return false, nil
		}
		return false, err
	}

	a.toolCalls = resp.ToolCalls
	content := resp.Content

	a.Logger().Debug("agent.think", "agent", a.Name(), "content", content, "tool_calls", len(a.toolCalls))

	if a.toolChoice == model.ToolChoiceNone {
		if len(a.toolCalls) > 0 {
			a.Logger().Warn("agent.think.unexpected_tool_calls", "agent", a.Name(), "count", len(a.toolCalls))
			a.toolCalls = nil
		}
		if content != "" {
			a.Memory().Add(core.AssistantMessage(content))
			return true, nil
		}
		return false, nil
	}

	if len(a.toolCalls) > 0 {
		a.Memory().Add(core.FromToolCalls(content, a.toolCalls))
	} else {
		a.Memory().Add(core.AssistantMessage(content))
	}

	if a.toolChoice == model.ToolChoiceRequired && len(a.toolCalls) == 0 {
		return true, nil // Act surfaces the error
	}
	if a.toolChoice == model.ToolChoiceAuto && len(a.toolCalls) == 0 {
		return content != "", nil
	}

	return len(a.toolCalls) > 0, nil
}

// Act implements Stepper. It executes the pending tool calls in proposal
// order, appending one tool-role message per call.
func (a *ToolCallAgent) Act(ctx context.Context) (string, error) {
	if len(a.toolCalls) == 0 {
		if a.toolChoice == model.ToolChoiceRequired {
			return "", ErrToolCallsRequired
		}
		if last, ok := a.Memory().Last(); ok && last.Content != "" {
			return last.Content, nil
		}
		return "No content or commands to execute", nil
	}

	var results []string
	for _, call := range a.toolCalls {
		observation, media := a.executeTool(ctx, call)

		if a.maxObserve > 0 && len(observation) > a.maxObserve {
			observation = observation[:a.maxObserve]
		}

		a.Logger().Info("agent.tool.completed", "agent", a.Name(), "tool", call.Function.Name, "result", observation)

		a.Memory().Add(core.ToolMessage(observation, call.Function.Name, call.ID, media))
		results = append(results, observation)
	}

	return strings.Join(results, "\n\n"), nil
}

// executeTool runs a single tool call and formats the observation. Failures
// become error observations rather than returned errors; side-channel media
// is returned alongside the observation for the tool-role message.
func (a *ToolCallAgent) executeTool(ctx context.Context, call core.ToolCall) (observation, media string) {
	name := call.Function.Name
	if name == "" {
		return "Error: Invalid command format", ""
	}

	t, ok := a.registry.Get(name)
	if !ok {
		return fmt.Sprintf("Error: Unknown tool '%s'", name), ""
	}

	args := map[string]any{}
	if raw := call.Function.Arguments; raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			a.Logger().Error("agent.tool.bad_arguments", "agent", a.Name(), "tool", name, "arguments", raw)
			return fmt.Sprintf("Error: Error parsing arguments for %s: Invalid JSON format", name), ""
		}
	}

	a.Logger().Debug("agent.tool.execute", "agent", a.Name(), "tool", name)

	result, err := t.Execute(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error: Tool '%s' encountered a problem: %v", name, err), ""
	}

	a.handleSpecialTool(ctx, name, result)

	if result.IsEmpty() {
		return fmt.Sprintf("Cmd `%s` completed with no output", name), result.Base64Image
	}
	return fmt.Sprintf("Observed output of cmd `%s` executed:\n%s", name, result.String()), result.Base64Image
}

// handleSpecialTool transitions the agent to FINISHED when a special tool has
// executed and the finish predicate confirms termination.
func (a *ToolCallAgent) handleSpecialTool(ctx context.Context, name string, result core.ToolResult) {
	if !a.isSpecialTool(name) {
		return
	}

	if a.shouldFinish(name, result) {
		if a.onSpecialTool != nil {
			a.onSpecialTool(ctx, name, result)
		}
		a.Logger().Info("agent.special_tool", "agent", a.Name(), "tool", name)
		a.SetState(core.StateFinished)
	}
}

func (a *ToolCallAgent) isSpecialTool(name string) bool {
	for _, n := range a.specialTools {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
