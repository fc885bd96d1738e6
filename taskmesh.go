// Package taskmesh provides a high-level façade over the agent execution
// loop and the plan-tracking flow. Most applications interact with this
// package by:
//  1. Creating a TaskMesh via New() with a reasoning model
//  2. Registering tools the agents may call
//  3. Running a request directly (RunAgent) or through plan orchestration
//     (RunPlanned)
//
// The façade wires agents, the plan store, and the runner together while
// keeping setup concise. All defaults are safe for local development and
// testing.
package taskmesh

import (
	"context"
	"time"

	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/flow"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/runner"
	"github.com/hupe1980/taskmesh/tool"
)

// Options configures the TaskMesh instance.
type Options struct {
	// Tools are registered with every agent the façade creates, in addition
	// to the terminate tool.
	Tools []tool.Tool

	// MaxSteps bounds the ReAct loop of façade-created agents.
	MaxSteps int

	// Timeout bounds a single run end to end; zero means unbounded.
	Timeout time.Duration

	// Logger (defaults to a slog-backed logger if nil)
	Logger logging.Logger
}

// TaskMesh is the high-level façade aggregating model, tools, and flows.
type TaskMesh struct {
	model model.Model
	opts  Options
}

// New creates a TaskMesh around the given reasoning model.
func New(m model.Model, optFns ...func(o *Options)) *TaskMesh {
	opts := Options{
		MaxSteps: 30,
		Logger:   logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TaskMesh{model: m, opts: opts}
}

// NewAgent creates a tool-calling agent with the façade's tools registered.
func (t *TaskMesh) NewAgent(optFns ...func(o *agent.ToolCallOptions)) *agent.ToolCallAgent {
	base := func(o *agent.ToolCallOptions) {
		o.Tools = t.opts.Tools
		o.MaxSteps = t.opts.MaxSteps
		o.Logger = t.opts.Logger
	}
	return agent.NewToolCallAgent(t.model, append([]func(o *agent.ToolCallOptions){base}, optFns...)...)
}

// NewPlanningAgent creates a self-planning agent with the façade's tools
// registered.
func (t *TaskMesh) NewPlanningAgent(optFns ...func(o *agent.PlanningAgentOptions)) *agent.PlanningAgent {
	base := func(o *agent.PlanningAgentOptions) {
		o.Tools = t.opts.Tools
		o.MaxSteps = t.opts.MaxSteps
		o.Logger = t.opts.Logger
	}
	return agent.NewPlanningAgent(t.model, append([]func(o *agent.PlanningAgentOptions){base}, optFns...)...)
}

// RunAgent executes a single request with a fresh tool-calling agent.
func (t *TaskMesh) RunAgent(ctx context.Context, request string) (string, error) {
	a := t.NewAgent()

	r := runner.New(runner.AgentTarget{Agent: a}, func(o *runner.Options) {
		o.Timeout = t.opts.Timeout
	})

	result, err := r.Run(ctx, request)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}

// RunPlanned executes a request through the planning flow: a plan is created
// for the request and each step is delegated to a fresh executor agent.
func (t *TaskMesh) RunPlanned(ctx context.Context, request string) (string, error) {
	executor := t.NewAgent()

	f, err := flow.NewPlanningFlow(t.model, map[string]flow.Executor{"primary": executor}, "primary",
		func(o *flow.PlanningFlowOptions) { o.Logger = t.opts.Logger })
	if err != nil {
		return "", err
	}

	r := runner.New(f, func(o *runner.Options) {
		o.Timeout = t.opts.Timeout
	})

	result, err := r.Run(ctx, request)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}
