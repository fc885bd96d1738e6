// Package flow implements orchestration over agents. The planning flow
// creates a plan for the incoming request, routes each step to an executor
// agent, tracks step completion in a plan store, and finalizes with a
// generated summary.
package flow

import (
	"context"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/plan"
)

// Flow executes a request end to end and returns the cumulative output.
type Flow interface {
	Execute(ctx context.Context, input string) (string, error)
}

// Executor is the agent surface the flow drives. A step delegates a full
// independent run to the executor; Reset returns it to IDLE so it can serve
// the next step.
type Executor interface {
	Name() string
	State() core.AgentState
	Run(ctx context.Context, request string) (string, error)
	Reset()
}

// PlanStore is the store surface the planning flow depends on. plan.Store is
// the in-memory reference implementation; external stores implement the same
// contract.
type PlanStore interface {
	Create(id, title string, steps []string) (*plan.Plan, error)
	Get(id string) (*plan.Plan, error)
	MarkStep(id string, stepIndex int, status plan.StepStatus, notes string) (*plan.Plan, error)
}
