package flow

import (
	"fmt"

	"github.com/hupe1980/taskmesh/model"
)

// FlowType identifies a flow implementation.
type FlowType string

// FlowTypePlanning is the plan-tracking orchestration flow.
const FlowTypePlanning FlowType = "planning"

// NewFlow constructs a flow of the given type over the supplied agents. The
// primary key names the agent used as the default executor and summary
// fallback.
func NewFlow(flowType FlowType, m model.Model, agents map[string]Executor, primaryKey string, optFns ...func(o *PlanningFlowOptions)) (Flow, error) {
	switch flowType {
	case FlowTypePlanning:
		return NewPlanningFlow(m, agents, primaryKey, optFns...)
	default:
		return nil, fmt.Errorf("unknown flow type: %s", flowType)
	}
}
