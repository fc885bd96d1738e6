package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/taskmesh/core"
)

// TerminateName is the tool name agents treat as run-terminating by default.
const TerminateName = "terminate"

const terminateDescription = "Terminate the interaction when the request is met OR if the assistant cannot proceed further with the task. " +
	"When you have finished all the tasks, call this tool to end the work."

// Terminate is the designated special tool. Executing it signals the agent to
// transition into its terminal state; the status argument records whether the
// run concluded successfully.
type Terminate struct{}

// NewTerminate creates the terminate tool.
func NewTerminate() *Terminate { return &Terminate{} }

// Name implements Tool.
func (t *Terminate) Name() string { return TerminateName }

// Description implements Tool.
func (t *Terminate) Description() string { return terminateDescription }

// Parameters implements Tool.
func (t *Terminate) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type":        "string",
				"description": "The finish status of the interaction.",
				"enum":        []string{"success", "failure"},
			},
		},
		"required": []string{"status"},
	}
}

// Execute implements Tool. The state transition itself is performed by the
// dispatching agent's special-tool hook, not here.
func (t *Terminate) Execute(ctx context.Context, args map[string]any) (core.ToolResult, error) {
	status, _ := args["status"].(string)
	return core.ToolResult{
		Output: fmt.Sprintf("The interaction has been completed with status: %s", status),
	}, nil
}
