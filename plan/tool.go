package plan

import (
	"context"
	"fmt"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/tool"
)

// ToolName is the name under which the plan store is exposed to models.
const ToolName = "planning"

const toolDescription = "A planning tool that allows the agent to create and manage plans for solving complex tasks. " +
	"The tool provides functionality for creating plans, updating plan steps, and tracking progress."

// Tool exposes a Store as a schema-described tool so a reasoning model can
// drive plan creation and progress tracking through function calls.
type Tool struct {
	store *Store
}

// NewTool wraps the given store as a tool.
func NewTool(store *Store) *Tool {
	return &Tool{store: store}
}

// Store returns the underlying plan store.
func (t *Tool) Store() *Store { return t.store }

// Name implements tool.Tool.
func (t *Tool) Name() string { return ToolName }

// Description implements tool.Tool.
func (t *Tool) Description() string { return toolDescription }

// Parameters implements tool.Tool.
func (t *Tool) Parameters() map[string]any { return toolParameters() }

// Definition returns the model tool descriptor for the planning tool without
// requiring a backing store, for callers that only expose the schema.
func Definition() model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        ToolName,
			Description: toolDescription,
			Parameters:  toolParameters(),
		},
	}
}

func toolParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"description": "The command to execute. Available commands: create, update, list, get, set_active, mark_step, delete.",
				"enum":        []string{"create", "update", "list", "get", "set_active", "mark_step", "delete"},
				"type":        "string",
			},
			"plan_id": map[string]any{
				"description": "Unique identifier for the plan. Required for create, update, set_active, and delete commands. Optional for get and mark_step (uses active plan if not specified).",
				"type":        "string",
			},
			"title": map[string]any{
				"description": "Title for the plan. Required for create command, optional for update command.",
				"type":        "string",
			},
			"steps": map[string]any{
				"description": "List of plan steps. Required for create command, optional for update command.",
				"type":        "array",
				"items":       map[string]any{"type": "string"},
			},
			"step_index": map[string]any{
				"description": "Index of the step to update (0-based). Required for mark_step command.",
				"type":        "integer",
			},
			"step_status": map[string]any{
				"description": "Status to set for a step. Used with mark_step command.",
				"enum":        []string{"not_started", "in_progress", "completed", "blocked"},
				"type":        "string",
			},
			"step_notes": map[string]any{
				"description": "Additional notes for a step. Optional for mark_step command.",
				"type":        "string",
			},
		},
		"required": []string{"command"},
	}
}

// Execute implements tool.Tool, dispatching the command to the store.
func (t *Tool) Execute(ctx context.Context, args map[string]any) (core.ToolResult, error) {
	command, _ := args["command"].(string)
	planID, _ := args["plan_id"].(string)
	title, _ := args["title"].(string)

	switch command {
	case "create":
		p, err := t.store.Create(planID, title, stringSlice(args["steps"]))
		if err != nil {
			return core.ToolResult{}, t.wrapErr(err)
		}
		return core.ToolResult{
			Output: fmt.Sprintf("Plan created successfully with ID: %s\n\n%s", p.ID, p.Format()),
		}, nil

	case "update":
		p, err := t.store.Update(planID, title, stringSlice(args["steps"]))
		if err != nil {
			return core.ToolResult{}, t.wrapErr(err)
		}
		return core.ToolResult{
			Output: fmt.Sprintf("Plan updated successfully: %s\n\n%s", p.ID, p.Format()),
		}, nil

	case "list":
		return core.ToolResult{Output: t.store.List()}, nil

	case "get":
		p, err := t.store.Get(planID)
		if err != nil {
			return core.ToolResult{}, t.wrapErr(err)
		}
		return core.ToolResult{Output: p.Format()}, nil

	case "set_active":
		if err := t.store.SetActive(planID); err != nil {
			return core.ToolResult{}, t.wrapErr(err)
		}
		text, err := t.store.Format(planID)
		if err != nil {
			return core.ToolResult{}, t.wrapErr(err)
		}
		return core.ToolResult{
			Output: fmt.Sprintf("Plan '%s' is now the active plan.\n\n%s", planID, text),
		}, nil

	case "mark_step":
		index, ok := intArg(args["step_index"])
		if !ok {
			return core.ToolResult{}, tool.NewToolError(ToolName, "parameter `step_index` is required for command: mark_step", "VALIDATION_ERROR")
		}
		status, _ := args["step_status"].(string)
		notes, _ := args["step_notes"].(string)

		p, err := t.store.MarkStep(planID, index, StepStatus(status), notes)
		if err != nil {
			return core.ToolResult{}, t.wrapErr(err)
		}
		return core.ToolResult{
			Output: fmt.Sprintf("Step %d updated in plan '%s'.\n\n%s", index, p.ID, p.Format()),
		}, nil

	case "delete":
		if err := t.store.Delete(planID); err != nil {
			return core.ToolResult{}, t.wrapErr(err)
		}
		return core.ToolResult{Output: fmt.Sprintf("Plan '%s' has been deleted.", planID)}, nil

	default:
		return core.ToolResult{}, tool.NewToolError(ToolName,
			fmt.Sprintf("unrecognized command: %s. Allowed commands are: create, update, list, get, set_active, mark_step, delete", command),
			"VALIDATION_ERROR")
	}
}

func (t *Tool) wrapErr(err error) error {
	return tool.NewToolError(ToolName, err.Error(), "EXECUTION_ERROR")
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

// intArg tolerates the float64 shape produced by JSON decoding.
func intArg(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
