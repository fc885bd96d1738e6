package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
)

// CreateCompletionOptions configure the completion tool.
type CreateCompletionOptions struct {
	// SystemPrompt is prepended to every completion request when set.
	SystemPrompt string
}

// CreateCompletion is a generation tool backed by a reasoning model. It lets
// a tool-calling agent delegate a focused text generation sub-task (summaries,
// rewrites, structured answers) to the model without polluting its own
// message history.
type CreateCompletion struct {
	model model.Model
	opts  CreateCompletionOptions
}

// NewCreateCompletion creates a completion tool backed by the given model.
func NewCreateCompletion(m model.Model, optFns ...func(o *CreateCompletionOptions)) *CreateCompletion {
	opts := CreateCompletionOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &CreateCompletion{model: m, opts: opts}
}

// Name implements Tool.
func (c *CreateCompletion) Name() string { return "create_chat_completion" }

// Description implements Tool.
func (c *CreateCompletion) Description() string {
	return "Generate a text completion for a prompt. Use to produce summaries, rewrites, or other standalone text output."
}

// Parameters implements Tool.
func (c *CreateCompletion) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "The prompt to generate a completion for.",
			},
		},
		"required": []string{"prompt"},
	}
}

// Execute implements Tool.
func (c *CreateCompletion) Execute(ctx context.Context, args map[string]any) (core.ToolResult, error) {
	prompt, ok := args["prompt"].(string)
	if !ok || prompt == "" {
		return core.ToolResult{}, NewToolError(c.Name(), "prompt must be a non-empty string", "VALIDATION_ERROR")
	}

	req := model.Request{Messages: []core.Message{core.UserMessage(prompt)}}
	if c.opts.SystemPrompt != "" {
		req.SystemMsgs = []core.Message{core.SystemMessage(c.opts.SystemPrompt)}
	}

	resp, err := c.model.Generate(ctx, req)
	if err != nil {
		return core.ToolResult{}, fmt.Errorf("completion failed: %w", err)
	}

	return core.ToolResult{Output: resp.Content}, nil
}
