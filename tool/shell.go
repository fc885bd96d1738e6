package tool

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/hupe1980/taskmesh/core"
)

// ShellOptions configure the shell tool.
type ShellOptions struct {
	// Timeout bounds a single command execution.
	Timeout time.Duration
	// Shell is the interpreter used to run commands.
	Shell string
	// WorkDir is the working directory for commands; empty means inherit.
	WorkDir string
}

// Shell executes commands through a system shell with a bounded timeout.
// Output and failure details are returned as observations rather than errors
// so the model can react to them.
type Shell struct {
	opts ShellOptions
}

// NewShell creates a shell tool with a 60 second default timeout.
func NewShell(optFns ...func(o *ShellOptions)) *Shell {
	opts := ShellOptions{
		Timeout: 60 * time.Second,
		Shell:   "/bin/sh",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Shell{opts: opts}
}

// Name implements Tool.
func (s *Shell) Name() string { return "shell" }

// Description implements Tool.
func (s *Shell) Description() string {
	return "Execute a shell command and return its combined output. Use for file inspection, running programs, and other system tasks."
}

// Parameters implements Tool.
func (s *Shell) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute.",
			},
		},
		"required": []string{"command"},
	}
}

// Execute implements Tool.
func (s *Shell) Execute(ctx context.Context, args map[string]any) (core.ToolResult, error) {
	command, ok := args["command"].(string)
	if !ok || strings.TrimSpace(command) == "" {
		return core.ToolResult{}, NewToolError(s.Name(), "command must be a non-empty string", "VALIDATION_ERROR")
	}

	runCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.opts.Shell, "-c", command)
	if s.opts.WorkDir != "" {
		cmd.Dir = s.opts.WorkDir
	}

	output, err := cmd.CombinedOutput()
	result := core.ToolResult{Output: strings.TrimRight(string(output), "\n")}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.Error = "command timed out after " + s.opts.Timeout.String()
	case err != nil:
		result.Error = err.Error()
	}

	return result, nil
}
