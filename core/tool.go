package core

import "fmt"

// ToolCall is a function call request surfaced by the reasoning model.
// Unified across providers so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction describes the concrete function target of a tool call.
// Arguments is an opaque string expected to parse as a JSON object.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult captures the outcome of a tool invocation. A result is empty
// only if every field is empty.
type ToolResult struct {
	Output      string `json:"output,omitempty"`
	Error       string `json:"error,omitempty"`
	Base64Image string `json:"base64_image,omitempty"` // side-channel media, returned explicitly
	System      string `json:"system,omitempty"`       // note delivered back as a system message
}

// IsEmpty reports whether the result carries no output, error, media or
// system note.
func (r ToolResult) IsEmpty() bool {
	return r.Output == "" && r.Error == "" && r.Base64Image == "" && r.System == ""
}

// String renders the result for inclusion in an observation message.
// Errors take precedence over output.
func (r ToolResult) String() string {
	if r.Error != "" {
		return fmt.Sprintf("Error: %s", r.Error)
	}
	return r.Output
}

// Combine merges two results, concatenating text fields. Media attachments
// cannot be concatenated; combining two results that both carry media is an
// error.
func (r ToolResult) Combine(other ToolResult) (ToolResult, error) {
	if r.Base64Image != "" && other.Base64Image != "" {
		return ToolResult{}, fmt.Errorf("cannot combine tool results: both carry media")
	}
	combined := ToolResult{
		Output:      r.Output + other.Output,
		Error:       r.Error + other.Error,
		Base64Image: r.Base64Image,
		System:      r.System + other.System,
	}
	if combined.Base64Image == "" {
		combined.Base64Image = other.Base64Image
	}
	return combined, nil
}
