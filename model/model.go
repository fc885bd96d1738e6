package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/taskmesh/core"
)

// ErrTokenLimit is the distinguished failure mode signalled when the
// provider rejects or aborts a request because the token/context budget is
// exhausted. Callers detect it with errors.Is and treat it as terminal for
// the run; all other generation failures are generic.
var ErrTokenLimit = errors.New("token limit exceeded")

// ToolChoice controls whether the model may, must, or must not propose
// tool calls for a request.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide between free text and tool calls.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceRequired forces the model to propose at least one tool call.
	ToolChoiceRequired ToolChoice = "required"
	// ToolChoiceNone forbids tool calls; any proposed are discarded upstream.
	ToolChoiceNone ToolChoice = "none"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (draft agnostic, minimal subset
// expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by agents and flows:
// ordered message history, optional system messages, tool descriptors and
// the tool-choice policy.
type Request struct {
	Messages   []core.Message   `json:"messages"`
	SystemMsgs []core.Message   `json:"system_msgs,omitempty"`
	Tools      []ToolDefinition `json:"tools,omitempty"`
	ToolChoice ToolChoice       `json:"tool_choice,omitempty"`
}

// Response is the normalized model output: optional free-text content and
// zero or more proposed tool calls.
type Response struct {
	Content   string          `json:"content,omitempty"`
	ToolCalls []core.ToolCall `json:"tool_calls,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents and flows to drive
// generation. Generate blocks until the provider returns a complete
// response or fails.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a scriptable in-memory Model useful for tests and examples.
// Responses and errors are consumed in FIFO order; once the script is
// exhausted, Generate returns a canned text response.
type MockModel struct {
	info     Info
	script   []scriptEntry
	requests []Request
}

type scriptEntry struct {
	resp *Response
	err  error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsTools: true},
	}
}

// Enqueue registers the next response Generate will return.
func (m *MockModel) Enqueue(resp Response) *MockModel {
	m.script = append(m.script, scriptEntry{resp: &resp})
	return m
}

// EnqueueError registers the next error Generate will return.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.script = append(m.script, scriptEntry{err: err})
	return m
}

// Requests returns all requests received so far, in order.
func (m *MockModel) Requests() []Request { return m.requests }

// Generate implements Model, replaying the scripted responses.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		var lastText string
		if len(req.Messages) > 0 {
			lastText = req.Messages[len(req.Messages)-1].Content
		}
		return &Response{Content: fmt.Sprintf("Mock response to: %s", lastText)}, nil
	}

	next := m.script[0]
	m.script = m.script[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.resp, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
