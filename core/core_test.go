package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryOrdering(t *testing.T) {
	mem := NewMemory(0)
	mem.Add(UserMessage("first"))
	mem.Add(AssistantMessage("second"))
	mem.Add(ToolMessage("third", "shell", "call-1", ""))

	msgs := mem.Messages()
	assert.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, RoleTool, msgs[2].Role)
	assert.Equal(t, "call-1", msgs[2].ToolCallID)

	last, ok := mem.Last()
	assert.True(t, ok)
	assert.Equal(t, "third", last.Content)
}

func TestMemoryRetentionBound(t *testing.T) {
	mem := NewMemory(2)
	mem.AddAll(UserMessage("a"), UserMessage("b"), UserMessage("c"))

	msgs := mem.Messages()
	assert.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[0].Content)
	assert.Equal(t, "c", msgs[1].Content)
}

func TestMemoryMessagesReturnsCopy(t *testing.T) {
	mem := NewMemory(0)
	mem.Add(UserMessage("original"))

	msgs := mem.Messages()
	msgs[0].Content = "mutated"

	fresh := mem.Messages()
	assert.Equal(t, "original", fresh[0].Content)
}

func TestToolResultEmptiness(t *testing.T) {
	tests := []struct {
		name   string
		result ToolResult
		empty  bool
	}{
		{"all fields empty", ToolResult{}, true},
		{"output only", ToolResult{Output: "ok"}, false},
		{"error only", ToolResult{Error: "boom"}, false},
		{"media only", ToolResult{Base64Image: "aGk="}, false},
		{"system only", ToolResult{System: "note"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, tt.result.IsEmpty())
		})
	}
}

func TestToolResultString(t *testing.T) {
	assert.Equal(t, "hello", ToolResult{Output: "hello"}.String())
	assert.Equal(t, "Error: boom", ToolResult{Output: "hello", Error: "boom"}.String())
}

func TestToolResultCombine(t *testing.T) {
	a := ToolResult{Output: "foo", Base64Image: "img"}
	b := ToolResult{Output: "bar"}

	combined, err := a.Combine(b)
	assert.NoError(t, err)
	assert.Equal(t, "foobar", combined.Output)
	assert.Equal(t, "img", combined.Base64Image)

	_, err = a.Combine(ToolResult{Base64Image: "other"})
	assert.Error(t, err)
}

func TestAgentStateTerminal(t *testing.T) {
	assert.False(t, StateIdle.IsTerminal())
	assert.False(t, StateRunning.IsTerminal())
	assert.True(t, StateFinished.IsTerminal())
}
