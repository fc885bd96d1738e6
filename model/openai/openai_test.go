package openai

import (
	"testing"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessagesKeepsAssistantContentWithToolCalls(t *testing.T) {
	call := core.ToolCall{
		ID:       "call_1",
		Type:     "function",
		Function: core.ToolCallFunction{Name: "shell", Arguments: `{"command":"ls"}`},
	}

	req := model.Request{
		Messages: []core.Message{
			core.UserMessage("list the files"),
			core.FromToolCalls("I'll list the directory first.", []core.ToolCall{call}),
			core.ToolMessage("files.txt", "shell", "call_1", ""),
		},
	}

	messages := buildMessages(req)
	require.Len(t, messages, 3)

	assistant := messages[1].OfAssistant
	require.NotNil(t, assistant)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)
	// The model's own reasoning text survives the history round trip.
	assert.Equal(t, "I'll list the directory first.", assistant.Content.OfString.Value)
}
