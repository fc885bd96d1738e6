package model

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/taskmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModelScriptOrder(t *testing.T) {
	m := NewMockModel("test-model")
	m.Enqueue(Response{Content: "first"}).
		Enqueue(Response{Content: "second"})

	resp, err := m.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = m.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)
}

func TestMockModelScriptedError(t *testing.T) {
	m := NewMockModel("test-model")
	m.EnqueueError(ErrTokenLimit)

	resp, err := m.Generate(context.Background(), Request{})
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, ErrTokenLimit))
}

func TestMockModelExhaustedScript(t *testing.T) {
	m := NewMockModel("test-model")

	resp, err := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.UserMessage("hello there")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello there", resp.Content)
}

func TestMockModelRecordsRequests(t *testing.T) {
	m := NewMockModel("test-model")
	m.Enqueue(Response{Content: "ok"})

	req := Request{
		Messages:   []core.Message{core.UserMessage("task")},
		ToolChoice: ToolChoiceRequired,
	}
	_, err := m.Generate(context.Background(), req)
	require.NoError(t, err)

	recorded := m.Requests()
	require.Len(t, recorded, 1)
	assert.Equal(t, ToolChoiceRequired, recorded[0].ToolChoice)
}

func TestMockModelRespectsContext(t *testing.T) {
	m := NewMockModel("test-model")
	m.Enqueue(Response{Content: "never"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, Request{})
	assert.Error(t, err)
}

func TestMockModelInfo(t *testing.T) {
	m := NewMockModel("test-model")
	info := m.Info()
	assert.Equal(t, "test-model", info.Name)
	assert.Equal(t, "mock", info.Provider)
	assert.True(t, info.SupportsTools)
}
