package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renatogalera/agentchat/pkg/event"
)

func TestBuildMessagesGroupsConsecutiveRoles(t *testing.T) {
	msgs := BuildMessages([]HistoryEvent{
		{ID: "e1", Role: "user", Parts: []event.Part{{Text: "hi"}}},
		{ID: "e2", Role: "model", Parts: []event.Part{{Text: "Hello"}}},
		{ID: "e3", Role: "model", Parts: []event.Part{{Text: ", there"}}},
		{ID: "e4", Role: "user", Parts: []event.Part{{Text: "thanks"}}},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello, there", msgs[1].Content)
	assert.Equal(t, "thanks", msgs[2].Content)
}

func TestBuildMessagesMergesFunctionResponseIntoAssistant(t *testing.T) {
	msgs := BuildMessages([]HistoryEvent{
		{ID: "e1", Role: "user", Parts: []event.Part{{Text: "weather?"}}},
		{ID: "e2", Role: "model", Parts: []event.Part{
			{FunctionCall: &event.FunctionCall{Name: "get_weather"}},
		}},
		// Tool results sometimes come back labeled with the user role.
		{ID: "e3", Role: "user", Parts: []event.Part{
			{FunctionResponse: &event.FunctionResponse{Name: "get_weather"}},
		}},
		{ID: "e4", Role: "model", Parts: []event.Part{{Text: "It is cloudy."}}},
	})

	require.Len(t, msgs, 2)
	require.Len(t, msgs[1].FunctionCalls, 1)
	require.Len(t, msgs[1].FunctionResponses, 1)
	assert.Equal(t, "It is cloudy.", msgs[1].Content)
}

func TestBuildMessagesAccumulatesConsecutiveCalls(t *testing.T) {
	msgs := BuildMessages([]HistoryEvent{
		{Role: "model", Parts: []event.Part{{FunctionCall: &event.FunctionCall{Name: "get_weather"}}}},
		{Role: "model", Parts: []event.Part{{FunctionCall: &event.FunctionCall{Name: "get_current_time"}}}},
	})

	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].FunctionCalls, 2)
	assert.Equal(t, "get_weather", msgs[0].FunctionCalls[0].Name)
	assert.Equal(t, "get_current_time", msgs[0].FunctionCalls[1].Name)
}

func TestBuildMessagesSkipsThoughtParts(t *testing.T) {
	msgs := BuildMessages([]HistoryEvent{
		{Role: "model", Parts: []event.Part{
			{Text: "thinking about it", Thought: true},
			{Text: "The answer."},
		}},
	})

	require.Len(t, msgs, 1)
	assert.Equal(t, "The answer.", msgs[0].Content)
}

func TestBuildMessagesEmpty(t *testing.T) {
	assert.Empty(t, BuildMessages(nil))
}
