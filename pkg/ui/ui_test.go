package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renatogalera/agentchat/pkg/agentapi"
	"github.com/renatogalera/agentchat/pkg/event"
	"github.com/renatogalera/agentchat/pkg/session"
	"github.com/renatogalera/agentchat/pkg/stream"
)

func newTestModel(t *testing.T) (*Model, *session.Store) {
	t.Helper()
	store := session.NewStore()
	api := agentapi.NewClient("http://127.0.0.1:1", "sample_agent", "user")
	ctrl := stream.New(api, store)

	sess := session.Session{ID: "s1", Title: "Weather talk"}
	store.UpsertSession(sess)

	m := NewModel(store, ctrl, sess.ID)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(*Model), store
}

func TestRenderMessagesShowsRolesAndTools(t *testing.T) {
	m, store := newTestModel(t)

	store.AddMessage("s1", session.NewUserMessage("What is the weather in Paris?"))
	reply := session.NewPlaceholder()
	store.AddMessage("s1", reply)
	store.AppendFunctionCall("s1", reply.ID, event.FunctionCall{Name: "get_weather"})
	store.SetMessageContent("s1", reply.ID, "Sunny, 24C.")

	out := m.renderMessages()
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "What is the weather in Paris?")
	assert.Contains(t, out, "Assistant")
	assert.Contains(t, out, "get_weather")
	assert.Contains(t, out, "Sunny, 24C.")
}

func TestSendKeyStartsStreamingState(t *testing.T) {
	m, _ := newTestModel(t)
	m.textarea.SetValue("hello there")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(*Model)

	require.NotNil(t, cmd)
	assert.Equal(t, stateStreaming, m.state)
	assert.Empty(t, m.textarea.Value())
}

func TestEmptyInputIsNotSent(t *testing.T) {
	m, _ := newTestModel(t)
	m.textarea.SetValue("   ")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(*Model)

	assert.Nil(t, cmd)
	assert.Equal(t, stateComposing, m.state)
}

func TestQuitUnblocksStoreWaiter(t *testing.T) {
	m, store := newTestModel(t)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(*Model)
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)

	// The pending store waiter must return instead of blocking forever.
	assert.Nil(t, waitStoreCmd(m.updates)())

	// A store mutation after teardown must not reach the closed channel.
	assert.NotPanics(t, func() {
		store.SetError("late notification")
	})
}

func TestStreamDoneRestoresComposing(t *testing.T) {
	m, _ := newTestModel(t)
	m.state = stateStreaming
	m.streaming = true

	updated, _ := m.Update(streamDoneMsg{err: assert.AnError})
	m = updated.(*Model)

	assert.Equal(t, stateComposing, m.state)
	assert.False(t, m.streaming)
	assert.Contains(t, m.sendErr, assert.AnError.Error())
}
