package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventAssemblerSingleDataLine(t *testing.T) {
	var a EventAssembler
	_, ok := a.Line(`data: {"v":1}`)
	assert.False(t, ok)

	payload, ok := a.Line("")
	require.True(t, ok)
	assert.Equal(t, `{"v":1}`, payload)
}

func TestEventAssemblerJoinsMultipleDataLines(t *testing.T) {
	var a EventAssembler
	a.Line("data: first")
	a.Line("data: second")
	a.Line("data:third")

	payload, ok := a.Line("")
	require.True(t, ok)
	assert.Equal(t, "first\nsecond\nthird", payload)
}

func TestEventAssemblerIgnoresCommentsAndUnknownFields(t *testing.T) {
	var a EventAssembler
	_, ok := a.Line(": keep-alive")
	assert.False(t, ok)
	_, ok = a.Line("event: message")
	assert.False(t, ok)
	_, ok = a.Line("id: 42")
	assert.False(t, ok)

	a.Line("data: body")
	payload, ok := a.Line("")
	require.True(t, ok)
	assert.Equal(t, "body", payload)
}

func TestEventAssemblerBlankLineWithoutPayload(t *testing.T) {
	var a EventAssembler
	_, ok := a.Line("")
	assert.False(t, ok)
	_, ok = a.Line("   ")
	assert.False(t, ok)
}

func TestEventAssemblerFlushEmitsUnterminatedEvent(t *testing.T) {
	var a EventAssembler
	a.Line("data: last event")
	payload, ok := a.Flush()
	require.True(t, ok)
	assert.Equal(t, "last event", payload)

	_, ok = a.Flush()
	assert.False(t, ok)
}

func TestEventAssemblerResetsBetweenEvents(t *testing.T) {
	var a EventAssembler
	a.Line("data: one")
	first, ok := a.Line("")
	require.True(t, ok)
	assert.Equal(t, "one", first)

	a.Line("data: two")
	second, ok := a.Line("")
	require.True(t, ok)
	assert.Equal(t, "two", second)
}
