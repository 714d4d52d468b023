package sse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineFramerSplitsCompleteLines(t *testing.T) {
	var f LineFramer
	lines := f.Feed("a\nb\nc\n")
	assert.Equal(t, []string{"a", "b", "c"}, lines)
	_, ok := f.Flush()
	assert.False(t, ok)
}

func TestLineFramerRetainsPartialLine(t *testing.T) {
	var f LineFramer
	assert.Nil(t, f.Feed("data: {\"par"))
	lines := f.Feed("tial\"}\ndata: next")
	require.Len(t, lines, 1)
	assert.Equal(t, `data: {"partial"}`, lines[0])

	rest, ok := f.Flush()
	require.True(t, ok)
	assert.Equal(t, "data: next", rest)
}

func TestLineFramerKeepsCarriageReturns(t *testing.T) {
	var f LineFramer
	lines := f.Feed("data: hi\r\n\r\n")
	assert.Equal(t, []string{"data: hi\r", "\r"}, lines)
}

func TestLineFramerEmptyFeed(t *testing.T) {
	var f LineFramer
	assert.Nil(t, f.Feed(""))
	_, ok := f.Flush()
	assert.False(t, ok)
}

// Splitting the input at every possible byte boundary must reproduce the
// original stream once emitted lines are rejoined with "\n".
func TestLineFramerRoundTripAllBoundaries(t *testing.T) {
	stream := "first\nsecond line\n\ndata: {\"text\":\"héllo\"}\ntail"
	for cut := 0; cut <= len(stream); cut++ {
		var f LineFramer
		var lines []string
		lines = append(lines, f.Feed(stream[:cut])...)
		lines = append(lines, f.Feed(stream[cut:])...)

		joined := strings.Join(lines, "\n")
		if tail, ok := f.Flush(); ok {
			if joined != "" {
				joined += "\n"
			}
			joined += tail
		}
		require.Equal(t, stream, joined, "cut at byte %d", cut)
	}
}
