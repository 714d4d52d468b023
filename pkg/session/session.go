// Package session holds the conversation data model and its owned store.
package session

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renatogalera/agentchat/pkg/event"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// millisCutoff is 2001-01-01T00:00:00Z expressed in milliseconds. Any
// upstream timestamp above it can only be milliseconds, not seconds.
const millisCutoff = 978307200000

// maxTitleLen bounds titles derived from the first user message.
const maxTitleLen = 48

// Session is one conversation owned by the client until deletion.
type Session struct {
	ID         string
	AppName    string
	UserID     string
	Title      string
	LastUpdate time.Time
}

// Message is one transcript entry. User messages are created complete;
// an assistant message starts as an empty placeholder and is mutated in
// place by stream events until IsStreaming is cleared.
type Message struct {
	ID                string
	Timestamp         time.Time
	Role              Role
	Content           string
	IsStreaming       bool
	FunctionCalls     []event.FunctionCall
	FunctionResponses []event.FunctionResponse
}

// HasContent reports whether the message carries anything renderable.
func (m *Message) HasContent() bool {
	return m.Content != "" || len(m.FunctionCalls) > 0 || len(m.FunctionResponses) > 0
}

// NewUserMessage builds a complete, immutable user message.
func NewUserMessage(text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Role:      RoleUser,
		Content:   text,
	}
}

// NewPlaceholder builds the empty assistant message created the instant a
// request is sent, before any stream content arrives.
func NewPlaceholder() Message {
	return Message{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		Role:        RoleModel,
		IsStreaming: true,
	}
}

// NormalizeTimestamp maps an upstream lastUpdateTime onto a time.Time.
// Absent, zero or negative values become the current time; values large
// enough to be milliseconds are scaled down to seconds.
func NormalizeTimestamp(v float64) time.Time {
	if v != v || v <= 0 {
		return time.Now()
	}
	if v > millisCutoff {
		v /= 1000
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// SortSessions orders sessions by normalized update time, newest first.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastUpdate.After(sessions[j].LastUpdate)
	})
}

// DeriveTitle produces a session title from its first user message.
func DeriveTitle(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = strings.TrimSpace(string(runes[:maxTitleLen])) + "…"
	}
	return title
}
