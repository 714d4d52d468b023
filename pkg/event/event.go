// Package event interprets agent-server SSE payloads into typed events.
package event

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// FunctionCall is a tool invocation requested by the agent.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse is the result of an executed tool call.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

// Part is one element of an event's content, as sent on the wire.
type Part struct {
	Text             string            `json:"text,omitempty"`
	Thought          bool              `json:"thought,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Content groups the parts of one event under a role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// ParsedEvent is the classified view of one SSE frame. Thought parts are
// kept apart from text parts so "thinking" output never reaches the
// displayed message content.
type ParsedEvent struct {
	MessageID        string
	Agent            string
	TextParts        []string
	ThoughtParts     []string
	FunctionCall     *FunctionCall
	FunctionResponse *FunctionResponse
}

// IsEmpty reports whether the event carries nothing to apply.
func (e ParsedEvent) IsEmpty() bool {
	return e.MessageID == "" && e.Agent == "" &&
		len(e.TextParts) == 0 && len(e.ThoughtParts) == 0 &&
		e.FunctionCall == nil && e.FunctionResponse == nil
}

type wireEvent struct {
	ID      string  `json:"id"`
	Author  string  `json:"author"`
	Content Content `json:"content"`
}

// Interpret parses one event payload. A malformed frame yields an empty
// ParsedEvent and an error log entry; it never propagates a failure, so a
// single bad frame cannot kill the stream.
func Interpret(payload string) ParsedEvent {
	var we wireEvent
	if err := json.Unmarshal([]byte(payload), &we); err != nil {
		log.Error().Err(err).Int("payload_bytes", len(payload)).Msg("Skipping malformed stream event")
		return ParsedEvent{}
	}

	parsed := ParsedEvent{
		MessageID: we.ID,
		Agent:     we.Author,
	}
	for _, part := range we.Content.Parts {
		if part.Text != "" {
			if part.Thought {
				parsed.ThoughtParts = append(parsed.ThoughtParts, part.Text)
			} else {
				parsed.TextParts = append(parsed.TextParts, part.Text)
			}
		}
		// One call and one response per event; if the upstream ever packs
		// several into a single frame, the last one wins.
		if part.FunctionCall != nil {
			parsed.FunctionCall = part.FunctionCall
		}
		if part.FunctionResponse != nil {
			parsed.FunctionResponse = part.FunctionResponse
		}
	}
	return parsed
}
