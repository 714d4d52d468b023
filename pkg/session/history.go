package session

import (
	"github.com/google/uuid"

	"github.com/renatogalera/agentchat/pkg/event"
)

// HistoryEvent is one recorded event of a fetched session, in arrival order.
type HistoryEvent struct {
	ID        string
	Author    string
	Timestamp float64
	Role      string
	Parts     []event.Part
}

// BuildMessages reconstructs a transcript from recorded session events.
//
// Consecutive events with the same role collapse into one message: text is
// concatenated, tool calls and responses accumulate in order. One exception:
// an event carrying only a function response, arriving right after an
// assistant message, always merges into that message; the upstream labels
// tool results inconsistently, but they belong to the assistant turn that
// requested them.
func BuildMessages(events []HistoryEvent) []Message {
	var msgs []Message

	for _, ev := range events {
		role := RoleModel
		if ev.Role == string(RoleUser) || ev.Author == string(RoleUser) {
			role = RoleUser
		}

		var text string
		var calls []event.FunctionCall
		var responses []event.FunctionResponse
		for _, part := range ev.Parts {
			if part.Thought {
				continue
			}
			text += part.Text
			if part.FunctionCall != nil {
				calls = append(calls, *part.FunctionCall)
			}
			if part.FunctionResponse != nil {
				responses = append(responses, *part.FunctionResponse)
			}
		}

		last := len(msgs) - 1
		responseOnly := text == "" && len(calls) == 0 && len(responses) > 0
		switch {
		case last >= 0 && responseOnly && msgs[last].Role == RoleModel:
			msgs[last].FunctionResponses = append(msgs[last].FunctionResponses, responses...)
		case last >= 0 && msgs[last].Role == role:
			msgs[last].Content += text
			msgs[last].FunctionCalls = append(msgs[last].FunctionCalls, calls...)
			msgs[last].FunctionResponses = append(msgs[last].FunctionResponses, responses...)
		default:
			id := ev.ID
			if id == "" {
				id = uuid.New().String()
			}
			msgs = append(msgs, Message{
				ID:                id,
				Timestamp:         NormalizeTimestamp(ev.Timestamp),
				Role:              role,
				Content:           text,
				FunctionCalls:     calls,
				FunctionResponses: responses,
			})
		}
	}
	return msgs
}
