package session

import (
	"sync"

	"github.com/renatogalera/agentchat/pkg/event"
)

// Listener is notified after every store mutation. Renderers subscribe and
// re-read the state they care about; the store itself stays the single
// owner of session and message data.
type Listener func()

// Store is the owned, observable session/message state. Writes are
// last-writer-wins field updates keyed by message id; only one stream
// writes to a given message at a time, so no broader transaction is needed.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]Session
	messages   map[string][]Message
	agent      string
	processing bool
	lastError  string

	subMu     sync.Mutex
	nextSub   int
	listeners map[int]Listener
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		sessions:  make(map[string]Session),
		messages:  make(map[string][]Message),
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers a listener and returns its cancel function.
func (s *Store) Subscribe(l Listener) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.listeners, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.subMu.Unlock()
	for _, l := range ls {
		l()
	}
}

// UpsertSession inserts or replaces a session record.
func (s *Store) UpsertSession(sess Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.notify()
}

// RemoveSession drops a session and its messages.
func (s *Store) RemoveSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	delete(s.messages, id)
	s.mu.Unlock()
	s.notify()
}

// Session returns a session by id.
func (s *Store) Session(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Sessions returns all sessions, newest first.
func (s *Store) Sessions() []Session {
	s.mu.RLock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()
	SortSessions(out)
	return out
}

// SetMessages replaces a session's transcript, e.g. after history fetch.
func (s *Store) SetMessages(sessionID string, msgs []Message) {
	s.mu.Lock()
	s.messages[sessionID] = append([]Message(nil), msgs...)
	s.mu.Unlock()
	s.notify()
}

// AddMessage appends one message to a session's transcript.
func (s *Store) AddMessage(sessionID string, m Message) {
	s.mu.Lock()
	s.messages[sessionID] = append(s.messages[sessionID], m)
	s.mu.Unlock()
	s.notify()
}

// RemoveMessage deletes a message by id, used when a failed request tears
// down its assistant placeholder.
func (s *Store) RemoveMessage(sessionID, messageID string) {
	s.mu.Lock()
	msgs := s.messages[sessionID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			s.messages[sessionID] = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Messages returns a copy of a session's transcript.
func (s *Store) Messages(sessionID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.messages[sessionID]...)
}

// Message returns one message by id.
func (s *Store) Message(sessionID, messageID string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages[sessionID] {
		if m.ID == messageID {
			return m, true
		}
	}
	return Message{}, false
}

// SetMessageContent publishes the reconciled text of a streaming message.
func (s *Store) SetMessageContent(sessionID, messageID, content string) {
	s.update(sessionID, messageID, func(m *Message) { m.Content = content })
}

// SetMessageStreaming flips the streaming flag of a message.
func (s *Store) SetMessageStreaming(sessionID, messageID string, streaming bool) {
	s.update(sessionID, messageID, func(m *Message) { m.IsStreaming = streaming })
}

// AppendFunctionCall records a tool call requested during the stream.
func (s *Store) AppendFunctionCall(sessionID, messageID string, fc event.FunctionCall) {
	s.update(sessionID, messageID, func(m *Message) {
		m.FunctionCalls = append(m.FunctionCalls, fc)
	})
}

// AppendFunctionResponse records a completed tool call result.
func (s *Store) AppendFunctionResponse(sessionID, messageID string, fr event.FunctionResponse) {
	s.update(sessionID, messageID, func(m *Message) {
		m.FunctionResponses = append(m.FunctionResponses, fr)
	})
}

func (s *Store) update(sessionID, messageID string, fn func(*Message)) {
	s.mu.Lock()
	msgs := s.messages[sessionID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			fn(&msgs[i])
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// SetCurrentAgent records the agent currently answering; empty clears it.
func (s *Store) SetCurrentAgent(agent string) {
	s.mu.Lock()
	s.agent = agent
	s.mu.Unlock()
	s.notify()
}

// CurrentAgent returns the agent currently answering, if any.
func (s *Store) CurrentAgent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agent
}

// SetProcessingFunction flags an outstanding tool call.
func (s *Store) SetProcessingFunction(v bool) {
	s.mu.Lock()
	s.processing = v
	s.mu.Unlock()
	s.notify()
}

// ProcessingFunction reports whether a tool call is outstanding.
func (s *Store) ProcessingFunction() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processing
}

// SetError records the latest user-visible error; empty clears it.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
	s.notify()
}

// Err returns the latest user-visible error, if any.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}
