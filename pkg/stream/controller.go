// Package stream owns the in-flight request to the agent server and folds
// its SSE events into the session store.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/renatogalera/agentchat/pkg/agentapi"
	"github.com/renatogalera/agentchat/pkg/event"
	"github.com/renatogalera/agentchat/pkg/reconcile"
	"github.com/renatogalera/agentchat/pkg/session"
	"github.com/renatogalera/agentchat/pkg/sse"
)

// State is the lifecycle of one send.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateStreaming
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy rejects a send while another request is in flight. Sends are
	// never queued; the caller retries once the stream settles.
	ErrBusy = errors.New("a request is already in flight")
	// ErrNotReady rejects a send before a session id exists.
	ErrNotReady = errors.New("session is not ready")
	// ErrEmptyMessage rejects a send with nothing to say.
	ErrEmptyMessage = errors.New("message is empty")
)

const readBufferSize = 4 * 1024

// DeltaFunc receives every accepted content update for a streaming message:
// the full reconciled content and the tail that was not shown before.
type DeltaFunc func(messageID, content, delta string)

// Controller drives at most one stream at a time. It issues the request,
// pushes response bytes through framing, assembly, interpretation and
// reconciliation, and applies the results to the store.
type Controller struct {
	api     *agentapi.Client
	store   *session.Store
	timeout time.Duration
	onDelta DeltaFunc
	differ  *diffmatchpatch.DiffMatchPatch

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds the whole request/stream; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithDeltaFunc registers a render hook for accepted content updates.
func WithDeltaFunc(fn DeltaFunc) Option {
	return func(c *Controller) { c.onDelta = fn }
}

// New builds a Controller bound to one API client and one store.
func New(api *agentapi.Client, store *session.Store, opts ...Option) *Controller {
	c := &Controller{
		api:     api,
		store:   store,
		timeout: 5 * time.Minute,
		differ:  diffmatchpatch.New(),
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a request is outstanding.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Cancel aborts the outstanding request, if any. The stream winds down as a
// clean stop: partial content is kept and no error is recorded.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Send posts one user message and blocks until the answer stream settles.
// It returns nil for both completion and cancellation; transport and read
// failures come back as errors after the placeholder teardown ran.
func (c *Controller) Send(ctx context.Context, sessionID, text string) error {
	if sessionID == "" {
		return ErrNotReady
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	runCtx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer c.end()

	c.store.SetError("")
	c.store.AddMessage(sessionID, session.NewUserMessage(text))
	c.touchSession(sessionID, text)

	placeholder := session.NewPlaceholder()
	c.store.AddMessage(sessionID, placeholder)

	log.Debug().
		Str("session_id", sessionID).
		Int("message_length", len(text)).
		Msg("Sending message")

	resp, err := c.api.RunSSE(runCtx, sessionID, text)
	if err != nil {
		if errors.Is(runCtx.Err(), context.Canceled) {
			c.conclude(sessionID, placeholder.ID, StateCancelled, nil)
			return nil
		}
		c.conclude(sessionID, placeholder.ID, StateFailed, err)
		return fmt.Errorf("run request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("Failed to close stream body")
		}
	}()

	c.setState(StateStreaming)
	streamErr := c.consume(runCtx, resp.Body, sessionID, placeholder.ID)
	switch {
	case streamErr == nil:
		c.conclude(sessionID, placeholder.ID, StateCompleted, nil)
		return nil
	case errors.Is(streamErr, context.Canceled):
		c.conclude(sessionID, placeholder.ID, StateCancelled, nil)
		return nil
	default:
		c.conclude(sessionID, placeholder.ID, StateFailed, streamErr)
		return fmt.Errorf("read stream: %w", streamErr)
	}
}

// consume runs the read loop: response bytes → lines → event payloads →
// parsed events → store mutations. All per-event state lives here and is
// discarded when the loop returns.
func (c *Controller) consume(ctx context.Context, body io.Reader, sessionID, messageID string) error {
	var (
		framer      sse.LineFramer
		assembler   sse.EventAssembler
		accumulated string
	)

	dispatch := func(payload string) {
		c.apply(sessionID, messageID, event.Interpret(payload), &accumulated)
	}

	buf := make([]byte, readBufferSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range framer.Feed(string(buf[:n])) {
				if payload, ok := assembler.Line(line); ok {
					dispatch(payload)
				}
			}
		}
		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			if line, ok := framer.Flush(); ok {
				if payload, ok := assembler.Line(line); ok {
					dispatch(payload)
				}
			}
			if payload, ok := assembler.Flush(); ok {
				dispatch(payload)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return readErr
	}
}

// apply folds one parsed event into the message and session state.
func (c *Controller) apply(sessionID, messageID string, ev event.ParsedEvent, accumulated *string) {
	if ev.Agent != "" {
		c.store.SetCurrentAgent(ev.Agent)
	}
	if ev.FunctionCall != nil {
		c.store.AppendFunctionCall(sessionID, messageID, *ev.FunctionCall)
		c.store.SetProcessingFunction(true)
		log.Debug().Str("function", ev.FunctionCall.Name).Msg("Agent requested function call")
	}
	if ev.FunctionResponse != nil {
		c.store.AppendFunctionResponse(sessionID, messageID, *ev.FunctionResponse)
		c.store.SetProcessingFunction(false)
	}

	if len(ev.TextParts) == 0 {
		return
	}
	next := reconcile.Reconcile(*accumulated, ev.TextParts)
	if next == *accumulated {
		return
	}

	// Even when the upstream resends a whole-message superset, renderers
	// only need the tail beyond the common prefix: no flicker on replace.
	prefix := c.differ.DiffCommonPrefix(*accumulated, next)
	delta := string([]rune(next)[prefix:])

	*accumulated = next
	c.store.SetMessageContent(sessionID, messageID, next)
	if c.onDelta != nil {
		c.onDelta(messageID, next, delta)
	}
}

// conclude applies the terminal side effects. Completion and cancellation
// keep the message with whatever was reconciled; failure removes the
// placeholder entirely and surfaces the cause.
func (c *Controller) conclude(sessionID, messageID string, final State, cause error) {
	c.store.SetCurrentAgent("")
	c.store.SetProcessingFunction(false)

	switch final {
	case StateFailed:
		c.store.RemoveMessage(sessionID, messageID)
		c.store.SetError(cause.Error())
		log.Error().Err(cause).Str("session_id", sessionID).Msg("Stream failed")
	case StateCancelled:
		c.store.SetMessageStreaming(sessionID, messageID, false)
		log.Debug().Str("session_id", sessionID).Msg("Stream cancelled")
	default:
		c.store.SetMessageStreaming(sessionID, messageID, false)
		log.Debug().Str("session_id", sessionID).Msg("Stream completed")
	}
	c.setState(final)
}

func (c *Controller) begin(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil, ErrBusy
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	c.cancel = cancel
	c.state = StateRequesting
	return runCtx, nil
}

func (c *Controller) end() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) touchSession(sessionID, text string) {
	sess, ok := c.store.Session(sessionID)
	if !ok {
		sess = session.Session{ID: sessionID}
	}
	if sess.Title == "" {
		sess.Title = session.DeriveTitle(text)
	}
	sess.LastUpdate = time.Now()
	c.store.UpsertSession(sess)
}
